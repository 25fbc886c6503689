// Package controlplane is a read-only observability surface over a
// running agent process: pool coordinator state, reveal-manager pending
// counts, and executor statistics. Grounded on the reference's
// internal/controlplane/server gin wiring (gin.New + gin.Recovery,
// grouped routes, JSON responses) but scoped down to read-only endpoints
// per SPEC_FULL.md §10 — this repository has no bot/account/job
// management surface to expose.
package controlplane

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/coordinator"
	"github.com/Belloabraham121/privbatch/internal/executor"
	"github.com/Belloabraham121/privbatch/internal/historystore"
	"github.com/Belloabraham121/privbatch/internal/metrics"
	"github.com/Belloabraham121/privbatch/internal/reveal"
)

var log = logrus.WithField("component", "controlplane")

// PoolRegistry exposes the pool ids this process monitors, so the
// /pools endpoint can enumerate them without executor internals leaking
// out.
type PoolRegistry interface {
	PoolIDs() [][32]byte
}

type Server struct {
	coord   *coordinator.Coordinator
	reveals *reveal.Manager
	exec    *executor.Executor
	pools   PoolRegistry
}

func New(coord *coordinator.Coordinator, reveals *reveal.Manager, exec *executor.Executor, pools PoolRegistry) *Server {
	return &Server{coord: coord, reveals: reveals, exec: exec, pools: pools}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/pools", s.handlePoolsList)
	api.GET("/pools/:poolID", s.handlePoolState)
	api.GET("/pools/:poolID/reveals", s.handlePoolReveals)
	api.GET("/executor/stats", s.handleExecutorStats)

	r.Any("/debug/*path", gin.WrapH(metrics.Handler()))

	return r
}

func (s *Server) handlePoolsList(c *gin.Context) {
	ids := s.pools.PoolIDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, hexID(id))
	}
	c.JSON(http.StatusOK, gin.H{"pools": out})
}

func (s *Server) handlePoolState(c *gin.Context) {
	id, ok := parsePoolID(c.Param("poolID"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	state := s.coord.GetState(id)
	c.JSON(http.StatusOK, gin.H{
		"state":                     state.State,
		"total_ready":               state.TotalReady,
		"ready_agents":              state.ReadyAgents,
		"quorum_met":                state.QuorumMet,
		"countdown_active":          state.CountdownActive,
		"total_pending_commitments": state.TotalPendingCommitments,
		"countdown_deadline_ms":     state.CountdownDeadlineMs,
	})
}

func (s *Server) handlePoolReveals(c *gin.Context) {
	id, ok := parsePoolID(c.Param("poolID"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	pending := s.reveals.GetRevealsForPool(id)
	submitted := s.reveals.GetSubmittedHashesForPool(id)
	c.JSON(http.StatusOK, gin.H{
		"pending_count":   len(pending),
		"submitted_count": len(submitted),
	})
}

func (s *Server) handleExecutorStats(c *gin.Context) {
	stats, err := s.exec.GetStats()
	if err != nil {
		log.WithError(err).Warn("get_stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, statsPayload(stats))
}

func statsPayload(stats historystore.Stats) gin.H {
	return gin.H{
		"total_batches":      stats.TotalBatches,
		"successful_batches": stats.SuccessfulBatches,
		"failed_batches":     stats.FailedBatches,
		"total_swaps":        stats.TotalSwaps,
		"average_gas_used":   stats.AverageGasUsed,
	}
}

func hexID(id [32]byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 2+len(id)*2)
	out[0], out[1] = '0', 'x'
	for i, b := range id {
		out[2+i*2] = hextable[b>>4]
		out[2+i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

func parsePoolID(s string) ([32]byte, bool) {
	var id [32]byte
	if len(s) != 66 || s[0] != '0' || s[1] != 'x' { // "0x" + 64 hex chars
		return id, false
	}
	for i := 0; i < 32; i++ {
		hi, ok1 := hexDigit(s[2+i*2])
		lo, ok2 := hexDigit(s[2+i*2+1])
		if !ok1 || !ok2 {
			return id, false
		}
		id[i] = hi<<4 | lo
	}
	return id, true
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
