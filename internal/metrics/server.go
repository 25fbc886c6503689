package metrics

import (
	"expvar"
	"net/http"
	"net/http/pprof"
)

// Handler returns the /debug/vars and /debug/pprof mux, mounted by the
// control-plane server rather than run as a standalone listener —
// operators already have one HTTP surface per process.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
