package syncgroup

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncGroup_RunsAllQueuedFunctions(t *testing.T) {
	var count atomic.Int64
	g := New()
	for i := 0; i < 20; i++ {
		g.Add(func() { count.Add(1) })
	}
	g.Run()
	g.Wait()

	assert.EqualValues(t, 20, count.Load())
}

func TestSyncGroup_NilFuncIsIgnored(t *testing.T) {
	g := New()
	g.Add(nil)
	g.Add(func() {})
	assert.NotPanics(t, func() {
		g.Run()
		g.Wait()
	})
}

func TestSyncGroup_EmptyGroupReturnsImmediately(t *testing.T) {
	g := New()
	g.Run()
	g.Wait()
}

func TestSyncGroup_ReusableAfterRun(t *testing.T) {
	var firstBatch, secondBatch atomic.Int64
	g := New()
	g.Add(func() { firstBatch.Add(1) })
	g.Run()
	g.Wait()

	g.Add(func() { secondBatch.Add(1) })
	g.Run()
	g.Wait()

	assert.EqualValues(t, 1, firstBatch.Load())
	assert.EqualValues(t, 1, secondBatch.Load())
}
