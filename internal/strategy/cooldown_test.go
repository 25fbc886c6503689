package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownTracker_NotActiveBeforeFirstTrade(t *testing.T) {
	c := NewCooldownTracker()
	var poolID [32]byte
	poolID[0] = 1

	assert.False(t, c.IsCooldownActive(poolID, time.Minute, time.Now()))
}

func TestCooldownTracker_ActiveImmediatelyAfterTrade(t *testing.T) {
	c := NewCooldownTracker()
	var poolID [32]byte
	poolID[0] = 2

	now := time.Now()
	assert.False(t, c.IsCooldownActive(poolID, time.Minute, now))
	c.RecordTrade(poolID, now)

	assert.True(t, c.IsCooldownActive(poolID, time.Minute, now.Add(time.Second)))
}

func TestCooldownTracker_ClearsAfterInterval(t *testing.T) {
	c := NewCooldownTracker()
	var poolID [32]byte
	poolID[0] = 3

	now := time.Now()
	_ = c.IsCooldownActive(poolID, 10*time.Millisecond, now)
	c.RecordTrade(poolID, now)

	assert.True(t, c.IsCooldownActive(poolID, 10*time.Millisecond, now.Add(5*time.Millisecond)))
	assert.False(t, c.IsCooldownActive(poolID, 10*time.Millisecond, now.Add(20*time.Millisecond)))
}

func TestCooldownTracker_PoolsAreIndependent(t *testing.T) {
	c := NewCooldownTracker()
	var poolA, poolB [32]byte
	poolA[0], poolB[0] = 1, 2

	now := time.Now()
	_ = c.IsCooldownActive(poolA, time.Minute, now)
	c.RecordTrade(poolA, now)

	assert.True(t, c.IsCooldownActive(poolA, time.Minute, now.Add(time.Second)))
	assert.False(t, c.IsCooldownActive(poolB, time.Minute, now.Add(time.Second)))
}
