package ident

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"github.com/gomirror/gomirror/engine/common"
)

func TestAllocateMonotonic(t *testing.T) {
	a := NewAllocator(false, 0)
	now := time.Now()
	last := common.NilEntityID
	for i := 0; i < 100; i++ {
		id := a.Allocate(now)
		assert.T(t, id > last, "ids should increase")
		last = id
	}
}

func TestRecycleDelay(t *testing.T) {
	a := NewAllocator(true, 5*time.Second)
	now := time.Now()

	id7 := common.EntityID(7)
	a.Release(id7, now)

	// not yet eligible: must get a fresh id, not 7
	got := a.Allocate(now)
	assert.T(t, got != id7, "released id reused before delay elapsed")

	// after the delay the released id is returned
	got = a.Allocate(now.Add(5 * time.Second))
	assert.Equal(t, id7, got)
}

func TestRecycleFIFO(t *testing.T) {
	a := NewAllocator(true, time.Second)
	now := time.Now()

	a.Release(3, now)
	a.Release(1, now.Add(10*time.Millisecond))
	a.Release(2, now.Add(20*time.Millisecond))

	later := now.Add(2 * time.Second)
	assert.Equal(t, common.EntityID(3), a.Allocate(later))
	assert.Equal(t, common.EntityID(1), a.Allocate(later))
	assert.Equal(t, common.EntityID(2), a.Allocate(later))
	assert.Equal(t, 0, a.PendingReleased())
}

func TestReleaseIgnoredWhenRecyclingDisabled(t *testing.T) {
	a := NewAllocator(false, 0)
	now := time.Now()
	a.Release(42, now)
	assert.Equal(t, 0, a.PendingReleased())
	got := a.Allocate(now.Add(time.Hour))
	assert.T(t, got != common.EntityID(42), "recycling disabled, id must be fresh")
}
