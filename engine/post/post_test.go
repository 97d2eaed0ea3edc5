package post

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestPostTick(t *testing.T) {
	q := NewQueue()
	order := []int{}
	q.Post(func() {
		order = append(order, 1)
		q.Post(func() {
			// posted during Tick, must still run in the same Tick
			order = append(order, 3)
		})
	})
	q.Post(func() {
		order = append(order, 2)
	})

	q.Tick()
	assert.Equal(t, []int{1, 2, 3}, order)

	q.Tick() // queue drained, nothing runs twice
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPostPanicIsolated(t *testing.T) {
	q := NewQueue()
	ran := false
	q.Post(func() {
		panic("boom")
	})
	q.Post(func() {
		ran = true
	})
	q.Tick()
	assert.T(t, ran, "callback after panic should still run")
}
