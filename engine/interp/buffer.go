package interp

import (
	"github.com/petar/GoLLRB/llrb"
)

// playback is the timestamped measurement buffer plus the playback clock.
//
// Measurements are kept ordered by send timestamp in an LLRB tree, so a
// late packet slots into its proper place instead of corrupting playback.
// The clock never reads ahead of the latest buffered measurement.
type playback struct {
	buf      *llrb.LLRB
	backTime float64
	clock    float64
	started  bool
	hasValue bool
	current  Value
}

type bufItem struct {
	t float64
	v Value
}

func (it *bufItem) Less(other llrb.Item) bool {
	return it.t < other.(*bufItem).t
}

func newPlayback(backTime float64) playback {
	return playback{
		buf:      llrb.New(),
		backTime: backTime,
	}
}

func (pb *playback) add(v Value, t float64) {
	if pb.started && t <= pb.clock {
		// stale measurement, playback already passed this point
		return
	}

	pb.buf.ReplaceOrInsert(&bufItem{t: t, v: v})

	if !pb.started {
		// anchor the playback clock behind the first measurement
		pb.started = true
		pb.clock = t - pb.backTime
		if !pb.hasValue {
			pb.current = v
			pb.hasValue = true
		}
	}
}

func (pb *playback) reset(v Value) {
	pb.buf = llrb.New()
	pb.started = false
	pb.clock = 0
	pb.current = v
	pb.hasValue = true
}

func (pb *playback) tick(deltaTime float64, blend blendFunc) Value {
	if !pb.started || pb.buf.Len() == 0 {
		return pb.current
	}

	pb.clock += deltaTime

	newest := pb.buf.Max().(*bufItem)
	if pb.clock > newest.t {
		pb.clock = newest.t
	}

	lower, upper := pb.bracket()
	switch {
	case lower == nil && upper == nil:
		// buffer emptied by pruning, keep last value
	case lower == nil:
		// clock still before the first measurement, hold until we reach it
	case upper == nil:
		pb.current = lower.v
	default:
		span := upper.t - lower.t
		frac := 0.0
		if span > 0 {
			frac = (pb.clock - lower.t) / span
		}
		pb.current = blend(lower.v, upper.v, frac)
	}

	if lower != nil {
		pb.pruneBefore(lower.t)
	}
	return pb.current
}

// bracket returns the newest measurement at or before the clock and the
// oldest one strictly after it; either may be nil at the boundaries.
func (pb *playback) bracket() (lower, upper *bufItem) {
	pivot := &bufItem{t: pb.clock}
	pb.buf.DescendLessOrEqual(pivot, func(i llrb.Item) bool {
		lower = i.(*bufItem)
		return false
	})
	pb.buf.AscendGreaterOrEqual(pivot, func(i llrb.Item) bool {
		it := i.(*bufItem)
		if it.t <= pb.clock {
			return true
		}
		upper = it
		return false
	})
	return
}

func (pb *playback) pruneBefore(t float64) {
	var stale []*bufItem
	pb.buf.AscendLessThan(&bufItem{t: t}, func(i llrb.Item) bool {
		stale = append(stale, i.(*bufItem))
		return true
	})
	for _, it := range stale {
		pb.buf.Delete(it)
	}
}
