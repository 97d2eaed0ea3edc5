package interp

// Value is a fixed-width sample. Scalar channels use index 0 only; rotation
// channels carry the three Euler angles (degrees) and are interpolated
// jointly as one rotation, never per axis.
type Value [3]float32

// Interpolator smooths timestamped remote measurements into a local value.
//
// The strategy (scalar or rotation) is chosen once when the channel is
// created and fixed for the entity's lifetime.
type Interpolator interface {
	// AddMeasurement appends a measurement to the buffer. Out-of-order
	// arrivals are reinserted in timestamp order; measurements at or before
	// the current playback time are dropped.
	AddMeasurement(v Value, timestamp float64)
	// Tick advances the playback clock by deltaTime seconds and returns the
	// value interpolated between the two buffered measurements bracketing
	// the playback time, or the nearest available at the boundaries.
	Tick(deltaTime float64) Value
	// ResetTo clears all history to a single known value, used on spawn and
	// late join to avoid a long initial interpolation lag.
	ResetTo(v Value)
}

type blendFunc func(from, to Value, frac float64) Value

type interpolator struct {
	pb    playback
	blend blendFunc
}

// NewScalar creates an interpolator for a single scalar channel.
//
// backTime is the playback delay in seconds behind the newest measurement's
// send time, giving the buffer room to absorb network jitter.
func NewScalar(backTime float64) Interpolator {
	return &interpolator{
		pb:    newPlayback(backTime),
		blend: blendScalar,
	}
}

// NewRotation creates an interpolator for a three-axis rotation channel.
// Rotation is blended with quaternion slerp; lerping Euler axes individually
// is numerically unstable around wrap points.
func NewRotation(backTime float64) Interpolator {
	return &interpolator{
		pb:    newPlayback(backTime),
		blend: blendRotation,
	}
}

func (ip *interpolator) AddMeasurement(v Value, timestamp float64) {
	ip.pb.add(v, timestamp)
}

func (ip *interpolator) Tick(deltaTime float64) Value {
	return ip.pb.tick(deltaTime, ip.blend)
}

func (ip *interpolator) ResetTo(v Value) {
	ip.pb.reset(v)
}

func blendScalar(from, to Value, frac float64) Value {
	var out Value
	out[0] = from[0] + float32(frac)*(to[0]-from[0])
	return out
}

func blendRotation(from, to Value, frac float64) Value {
	qa := QuaternionFromEuler(from[0], from[1], from[2])
	qb := QuaternionFromEuler(to[0], to[1], to[2])
	q := Slerp(qa, qb, frac)
	x, y, z := q.ToEuler()
	return Value{x, y, z}
}
