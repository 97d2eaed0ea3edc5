package interp

import (
	"math"
)

const deg2rad = math.Pi / 180

// Quaternion is a unit rotation quaternion
type Quaternion struct {
	X, Y, Z, W float64
}

// QuaternionFromEuler converts Euler angles in degrees (roll X, pitch Y,
// yaw Z, applied Z-Y-X) to a quaternion
func QuaternionFromEuler(x, y, z float32) Quaternion {
	hr := float64(x) * deg2rad * 0.5
	hp := float64(y) * deg2rad * 0.5
	hy := float64(z) * deg2rad * 0.5

	sr, cr := math.Sincos(hr)
	sp, cp := math.Sincos(hp)
	sy, cy := math.Sincos(hy)

	return Quaternion{
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
		W: cr*cp*cy + sr*sp*sy,
	}
}

// ToEuler converts the quaternion back to Euler angles in degrees
func (q Quaternion) ToEuler() (x, y, z float32) {
	sinrCosp := 2 * (q.W*q.X + q.Y*q.Z)
	cosrCosp := 1 - 2*(q.X*q.X+q.Y*q.Y)
	roll := math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp) // gimbal lock
	} else {
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (q.W*q.Z + q.X*q.Y)
	cosyCosp := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	yaw := math.Atan2(sinyCosp, cosyCosp)

	return float32(roll / deg2rad), float32(pitch / deg2rad), float32(yaw / deg2rad)
}

// Dot returns the quaternion dot product
func (q Quaternion) Dot(o Quaternion) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Normalize scales the quaternion to unit length
func (q Quaternion) Normalize() Quaternion {
	d := math.Sqrt(q.Dot(q))
	if d == 0 {
		return Quaternion{W: 1}
	}
	return Quaternion{q.X / d, q.Y / d, q.Z / d, q.W / d}
}

// Slerp spherically interpolates between two quaternions
func Slerp(a, b Quaternion, t float64) Quaternion {
	dot := a.Dot(b)
	if dot < 0 {
		// take the shorter arc
		b = Quaternion{-b.X, -b.Y, -b.Z, -b.W}
		dot = -dot
	}

	if dot > 0.9995 {
		// nearly parallel, lerp and renormalize
		return Quaternion{
			X: a.X + t*(b.X-a.X),
			Y: a.Y + t*(b.Y-a.Y),
			Z: a.Z + t*(b.Z-a.Z),
			W: a.W + t*(b.W-a.W),
		}.Normalize()
	}

	theta0 := math.Acos(dot)
	theta := theta0 * t
	sinTheta := math.Sin(theta)
	sinTheta0 := math.Sin(theta0)

	s0 := math.Cos(theta) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quaternion{
		X: s0*a.X + s1*b.X,
		Y: s0*a.Y + s1*b.Y,
		Z: s0*a.Z + s1*b.Z,
		W: s0*a.W + s1*b.W,
	}
}
