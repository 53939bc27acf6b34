package transport

import "math"

// arcSubdivisions is how finely SegmentLength subdivides a Catmull-Rom
// segment to approximate its world-space arc length (spec.md §4.1).
const arcSubdivisions = 20

// Spline is a Catmull-Rom interpolant over a padded control-point array.
// The padding repeats the first and last raw control point so that every
// raw segment has four neighbouring points to interpolate from, per
// spec.md §4.1.
type Spline struct {
	controls []Vec3 // padded: controls[i] == raw[i-1] for i in [first, last]
	first    int
	last     int
	cumMs    []int32 // cumMs[i] = ms from spline start to knot (first+i)
}

// newSplineUntimed builds the padded control array and knot bounds without
// computing the timing table; used so the compiler can check for a
// degenerate route before committing to a moveSpeed-derived timing table.
func newSplineUntimed(raw []Vec3) (*Spline, error) {
	if len(raw) < 2 {
		return nil, ErrEmptyPath
	}
	n := len(raw)
	padded := make([]Vec3, 0, n+2)
	padded = append(padded, raw[0])
	padded = append(padded, raw...)
	padded = append(padded, raw[n-1])
	return &Spline{controls: padded, first: 1, last: n}, nil
}

// First returns the first interior knot index over which the spline is
// valid (padding excluded).
func (s *Spline) First() int { return s.first }

// Last returns the last interior knot index over which the spline is
// valid (padding excluded).
func (s *Spline) Last() int { return s.last }

func (s *Spline) controlsFor(seg int) (p0, p1, p2, p3 Vec3) {
	return s.controls[seg-1], s.controls[seg], s.controls[seg+1], s.controls[seg+2]
}

// EvaluatePercent returns the position inside segment seg at u in [0,1].
func (s *Spline) EvaluatePercent(seg int, u float64) Vec3 {
	p0, p1, p2, p3 := s.controlsFor(seg)
	u2 := u * u
	u3 := u2 * u
	eval := func(a, b, c, d float64) float64 {
		return 0.5 * ((2 * b) + (-a+c)*u + (2*a-5*b+4*c-d)*u2 + (-a+3*b-3*c+d)*u3)
	}
	return Vec3{
		X: eval(p0.X, p1.X, p2.X, p3.X),
		Y: eval(p0.Y, p1.Y, p2.Y, p3.Y),
		Z: eval(p0.Z, p1.Z, p2.Z, p3.Z),
	}
}

// EvaluateDerivative returns the unnormalised tangent inside segment seg
// at u in [0,1]; consumers derive yaw as atan2(dy, dx).
func (s *Spline) EvaluateDerivative(seg int, u float64) Vec3 {
	p0, p1, p2, p3 := s.controlsFor(seg)
	u2 := u * u
	deriv := func(a, b, c, d float64) float64 {
		return 0.5 * ((-a + c) + 2*(2*a-5*b+4*c-d)*u + 3*(-a+3*b-3*c+d)*u2)
	}
	return Vec3{
		X: deriv(p0.X, p1.X, p2.X, p3.X),
		Y: deriv(p0.Y, p1.Y, p2.Y, p3.Y),
		Z: deriv(p0.Z, p1.Z, p2.Z, p3.Z),
	}
}

// SegmentLength returns the world-space arc length of segment seg,
// computed by fine subdivision.
func (s *Spline) SegmentLength(seg int) float64 {
	prev := s.EvaluatePercent(seg, 0)
	total := 0.0
	for i := 1; i <= arcSubdivisions; i++ {
		u := float64(i) / float64(arcSubdivisions)
		cur := s.EvaluatePercent(seg, u)
		total += distance(prev, cur)
		prev = cur
	}
	return total
}

// totalWorldLength sums SegmentLength across every valid segment.
func (s *Spline) totalWorldLength() float64 {
	total := 0.0
	for seg := s.first; seg < s.last; seg++ {
		total += s.SegmentLength(seg)
	}
	return total
}

// initTiming builds the length_ms prefix table by accumulating
// segment_length(i) * 1000 / speed (spec.md §4.1). moveSpeed is world
// units per second and must be positive.
func (s *Spline) initTiming(moveSpeed float64) {
	n := s.last - s.first
	cum := make([]int32, n+1)
	for i := 1; i <= n; i++ {
		seg := s.first + i - 1
		ms := s.SegmentLength(seg) * 1000.0 / moveSpeed
		cum[i] = cum[i-1] + int32(math.Round(ms))
		if cum[i] <= cum[i-1] {
			cum[i] = cum[i-1] + 1 // every segment must advance time by >=1ms
		}
	}
	s.cumMs = cum
}

// LengthMs returns the prefix time in ms from the spline start to knot
// knotIdx (knotIdx in [First(), Last()]).
func (s *Spline) LengthMs(knotIdx int) int32 {
	return s.cumMs[knotIdx-s.first]
}

// TotalLengthMs is the ms duration of the whole spline (LengthMs(Last())).
func (s *Spline) TotalLengthMs() int32 {
	return s.cumMs[len(s.cumMs)-1]
}

func distance(a, b Vec3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
