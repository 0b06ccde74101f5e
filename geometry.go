package gaiacat

import "math"

// CelestialPoint is a point on the sphere in equatorial coordinates,
// degrees. Ra is conventionally in [0, 360) and Dec in [-90, 90]; no
// normalisation is applied, and toVector accepts any Ra.
type CelestialPoint struct {
	Ra  float64
	Dec float64
}

// toVector promotes an (ra, dec) pair in degrees to a unit vector in
// rectangular coordinates, dec measured from the equator and ra from
// the prime meridian.
func (p CelestialPoint) toVector() vec3 {
	ra := p.Ra * math.Pi / 180
	dec := p.Dec * math.Pi / 180
	cosDec := math.Cos(dec)
	return vec3{
		x: cosDec * math.Cos(ra),
		y: cosDec * math.Sin(ra),
		z: math.Sin(dec),
	}
}

type vec3 struct {
	x, y, z float64
}

func (a vec3) dot(b vec3) float64 {
	return a.x*b.x + a.y*b.y + a.z*b.z
}

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		x: a.y*b.z - a.z*b.y,
		y: a.z*b.x - a.x*b.z,
		z: a.x*b.y - a.y*b.x,
	}
}

func (a vec3) norm() float64 {
	return math.Sqrt(a.dot(a))
}

func (a vec3) sub(b vec3) vec3 {
	return vec3{a.x - b.x, a.y - b.y, a.z - b.z}
}

func (a vec3) scale(s float64) vec3 {
	return vec3{a.x * s, a.y * s, a.z * s}
}

func (a vec3) normalized() vec3 {
	n := a.norm()
	if n == 0 {
		return a
	}
	return a.scale(1 / n)
}

// AngularDistance returns the great-circle distance between p and q in
// degrees, via the numerically stable atan2(|p x q|, p.q) form. Accurate
// to well under 1e-8 degrees for inputs up to 180 degrees apart.
func AngularDistance(p, q CelestialPoint) float64 {
	pv := p.toVector()
	qv := q.toVector()
	cross := pv.cross(qv)
	angle := math.Atan2(cross.norm(), pv.dot(qv))
	return angle * 180 / math.Pi
}

// ConeContains reports whether point is within radiusDeg of center.
func ConeContains(center CelestialPoint, radiusDeg float64, point CelestialPoint) bool {
	return AngularDistance(center, point) <= radiusDeg
}

// SegmentDistance returns the minimum great-circle distance in degrees
// from point to the great-circle arc running from a to b, clamping the
// projection onto the arc's endpoints rather than extending along the
// full great circle. If a and b coincide, the arc degenerates to a
// point and the distance is simply AngularDistance(a, point).
func SegmentDistance(a, b, point CelestialPoint) float64 {
	av := a.toVector()
	bv := b.toVector()
	pv := point.toVector()

	if av == bv {
		return AngularDistance(a, point)
	}

	// Project pv onto the plane spanned by av, bv and find the closest
	// point on the arc, clamped to [av, bv].
	normal := av.cross(bv).normalized()
	// Component of pv in the arc's plane (remove the out-of-plane part).
	inPlane := pv.sub(normal.scale(pv.dot(normal)))
	if inPlane.norm() == 0 {
		// point is exactly at a pole of the great circle through a,b;
		// both endpoints are equidistant from it along the circle, fall
		// back to the nearer endpoint.
		return math.Min(AngularDistance(a, point), AngularDistance(b, point))
	}
	closest := inPlane.normalized()

	// angle of closest point along the arc from a, and full arc length
	arcLen := math.Atan2(av.cross(bv).norm(), av.dot(bv))
	along := math.Atan2(av.cross(closest).dot(normal), av.dot(closest))
	switch {
	case along < 0:
		return AngularDistance(a, point)
	case along > arcLen:
		return AngularDistance(b, point)
	default:
		cross := pv.cross(closest)
		angle := math.Atan2(cross.norm(), pv.dot(closest))
		return angle * 180 / math.Pi
	}
}

// CorridorContains reports whether point lies within widthDeg of the
// polyline path, measured as the minimum segment distance across every
// consecutive pair of points in path.
func CorridorContains(path []CelestialPoint, widthDeg float64, point CelestialPoint) bool {
	if len(path) == 0 {
		return false
	}
	if len(path) == 1 {
		return AngularDistance(path[0], point) <= widthDeg
	}
	for i := 0; i < len(path)-1; i++ {
		if SegmentDistance(path[i], path[i+1], point) <= widthDeg {
			return true
		}
	}
	return false
}
