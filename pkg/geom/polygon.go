package geom

import "math"

// PointRightOfLine reports whether pt lies strictly to the right of the
// directed line a -> b.
func PointRightOfLine(pt, a, b Vec) bool {
	return Cross(b.Sub(a), pt.Sub(a)) < 0
}

// PointOnLine reports whether pt lies on the segment a-b within tol.
func PointOnLine(pt, a, b Vec, tol float64) bool {
	ab := b.Sub(a)
	l := ab.Length()
	if l < tol {
		return Dist(pt, a) <= tol
	}
	if math.Abs(Cross(ab, pt.Sub(a)))/l > tol {
		return false
	}
	return pt.X >= math.Min(a.X, b.X)-tol && pt.X <= math.Max(a.X, b.X)+tol &&
		pt.Y >= math.Min(a.Y, b.Y)-tol && pt.Y <= math.Max(a.Y, b.Y)+tol
}

func boxesOverlap(a0, a1, b0, b1 Vec, tol float64) bool {
	return math.Min(a0.X, a1.X) <= math.Max(b0.X, b1.X)+tol &&
		math.Max(a0.X, a1.X) >= math.Min(b0.X, b1.X)-tol &&
		math.Min(a0.Y, a1.Y) <= math.Max(b0.Y, b1.Y)+tol &&
		math.Max(a0.Y, a1.Y) >= math.Min(b0.Y, b1.Y)-tol
}

// SegmentsIntersect reports whether segments a0-a1 and b0-b1 touch or
// cross. Endpoints within tol of the other segment count as touching.
func SegmentsIntersect(a0, a1, b0, b1 Vec, tol float64) bool {
	if !boxesOverlap(a0, a1, b0, b1, tol) {
		return false
	}
	if PointOnLine(b0, a0, a1, tol) || PointOnLine(b1, a0, a1, tol) ||
		PointOnLine(a0, b0, b1, tol) || PointOnLine(a1, b0, b1, tol) {
		return true
	}
	d1 := Cross(a1.Sub(a0), b0.Sub(a0))
	d2 := Cross(a1.Sub(a0), b1.Sub(a0))
	d3 := Cross(b1.Sub(b0), a0.Sub(b0))
	d4 := Cross(b1.Sub(b0), a1.Sub(b0))
	return (d1 > 0) != (d2 > 0) && (d3 > 0) != (d4 > 0)
}

// IsClosed reports whether the first and last points coincide within tol.
func IsClosed(pts []Vec, tol float64) bool {
	return len(pts) > 2 && Dist(pts[0], pts[len(pts)-1]) < tol
}

// IsSimple reports whether the polyline through pts has no
// self-intersections. Segments sharing a vertex in the sequence are not
// compared; for closed polylines the first and last segments are
// neighbours too.
func IsSimple(pts []Vec, tol float64) bool {
	n := len(pts) - 1
	if n < 3 {
		return true
	}
	closed := IsClosed(pts, tol)
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if closed && i == 0 && j == n-1 {
				continue
			}
			if SegmentsIntersect(pts[i], pts[i+1], pts[j], pts[j+1], tol) {
				return false
			}
		}
	}
	return true
}

// SignedArea returns the shoelace area of the ring through pts. The ring
// is implicitly closed. Counter-clockwise rings are positive.
func SignedArea(pts []Vec) float64 {
	var a float64
	for i := range pts {
		p := pts[i]
		q := pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return 0.5 * a
}

// Winding returns the traversal direction of the ring through pts.
func Winding(pts []Vec) Direction {
	if SignedArea(pts) > 0 {
		return CCW
	}
	return CW
}

// Reversed returns a reversed copy of pts.
func Reversed(pts []Vec) []Vec {
	out := make([]Vec, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// PathLength returns the total 2D travel along pts.
func PathLength(pts []Vec) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += Dist(pts[i-1], pts[i])
	}
	return total
}
