package pathfind

import "math"

// Heuristic selects the distance estimate used for the F = G + H ordering.
type Heuristic int

const (
	// Manhattan sums the axis deltas. Admissible for 4-direction movement,
	// overestimates under diagonal movement (faster, less optimal paths).
	Manhattan Heuristic = iota
	// Euclidean uses straight-line distance.
	Euclidean
	// DiagonalShortcut counts diagonal steps at cost 2 and the remainder
	// straight.
	DiagonalShortcut
	// DXDY is the Chebyshev estimate: the larger axis delta.
	DXDY
)

// estimate computes the scaled heuristic value from (x,y) to (gx,gy).
// scale is the per-step estimate constant applied to every variant.
func (h Heuristic) estimate(x, y, gx, gy, scale int) int {
	dx := x - gx
	if dx < 0 {
		dx = -dx
	}
	dy := y - gy
	if dy < 0 {
		dy = -dy
	}

	switch h {
	case Euclidean:
		return int(float64(scale) * math.Sqrt(float64(dx*dx+dy*dy)))
	case DiagonalShortcut:
		diag := dx
		if dy < diag {
			diag = dy
		}
		straight := dx + dy
		return scale*2*diag + scale*(straight-2*diag)
	case DXDY:
		if dx > dy {
			return scale * dx
		}
		return scale * dy
	default: // Manhattan
		return scale * (dx + dy)
	}
}
