package world

// Rect is an axis-aligned rectangle in map pixel coordinates.
type Rect struct {
	X, Y, W, H float32
}

// Overlaps reports whether two rectangles intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Heading is an 8-way facing direction: 0 = north, clockwise.
type Heading byte

var headingOffsets = [8][2]float32{
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
}

// Offset returns the unit step for the heading.
func (h Heading) Offset() (dx, dy float32) {
	o := headingOffsets[h%8]
	return o[0], o[1]
}

// HeadingToward picks the 8-way heading that best faces from (sx,sy) to
// (tx,ty).
func HeadingToward(sx, sy, tx, ty float32) Heading {
	dx := tx - sx
	dy := ty - sy
	switch {
	case dx == 0 && dy < 0:
		return 0
	case dx > 0 && dy < 0:
		return 1
	case dx > 0 && dy == 0:
		return 2
	case dx > 0 && dy > 0:
		return 3
	case dx == 0 && dy > 0:
		return 4
	case dx < 0 && dy > 0:
		return 5
	case dx < 0 && dy == 0:
		return 6
	case dx < 0 && dy < 0:
		return 7
	default:
		return 0
	}
}
