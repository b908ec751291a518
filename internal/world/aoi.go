package world

// aoiGrid is a cell-based area-of-interest index over the players on one
// map. Cell size equals the view range, so a 3x3 cell neighbourhood fully
// covers every player within Chebyshev view distance of a point.
// Accessed only from the game loop goroutine — no locks.

type aoiKey struct {
	cx, cy int32
}

type aoiGrid struct {
	cellSize float32
	cells    map[aoiKey]map[*Character]struct{}
}

func newAOIGrid(cellSize float32) *aoiGrid {
	return &aoiGrid{
		cellSize: cellSize,
		cells:    make(map[aoiKey]map[*Character]struct{}),
	}
}

func (g *aoiGrid) key(x, y float32) aoiKey {
	cx := int32(x / g.cellSize)
	cy := int32(y / g.cellSize)
	if x < 0 {
		cx--
	}
	if y < 0 {
		cy--
	}
	return aoiKey{cx: cx, cy: cy}
}

func (g *aoiGrid) add(c *Character) {
	k := g.key(c.X, c.Y)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[*Character]struct{})
		g.cells[k] = cell
	}
	cell[c] = struct{}{}
}

func (g *aoiGrid) remove(c *Character, x, y float32) {
	k := g.key(x, y)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, c)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// move re-files a player whose position crossed a cell boundary.
func (g *aoiGrid) move(c *Character, oldX, oldY float32) {
	oldK := g.key(oldX, oldY)
	newK := g.key(c.X, c.Y)
	if oldK == newK {
		return
	}
	g.remove(c, oldX, oldY)
	g.add(c)
}

// nearby appends every player in the 3x3 cell neighbourhood of (x, y) to
// dst and returns it. Caller does fine-grained distance filtering.
func (g *aoiGrid) nearby(x, y float32, dst []*Character) []*Character {
	center := g.key(x, y)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			k := aoiKey{cx: center.cx + dx, cy: center.cy + dy}
			for c := range g.cells[k] {
				dst = append(dst, c)
			}
		}
	}
	return dst
}
