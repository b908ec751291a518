// Package pathfind implements A* grid search for NPC movement.
//
// Node open/closed membership is tracked with per-search generation tags
// instead of clearing the grid between searches, so a search costs
// O(visited nodes) rather than O(grid size).
package pathfind

// Grid is a rectangular field of traversal costs. Cost 0 means impassable;
// higher costs make a cell more expensive to step onto.
type Grid struct {
	width, height int
	cost          []byte
}

// NewGrid creates a grid with every cell set to the given cost.
func NewGrid(width, height int, cost byte) *Grid {
	g := &Grid{
		width:  width,
		height: height,
		cost:   make([]byte, width*height),
	}
	if cost != 0 {
		for i := range g.cost {
			g.cost[i] = cost
		}
	}
	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *Grid) index(x, y int) int {
	return y*g.width + x
}

// Cost returns the traversal cost at a cell; 0 for impassable or out of bounds.
func (g *Grid) Cost(x, y int) byte {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.cost[g.index(x, y)]
}

// SetCost sets the traversal cost at a cell. 0 marks it impassable.
func (g *Grid) SetCost(x, y int, cost byte) {
	if !g.InBounds(x, y) {
		return
	}
	g.cost[g.index(x, y)] = cost
}

// Walkable reports whether a cell can be entered.
func (g *Grid) Walkable(x, y int) bool {
	return g.Cost(x, y) != 0
}
