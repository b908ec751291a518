package pathfind

import (
	"container/heap"
	"sync"
)

// Point is a grid cell coordinate.
type Point struct {
	X, Y int
}

// Result reports the outcome of one search.
type Result struct {
	// Path is the found route in start→goal order, including both endpoints.
	// Empty when no path exists.
	Path []Point
	// Found is true when the goal was reached.
	Found bool
	// Stopped is true when the search aborted because it expanded more than
	// SearchLimit nodes.
	Stopped bool
}

// node holds per-cell search state. The open/closed tags are generation
// counters: a tag is only meaningful when it equals the finder's current
// openValue or closedValue, which advance every search, so the arrays never
// need clearing between searches.
type node struct {
	g, f    int
	parentX int
	parentY int
	tag     uint32 // compared against openValue / closedValue
	order   int    // insertion sequence, deterministic tie-break
}

// Finder runs A* searches over a Grid. Node state is reused across calls, so
// the whole search is serialized behind one mutex; concurrent callers queue.
type Finder struct {
	mu   sync.Mutex
	grid *Grid

	nodes       []node
	openValue   uint32
	closedValue uint32

	// Heuristic selects the estimate variant; HeuristicScale is the
	// per-step estimate constant. SearchLimit caps expanded nodes (0 means
	// no limit); exceeding it aborts with Stopped=true.
	Heuristic      Heuristic
	HeuristicScale int
	SearchLimit    int

	// Diagonal enables 8-direction movement.
	Diagonal bool

	open     openHeap
	orderSeq int
}

// step cost constants: straight steps cost 10, diagonal 14 (~10·√2),
// multiplied by the destination cell's traversal cost.
const (
	costStraight = 10
	costDiagonal = 14
)

// DefaultSearchLimit bounds pathological searches such as a fully enclosed
// start cell.
const DefaultSearchLimit = 2000

func NewFinder(grid *Grid) *Finder {
	f := &Finder{
		grid:           grid,
		nodes:          make([]node, grid.Width()*grid.Height()),
		Heuristic:      Manhattan,
		HeuristicScale: costStraight,
		SearchLimit:    DefaultSearchLimit,
		Diagonal:       true,
	}
	f.open.nodes = &f.nodes
	// Open tags stay even, closed tags odd; both advance by 2 per search so
	// a node's tag can never satisfy both tests in the same generation.
	f.closedValue = 1
	return f
}

// Find searches for a path from start to goal. The zero-value Result with
// Found=false means no path; Stopped additionally set means the search hit
// SearchLimit before exhausting reachable cells.
func (f *Finder) Find(start, goal Point) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.grid.Walkable(goal.X, goal.Y) || !f.grid.InBounds(start.X, start.Y) {
		return Result{}
	}
	if start == goal {
		return Result{Path: []Point{start}, Found: true}
	}

	// Advance generations. Two distinct values per search: openValue tags
	// frontier nodes, closedValue tags expanded nodes.
	f.openValue += 2
	f.closedValue += 2
	f.open.entries = f.open.entries[:0]
	f.orderSeq = 0

	startIdx := f.grid.index(start.X, start.Y)
	f.nodes[startIdx] = node{
		g:       0,
		f:       f.Heuristic.estimate(start.X, start.Y, goal.X, goal.Y, f.HeuristicScale),
		parentX: start.X,
		parentY: start.Y,
		tag:     f.openValue,
	}
	heap.Push(&f.open, openEntry{idx: startIdx, x: start.X, y: start.Y})

	expanded := 0
	for f.open.Len() > 0 {
		cur := heap.Pop(&f.open).(openEntry)
		n := &f.nodes[cur.idx]
		if n.tag == f.closedValue {
			continue // stale heap entry
		}
		n.tag = f.closedValue

		if cur.x == goal.X && cur.y == goal.Y {
			return Result{Path: f.reconstruct(start, goal), Found: true}
		}

		expanded++
		if f.SearchLimit > 0 && expanded > f.SearchLimit {
			return Result{Stopped: true}
		}

		f.expand(cur, goal)
	}

	return Result{}
}

var straightOffsets = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
var diagonalOffsets = [4][2]int{{1, -1}, {1, 1}, {-1, 1}, {-1, -1}}

func (f *Finder) expand(cur openEntry, goal Point) {
	curG := f.nodes[cur.idx].g
	f.relaxNeighbors(cur, goal, curG, straightOffsets, costStraight)
	if f.Diagonal {
		f.relaxNeighbors(cur, goal, curG, diagonalOffsets, costDiagonal)
	}
}

func (f *Finder) relaxNeighbors(cur openEntry, goal Point, curG int, offsets [4][2]int, stepCost int) {
	for _, off := range offsets {
		nx, ny := cur.x+off[0], cur.y+off[1]
		cost := f.grid.Cost(nx, ny)
		if cost == 0 {
			continue
		}
		idx := f.grid.index(nx, ny)
		n := &f.nodes[idx]
		if n.tag == f.closedValue {
			continue
		}
		g := curG + stepCost*int(cost)
		if n.tag == f.openValue && g >= n.g {
			continue
		}
		f.orderSeq++
		*n = node{
			g:       g,
			f:       g + f.Heuristic.estimate(nx, ny, goal.X, goal.Y, f.HeuristicScale),
			parentX: cur.x,
			parentY: cur.y,
			tag:     f.openValue,
			order:   f.orderSeq,
		}
		heap.Push(&f.open, openEntry{idx: idx, x: nx, y: ny})
	}
}

// reconstruct walks parent links from goal back to start (the search's
// natural order), then reverses so callers receive start→goal.
func (f *Finder) reconstruct(start, goal Point) []Point {
	path := []Point{goal}
	x, y := goal.X, goal.Y
	for x != start.X || y != start.Y {
		n := &f.nodes[f.grid.index(x, y)]
		x, y = n.parentX, n.parentY
		path = append(path, Point{x, y})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// openEntry references a node in the finder's node arena. F values and the
// insertion-order tie-break live on the node itself.
type openEntry struct {
	idx  int
	x, y int
}

type openHeap struct {
	entries []openEntry
	nodes   *[]node
}

func (h openHeap) Len() int { return len(h.entries) }

func (h openHeap) Less(i, j int) bool {
	a := &(*h.nodes)[h.entries[i].idx]
	b := &(*h.nodes)[h.entries[j].idx]
	if a.f != b.f {
		return a.f < b.f
	}
	return a.order < b.order
}

func (h openHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *openHeap) Push(x any) {
	h.entries = append(h.entries, x.(openEntry))
}

func (h *openHeap) Pop() any {
	old := h.entries
	n := len(old)
	item := old[n-1]
	h.entries = old[:n-1]
	return item
}
