package pathfind

import "testing"

func openGrid(w, h int) *Grid {
	return NewGrid(w, h, 1)
}

func TestDiagonalPathLength(t *testing.T) {
	g := openGrid(10, 10)
	f := NewFinder(g)

	res := f.Find(Point{0, 0}, Point{9, 9})
	if !res.Found {
		t.Fatal("expected a path on an open grid")
	}
	// Chebyshev movement: 9 diagonal steps, 10 points including endpoints.
	if steps := len(res.Path) - 1; steps != 9 {
		t.Fatalf("path has %d steps, want 9: %v", steps, res.Path)
	}
	if res.Path[0] != (Point{0, 0}) || res.Path[len(res.Path)-1] != (Point{9, 9}) {
		t.Fatalf("path endpoints wrong: %v", res.Path)
	}
}

func TestCardinalOnlyPathLength(t *testing.T) {
	g := openGrid(10, 10)
	f := NewFinder(g)
	f.Diagonal = false

	res := f.Find(Point{0, 0}, Point{9, 9})
	if !res.Found {
		t.Fatal("expected a path")
	}
	if steps := len(res.Path) - 1; steps != 18 {
		t.Fatalf("path has %d steps, want 18", steps)
	}
}

func TestWalledOffGoalTerminates(t *testing.T) {
	g := openGrid(10, 10)
	// Enclose (5,5) completely.
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				g.SetCost(5+dx, 5+dy, 0)
			}
		}
	}
	f := NewFinder(g)

	res := f.Find(Point{0, 0}, Point{5, 5})
	if res.Found {
		t.Fatal("found a path into an enclosed cell")
	}
	if res.Stopped {
		t.Fatal("search should exhaust the open set, not hit the limit, on a 10x10 grid")
	}
}

func TestSearchLimitAborts(t *testing.T) {
	g := openGrid(100, 100)
	// Goal walkable but enclosed: forces exploration of the whole region.
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				g.SetCost(90+dx, 90+dy, 0)
			}
		}
	}
	f := NewFinder(g)
	f.SearchLimit = 50

	res := f.Find(Point{0, 0}, Point{90, 90})
	if res.Found {
		t.Fatal("must not find a path into an enclosed cell")
	}
	if !res.Stopped {
		t.Fatal("expected Stopped=true after exceeding SearchLimit")
	}
	if len(res.Path) != 0 {
		t.Fatalf("aborted search must return an empty path, got %v", res.Path)
	}
}

func TestRoutesAroundWall(t *testing.T) {
	g := openGrid(10, 10)
	// Vertical wall at x=5 with a gap at y=9.
	for y := 0; y < 9; y++ {
		g.SetCost(5, y, 0)
	}
	f := NewFinder(g)

	res := f.Find(Point{0, 0}, Point{9, 0})
	if !res.Found {
		t.Fatal("expected a path through the gap")
	}
	for _, p := range res.Path {
		if !g.Walkable(p.X, p.Y) {
			t.Fatalf("path crosses blocked cell %v", p)
		}
	}
}

func TestGenerationTagsSurviveRepeatedSearches(t *testing.T) {
	g := openGrid(10, 10)
	f := NewFinder(g)

	first := f.Find(Point{0, 0}, Point{9, 9})
	for i := 0; i < 20; i++ {
		res := f.Find(Point{0, 0}, Point{9, 9})
		if !res.Found {
			t.Fatalf("search %d failed after reuse", i)
		}
		if len(res.Path) != len(first.Path) {
			t.Fatalf("search %d path length %d, first %d", i, len(res.Path), len(first.Path))
		}
	}
}

func TestDeterministicTieBreak(t *testing.T) {
	g := openGrid(16, 16)
	f := NewFinder(g)

	first := f.Find(Point{2, 3}, Point{13, 11})
	for i := 0; i < 5; i++ {
		again := f.Find(Point{2, 3}, Point{13, 11})
		if len(again.Path) != len(first.Path) {
			t.Fatalf("run %d: path length changed", i)
		}
		for j := range first.Path {
			if again.Path[j] != first.Path[j] {
				t.Fatalf("run %d: path diverged at %d: %v vs %v", i, j, again.Path[j], first.Path[j])
			}
		}
	}
}

func TestAllHeuristicsFindGoal(t *testing.T) {
	tests := []struct {
		name string
		h    Heuristic
	}{
		{"manhattan", Manhattan},
		{"euclidean", Euclidean},
		{"diagonal-shortcut", DiagonalShortcut},
		{"dxdy", DXDY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := openGrid(12, 12)
			f := NewFinder(g)
			f.Heuristic = tt.h
			res := f.Find(Point{1, 1}, Point{10, 4})
			if !res.Found {
				t.Fatal("no path found")
			}
		})
	}
}

func TestStartEqualsGoal(t *testing.T) {
	g := openGrid(4, 4)
	f := NewFinder(g)
	res := f.Find(Point{2, 2}, Point{2, 2})
	if !res.Found || len(res.Path) != 1 {
		t.Fatalf("Find(p, p) = %+v, want single-point path", res)
	}
}
