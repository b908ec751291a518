package world

import (
	"go.uber.org/zap"

	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/pathfind"
)

// MapID identifies a map instance.
type MapID int16

// GameMap owns everything placed on one map: characters keyed by their
// transmission index, ground items, the walkability grid with its
// pathfinder, and the area-of-interest index over player positions.
// Accessed only from the game loop goroutine.
type GameMap struct {
	ID   MapID
	Name string

	// Width and Height are the map extents in pixels.
	Width, Height float32
	// CellSize is the pixel side length of one pathfinding cell.
	CellSize int
	// ViewRange is the Chebyshev pixel distance within which clients
	// receive area broadcasts.
	ViewRange float32

	Grid   *pathfind.Grid
	Finder *pathfind.Finder

	byIndex map[uint16]*Character
	list    []*Character
	freeIdx []uint16
	nextIdx uint16

	aoi    *aoiGrid
	ground map[ident.EntityID]*GroundItem

	log *zap.Logger
}

// NewGameMap builds an empty map over the given walkability grid.
func NewGameMap(id MapID, name string, grid *pathfind.Grid, cellSize int, viewRange float32, log *zap.Logger) *GameMap {
	return &GameMap{
		ID:        id,
		Name:      name,
		Width:     float32(grid.Width() * cellSize),
		Height:    float32(grid.Height() * cellSize),
		CellSize:  cellSize,
		ViewRange: viewRange,
		Grid:      grid,
		Finder:    pathfind.NewFinder(grid),
		byIndex:   make(map[uint16]*Character),
		freeIdx:   make([]uint16, 0, 64),
		nextIdx:   1, // index 0 means "not placed"
		aoi:       newAOIGrid(viewRange),
		ground:    make(map[ident.EntityID]*GroundItem),
		log:       log,
	}
}

// allocIndex hands out a transmission index. Freed indices are reused
// immediately, most recently freed first.
func (m *GameMap) allocIndex() (uint16, bool) {
	if n := len(m.freeIdx); n > 0 {
		idx := m.freeIdx[n-1]
		m.freeIdx = m.freeIdx[:n-1]
		return idx, true
	}
	if m.nextIdx == 0 { // wrapped: the whole index space is live
		return 0, false
	}
	idx := m.nextIdx
	m.nextIdx++
	return idx, true
}

// AddEntity places a character on the map, assigns its transmission index
// and broadcasts the construction payload. The new player, if it is one,
// also receives creates for everything already in view.
func (m *GameMap) AddEntity(c *Character) {
	idx, ok := m.allocIndex()
	if !ok {
		m.log.Error("transmission index space exhausted",
			zap.Int16("map", int16(m.ID)),
			zap.Int32("id", int32(c.ID)))
		return
	}
	c.index = idx
	c.m = m
	c.hasSent = false
	m.byIndex[idx] = c
	m.list = append(m.list, c)
	if c.IsPlayer() {
		m.aoi.add(c)
	}

	m.SendToArea(c.X, c.Y, buildCreatePacket(c))

	if c.IsPlayer() {
		for _, other := range m.list {
			if other == c || other.state != Alive {
				continue
			}
			if chebyshev(c.X, c.Y, other.X, other.Y) <= m.ViewRange {
				c.Session.Send(buildCreatePacket(other))
			}
		}
		for _, gi := range m.ground {
			if chebyshev(c.X, c.Y, gi.X, gi.Y) <= m.ViewRange {
				pkt := packet.NewWriterWithOpcode(packet.S_OPCODE_ITEM_DROP)
				pkt.WriteD(int32(gi.Item.ID))
				pkt.WriteD(gi.Item.TemplateID)
				pkt.WriteD(gi.Item.Count)
				pkt.WriteH(uint16(gi.X))
				pkt.WriteH(uint16(gi.Y))
				c.Session.Send(pkt.Bytes())
			}
		}
	}
}

// RemoveEntity takes a character off the map, broadcasts the removal by
// transmission index, and returns the index to the free list for
// immediate reuse.
func (m *GameMap) RemoveEntity(c *Character) {
	if c.m != m || c.index == 0 {
		return
	}
	pkt := packet.NewWriterWithOpcode(packet.S_OPCODE_REMOVE_ENTITY)
	pkt.WriteH(c.index)
	m.SendToArea(c.X, c.Y, pkt.Bytes())

	delete(m.byIndex, c.index)
	for i, e := range m.list {
		if e == c {
			m.list[i] = m.list[len(m.list)-1]
			m.list = m.list[:len(m.list)-1]
			break
		}
	}
	if c.IsPlayer() {
		m.aoi.remove(c, c.X, c.Y)
	}
	m.freeIdx = append(m.freeIdx, c.index)
	c.index = 0
	c.m = nil
}

// EntityByIndex resolves a transmission index, or nil.
func (m *GameMap) EntityByIndex(idx uint16) *Character {
	return m.byIndex[idx]
}

// Characters returns the live placement list. Callers must not mutate it.
func (m *GameMap) Characters() []*Character { return m.list }

// CharactersInRect returns a snapshot of characters whose body rectangle
// overlaps r. A snapshot because callers damage (and may kill) entries
// while iterating.
func (m *GameMap) CharactersInRect(r Rect) []*Character {
	var out []*Character
	for _, c := range m.list {
		if c.BodyRect().Overlaps(r) {
			out = append(out, c)
		}
	}
	return out
}

// Send delivers a packet to every player on the map.
func (m *GameMap) Send(data []byte) {
	for _, c := range m.list {
		if c.Session != nil && !c.Session.IsClosed() {
			c.Session.Send(data)
		}
	}
}

// SendToArea delivers a packet to every player within view range of
// (x, y), using the AOI grid to avoid scanning the whole map.
func (m *GameMap) SendToArea(x, y float32, data []byte) {
	near := m.aoi.nearby(x, y, nil)
	for _, c := range near {
		if c.Session == nil || c.Session.IsClosed() {
			continue
		}
		if chebyshev(x, y, c.X, c.Y) <= m.ViewRange {
			c.Session.Send(data)
		}
	}
}

// OnPlayerMoved re-files a player in the AOI grid after a position change.
func (m *GameMap) OnPlayerMoved(c *Character, oldX, oldY float32) {
	if c.IsPlayer() {
		m.aoi.move(c, oldX, oldY)
	}
}

// WalkableAt reports whether the pixel position lies on a walkable cell.
func (m *GameMap) WalkableAt(x, y float32) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Grid.Walkable(int(x)/m.CellSize, int(y)/m.CellSize)
}

// FindPath runs A* between two pixel positions and returns the result in
// cell coordinates, start to goal.
func (m *GameMap) FindPath(sx, sy, tx, ty float32) pathfind.Result {
	return m.Finder.Find(
		pathfind.Point{X: int(sx) / m.CellSize, Y: int(sy) / m.CellSize},
		pathfind.Point{X: int(tx) / m.CellSize, Y: int(ty) / m.CellSize},
	)
}

// CellCenter converts a cell coordinate to the pixel center of that cell.
func (m *GameMap) CellCenter(cx, cy int) (float32, float32) {
	half := float32(m.CellSize) / 2
	return float32(cx*m.CellSize) + half, float32(cy*m.CellSize) + half
}

func chebyshev(x1, y1, x2, y2 float32) float32 {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// buildCreatePacket serializes the full construction payload for one
// character.
func buildCreatePacket(c *Character) []byte {
	pkt := packet.NewWriterWithOpcode(packet.S_OPCODE_CREATE_ENTITY)
	pkt.WriteH(c.index)
	pkt.WriteD(int32(c.ID))
	pkt.WriteS(c.Name)
	pkt.WriteD(c.TemplateID)
	pkt.WriteD(c.Body.Gfx)
	pkt.WriteC(byte(c.Alliance))
	pkt.WriteC(byte(c.Heading))
	st := CaptureNetState(c.X, c.Y, c.VelX, c.VelY)
	pkt.WriteH(st.X)
	pkt.WriteH(st.Y)
	pkt.WriteHS(st.VX)
	pkt.WriteHS(st.VY)
	pkt.WriteD(c.Stats.HP)
	pkt.WriteD(c.Stats.MaxHP)
	return pkt.Bytes()
}
