package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ashvale/server/internal/pathfind"
)

// MapInfo holds metadata for one map, loaded from map_list.yaml. Cell data
// lives in a separate {map_id}.txt file in the same directory.
type MapInfo struct {
	MapID    int16  `yaml:"map_id"`
	Name     string `yaml:"name"`
	CellSize int    `yaml:"cell_size"` // pixels per walkability cell
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// MapDef pairs the metadata with the loaded walkability grid.
type MapDef struct {
	Info MapInfo
	Grid *pathfind.Grid
}

// MapTable holds every loaded map definition indexed by map id.
type MapTable struct {
	maps map[int16]*MapDef
}

// LoadMapTable loads map metadata from yamlPath and, for each entry, the
// cell grid from {map_id}.txt beside it. Each grid line is one row of
// digits: 0 blocks the cell, 1-9 is the traversal cost.
func LoadMapTable(yamlPath string) (*MapTable, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list: %w", err)
	}
	var f mapListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	dir := filepath.Dir(yamlPath)
	t := &MapTable{maps: make(map[int16]*MapDef, len(f.Maps))}
	for i := range f.Maps {
		info := f.Maps[i]
		if info.CellSize <= 0 {
			return nil, fmt.Errorf("map %d: cell_size must be positive", info.MapID)
		}
		if _, dup := t.maps[info.MapID]; dup {
			return nil, fmt.Errorf("duplicate map id %d", info.MapID)
		}
		grid, err := loadGrid(filepath.Join(dir, strconv.Itoa(int(info.MapID))+".txt"))
		if err != nil {
			return nil, fmt.Errorf("map %d: %w", info.MapID, err)
		}
		t.maps[info.MapID] = &MapDef{Info: info, Grid: grid}
	}
	return t, nil
}

func loadGrid(path string) (*pathfind.Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read cells: %w", err)
	}
	defer file.Close()

	var rows [][]byte
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		row := make([]byte, len(line))
		for i, ch := range line {
			if ch < '0' || ch > '9' {
				return nil, fmt.Errorf("row %d: invalid cell %q", len(rows), ch)
			}
			row[i] = ch - '0'
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("row %d: width %d, want %d", len(rows), len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty cell file")
	}

	grid := pathfind.NewGrid(len(rows[0]), len(rows), 0)
	for y, row := range rows {
		for x, cost := range row {
			grid.SetCost(x, y, cost)
		}
	}
	return grid, nil
}

// Get returns a map definition by id, or nil.
func (t *MapTable) Get(id int16) *MapDef {
	return t.maps[id]
}

// All returns every loaded map definition.
func (t *MapTable) All() map[int16]*MapDef {
	return t.maps
}

// Count returns the number of loaded maps.
func (t *MapTable) Count() int {
	return len(t.maps)
}
