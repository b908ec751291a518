package data

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMapTable(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "map_list.yaml", `
maps:
  - map_id: 1
    name: meadow
    cell_size: 32
`)
	writeFile(t, dir, "1.txt", "111\n101\n111\n")

	table, err := LoadMapTable(yamlPath)
	if err != nil {
		t.Fatalf("LoadMapTable: %v", err)
	}
	def := table.Get(1)
	if def == nil {
		t.Fatal("map 1 missing")
	}
	if def.Grid.Width() != 3 || def.Grid.Height() != 3 {
		t.Fatalf("grid = %dx%d, want 3x3", def.Grid.Width(), def.Grid.Height())
	}
	if def.Grid.Walkable(1, 1) {
		t.Fatal("blocked center cell reported walkable")
	}
	if !def.Grid.Walkable(0, 1) {
		t.Fatal("open cell reported blocked")
	}
}

func TestLoadMapTableRejectsRaggedRows(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "map_list.yaml", `
maps:
  - map_id: 2
    name: broken
    cell_size: 32
`)
	writeFile(t, dir, "2.txt", "111\n11\n")

	if _, err := LoadMapTable(yamlPath); err == nil {
		t.Fatal("ragged grid accepted")
	}
}

func TestLoadNPCTableRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "npcs.yaml", `
npcs:
  - template_id: 1
    name: rat
    hp: 10
  - template_id: 1
    name: rat again
    hp: 10
`)
	if _, err := LoadNPCTable(path); err == nil {
		t.Fatal("duplicate template id accepted")
	}
}
