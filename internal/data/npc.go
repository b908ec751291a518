package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NPCTemplate holds static data for an NPC type loaded from YAML.
type NPCTemplate struct {
	TemplateID int32  `yaml:"template_id"`
	Name       string `yaml:"name"`
	GfxID      int32  `yaml:"gfx_id"`
	Alliance   string `yaml:"alliance"`
	HP         int32  `yaml:"hp"`
	MP         int32  `yaml:"mp"`
	Attack     int32  `yaml:"attack"`
	Defense    int32  `yaml:"defense"`
	// AI names a behavior strategy registered with the AI registry.
	// Empty means the NPC stands still.
	AI string `yaml:"ai"`
	// Dialog names the dialog tree opened when a player clicks the NPC.
	DialogID int32 `yaml:"dialog_id"`
	ShopID   int32 `yaml:"shop_id"`

	BodyWidth      float32 `yaml:"body_width"`
	BodyHeight     float32 `yaml:"body_height"`
	HitReach       float32 `yaml:"hit_reach"`
	MoveSpeed      float32 `yaml:"move_speed"` // px/s
	AttackCooldown int     `yaml:"attack_cooldown_ms"`
	AggroRange     float32 `yaml:"aggro_range"`

	Drops []DropEntry `yaml:"drops"`
}

// DropEntry is one loot roll on an NPC template.
type DropEntry struct {
	TemplateID int32   `yaml:"template_id"`
	Name       string  `yaml:"name"`
	Chance     float64 `yaml:"chance"` // 0..1
	CountMin   int32   `yaml:"count_min"`
	CountMax   int32   `yaml:"count_max"`
}

// SpawnEntry defines where and how many NPCs to spawn.
type SpawnEntry struct {
	TemplateID   int32   `yaml:"template_id"`
	MapID        int16   `yaml:"map_id"`
	X            float32 `yaml:"x"`
	Y            float32 `yaml:"y"`
	Count        int     `yaml:"count"`
	JitterX      float32 `yaml:"jitter_x"`
	JitterY      float32 `yaml:"jitter_y"`
	RespawnDelay int     `yaml:"respawn_delay"` // seconds; 0 means never respawn
}

type npcListFile struct {
	NPCs []NPCTemplate `yaml:"npcs"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// NPCTable holds all NPC templates indexed by TemplateID.
type NPCTable struct {
	templates map[int32]*NPCTemplate
}

// LoadNPCTable loads NPC templates from a YAML file.
func LoadNPCTable(path string) (*NPCTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc list: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npc list: %w", err)
	}
	t := &NPCTable{templates: make(map[int32]*NPCTemplate, len(f.NPCs))}
	for i := range f.NPCs {
		npc := &f.NPCs[i]
		if _, dup := t.templates[npc.TemplateID]; dup {
			return nil, fmt.Errorf("duplicate npc template id %d", npc.TemplateID)
		}
		t.templates[npc.TemplateID] = npc
	}
	return t, nil
}

// Get returns an NPC template by ID, or nil if not found.
func (t *NPCTable) Get(id int32) *NPCTemplate {
	return t.templates[id]
}

// Count returns the number of loaded templates.
func (t *NPCTable) Count() int {
	return len(t.templates)
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn list: %w", err)
	}
	return f.Spawns, nil
}
