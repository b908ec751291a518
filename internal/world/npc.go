package world

import (
	"github.com/ashvale/server/internal/dialog"
	"github.com/ashvale/server/internal/ident"
)

// NPCSpec carries everything needed to instantiate an NPC. Built by the
// spawner from a template row; capability fields left nil produce an NPC
// without that behavior.
type NPCSpec struct {
	Name             string
	TemplateID       int32
	Alliance         Alliance
	Body             BodyInfo
	Stats            Stats
	AttackCooldownMS GameTime

	AI       AIDriver
	ChatTree *dialog.Tree
	Shop     *Shop
	Respawn  *RespawnInfo

	Inventory []*Item
}

// NewNPC builds an NPC in the Loading state. The caller places it with
// SetMap once spawn hooks have run.
func NewNPC(id ident.EntityID, spec NPCSpec) *Character {
	return &Character{
		ID:               id,
		Name:             spec.Name,
		TemplateID:       spec.TemplateID,
		Alliance:         spec.Alliance,
		Body:             spec.Body,
		Stats:            spec.Stats,
		AttackCooldownMS: spec.AttackCooldownMS,
		AI:               spec.AI,
		ChatTree:         spec.ChatTree,
		Shop:             spec.Shop,
		Respawn:          spec.Respawn,
		Inventory:        spec.Inventory,
		state:            Loading,
	}
}

// NewPlayer builds a player character in the Loading state from persisted
// attributes. The session is attached by the enter-world handler.
func NewPlayer(id ident.EntityID, name string, stats Stats, body BodyInfo, cooldownMS GameTime, sess Sender) *Character {
	return &Character{
		ID:               id,
		Name:             name,
		Alliance:         AlliancePlayers,
		Body:             body,
		Stats:            stats,
		AttackCooldownMS: cooldownMS,
		Session:          sess,
		Persistent:       true,
		state:            Loading,
	}
}
