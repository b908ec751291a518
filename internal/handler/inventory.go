package handler

import (
	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/world"
)

func ident32(id int32) ident.EntityID {
	return ident.EntityID(id)
}

// addToInventory merges an item into an existing stack of the same
// template or appends it. Reports whether the item was merged away; a
// merged item's world id is no longer referenced and the caller must
// release it.
func addToInventory(c *world.Character, it *world.Item) bool {
	for _, have := range c.Inventory {
		if have.TemplateID == it.TemplateID {
			have.Count += it.Count
			return true
		}
	}
	c.Inventory = append(c.Inventory, it)
	return false
}

// inventoryCounts summarizes the inventory for Lua predicates.
func inventoryCounts(c *world.Character) map[int32]int32 {
	counts := make(map[int32]int32, len(c.Inventory))
	for _, it := range c.Inventory {
		counts[it.TemplateID] += it.Count
	}
	return counts
}
