package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ShopItem holds one purchasable line in a shop.
type ShopItem struct {
	TemplateID int32  `yaml:"template_id"`
	Name       string `yaml:"name"`
	Price      int32  `yaml:"price"`
	Value      int32  `yaml:"value"` // resale value when the shop buys it back
}

// Shop holds the wares of one merchant.
type Shop struct {
	ShopID int32      `yaml:"shop_id"`
	Name   string     `yaml:"name"`
	Items  []ShopItem `yaml:"items"`
}

type shopListFile struct {
	Shops []Shop `yaml:"shops"`
}

// ShopTable holds all shops indexed by ShopID.
type ShopTable struct {
	shops map[int32]*Shop
}

// LoadShopTable loads shop data from a YAML file.
func LoadShopTable(path string) (*ShopTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shop list: %w", err)
	}
	var f shopListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse shop list: %w", err)
	}
	t := &ShopTable{shops: make(map[int32]*Shop, len(f.Shops))}
	for i := range f.Shops {
		s := &f.Shops[i]
		if _, dup := t.shops[s.ShopID]; dup {
			return nil, fmt.Errorf("duplicate shop id %d", s.ShopID)
		}
		t.shops[s.ShopID] = s
	}
	return t, nil
}

// Get returns a shop by ID, or nil if not found.
func (t *ShopTable) Get(id int32) *Shop {
	return t.shops[id]
}

// Count returns the number of shops loaded.
func (t *ShopTable) Count() int {
	return len(t.shops)
}

// FindItem looks up a ware by template id, or nil.
func (s *Shop) FindItem(templateID int32) *ShopItem {
	for i := range s.Items {
		if s.Items[i].TemplateID == templateID {
			return &s.Items[i]
		}
	}
	return nil
}
