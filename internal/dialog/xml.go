package dialog

import (
	"encoding/xml"
	"fmt"
	"os"
)

// The dialog content file is a single XML document holding every tree for the
// server; read-only replicas of the same file ship to clients.

type xmlFile struct {
	XMLName xml.Name    `xml:"dialogs"`
	Dialogs []xmlDialog `xml:"dialog"`
}

type xmlDialog struct {
	ID    uint16    `xml:"id,attr"`
	Title string    `xml:"title,attr"`
	Pages []xmlPage `xml:"page"`
}

type xmlPage struct {
	Index     uint16        `xml:"index,attr"`
	Text      string        `xml:"text"`
	Branch    *xmlBranch    `xml:"branch"`
	Responses []xmlResponse `xml:"response"`
}

type xmlBranch struct {
	Predicate string `xml:"predicate,attr"`
	True      uint16 `xml:"true,attr"`
	False     uint16 `xml:"false,attr"`
}

type xmlResponse struct {
	Text string `xml:"text,attr"`
	// Next is the target page index; the value 65535 ends the dialog.
	Next uint16 `xml:"next,attr"`
}

// Store holds every dialog tree loaded at startup, densely indexed by TreeID.
type Store struct {
	trees []*Tree
	count int
}

// Get returns the tree with the given ID, or nil.
func (s *Store) Get(id TreeID) *Tree {
	i := int(id)
	if i >= len(s.trees) {
		return nil
	}
	return s.trees[i]
}

// Count reports the number of loaded trees.
func (s *Store) Count() int {
	return s.count
}

// All returns every loaded tree in id order.
func (s *Store) All() []*Tree {
	out := make([]*Tree, 0, s.count)
	for _, t := range s.trees {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Load reads and validates the dialog XML document at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dialogs: %w", err)
	}
	return Parse(data)
}

// Parse builds a Store from raw XML.
func Parse(data []byte) (*Store, error) {
	var f xmlFile
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse dialogs: %w", err)
	}

	store := &Store{}
	for _, xd := range f.Dialogs {
		tree, err := buildTree(xd)
		if err != nil {
			return nil, fmt.Errorf("dialog %d: %w", xd.ID, err)
		}
		i := int(tree.ID)
		for len(store.trees) <= i {
			store.trees = append(store.trees, nil)
		}
		if store.trees[i] != nil {
			return nil, fmt.Errorf("dialog %d: duplicate id", xd.ID)
		}
		store.trees[i] = tree
		store.count++
	}
	return store, nil
}

func buildTree(xd xmlDialog) (*Tree, error) {
	t := &Tree{ID: TreeID(xd.ID), Title: xd.Title}
	for _, xp := range xd.Pages {
		if t.pages.Get(PageIndex(xp.Index)) != nil {
			return nil, fmt.Errorf("page %d: duplicate index", xp.Index)
		}
		p := &Page{
			Index: PageIndex(xp.Index),
			Text:  xp.Text,
		}
		if xp.Branch != nil {
			if len(xp.Responses) > 0 {
				return nil, fmt.Errorf("page %d: branch pages cannot carry responses", xp.Index)
			}
			p.Branch = &Branch{
				Predicate: xp.Branch.Predicate,
				True:      PageIndex(xp.Branch.True),
				False:     PageIndex(xp.Branch.False),
			}
		}
		for _, xr := range xp.Responses {
			p.Responses = append(p.Responses, Response{
				Text: xr.Text,
				Next: PageIndex(xr.Next),
			})
		}
		t.pages.Set(p.Index, p)
	}
	t.pages.Trim()

	if err := validateTree(t); err != nil {
		return nil, err
	}
	return t, nil
}

// validateTree checks that every branch and response targets an authored page
// or the end marker.
func validateTree(t *Tree) error {
	if t.Page(t.Start()) == nil {
		return fmt.Errorf("missing start page %d", t.Start())
	}
	for i := 0; i < t.pages.Len(); i++ {
		p := t.pages.Get(PageIndex(i))
		if p == nil {
			continue
		}
		check := func(target PageIndex, what string) error {
			if target == EndDialog {
				return nil
			}
			if t.Page(target) == nil {
				return fmt.Errorf("page %d: %s targets missing page %d", p.Index, what, target)
			}
			return nil
		}
		if p.Branch != nil {
			if p.Branch.Predicate == "" {
				return fmt.Errorf("page %d: branch without predicate", p.Index)
			}
			if err := check(p.Branch.True, "branch true"); err != nil {
				return err
			}
			if err := check(p.Branch.False, "branch false"); err != nil {
				return err
			}
		}
		for ri, r := range p.Responses {
			if err := check(r.Next, fmt.Sprintf("response %d", ri)); err != nil {
				return err
			}
		}
	}
	return nil
}
