// Package dialog implements the NPC chat dialog engine: index-addressed
// branching conversation trees replicated identically on both peers.
//
// Dialogs and their pages are keyed by dense 16-bit numeric IDs assigned at
// authoring time, never by pointer identity, so a read-only copy of the same
// tree file drives the client while the server runs the authoritative
// session.
package dialog

// TreeID identifies a whole dialog tree (0–65535).
type TreeID uint16

// PageIndex identifies a page within a tree (0–65535).
type PageIndex uint16

// EndDialog is the response target meaning "terminate the conversation".
const EndDialog PageIndex = 0xFFFF

// Response is one selectable answer on a page. Selecting it moves the
// conversation to Next, or ends it when Next == EndDialog.
type Response struct {
	Text string
	Next PageIndex
}

// Branch is a server-side condition attached to a branch-only page. The named
// predicate is evaluated against the conversation context; the page then
// auto-advances to True or False without client interaction.
type Branch struct {
	Predicate string
	True      PageIndex
	False     PageIndex
}

// Page is one dialog page: either presentable text plus responses, or a
// branch-only page (Branch != nil) whose text is suppressed.
type Page struct {
	Index     PageIndex
	Text      string
	Branch    *Branch
	Responses []Response
}

// Tree is a full dialog graph. Pages live in a dense index-addressed store.
type Tree struct {
	ID    TreeID
	Title string
	pages PageStore
}

// Page returns the page at the given index, or nil.
func (t *Tree) Page(idx PageIndex) *Page {
	return t.pages.Get(idx)
}

// Start returns the tree's initial page index. Page 0 by authoring
// convention.
func (t *Tree) Start() PageIndex {
	return 0
}

// PageCount reports the number of authored pages.
func (t *Tree) PageCount() int {
	return t.pages.Count()
}

// Pages returns the authored pages in index order, skipping holes.
func (t *Tree) Pages() []*Page {
	out := make([]*Page, 0, t.pages.Count())
	for i := 0; i < t.pages.Len(); i++ {
		if p := t.pages.Get(PageIndex(i)); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// PageStore is a dense sparse-slice store for 16-bit-indexed pages: IDs are
// assigned densely at authoring time, so a slice beats a map and trims
// trailing holes on demand.
type PageStore struct {
	slots []*Page
	count int
}

// Set places a page at its index, growing the slice as needed.
func (s *PageStore) Set(idx PageIndex, p *Page) {
	i := int(idx)
	for len(s.slots) <= i {
		s.slots = append(s.slots, nil)
	}
	if s.slots[i] == nil && p != nil {
		s.count++
	}
	if s.slots[i] != nil && p == nil {
		s.count--
	}
	s.slots[i] = p
}

// Get returns the page at idx, or nil for a hole or out-of-range index.
func (s *PageStore) Get(idx PageIndex) *Page {
	i := int(idx)
	if i >= len(s.slots) {
		return nil
	}
	return s.slots[i]
}

// Count reports how many slots are occupied.
func (s *PageStore) Count() int {
	return s.count
}

// Trim drops trailing nil slots so the backing array matches the highest
// authored index.
func (s *PageStore) Trim() {
	n := len(s.slots)
	for n > 0 && s.slots[n-1] == nil {
		n--
	}
	s.slots = s.slots[:n]
}

// Len returns the slot count including holes (highest index + 1 after Trim).
func (s *PageStore) Len() int {
	return len(s.slots)
}
