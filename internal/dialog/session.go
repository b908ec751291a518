package dialog

import (
	"errors"
	"fmt"
)

// Sentinel results for dialog progression. ErrEnded is the normal
// termination; the others terminate the session defensively.
var (
	ErrEnded           = errors.New("dialog ended")
	ErrInvalidResponse = errors.New("invalid response index")
	ErrStaleSession    = errors.New("dialog session is stale")
	ErrBranchDepth     = errors.New("branch chain too deep")
)

// Evaluator resolves named branch predicates server-side (quest state,
// inventory checks). Implementations must be deterministic for one tick.
type Evaluator interface {
	EvalPredicate(name string, env map[string]any) (bool, error)
}

// SessionState is the per-conversation state machine phase.
type SessionState int

const (
	Idle SessionState = iota
	AwaitingSelection
)

// Session is one active conversation between a player and an NPC. It is
// valid only while the validity check holds: disposal of either character
// bumps its epoch and implicitly cancels the session.
type Session struct {
	tree  *Tree
	page  PageIndex
	state SessionState

	eval Evaluator
	env  map[string]any // predicate environment: player/NPC identity, quest flags

	// valid reports whether both conversation ends still exist at their
	// original epoch. Checked before every transition so a session never
	// acts on a disposed character.
	valid func() bool
}

// NewSession prepares an idle session over a tree. env is exposed to branch
// predicates; valid gates every transition (nil means always valid).
func NewSession(tree *Tree, eval Evaluator, env map[string]any, valid func() bool) *Session {
	if valid == nil {
		valid = func() bool { return true }
	}
	return &Session{tree: tree, eval: eval, env: env, valid: valid}
}

func (s *Session) State() SessionState { return s.state }

// CurrentPage returns the page awaiting a selection, or nil when idle.
func (s *Session) CurrentPage() *Page {
	if s.state != AwaitingSelection {
		return nil
	}
	return s.tree.Page(s.page)
}

// Start resolves the tree's initial page, runs through any branch-only pages,
// and leaves the session awaiting a selection. Returns the first presentable
// page, or ErrEnded if the branch chain terminated the dialog immediately.
func (s *Session) Start() (*Page, error) {
	if !s.valid() {
		return nil, ErrStaleSession
	}
	return s.advanceTo(s.tree.Start())
}

// Respond applies a player's response selection to the current page. The
// index is validated against the current page's response list — an
// out-of-range or stale index terminates the session and returns
// ErrInvalidResponse; wire input is never trusted blindly.
func (s *Session) Respond(idx int) (*Page, error) {
	if !s.valid() {
		s.terminate()
		return nil, ErrStaleSession
	}
	if s.state != AwaitingSelection {
		return nil, ErrInvalidResponse
	}
	page := s.tree.Page(s.page)
	if page == nil || idx < 0 || idx >= len(page.Responses) {
		s.terminate()
		return nil, ErrInvalidResponse
	}

	next := page.Responses[idx].Next
	if next == EndDialog {
		s.terminate()
		return nil, ErrEnded
	}
	return s.advanceTo(next)
}

// End terminates the session from the server side (player walked away,
// NPC died).
func (s *Session) End() {
	s.terminate()
}

func (s *Session) terminate() {
	s.state = Idle
	s.page = 0
}

// maxBranchChain bounds consecutive branch-only pages; a predicate cycle in
// authored content must not hang the tick.
const maxBranchChain = 32

// advanceTo moves to a page, auto-advancing through branch-only pages by
// evaluating their predicates server-side. The client never sees branch
// pages; their text is suppressed.
func (s *Session) advanceTo(idx PageIndex) (*Page, error) {
	for depth := 0; ; depth++ {
		if depth > maxBranchChain {
			s.terminate()
			return nil, ErrBranchDepth
		}
		if idx == EndDialog {
			s.terminate()
			return nil, ErrEnded
		}
		page := s.tree.Page(idx)
		if page == nil {
			// Validated at load time; reaching this means authored content
			// changed underneath us.
			s.terminate()
			return nil, fmt.Errorf("dialog %d: missing page %d", s.tree.ID, idx)
		}
		if page.Branch == nil {
			s.page = idx
			s.state = AwaitingSelection
			return page, nil
		}

		ok, err := s.eval.EvalPredicate(page.Branch.Predicate, s.env)
		if err != nil {
			s.terminate()
			return nil, fmt.Errorf("predicate %q: %w", page.Branch.Predicate, err)
		}
		if ok {
			idx = page.Branch.True
		} else {
			idx = page.Branch.False
		}
	}
}
