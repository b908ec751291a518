package dialog

import (
	"errors"
	"testing"
)

// stubEval answers predicates from a fixed table.
type stubEval struct {
	answers map[string]bool
}

func (e *stubEval) EvalPredicate(name string, _ map[string]any) (bool, error) {
	v, ok := e.answers[name]
	if !ok {
		return false, errors.New("unknown predicate " + name)
	}
	return v, nil
}

const testXML = `
<dialogs>
  <dialog id="1" title="Gate Warden">
    <page index="0">
      <text>Halt. State your business.</text>
      <response text="Just passing through." next="1"/>
      <response text="Goodbye." next="65535"/>
    </page>
    <page index="1">
      <branch predicate="has_gate_pass" true="2" false="3"/>
    </page>
    <page index="2">
      <text>Your pass is in order. Move along.</text>
      <response text="Thanks." next="65535"/>
    </page>
    <page index="3">
      <text>No pass, no passage.</text>
      <response text="Fine." next="65535"/>
    </page>
  </dialog>
</dialogs>`

func loadTestTree(t *testing.T) *Tree {
	t.Helper()
	store, err := Parse([]byte(testXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tree := store.Get(1)
	if tree == nil {
		t.Fatal("tree 1 not loaded")
	}
	return tree
}

func TestStartPresentsFirstPage(t *testing.T) {
	tree := loadTestTree(t)
	s := NewSession(tree, &stubEval{}, nil, nil)

	page, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if page.Index != 0 {
		t.Fatalf("start page = %d, want 0", page.Index)
	}
	if s.State() != AwaitingSelection {
		t.Fatalf("state = %v, want AwaitingSelection", s.State())
	}
}

func TestBranchAutoAdvances(t *testing.T) {
	tests := []struct {
		name     string
		hasPass  bool
		wantPage PageIndex
	}{
		{"pass holder reaches page 2", true, 2},
		{"no pass lands on page 3", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := loadTestTree(t)
			eval := &stubEval{answers: map[string]bool{"has_gate_pass": tt.hasPass}}
			s := NewSession(tree, eval, nil, nil)

			if _, err := s.Start(); err != nil {
				t.Fatalf("Start: %v", err)
			}
			page, err := s.Respond(0)
			if err != nil {
				t.Fatalf("Respond: %v", err)
			}
			// The branch page (index 1) is never presented.
			if page.Index != tt.wantPage {
				t.Fatalf("landed on page %d, want %d", page.Index, tt.wantPage)
			}
		})
	}
}

func TestOutOfRangeResponseTerminates(t *testing.T) {
	tree := loadTestTree(t)
	s := NewSession(tree, &stubEval{}, nil, nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Page 0 has 2 responses; index 5 is hostile input.
	_, err := s.Respond(5)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("Respond(5) err = %v, want ErrInvalidResponse", err)
	}
	if s.State() != Idle {
		t.Fatal("session must terminate after an invalid selection")
	}
	// A follow-up selection on the dead session is also rejected.
	if _, err := s.Respond(0); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("Respond after terminate err = %v, want ErrInvalidResponse", err)
	}
}

func TestGoodbyeEndsDialog(t *testing.T) {
	tree := loadTestTree(t)
	s := NewSession(tree, &stubEval{}, nil, nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err := s.Respond(1)
	if !errors.Is(err, ErrEnded) {
		t.Fatalf("Respond err = %v, want ErrEnded", err)
	}
	if s.State() != Idle {
		t.Fatal("session must be idle after ending")
	}
}

func TestStaleSessionRejected(t *testing.T) {
	tree := loadTestTree(t)
	alive := true
	s := NewSession(tree, &stubEval{}, nil, func() bool { return alive })

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	alive = false // owning character disposed; epoch changed
	if _, err := s.Respond(0); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("Respond err = %v, want ErrStaleSession", err)
	}
}

func TestBranchCycleBounded(t *testing.T) {
	const cycleXML = `
<dialogs>
  <dialog id="2" title="Loop">
    <page index="0"><branch predicate="p" true="1" false="1"/></page>
    <page index="1"><branch predicate="p" true="0" false="0"/></page>
  </dialog>
</dialogs>`
	store, err := Parse([]byte(cycleXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := NewSession(store.Get(2), &stubEval{answers: map[string]bool{"p": true}}, nil, nil)
	_, err = s.Start()
	if !errors.Is(err, ErrBranchDepth) {
		t.Fatalf("Start err = %v, want ErrBranchDepth", err)
	}
}

func TestParseRejectsDanglingTargets(t *testing.T) {
	const badXML = `
<dialogs>
  <dialog id="3" title="Broken">
    <page index="0">
      <text>hi</text>
      <response text="go" next="9"/>
    </page>
  </dialog>
</dialogs>`
	if _, err := Parse([]byte(badXML)); err == nil {
		t.Fatal("Parse accepted a response targeting a missing page")
	}
}

func TestPageStoreTrim(t *testing.T) {
	var s PageStore
	s.Set(0, &Page{Index: 0})
	s.Set(10, &Page{Index: 10})
	s.Set(10, nil)
	s.Trim()
	if s.Len() != 1 {
		t.Fatalf("Len after trim = %d, want 1", s.Len())
	}
	if s.Count() != 1 {
		t.Fatalf("Count = %d, want 1", s.Count())
	}
}
