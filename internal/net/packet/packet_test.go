package packet

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestWriterReaderRoundtrip(t *testing.T) {
	w := NewWriterWithOpcode(0x42)
	w.WriteC(7)
	w.WriteH(0xBEEF)
	w.WriteHS(-12345)
	w.WriteD(-100000)
	w.WriteQ(1 << 40)
	w.WriteF32(3.5)
	w.WriteS("Ashvale")
	w.WriteS("") // empty string is just a terminator

	r := NewReader(w.Bytes())
	if r.Opcode() != 0x42 {
		t.Fatalf("opcode = %#x, want 0x42", r.Opcode())
	}
	if got := r.ReadC(); got != 7 {
		t.Fatalf("ReadC = %d, want 7", got)
	}
	if got := r.ReadH(); got != 0xBEEF {
		t.Fatalf("ReadH = %#x, want 0xBEEF", got)
	}
	if got := r.ReadHS(); got != -12345 {
		t.Fatalf("ReadHS = %d, want -12345", got)
	}
	if got := r.ReadD(); got != -100000 {
		t.Fatalf("ReadD = %d, want -100000", got)
	}
	if got := r.ReadQ(); got != 1<<40 {
		t.Fatalf("ReadQ = %d, want %d", got, int64(1<<40))
	}
	if got := r.ReadF32(); got != 3.5 {
		t.Fatalf("ReadF32 = %v, want 3.5", got)
	}
	if got := r.ReadS(); got != "Ashvale" {
		t.Fatalf("ReadS = %q, want %q", got, "Ashvale")
	}
	if got := r.ReadS(); got != "" {
		t.Fatalf("ReadS empty = %q, want empty", got)
	}
	if r.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", r.Remaining())
	}
}

func TestReaderTruncatedReadsReturnZero(t *testing.T) {
	// Opcode plus a single byte; every wider read must come back zero
	// instead of panicking.
	r := NewReader([]byte{0x01, 0xFF})
	if got := r.ReadD(); got != 0 {
		t.Fatalf("ReadD past end = %d, want 0", got)
	}
	if got := r.ReadH(); got != 0 {
		t.Fatalf("ReadH past end = %d, want 0", got)
	}
	if got := r.ReadC(); got != 0xFF {
		t.Fatalf("ReadC = %#x, want 0xFF", got)
	}
	if got := r.ReadC(); got != 0 {
		t.Fatalf("ReadC past end = %d, want 0", got)
	}
}

func TestReaderUnterminatedString(t *testing.T) {
	// A string missing its null terminator yields the remaining bytes.
	r := NewReader([]byte{0x01, 'h', 'i'})
	if got := r.ReadS(); got != "hi" {
		t.Fatalf("ReadS = %q, want %q", got, "hi")
	}
	if r.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", r.Remaining())
	}
}

func TestDispatchGatesBySessionState(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	called := 0
	reg.Register(0x10, []SessionState{StateInWorld}, func(_ any, _ *Reader) {
		called++
	})

	if err := reg.Dispatch(nil, StateHandshake, []byte{0x10}); err == nil {
		t.Fatal("Dispatch allowed an in-world opcode during handshake")
	}
	if called != 0 {
		t.Fatal("handler ran despite state rejection")
	}
	if err := reg.Dispatch(nil, StateInWorld, []byte{0x10}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if called != 1 {
		t.Fatalf("handler calls = %d, want 1", called)
	}
}

func TestDispatchIgnoresUnknownOpcodes(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	if err := reg.Dispatch(nil, StateInWorld, []byte{0xEE}); err != nil {
		t.Fatalf("unknown opcode returned error: %v", err)
	}
	var empty []byte
	if err := reg.Dispatch(nil, StateInWorld, empty); err == nil {
		t.Fatal("empty packet accepted")
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	boom := errors.New("bad parse")
	reg.Register(0x20, []SessionState{StateInWorld}, func(_ any, _ *Reader) {
		panic(boom)
	})

	err := reg.Dispatch(nil, StateInWorld, []byte{0x20})
	if err == nil {
		t.Fatal("panic swallowed without error")
	}
}
