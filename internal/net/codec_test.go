package net

import (
	"bytes"
	"testing"
)

func TestFrameRoundtrip(t *testing.T) {
	payload := []byte{0x42, 1, 2, 3, 0xFF}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if buf.Len() != len(payload)+2 {
		t.Fatalf("frame size = %d, want %d", buf.Len(), len(payload)+2)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload = %v, want %v", got, payload)
	}
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	// Header claims a total length of 2: zero payload bytes.
	if _, err := ReadFrame(bytes.NewReader([]byte{2, 0})); err == nil {
		t.Fatal("zero-payload frame accepted")
	}
	// Header claims a total length of 0.
	if _, err := ReadFrame(bytes.NewReader([]byte{0, 0})); err == nil {
		t.Fatal("zero-length frame accepted")
	}
}

func TestReadFrameShortPayload(t *testing.T) {
	// Header promises 8 payload bytes but the stream ends after 3.
	if _, err := ReadFrame(bytes.NewReader([]byte{10, 0, 1, 2, 3})); err == nil {
		t.Fatal("truncated frame accepted")
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	// One byte past what the 2-byte length prefix can express.
	if err := WriteFrame(&buf, make([]byte, maxFramePayload+1)); err == nil {
		t.Fatal("oversized frame accepted")
	}
	if buf.Len() != 0 {
		t.Fatalf("rejected frame wrote %d bytes", buf.Len())
	}

	// The boundary payload itself still goes through.
	if err := WriteFrame(&buf, make([]byte, maxFramePayload)); err != nil {
		t.Fatalf("WriteFrame at boundary: %v", err)
	}
}

func TestReadFrameConsecutiveFrames(t *testing.T) {
	var buf bytes.Buffer
	first := []byte{0x01, 0xAA}
	second := []byte{0x02, 0xBB, 0xCC}
	if err := WriteFrame(&buf, first); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := WriteFrame(&buf, second); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil || !bytes.Equal(got, first) {
		t.Fatalf("first frame = %v (%v), want %v", got, err, first)
	}
	got, err = ReadFrame(&buf)
	if err != nil || !bytes.Equal(got, second) {
		t.Fatalf("second frame = %v (%v), want %v", got, err, second)
	}
}
