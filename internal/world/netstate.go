package world

import (
	"math"

	"github.com/ashvale/server/internal/net/packet"
)

// Wire quantization: positions in whole pixels, velocities in 1/16 px/s
// fixed point. The last-sent snapshot is compared in quantized space so a
// sub-quantum wiggle never triggers a re-broadcast.
const velocityWireScale = 16

// NetState is the quantized movement state last sent for an entity.
type NetState struct {
	X, Y   uint16
	VX, VY int16
}

// CaptureNetState quantizes a live position/velocity pair.
func CaptureNetState(x, y, vx, vy float32) NetState {
	return NetState{
		X:  uint16(math.Round(float64(x))),
		Y:  uint16(math.Round(float64(y))),
		VX: int16(math.Round(float64(vx) * velocityWireScale)),
		VY: int16(math.Round(float64(vy) * velocityWireScale)),
	}
}

// VelX returns the decoded X velocity in px/s.
func (s NetState) VelX() float32 { return float32(s.VX) / velocityWireScale }

// VelY returns the decoded Y velocity in px/s.
func (s NetState) VelY() float32 { return float32(s.VY) / velocityWireScale }

// EncodeUpdate builds the movement delta packet for an entity, choosing one
// of four wire shapes by which velocity axes are nonzero. The choice is a
// pure bandwidth optimization: omitted components are zero by contract, so
// any decoder reverses it losslessly.
func EncodeUpdate(index uint16, st NetState) []byte {
	var w *packet.Writer
	switch {
	case st.VX != 0 && st.VY != 0:
		w = packet.NewWriterWithOpcode(packet.S_OPCODE_UPDATE_FULL)
		w.WriteH(index)
		w.WriteH(st.X)
		w.WriteH(st.Y)
		w.WriteHS(st.VX)
		w.WriteHS(st.VY)
	case st.VX != 0:
		w = packet.NewWriterWithOpcode(packet.S_OPCODE_UPDATE_VELX)
		w.WriteH(index)
		w.WriteH(st.X)
		w.WriteH(st.Y)
		w.WriteHS(st.VX)
	case st.VY != 0:
		w = packet.NewWriterWithOpcode(packet.S_OPCODE_UPDATE_VELY)
		w.WriteH(index)
		w.WriteH(st.X)
		w.WriteH(st.Y)
		w.WriteHS(st.VY)
	default:
		w = packet.NewWriterWithOpcode(packet.S_OPCODE_UPDATE_POS_ONLY)
		w.WriteH(index)
		w.WriteH(st.X)
		w.WriteH(st.Y)
	}
	return w.Bytes()
}

// DecodeUpdate reads any of the four movement delta shapes back into the
// transmission index and quantized state.
func DecodeUpdate(r *packet.Reader) (index uint16, st NetState) {
	opcode := r.Opcode()
	index = r.ReadH()
	st.X = r.ReadH()
	st.Y = r.ReadH()
	switch opcode {
	case packet.S_OPCODE_UPDATE_FULL:
		st.VX = r.ReadHS()
		st.VY = r.ReadHS()
	case packet.S_OPCODE_UPDATE_VELX:
		st.VX = r.ReadHS()
	case packet.S_OPCODE_UPDATE_VELY:
		st.VY = r.ReadHS()
	}
	return index, st
}
