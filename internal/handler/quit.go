package handler

import (
	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
)

// HandleQuit acknowledges a clean logout and closes the session. The input
// system's dead-session sweep does the actual save and world removal, the
// same path a dropped connection takes.
func HandleQuit(sess *net.Session, r *packet.Reader, deps *Deps) {
	sess.Send(packet.NewWriterWithOpcode(packet.S_OPCODE_DISCONNECT).Bytes())
	sess.FlushOutput()
	sess.Close()
}
