package handler

import (
	"strings"

	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/world"
)

const maxChatLen = 200

// HandleChat broadcasts chat to everyone on the speaker's map: [text\0].
func HandleChat(sess *net.Session, r *packet.Reader, deps *Deps) {
	c := deps.World.PlayerBySession(sess.ID)
	if c == nil || c.State() != world.Alive || c.Map() == nil {
		return
	}
	text := strings.TrimSpace(r.ReadS())
	if text == "" {
		return
	}
	if runes := []rune(text); len(runes) > maxChatLen {
		text = string(runes[:maxChatLen])
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAT)
	w.WriteH(c.Index())
	w.WriteS(c.Name)
	w.WriteS(text)
	// Chat is relevant map-wide, not just to players who can see the
	// speaker.
	c.Map().Send(w.Bytes())
}
