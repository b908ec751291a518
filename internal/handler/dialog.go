package handler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/core/event"
	"github.com/ashvale/server/internal/dialog"
	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/world"
)

// HandleDialogStart opens a conversation with an NPC: [npcIndex:H]. The
// session is gated on both characters' epochs so it dies with either one.
func HandleDialogStart(sess *net.Session, r *packet.Reader, deps *Deps) {
	c := deps.World.PlayerBySession(sess.ID)
	if c == nil || c.State() != world.Alive || c.Map() == nil {
		return
	}

	npc := c.Map().EntityByIndex(r.ReadH())
	if npc == nil || npc.ChatTree == nil || npc.State() != world.Alive {
		return
	}
	if !withinTalkRange(c, npc, deps.Config.Game.TalkRange) {
		return
	}

	c.EndDialog() // starting a new conversation abandons the old one

	playerEpoch, npcEpoch := c.Epoch(), npc.Epoch()
	valid := func() bool {
		return c.Epoch() == playerEpoch && npc.Epoch() == npcEpoch &&
			c.State() == world.Alive && npc.State() == world.Alive
	}
	env := map[string]any{
		"player_name": c.Name,
		"player_id":   int32(c.ID),
		"player_gold": c.Gold,
		"player_hp":   c.Stats.HP,
		"npc_id":      int32(npc.ID),
		"npc_name":    npc.Name,
		"items":       inventoryCounts(c),
	}

	ds := dialog.NewSession(npc.ChatTree, deps.Scripting, env, valid)
	page, err := ds.Start()
	if err != nil {
		if !errors.Is(err, dialog.ErrEnded) {
			deps.Log.Warn("dialog start failed",
				zap.Uint16("tree", uint16(npc.ChatTree.ID)),
				zap.Error(err))
		}
		sess.Send(packet.NewWriterWithOpcode(packet.S_OPCODE_DIALOG_END).Bytes())
		return
	}

	c.ActiveDialog = ds
	c.ActiveDialogNPC = npc
	sendDialogPage(sess, npc.ChatTree, page)
}

// HandleDialogSelect applies a response pick: [responseIndex:C]. Any error
// from the dialog engine ends the conversation; invalid input is never
// retried.
func HandleDialogSelect(sess *net.Session, r *packet.Reader, deps *Deps) {
	c := deps.World.PlayerBySession(sess.ID)
	if c == nil || c.ActiveDialog == nil {
		return
	}
	npc := c.ActiveDialogNPC

	page, err := c.ActiveDialog.Respond(int(r.ReadC()))
	if err != nil {
		c.ActiveDialog = nil
		c.ActiveDialogNPC = nil
		sess.Send(packet.NewWriterWithOpcode(packet.S_OPCODE_DIALOG_END).Bytes())
		if npc != nil {
			event.Emit(deps.Bus, event.DialogEnded{Player: c.ID, NPC: npc.ID})
		}
		if !errors.Is(err, dialog.ErrEnded) {
			deps.Log.Debug("dialog terminated",
				zap.String("player", c.Name),
				zap.Error(err))
		}
		return
	}
	if npc != nil && npc.ChatTree != nil {
		sendDialogPage(sess, npc.ChatTree, page)
	}
}

func sendDialogPage(sess *net.Session, tree *dialog.Tree, page *dialog.Page) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_DIALOG_PAGE)
	w.WriteH(uint16(tree.ID))
	w.WriteH(uint16(page.Index))
	w.WriteS(tree.Title)
	w.WriteS(page.Text)
	w.WriteC(byte(len(page.Responses)))
	for _, resp := range page.Responses {
		w.WriteS(resp.Text)
	}
	sess.Send(w.Bytes())
}

func withinTalkRange(a, b *world.Character, talkRange float32) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx+dy*dy <= talkRange*talkRange
}
