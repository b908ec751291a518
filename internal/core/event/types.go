package event

import "github.com/ashvale/server/internal/ident"

type PlayerLoggedIn struct {
	EntityID    ident.EntityID
	AccountName string
}

type PlayerDisconnected struct {
	EntityID  ident.EntityID
	SessionID uint64
}

type EntityKilled struct {
	Victim ident.EntityID
	Killer ident.EntityID // 0 when environmental
}

type DialogEnded struct {
	Player ident.EntityID
	NPC    ident.EntityID
}
