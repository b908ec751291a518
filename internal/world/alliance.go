package world

// Alliance decides who a character may fight. Hostility is symmetric and
// data-driven by this fixed matrix; an attack against a non-hostile target is
// silently dropped per-target.
type Alliance byte

const (
	AllianceNone     Alliance = iota // hostile to nothing, attackable by nothing
	AlliancePlayers                  // player characters
	AllianceMonsters                 // hostile NPCs
	AllianceTownsfolk                // merchants, quest givers
)

func (a Alliance) String() string {
	switch a {
	case AlliancePlayers:
		return "players"
	case AllianceMonsters:
		return "monsters"
	case AllianceTownsfolk:
		return "townsfolk"
	default:
		return "none"
	}
}

// ParseAlliance maps a data-table string to an Alliance; unknown strings map
// to AllianceNone.
func ParseAlliance(s string) Alliance {
	switch s {
	case "players":
		return AlliancePlayers
	case "monsters":
		return AllianceMonsters
	case "townsfolk":
		return AllianceTownsfolk
	default:
		return AllianceNone
	}
}

// Hostile reports whether a may damage b.
func (a Alliance) Hostile(b Alliance) bool {
	switch {
	case a == AlliancePlayers && b == AllianceMonsters:
		return true
	case a == AllianceMonsters && b == AlliancePlayers:
		return true
	default:
		return false
	}
}
