package packet

// Client → server opcodes.
const (
	C_OPCODE_LOGIN          byte = 1
	C_OPCODE_CREATE_CHAR    byte = 2
	C_OPCODE_ENTER_WORLD    byte = 3
	C_OPCODE_MOVE           byte = 10 // movement input: desired velocity
	C_OPCODE_ATTACK         byte = 11
	C_OPCODE_CHAT           byte = 12
	C_OPCODE_DIALOG_START   byte = 20 // player clicks an NPC
	C_OPCODE_DIALOG_SELECT  byte = 21 // player picks a response on the current page
	C_OPCODE_SHOP_LIST      byte = 30
	C_OPCODE_SHOP_BUY       byte = 31
	C_OPCODE_PICKUP         byte = 32
	C_OPCODE_QUIT           byte = 40
)

// Server → client opcodes.
const (
	S_OPCODE_LOGIN_RESULT byte = 101
	S_OPCODE_ENTER_WORLD  byte = 102
	S_OPCODE_CHAR_LIST    byte = 103
	S_OPCODE_CREATE_RESULT byte = 104

	// Entity lifecycle. Create carries the full construction payload keyed
	// by transmission index; Remove carries only the index.
	S_OPCODE_CREATE_ENTITY byte = 110
	S_OPCODE_REMOVE_ENTITY byte = 111

	// Movement delta encodings, selected by which velocity axes are nonzero.
	// All four are lossless: omitted velocity components are zero by contract.
	S_OPCODE_UPDATE_FULL     byte = 112 // index, x, y, velX, velY
	S_OPCODE_UPDATE_VELX     byte = 113 // index, x, y, velX (velY == 0)
	S_OPCODE_UPDATE_VELY     byte = 114 // index, x, y, velY (velX == 0)
	S_OPCODE_UPDATE_POS_ONLY byte = 115 // index, x, y (both velocities zero)

	S_OPCODE_DAMAGE    byte = 120 // target index, attacker index, amount
	S_OPCODE_HP_UPDATE byte = 121
	S_OPCODE_CHAT      byte = 122

	S_OPCODE_DIALOG_PAGE byte = 130 // dialog id, page index, text, responses
	S_OPCODE_DIALOG_END  byte = 131

	S_OPCODE_SHOP_LIST byte = 140

	// Ground items are referenced by world id rather than transmission
	// index: they never move, so the compact index space is reserved for
	// characters.
	S_OPCODE_ITEM_DROP   byte = 145
	S_OPCODE_ITEM_REMOVE byte = 146

	S_OPCODE_DISCONNECT byte = 150
)
