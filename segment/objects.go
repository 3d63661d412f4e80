package segment

// BlockObject locates one object inside a block by the byte offset of its
// start. The hash is an opaque content tag, carried through archiving as-is.
type BlockObject struct {
	Hash   [32]byte
	Offset uint32
}

// BlockObjectMapping lists the objects embedded in a single block.
type BlockObjectMapping struct {
	Objects []BlockObject
}

// GlobalObject locates one object in the archived history: the piece whose
// record holds the object's first byte and the offset within that record.
type GlobalObject struct {
	Hash       [32]byte
	PieceIndex PieceIndex
	Offset     uint32
}
