package vm

import "encoding/binary"

// Block is one entry in the heap arena: a byte vector plus a freed mark.
// Blocks are never re-indexed; freeing clears the data but keeps the slot
// so pointer identity stays stable.
type Block struct {
	Data  []byte
	Freed bool
}

// Heap is a grow-only arena of blocks addressed by (blockIndex, offset)
// capability pointers.
type Heap struct {
	blocks []Block
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{}
}

// Alloc creates a fresh zeroed block and returns a pointer to its start.
func (h *Heap) Alloc(size int) Pointer {
	if size < 0 {
		size = 0
	}
	idx := uint32(len(h.blocks))
	h.blocks = append(h.blocks, Block{Data: make([]byte, size)})
	return Pointer{Block: idx, Offset: 0}
}

// Free marks the block freed and drops its storage. Later loads on the
// block read zeros; later stores are dropped. The slot itself survives.
func (h *Heap) Free(p Pointer) {
	if int(p.Block) >= len(h.blocks) {
		return
	}
	b := &h.blocks[p.Block]
	b.Freed = true
	b.Data = nil
}

// Realloc resizes a live block in place, preserving its prefix. Freed or
// unknown blocks are left untouched. The returned pointer keeps the block
// index with offset reset to 0.
func (h *Heap) Realloc(p Pointer, newSize int) Pointer {
	if newSize < 0 {
		newSize = 0
	}
	if int(p.Block) >= len(h.blocks) {
		return p
	}
	b := &h.blocks[p.Block]
	if b.Freed {
		return Pointer{Block: p.Block, Offset: 0}
	}
	if newSize <= len(b.Data) {
		b.Data = b.Data[:newSize]
	} else {
		grown := make([]byte, newSize)
		copy(grown, b.Data)
		b.Data = grown
	}
	return Pointer{Block: p.Block, Offset: 0}
}

// BlockSize returns the current data length of a pointer's block, or 0
// for freed/unknown blocks.
func (h *Heap) BlockSize(p Pointer) int {
	if int(p.Block) >= len(h.blocks) {
		return 0
	}
	return len(h.blocks[p.Block].Data)
}

// live returns the block behind p when it exists and is not freed.
func (h *Heap) live(p Pointer) *Block {
	if int(p.Block) >= len(h.blocks) {
		return nil
	}
	b := &h.blocks[p.Block]
	if b.Freed {
		return nil
	}
	return b
}

// loadRange returns the n bytes at p+extra, or nil when the access is out
// of range or the block is dead. Freed memory is never observed.
func (h *Heap) loadRange(p Pointer, extra int64, n int) []byte {
	b := h.live(p)
	if b == nil {
		return nil
	}
	at := int64(p.Offset) + extra
	if at < 0 || at+int64(n) > int64(len(b.Data)) {
		return nil
	}
	return b.Data[at : at+int64(n)]
}

// storeRange returns a writable n-byte window at p+extra, or nil when the
// write must be dropped.
func (h *Heap) storeRange(p Pointer, extra int64, n int) []byte {
	return h.loadRange(p, extra, n)
}

// Load8 reads one byte; out-of-range and freed reads return 0.
func (h *Heap) Load8(p Pointer, extra int64) uint64 {
	if b := h.loadRange(p, extra, 1); b != nil {
		return uint64(b[0])
	}
	return 0
}

// Load16 reads a little-endian u16.
func (h *Heap) Load16(p Pointer, extra int64) uint64 {
	if b := h.loadRange(p, extra, 2); b != nil {
		return uint64(binary.LittleEndian.Uint16(b))
	}
	return 0
}

// Load32 reads a little-endian u32.
func (h *Heap) Load32(p Pointer, extra int64) uint64 {
	if b := h.loadRange(p, extra, 4); b != nil {
		return uint64(binary.LittleEndian.Uint32(b))
	}
	return 0
}

// Load64 reads a little-endian u64.
func (h *Heap) Load64(p Pointer, extra int64) uint64 {
	if b := h.loadRange(p, extra, 8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

// Store8 writes one byte; out-of-range writes are dropped.
func (h *Heap) Store8(p Pointer, extra int64, v uint64) {
	if b := h.storeRange(p, extra, 1); b != nil {
		b[0] = byte(v)
	}
}

// Store16 writes a little-endian u16.
func (h *Heap) Store16(p Pointer, extra int64, v uint64) {
	if b := h.storeRange(p, extra, 2); b != nil {
		binary.LittleEndian.PutUint16(b, uint16(v))
	}
}

// Store32 writes a little-endian u32.
func (h *Heap) Store32(p Pointer, extra int64, v uint64) {
	if b := h.storeRange(p, extra, 4); b != nil {
		binary.LittleEndian.PutUint32(b, uint32(v))
	}
}

// Store64 writes a little-endian u64.
func (h *Heap) Store64(p Pointer, extra int64, v uint64) {
	if b := h.storeRange(p, extra, 8); b != nil {
		binary.LittleEndian.PutUint64(b, v)
	}
}

// Memcpy copies n bytes between offsets of blocks, clamping the count to
// what both windows can hold. Freed blocks participate as zero-length.
func (h *Heap) Memcpy(dst, src Pointer, n int) {
	if n <= 0 {
		return
	}
	db := h.live(dst)
	sb := h.live(src)
	if db == nil || sb == nil {
		return
	}
	if int(dst.Offset) >= len(db.Data) || int(src.Offset) >= len(sb.Data) {
		return
	}
	dstRoom := len(db.Data) - int(dst.Offset)
	srcRoom := len(sb.Data) - int(src.Offset)
	if n > dstRoom {
		n = dstRoom
	}
	if n > srcRoom {
		n = srcRoom
	}
	copy(db.Data[dst.Offset:int(dst.Offset)+n], sb.Data[src.Offset:int(src.Offset)+n])
}

// Memset fills n bytes from dst with b, clamped at the block bound.
func (h *Heap) Memset(dst Pointer, fill byte, n int) {
	if n <= 0 {
		return
	}
	db := h.live(dst)
	if db == nil || int(dst.Offset) >= len(db.Data) {
		return
	}
	room := len(db.Data) - int(dst.Offset)
	if n > room {
		n = room
	}
	for i := 0; i < n; i++ {
		db.Data[int(dst.Offset)+i] = fill
	}
}

// PtrAdd returns p shifted by delta bytes. Underflow saturates at offset 0.
func PtrAdd(p Pointer, delta int64) Pointer {
	at := int64(p.Offset) + delta
	if at < 0 {
		at = 0
	}
	return Pointer{Block: p.Block, Offset: uint32(at)}
}

// Reset drops every block (used when the VM clears state at halt).
func (h *Heap) Reset() {
	h.blocks = nil
}

// BlockCount returns the number of slots ever allocated (test hook).
func (h *Heap) BlockCount() int {
	return len(h.blocks)
}
