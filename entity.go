package tecs

import (
	"github.com/TheBitDrifter/mask"
)

const (
	idBits         = 24
	generationBits = 7

	// MaxEntityID is the largest identifier a packed handle can carry.
	MaxEntityID = 1<<idBits - 1

	generationMask = 1<<generationBits - 1
)

// Entity is a handle to an entity. ID 0 is never issued.
//
// Generation is a 7-bit counter bumped every time ID is recycled. A stale
// handle whose identifier has been reused exactly 128 times reads as valid
// again; that wraparound is a known limitation.
type Entity struct {
	ID         uint32
	Generation uint8
	Alive      bool
}

// IsZero reports whether e is the zero handle, which never refers to an entity.
func (e Entity) IsZero() bool {
	return e.ID == 0
}

// Pack encodes e as alive:1 | generation:7 | id:24.
func (e Entity) Pack() uint32 {
	packed := e.ID&MaxEntityID | uint32(e.Generation&generationMask)<<idBits
	if e.Alive {
		packed |= 1 << 31
	}
	return packed
}

// UnpackEntity decodes a handle produced by Entity.Pack.
func UnpackEntity(packed uint32) Entity {
	return Entity{
		ID:         packed & MaxEntityID,
		Generation: uint8(packed>>idBits) & generationMask,
		Alive:      packed>>31 == 1,
	}
}

// entitySlot stores the current handle for an identifier. Once the entity is
// destroyed handle.ID links to the next free identifier instead.
type entitySlot struct {
	handle     Entity
	components mask.Mask
}

type entityTable struct {
	slots    []entitySlot // index 0 is reserved
	issued   uint32       // highest identifier ever handed out
	freeHead uint32
	live     int
}

func newEntityTable(arena *Arena, maxEntities int) (entityTable, error) {
	slots, err := Alloc[entitySlot](arena, maxEntities+1)
	if err != nil {
		return entityTable{}, err
	}
	return entityTable{slots: slots}, nil
}

func (t *entityTable) capacity() int {
	return len(t.slots) - 1
}

func (t *entityTable) create() (Entity, error) {
	var id uint32
	if t.freeHead != 0 {
		id = t.freeHead
		t.freeHead = t.slots[id].handle.ID
	} else {
		if int(t.issued) >= t.capacity() {
			return Entity{}, EntityCapacityError{Capacity: t.capacity()}
		}
		t.issued++
		id = t.issued
	}
	slot := &t.slots[id]
	slot.handle.ID = id
	slot.handle.Alive = true
	slot.components = mask.Mask{}
	t.live++
	return slot.handle, nil
}

// release marks a valid entity dead and recycles its identifier. Component
// cleanup is the caller's job and must happen first.
func (t *entityTable) release(e Entity) {
	slot := &t.slots[e.ID]
	slot.handle.Alive = false
	slot.handle.Generation = (slot.handle.Generation + 1) & generationMask
	slot.handle.ID = t.freeHead
	slot.components = mask.Mask{}
	t.freeHead = e.ID
	t.live--
}

func (t *entityTable) valid(e Entity) bool {
	if e.ID == 0 || e.ID > t.issued {
		return false
	}
	current := t.slots[e.ID].handle
	return current.Alive && current.Generation == e.Generation
}

func (t *entityTable) alive(id uint32) bool {
	return id != 0 && id <= t.issued && t.slots[id].handle.Alive
}

func (t *entityTable) slot(id uint32) *entitySlot {
	return &t.slots[id]
}
