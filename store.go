package tecs

import (
	"unsafe"

	"go.uber.org/zap"
)

// componentStore is the type-erased view of a store the engine needs for
// cascading destroys, membership checks and driver selection.
type componentStore interface {
	typeID() uint32
	component() Component
	len() int
	has(id uint32) bool
	remove(id uint32) bool
	owner(slot int) Entity
}

var _ componentStore = &store[struct{}]{}

// store maps entity identifiers to densely packed payloads of one component
// type. Dense slot 0 is a sentinel; live payloads occupy slots [1, n].
//
// Removal swaps the last live slot into the hole, so pointers handed out by
// add and get stay valid only until the next removal from the same store.
type store[T any] struct {
	id       uint32
	comp     Component
	arena    *Arena
	log      *zap.Logger
	chunkLen int
	pageLen  int
	n        int

	sparse [][]uint32 // page -> identifier offset -> dense slot
	data   [][]T
	owners [][]Entity
}

func newStore[T any](arena *Arena, cfg Config, id uint32, comp Component, log *zap.Logger) (*store[T], error) {
	var zero T
	elem := max(int(unsafe.Sizeof(zero)), 1)
	chunkLen := max(1, cfg.ChunkBytes/elem)
	slots := cfg.MaxEntities + 1

	sparse, err := Alloc[[]uint32](arena, (slots+cfg.SparsePageSize-1)/cfg.SparsePageSize)
	if err != nil {
		return nil, err
	}
	chunks := (slots + chunkLen - 1) / chunkLen
	data, err := Alloc[[]T](arena, chunks)
	if err != nil {
		return nil, err
	}
	owners, err := Alloc[[]Entity](arena, chunks)
	if err != nil {
		return nil, err
	}

	log.Debug("component store created",
		zap.Uint32("type_id", id),
		zap.Int("chunk_len", chunkLen),
		zap.Int("chunks", chunks),
	)
	return &store[T]{
		id:       id,
		comp:     comp,
		arena:    arena,
		log:      log,
		chunkLen: chunkLen,
		pageLen:  cfg.SparsePageSize,
		sparse:   sparse,
		data:     data,
		owners:   owners,
	}, nil
}

func (s *store[T]) typeID() uint32 {
	return s.id
}

func (s *store[T]) component() Component {
	return s.comp
}

func (s *store[T]) len() int {
	return s.n
}

func (s *store[T]) slotOf(id uint32) int {
	page := s.sparse[int(id)/s.pageLen]
	if page == nil {
		return 0
	}
	return int(page[int(id)%s.pageLen])
}

func (s *store[T]) has(id uint32) bool {
	return s.slotOf(id) != 0
}

func (s *store[T]) at(slot int) *T {
	return &s.data[slot/s.chunkLen][slot%s.chunkLen]
}

func (s *store[T]) owner(slot int) Entity {
	return s.owners[slot/s.chunkLen][slot%s.chunkLen]
}

func (s *store[T]) get(id uint32) *T {
	slot := s.slotOf(id)
	if slot == 0 {
		return nil
	}
	return s.at(slot)
}

// add returns the payload for e, creating a zeroed one if e has none.
func (s *store[T]) add(e Entity) (*T, error) {
	pageIdx, off := int(e.ID)/s.pageLen, int(e.ID)%s.pageLen
	page := s.sparse[pageIdx]
	if page != nil {
		if slot := page[off]; slot != 0 {
			return s.at(int(slot)), nil
		}
	} else {
		var err error
		if page, err = Alloc[uint32](s.arena, s.pageLen); err != nil {
			return nil, err
		}
		s.sparse[pageIdx] = page
		s.log.Debug("sparse page allocated", zap.Uint32("type_id", s.id), zap.Int("page", pageIdx))
	}

	slot := s.n + 1
	chunk := slot / s.chunkLen
	if s.data[chunk] == nil {
		data, err := Alloc[T](s.arena, s.chunkLen)
		if err != nil {
			return nil, err
		}
		owners, err := Alloc[Entity](s.arena, s.chunkLen)
		if err != nil {
			return nil, err
		}
		s.data[chunk] = data
		s.owners[chunk] = owners
		s.log.Debug("dense chunk allocated", zap.Uint32("type_id", s.id), zap.Int("chunk", chunk))
	}

	s.n = slot
	page[off] = uint32(slot)
	s.owners[chunk][slot%s.chunkLen] = e
	return s.at(slot), nil
}

// remove deletes id's payload by moving the last live payload into its slot.
func (s *store[T]) remove(id uint32) bool {
	slot := s.slotOf(id)
	if slot == 0 {
		return false
	}
	last := s.n
	if slot != last {
		moved := s.owner(last)
		*s.at(slot) = *s.at(last)
		s.owners[slot/s.chunkLen][slot%s.chunkLen] = moved
		s.setSlot(moved.ID, slot)
	}
	var zero T
	*s.at(last) = zero
	s.owners[last/s.chunkLen][last%s.chunkLen] = Entity{}
	s.setSlot(id, 0)
	s.n--
	return true
}

func (s *store[T]) setSlot(id uint32, slot int) {
	s.sparse[int(id)/s.pageLen][int(id)%s.pageLen] = uint32(slot)
}
