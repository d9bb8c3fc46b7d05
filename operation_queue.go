package tecs

import (
	"fmt"

	"go.uber.org/multierr"
)

type operation struct {
	typ      operationType
	amount   int
	entities []Entity
	apply    func() error
}

type operationType int

const (
	opNone operationType = iota - 1
	opCreate
	opDestroy
	opAddComponent
	opRemoveComponent
)

type opKey struct {
	entity Entity
	typeID uint32
}

type opQueue struct {
	createOps      []operation
	componentOps   []operation
	destroyOps     []operation
	pendingDestroy map[Entity]struct{}
	pendingMods    map[opKey]int
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Entity]struct{}),
		pendingMods:    make(map[opKey]int),
	}
}

func (q *opQueue) empty() bool {
	return len(q.createOps) == 0 &&
		len(q.componentOps) == 0 &&
		len(q.destroyOps) == 0
}

// processOperationQueue applies every queued operation. A failing operation
// does not stop the ones after it; all failures are returned combined.
func (e *engine) processOperationQueue() error {
	if e.opQueue.empty() {
		return nil
	}
	q := e.opQueue
	e.opQueue = newOpQueue()
	var errs error

	// Process creates first
	for _, op := range q.createOps {
		if _, err := e.NewEntities(op.amount); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to process queued entity creation: %w", err))
		}
	}

	// Component ops check handle validity themselves; recycled entities are skipped.
	for _, op := range q.componentOps {
		if op.typ == opNone {
			continue
		}
		if err := op.apply(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to apply queued component operation: %w", err))
		}
	}

	// Process destroys last
	for _, op := range q.destroyOps {
		if err := e.DestroyEntities(op.entities...); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to destroy queued entities: %w", err))
		}
	}
	return errs
}

func (q *opQueue) EnqueueDestroy(entities []Entity) {
	var newEntities []Entity
	for _, en := range entities {
		if _, exists := q.pendingDestroy[en]; !exists {
			newEntities = append(newEntities, en)
			q.pendingDestroy[en] = struct{}{}
		}
	}
	if len(newEntities) == 0 {
		return
	}

	// Pending component operations on doomed entities become no-ops.
	for key, idx := range q.pendingMods {
		if _, doomed := q.pendingDestroy[key.entity]; doomed {
			q.componentOps[idx].typ = opNone
			delete(q.pendingMods, key)
		}
	}

	q.destroyOps = append(q.destroyOps, operation{
		typ:      opDestroy,
		entities: newEntities,
	})
}

// EnqueueComponentOp queues apply for key. A later operation on the same
// entity and component type replaces the earlier one.
func (q *opQueue) EnqueueComponentOp(typ operationType, key opKey, apply func() error) {
	if _, isDestroyed := q.pendingDestroy[key.entity]; isDestroyed {
		return
	}

	if existingIdx, exists := q.pendingMods[key]; exists {
		existingOp := &q.componentOps[existingIdx]
		existingOp.typ = typ
		existingOp.apply = apply
		return
	}

	q.pendingMods[key] = len(q.componentOps)
	q.componentOps = append(q.componentOps, operation{
		typ:      typ,
		entities: []Entity{key.entity},
		apply:    apply,
	})
}
