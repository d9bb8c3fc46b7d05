package tecs

// Add attaches a zeroed T to e and returns it. If e already has the
// component the existing payload is returned unchanged.
//
// The pointer is valid until the next removal of this component type from
// any entity.
func (c AccessibleComponent[T]) Add(eng Engine, e Entity) (*T, error) {
	return addComponent[T](eng.(*engine), e, c.Component)
}

// AddWithValue attaches c to e if needed and stores value in it.
func (c AccessibleComponent[T]) AddWithValue(eng Engine, e Entity, value T) (*T, error) {
	payload, err := c.Add(eng, e)
	if err != nil {
		return nil, err
	}
	*payload = value
	return payload, nil
}

// EnqueueAdd adds value to e now, or once the engine unlocks if it is locked.
func (c AccessibleComponent[T]) EnqueueAdd(eng Engine, e Entity, value T) error {
	en := eng.(*engine)
	if !en.Locked() {
		_, err := c.AddWithValue(eng, e, value)
		return err
	}
	id, err := en.resolve(c.Component)
	if err != nil {
		return err
	}
	en.opQueue.EnqueueComponentOp(opAddComponent, opKey{entity: e, typeID: id}, func() error {
		if !en.entities.valid(e) {
			return nil
		}
		_, err := c.AddWithValue(eng, e, value)
		return err
	})
	return nil
}

// Get returns e's payload, or nil if e is invalid or lacks the component.
func (c AccessibleComponent[T]) Get(eng Engine, e Entity) *T {
	en := eng.(*engine)
	if !en.entities.valid(e) {
		return nil
	}
	s := lookupStore[T](en, c.Component)
	if s == nil {
		return nil
	}
	return s.get(e.ID)
}

// GetUnchecked skips the handle check. e must be valid and carry the
// component; anything else is a programming error.
func (c AccessibleComponent[T]) GetUnchecked(eng Engine, e Entity) *T {
	return lookupStore[T](eng.(*engine), c.Component).get(e.ID)
}

func (c AccessibleComponent[T]) Has(eng Engine, e Entity) bool {
	en := eng.(*engine)
	if !en.entities.valid(e) {
		return false
	}
	s := lookupStore[T](en, c.Component)
	return s != nil && s.has(e.ID)
}

func (c AccessibleComponent[T]) Remove(eng Engine, e Entity) error {
	return eng.RemoveComponent(e, c.Component)
}

func (c AccessibleComponent[T]) EnqueueRemove(eng Engine, e Entity) error {
	return eng.EnqueueRemoveComponent(e, c.Component)
}

// Count returns the number of entities carrying the component.
func (c AccessibleComponent[T]) Count(eng Engine) int {
	return eng.Count(c.Component)
}

// GetFromCursor returns the payload of the cursor's current entity, or nil.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	s := lookupStore[T](cursor.engine, c.Component)
	if s == nil {
		return nil
	}
	return s.get(cursor.current.ID)
}

// CheckCursor reports whether the cursor's current entity carries the component.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	id, ok := cursor.engine.TypeID(c.Component)
	return ok && cursor.signature.ContainsAll(cursor.engine.bits[id])
}

func (c AccessibleComponent[T]) elementType() Component {
	return c.Component
}

type componentWrapper interface {
	elementType() Component
}

// componentKey strips typed wrappers so every view of a component maps to
// the same engine key.
func componentKey(c Component) Component {
	if w, ok := c.(componentWrapper); ok {
		return w.elementType()
	}
	return c
}
