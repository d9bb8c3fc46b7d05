package tecs

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	iter_util "github.com/TheBitDrifter/util/iter"
)

func newCursor(query QueryNode, eng Engine) *Cursor {
	return &Cursor{
		query:  query,
		engine: eng.(*engine),
	}
}

// Next advances to the next matching entity. The engine stays locked from
// the first call until Next returns false or Reset is called, so a loop that
// breaks out early must call Reset itself.
func (c *Cursor) Next() bool {
	c.initialize()
	for !c.empty && c.position < c.limit {
		c.position++
		var candidate Entity
		if c.driver != nil {
			candidate = c.driver.owner(c.position)
		} else {
			id := uint32(c.position)
			if !c.engine.entities.alive(id) {
				continue
			}
			candidate = c.engine.entities.slot(id).handle
		}
		c.engine.scanned++

		signature := c.engine.entities.slot(candidate.ID).components
		if c.query.Evaluate(signature, c.engine) {
			c.engine.visited++
			c.current = candidate
			c.signature = signature
			return true
		}
	}
	c.Reset()
	return false
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.engine.Lock()
	c.initialized = true
	c.position = 0
	c.driver, c.empty = c.engine.driverFor(requiredComponents(c.query))
	if c.driver != nil {
		c.limit = c.driver.len()
	} else {
		c.limit = int(c.engine.entities.issued)
	}
}

// Entities yields every matching entity.
func (c *Cursor) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for c.Next() {
			if !yield(c.current) {
				c.Reset()
				return
			}
		}
	}
}

// Collect drains the cursor into a slice.
func (c *Cursor) Collect() []Entity {
	return iter_util.Collect(c.Entities())
}

// Bitmap drains the cursor into a set of matching entity identifiers.
func (c *Cursor) Bitmap() *roaring.Bitmap {
	bm := roaring.New()
	for c.Next() {
		bm.Add(c.current.ID)
	}
	return bm
}

func (c *Cursor) Reset() {
	c.position = 0
	c.limit = 0
	c.current = Entity{}
	c.driver = nil
	c.empty = false
	if c.initialized {
		c.initialized = false
		c.engine.Unlock()
	}
}

func (c *Cursor) CurrentEntity() Entity {
	return c.current
}

// TotalMatched counts matches with a separate pass; c's position is untouched.
func (c *Cursor) TotalMatched() int {
	probe := newCursor(c.query, c.engine)
	total := 0
	for probe.Next() {
		total++
	}
	return total
}

// driverFor picks the smallest store among required. empty reports that some
// required component has no store, so nothing can match. A nil driver with
// empty false means the entity table must be scanned.
func (e *engine) driverFor(required []Component) (driver componentStore, empty bool) {
	if len(required) == 0 {
		return nil, false
	}
	stores := make([]componentStore, 0, len(required))
	for _, comp := range required {
		s := e.storeOf(comp)
		if s == nil {
			return nil, true
		}
		stores = append(stores, s)
	}
	return pickDriver(stores...), false
}
