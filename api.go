package tecs

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// Engine owns an entity table and one component store per registered
// component type. It is not safe for concurrent use.
type Engine interface {
	NewEntity() (Entity, error)
	NewEntities(n int) ([]Entity, error)
	EnqueueNewEntities(n int) error
	DestroyEntities(...Entity) error
	EnqueueDestroyEntities(...Entity) error

	Valid(Entity) bool
	Alive(id uint32) bool
	Entity(id uint32) (Entity, bool)
	Len() int
	Capacity() int

	Register(...Component) error
	TypeID(Component) (uint32, bool)
	Has(Entity, Component) bool
	Count(Component) int
	Components(Entity) []Component
	RemoveComponent(Entity, Component) error
	EnqueueRemoveComponent(Entity, Component) error

	Locked() bool
	Lock()
	Unlock()

	Arena() *Arena
	Stats() Stats
}

type EntityDestroyCallback func(Entity)

// Component identifies a component type. The engine resolves it to a type id
// through its table.Schema.
type Component interface {
	table.ElementType
}

type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

// QueryNode decides whether an entity with the given component signature matches.
type QueryNode interface {
	Evaluate(signature mask.Mask, engine Engine) bool
}

// Stats is a point-in-time snapshot of engine usage.
type Stats struct {
	LiveEntities  int
	Capacity      int
	Stores        int
	ArenaUsed     int
	ArenaCapacity int

	// Scanned counts candidate entities inspected by iteration; Visited counts
	// the ones that matched. Both are cumulative.
	Scanned uint64
	Visited uint64

	// QueueFailures counts queued operations that failed when applied.
	QueueFailures uint64
}

// Warning: internal Dependencies abound!
type Cursor struct {
	query  QueryNode
	engine *engine

	driver    componentStore // nil scans the entity table
	position  int
	limit     int
	current   Entity
	signature mask.Mask

	initialized bool
	empty       bool
}

// AccessibleComponent pairs a Component with typed access to its payloads.
// Create each one once with FactoryNewComponent and reuse it; the engine keys
// its stores by the Component value.
type AccessibleComponent[T any] struct {
	Component
}
