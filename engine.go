package tecs

import (
	"fmt"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var _ Engine = &engine{}

type engine struct {
	locks     int
	cfg       Config
	arena     *Arena
	schema    table.Schema
	entities  entityTable
	stores    []componentStore // indexed by type id
	bits      []mask.Mask      // single-bit mask per type id
	typeIDs   map[Component]uint32
	typeEpoch int // bumped on every new registration
	opQueue   opQueue
	scanned   uint64
	visited   uint64
	log       *zap.Logger
	onDestroy EntityDestroyCallback

	queueFailures uint64
}

func newEngine(arena *Arena, schema table.Schema, cfg Config, opts ...Option) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eng := &engine{
		cfg:     cfg,
		arena:   arena,
		schema:  schema,
		stores:  make([]componentStore, cfg.MaxComponentTypes+1),
		bits:    make([]mask.Mask, cfg.MaxComponentTypes+1),
		typeIDs: make(map[Component]uint32),
		opQueue: newOpQueue(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	entities, err := newEntityTable(arena, cfg.MaxEntities)
	if err != nil {
		return nil, eng.fatal(fmt.Errorf("allocate entity table: %w", err))
	}
	eng.entities = entities
	eng.log.Debug("engine created",
		zap.Int("max_entities", cfg.MaxEntities),
		zap.Int("max_component_types", cfg.MaxComponentTypes),
		zap.Int("arena_used", arena.Used()),
		zap.Int("arena_capacity", arena.Capacity()),
	)
	return eng, nil
}

// fatal logs a sizing failure and, if configured, panics with it.
func (e *engine) fatal(err error) error {
	e.log.Error("fatal engine failure",
		zap.Error(err),
		zap.Int("arena_remaining", e.arena.Remaining()),
		zap.Int("live_entities", e.entities.live),
	)
	if e.cfg.PanicOnFatal {
		panic(err)
	}
	return err
}

func (e *engine) NewEntity() (Entity, error) {
	if e.Locked() {
		return Entity{}, LockedEngineError{}
	}
	en, err := e.entities.create()
	if err != nil {
		return Entity{}, e.fatal(err)
	}
	return en, nil
}

// NewEntities creates n entities at once, or none if capacity cannot fit
// all of them. n <= 0 is a no-op.
func (e *engine) NewEntities(n int) ([]Entity, error) {
	if e.Locked() {
		return nil, LockedEngineError{}
	}
	if n <= 0 {
		return nil, nil
	}
	if n > e.entities.capacity()-e.entities.live {
		return nil, e.fatal(EntityCapacityError{Capacity: e.entities.capacity()})
	}
	entities := make([]Entity, n)
	for i := range entities {
		en, err := e.entities.create()
		if err != nil {
			return nil, e.fatal(err)
		}
		entities[i] = en
	}
	return entities, nil
}

func (e *engine) EnqueueNewEntities(n int) error {
	if n <= 0 {
		return nil
	}
	if !e.Locked() {
		if _, err := e.NewEntities(n); err != nil {
			return fmt.Errorf("failed to create entities directly: %w", err)
		}
		return nil
	}
	e.opQueue.createOps = append(e.opQueue.createOps, operation{
		typ:    opCreate,
		amount: n,
	})
	return nil
}

// DestroyEntities destroys every valid entity given and removes all of its
// components. Invalid or stale handles are skipped.
func (e *engine) DestroyEntities(entities ...Entity) error {
	if e.Locked() {
		return LockedEngineError{}
	}
	for _, en := range entities {
		if e.entities.valid(en) {
			e.destroy(en)
		}
	}
	return nil
}

func (e *engine) destroy(en Entity) {
	if e.onDestroy != nil {
		e.onDestroy(en)
	}
	slot := e.entities.slot(en.ID)
	for id, s := range e.stores {
		if s != nil && slot.components.ContainsAll(e.bits[id]) {
			s.remove(en.ID)
		}
	}
	e.entities.release(en)
}

func (e *engine) EnqueueDestroyEntities(entities ...Entity) error {
	if !e.Locked() {
		return e.DestroyEntities(entities...)
	}
	e.opQueue.EnqueueDestroy(entities)
	return nil
}

func (e *engine) Valid(en Entity) bool {
	return e.entities.valid(en)
}

func (e *engine) Alive(id uint32) bool {
	return e.entities.alive(id)
}

// Entity returns the current handle for id if it is alive.
func (e *engine) Entity(id uint32) (Entity, bool) {
	if !e.entities.alive(id) {
		return Entity{}, false
	}
	return e.entities.slot(id).handle, true
}

func (e *engine) Len() int {
	return e.entities.live
}

func (e *engine) Capacity() int {
	return e.entities.capacity()
}

// Register resolves type ids for components up front. Components are also
// registered lazily on first add.
func (e *engine) Register(components ...Component) error {
	for _, c := range components {
		if _, err := e.resolve(c); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) resolve(c Component) (uint32, error) {
	c = componentKey(c)
	if id, ok := e.TypeID(c); ok {
		return id, nil
	}
	e.schema.Register(c)
	id := e.schema.RowIndexFor(c)
	if int(id) >= len(e.stores) {
		return 0, ComponentLimitError{Component: c, TypeID: id, Limit: e.cfg.MaxComponentTypes}
	}
	e.typeIDs[c] = id
	e.bits[id].Mark(id)
	e.typeEpoch++
	return id, nil
}

func (e *engine) TypeID(c Component) (uint32, bool) {
	id, ok := e.typeIDs[componentKey(c)]
	return id, ok
}

func (e *engine) storeOf(c Component) componentStore {
	id, ok := e.TypeID(c)
	if !ok {
		return nil
	}
	return e.stores[id]
}

func (e *engine) Has(en Entity, c Component) bool {
	id, ok := e.TypeID(c)
	if !ok || !e.entities.valid(en) {
		return false
	}
	return e.entities.slot(en.ID).components.ContainsAll(e.bits[id])
}

func (e *engine) Count(c Component) int {
	s := e.storeOf(c)
	if s == nil {
		return 0
	}
	return s.len()
}

func (e *engine) Components(en Entity) []Component {
	if !e.entities.valid(en) {
		return nil
	}
	signature := e.entities.slot(en.ID).components
	var components []Component
	for id, s := range e.stores {
		if s != nil && signature.ContainsAll(e.bits[id]) {
			components = append(components, s.component())
		}
	}
	return components
}

// RemoveComponent removes c from en. It is a no-op when en is invalid or has no c.
func (e *engine) RemoveComponent(en Entity, c Component) error {
	if e.Locked() {
		return LockedEngineError{}
	}
	s := e.storeOf(c)
	if s == nil || !e.entities.valid(en) {
		return nil
	}
	e.removeFrom(s, en)
	return nil
}

func (e *engine) removeFrom(s componentStore, en Entity) {
	if s.remove(en.ID) {
		e.entities.slot(en.ID).components.Unmark(s.typeID())
	}
}

func (e *engine) EnqueueRemoveComponent(en Entity, c Component) error {
	if !e.Locked() {
		return e.RemoveComponent(en, c)
	}
	id, ok := e.TypeID(c)
	if !ok {
		return nil
	}
	e.opQueue.EnqueueComponentOp(opRemoveComponent, opKey{entity: en, typeID: id}, func() error {
		return e.RemoveComponent(en, c)
	})
	return nil
}

func (e *engine) Locked() bool {
	return e.locks > 0
}

// Lock guards the engine against structural mutation. Locks nest; the
// deferred operation queue is applied when the last one is released.
func (e *engine) Lock() {
	e.locks++
}

// Unlock releases one lock. Queued operations that fail are logged and
// counted in Stats.QueueFailures; fatal ones panic only under PanicOnFatal.
func (e *engine) Unlock() {
	if e.locks == 0 {
		return
	}
	e.locks--
	if e.locks > 0 {
		return
	}
	if err := e.processOperationQueue(); err != nil {
		failures := multierr.Errors(err)
		e.queueFailures += uint64(len(failures))
		e.log.Error("failed to apply queued operations",
			zap.Int("failures", len(failures)),
			zap.Error(err),
		)
	}
}

func (e *engine) Arena() *Arena {
	return e.arena
}

func (e *engine) Stats() Stats {
	stores := 0
	for _, s := range e.stores {
		if s != nil {
			stores++
		}
	}
	return Stats{
		LiveEntities:  e.entities.live,
		Capacity:      e.entities.capacity(),
		Stores:        stores,
		ArenaUsed:     e.arena.Used(),
		ArenaCapacity: e.arena.Capacity(),
		Scanned:       e.scanned,
		Visited:       e.visited,
		QueueFailures: e.queueFailures,
	}
}

// maskFor builds the signature mask of components. complete is false when
// some component was never registered, so no entity can carry it.
func (e *engine) maskFor(components []Component) (m mask.Mask, complete bool) {
	complete = true
	for _, c := range components {
		id, ok := e.TypeID(c)
		if !ok {
			complete = false
			continue
		}
		m.Mark(id)
	}
	return m, complete
}

// storeFor returns the store for c, creating it on first use.
func storeFor[T any](e *engine, c Component) (*store[T], error) {
	id, err := e.resolve(c)
	if err != nil {
		return nil, err
	}
	if existing := e.stores[id]; existing != nil {
		s, ok := existing.(*store[T])
		if !ok {
			return nil, ComponentTypeError{Component: c, TypeID: id}
		}
		return s, nil
	}
	s, err := newStore[T](e.arena, e.cfg, id, c, e.log)
	if err != nil {
		return nil, e.fatal(fmt.Errorf("create store for type id %d: %w", id, err))
	}
	e.stores[id] = s
	return s, nil
}

// lookupStore returns the existing store for c, or nil.
func lookupStore[T any](e *engine, c Component) *store[T] {
	s, _ := e.storeOf(c).(*store[T])
	return s
}

func addComponent[T any](e *engine, en Entity, c Component) (*T, error) {
	if !e.entities.valid(en) {
		return nil, InvalidEntityError{Entity: en}
	}
	s, err := storeFor[T](e, c)
	if err != nil {
		return nil, err
	}
	if existing := s.get(en.ID); existing != nil {
		return existing, nil
	}
	if e.Locked() {
		return nil, LockedEngineError{}
	}
	payload, err := s.add(en)
	if err != nil {
		return nil, e.fatal(fmt.Errorf("add component type id %d: %w", s.id, err))
	}
	e.entities.slot(en.ID).components.Mark(s.id)
	return payload, nil
}

// pickDriver returns the store with the fewest live components; the first
// one wins ties.
func pickDriver(stores ...componentStore) componentStore {
	driver := stores[0]
	for _, s := range stores[1:] {
		if s.len() < driver.len() {
			driver = s
		}
	}
	return driver
}
