package tecs

import (
	"testing"
	"unsafe"

	"github.com/TheBitDrifter/table"
)

// Test component types
type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

type Mass struct {
	Value float32
}

func testConfig(maxEntities int) Config {
	cfg := DefaultConfig()
	cfg.MaxEntities = maxEntities
	cfg.ArenaBytes = cfg.ArenaBytesFor(
		unsafe.Sizeof(Position{}),
		unsafe.Sizeof(Velocity{}),
		unsafe.Sizeof(Health{}),
		unsafe.Sizeof(Mass{}),
	)
	return cfg
}

func newTestEngine(t testing.TB, maxEntities int, opts ...Option) Engine {
	t.Helper()
	cfg := testConfig(maxEntities)
	arena := Factory.NewArena(make([]byte, cfg.ArenaBytes))
	eng, err := Factory.NewEngine(arena, table.Factory.NewSchema(), cfg, opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng
}

func TestEntityCreation(t *testing.T) {
	tests := []struct {
		name        string
		maxEntities int
		create      int
		wantError   bool
	}{
		{"Single entity", 10, 1, false},
		{"Fill capacity", 10, 10, false},
		{"Large batch", 5000, 5000, false},
		{"Over capacity", 10, 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t, tt.maxEntities)

			entities, err := eng.NewEntities(tt.create)
			if (err != nil) != tt.wantError {
				t.Fatalf("NewEntities() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError {
				if !IsFatal(err) {
					t.Errorf("capacity error should be fatal, got %v", err)
				}
				if eng.Len() != 0 {
					t.Errorf("Len() = %d after failed batch, want 0", eng.Len())
				}
				return
			}

			if len(entities) != tt.create {
				t.Errorf("Created %d entities, want %d", len(entities), tt.create)
			}
			for i, entity := range entities {
				if !eng.Valid(entity) {
					t.Errorf("Entity %d is invalid", i)
				}
				if entity.ID != uint32(i+1) {
					t.Errorf("Entity %d has ID %d, want %d", i, entity.ID, i+1)
				}
				if len(eng.Components(entity)) != 0 {
					t.Errorf("Entity %d starts with components", i)
				}
			}
		})
	}
}

func TestEntityHandleRoundTrip(t *testing.T) {
	eng := newTestEngine(t, 100)

	for i := 0; i < 50; i++ {
		e, err := eng.NewEntity()
		if err != nil {
			t.Fatalf("NewEntity() error = %v", err)
		}
		if !eng.Valid(e) {
			t.Fatalf("fresh entity %+v is not valid", e)
		}
		if !eng.Alive(e.ID) {
			t.Fatalf("fresh entity %d is not alive", e.ID)
		}
		if err := eng.DestroyEntities(e); err != nil {
			t.Fatalf("DestroyEntities() error = %v", err)
		}
		if eng.Valid(e) {
			t.Fatalf("destroyed entity %+v is still valid", e)
		}
		if eng.Alive(e.ID) {
			t.Fatalf("destroyed entity %d is still alive", e.ID)
		}
	}
	if eng.Len() != 0 {
		t.Errorf("Len() = %d, want 0", eng.Len())
	}
}

func TestGenerationIsolation(t *testing.T) {
	eng := newTestEngine(t, 100)
	position := FactoryNewComponent[Position]()
	health := FactoryNewComponent[Health]()

	a, _ := eng.NewEntity()
	if _, err := position.AddWithValue(eng, a, Position{X: 1, Y: 2}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := health.Add(eng, a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := eng.DestroyEntities(a); err != nil {
		t.Fatalf("DestroyEntities() error = %v", err)
	}

	b, _ := eng.NewEntity()
	if b.ID != a.ID {
		t.Fatalf("expected identifier %d to be recycled, got %d", a.ID, b.ID)
	}
	if b.Generation == a.Generation {
		t.Fatalf("recycled entity kept generation %d", a.Generation)
	}
	if eng.Valid(a) {
		t.Error("stale handle is valid against recycled identifier")
	}
	if !eng.Valid(b) {
		t.Error("recycled handle is not valid")
	}
	if n := len(eng.Components(b)); n != 0 {
		t.Errorf("recycled entity reports %d components, want 0", n)
	}
	if position.Has(eng, b) || health.Has(eng, b) {
		t.Error("recycled entity inherited components")
	}
	if position.Get(eng, a) != nil {
		t.Error("Get() through stale handle returned a payload")
	}
}

func TestFreeListReuse(t *testing.T) {
	eng := newTestEngine(t, 10)
	entities, _ := eng.NewEntities(5)

	eng.DestroyEntities(entities[1], entities[3])

	// Most recently freed identifier comes back first
	first, _ := eng.NewEntity()
	second, _ := eng.NewEntity()
	third, _ := eng.NewEntity()

	if first.ID != entities[3].ID || second.ID != entities[1].ID {
		t.Errorf("recycled ids = %d, %d, want %d, %d", first.ID, second.ID, entities[3].ID, entities[1].ID)
	}
	if third.ID != 6 {
		t.Errorf("fresh id = %d, want 6", third.ID)
	}
	if eng.Len() != 6 {
		t.Errorf("Len() = %d, want 6", eng.Len())
	}
}

func TestEntityCapacityAfterRecycling(t *testing.T) {
	eng := newTestEngine(t, 3)
	entities, err := eng.NewEntities(3)
	if err != nil {
		t.Fatalf("NewEntities() error = %v", err)
	}
	if _, err := eng.NewEntity(); err == nil {
		t.Fatal("NewEntity() succeeded past capacity")
	} else if _, ok := err.(EntityCapacityError); !ok {
		t.Fatalf("NewEntity() error = %T, want EntityCapacityError", err)
	}

	eng.DestroyEntities(entities[0])
	if _, err := eng.NewEntity(); err != nil {
		t.Fatalf("NewEntity() after destroy error = %v", err)
	}
}

func TestGenerationWraps(t *testing.T) {
	eng := newTestEngine(t, 1)

	first, _ := eng.NewEntity()
	current := first
	for i := 0; i < 1<<generationBits; i++ {
		eng.DestroyEntities(current)
		current, _ = eng.NewEntity()
	}
	// Known limitation: after a full generation cycle the stale handle matches again.
	if current.Generation != first.Generation {
		t.Fatalf("generation after full cycle = %d, want %d", current.Generation, first.Generation)
	}
	if !eng.Valid(first) {
		t.Error("expected wrapped generation to alias the first handle")
	}
}

func TestDestroyInvalidIsNoop(t *testing.T) {
	eng := newTestEngine(t, 10)
	position := FactoryNewComponent[Position]()

	e, _ := eng.NewEntity()
	position.Add(eng, e)

	stale := e
	stale.Generation++
	tests := []struct {
		name   string
		entity Entity
	}{
		{"Zero handle", Entity{}},
		{"Never issued", Entity{ID: 7, Alive: true}},
		{"Out of range", Entity{ID: MaxEntityID, Alive: true}},
		{"Wrong generation", stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := eng.DestroyEntities(tt.entity); err != nil {
				t.Fatalf("DestroyEntities() error = %v", err)
			}
			if !eng.Valid(e) || !position.Has(eng, e) {
				t.Fatal("destroying an invalid handle affected a live entity")
			}
			if eng.Len() != 1 {
				t.Errorf("Len() = %d, want 1", eng.Len())
			}
		})
	}
}

func TestEntityLookup(t *testing.T) {
	eng := newTestEngine(t, 10)
	e, _ := eng.NewEntity()

	got, ok := eng.Entity(e.ID)
	if !ok || got != e {
		t.Fatalf("Entity(%d) = %+v, %v, want %+v, true", e.ID, got, ok, e)
	}
	eng.DestroyEntities(e)
	if _, ok := eng.Entity(e.ID); ok {
		t.Error("Entity() found a destroyed entity")
	}
	if _, ok := eng.Entity(0); ok {
		t.Error("Entity(0) reported a live entity")
	}
}

func TestEntityPackRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		packed uint32
	}{
		{"Dead zero", Entity{}, 0},
		{"Alive first", Entity{ID: 1, Alive: true}, 1<<31 | 1},
		{"Generation", Entity{ID: 42, Generation: 5}, 5<<24 | 42},
		{"Max fields", Entity{ID: MaxEntityID, Generation: generationMask, Alive: true}, 0xFFFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entity.Pack(); got != tt.packed {
				t.Errorf("Pack() = %#x, want %#x", got, tt.packed)
			}
			if got := UnpackEntity(tt.packed); got != tt.entity {
				t.Errorf("UnpackEntity() = %+v, want %+v", got, tt.entity)
			}
		})
	}
}

func TestDestroyHook(t *testing.T) {
	position := FactoryNewComponent[Position]()
	var seen []Entity
	var hadPosition []bool

	var eng Engine
	eng = newTestEngine(t, 10, WithDestroyHook(func(e Entity) {
		seen = append(seen, e)
		hadPosition = append(hadPosition, position.Has(eng, e))
	}))

	entities, _ := eng.NewEntities(2)
	position.Add(eng, entities[0])
	eng.DestroyEntities(entities...)
	eng.DestroyEntities(entities...)

	if len(seen) != 2 {
		t.Fatalf("hook ran %d times, want 2", len(seen))
	}
	if !hadPosition[0] || hadPosition[1] {
		t.Errorf("hook saw components %v, want [true false]", hadPosition)
	}
}
