package tecs_test

import (
	"fmt"

	"github.com/TheBitDrifter/table"
	"github.com/TheBitDrifter/tecs"
)

// Position is a simple component for 2D coordinates
type Position struct {
	X float64
	Y float64
}

// Velocity is a simple component for 2D movement
type Velocity struct {
	X float64
	Y float64
}

// Name is a simple component for entity identification
type Name struct {
	Value string
}

func newEngine() tecs.Engine {
	cfg := tecs.DefaultConfig()
	cfg.MaxEntities = 1024
	arena := tecs.Factory.NewArena(make([]byte, cfg.ArenaBytes))
	engine, err := tecs.Factory.NewEngine(arena, table.Factory.NewSchema(), cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

// Example shows basic engine usage with entity creation and iteration
func Example_basic() {
	engine := newEngine()

	// Define components
	position := tecs.FactoryNewComponent[Position]()
	velocity := tecs.FactoryNewComponent[Velocity]()
	name := tecs.FactoryNewComponent[Name]()

	// Create entities
	movers, _ := engine.NewEntities(3)
	for _, e := range movers {
		position.Add(engine, e)
		velocity.AddWithValue(engine, e, Velocity{X: 1})
	}
	statues, _ := engine.NewEntities(5)
	for _, e := range statues {
		position.Add(engine, e)
	}

	// Create one named entity
	player, _ := engine.NewEntity()
	position.AddWithValue(engine, player, Position{X: 10, Y: 20})
	velocity.AddWithValue(engine, player, Velocity{X: 1, Y: 2})
	name.AddWithValue(engine, player, Name{Value: "Player"})

	// Move everything that has a velocity
	moved := 0
	tecs.ForEach2(engine, position, velocity, func(e tecs.Entity, pos *Position, vel *Velocity) {
		pos.X += vel.X
		pos.Y += vel.Y
		moved++
	})

	pos := position.Get(engine, player)
	fmt.Printf("Moved %d entities\n", moved)
	fmt.Printf("%s is at (%.1f, %.1f)\n", name.Get(engine, player).Value, pos.X, pos.Y)
	fmt.Printf("Entities with position: %d\n", position.Count(engine))

	// Output:
	// Moved 4 entities
	// Player is at (11.0, 22.0)
	// Entities with position: 9
}

// Example shows cursor queries and deferred destruction
func Example_queries() {
	engine := newEngine()

	position := tecs.FactoryNewComponent[Position]()
	velocity := tecs.FactoryNewComponent[Velocity]()
	name := tecs.FactoryNewComponent[Name]()

	entities, _ := engine.NewEntities(6)
	for i, e := range entities {
		position.Add(engine, e)
		if i%2 == 0 {
			velocity.Add(engine, e)
		}
		if i < 2 {
			name.AddWithValue(engine, e, Name{Value: fmt.Sprintf("entity-%d", i)})
		}
	}

	// Entities that move but have no name
	query := tecs.Factory.NewQuery()
	queryNode := query.And(position, velocity, query.Not(name))
	cursor := tecs.Factory.NewCursor(queryNode, engine)
	fmt.Printf("Moving, unnamed: %d\n", cursor.TotalMatched())

	// Destroy them while iterating; the engine applies it afterwards
	for cursor.Next() {
		engine.EnqueueDestroyEntities(cursor.CurrentEntity())
	}
	fmt.Printf("Remaining entities: %d\n", engine.Len())

	// Everything with a name or a velocity
	anyQuery := tecs.Factory.NewQuery()
	anyNode := anyQuery.Or(name, velocity)
	fmt.Printf("Named or moving: %d\n", tecs.Factory.NewCursor(anyNode, engine).Bitmap().GetCardinality())

	// Output:
	// Moving, unnamed: 2
	// Remaining entities: 4
	// Named or moving: 2
}
