/*
Package tecs provides a sparse-set entity-component storage engine for games and simulations.

All engine memory is carved from a caller-supplied byte buffer through a bump Arena, sized
once up front. Entities are generational handles; components live in per-type stores that map
entity identifiers to densely packed payloads, growing in fixed-size chunks on first use.

Core Concepts:

  - Entity: A generational handle. Stale handles to a recycled identifier are rejected.
  - Component: A plain data type attached to entities, identified through a table.Schema.
  - Store: The sparse-to-dense index and payload chunks for one component type.
  - ForEach: Iteration over entities carrying several components, driven by the rarest one.

Basic Usage:

	// Size the engine and hand it memory
	cfg := tecs.DefaultConfig()
	arena := tecs.Factory.NewArena(make([]byte, cfg.ArenaBytes))
	engine, _ := tecs.Factory.NewEngine(arena, table.Factory.NewSchema(), cfg)

	// Define components
	position := tecs.FactoryNewComponent[Position]()
	velocity := tecs.FactoryNewComponent[Velocity]()

	// Create an entity and attach data
	e, _ := engine.NewEntity()
	position.AddWithValue(engine, e, Position{X: 1, Y: 1})
	velocity.AddWithValue(engine, e, Velocity{X: 2, Y: 2})

	// Process every entity with both
	tecs.ForEach2(engine, position, velocity, func(e tecs.Entity, pos *Position, vel *Velocity) {
		pos.X += vel.X
		pos.Y += vel.Y
	})

Engines are single-threaded. Adding or removing components of the iterated types while a
ForEach or Cursor is running is refused with LockedEngineError; the Enqueue variants defer the
change until iteration ends.
*/
package tecs
