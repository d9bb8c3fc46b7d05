package tecs

import "github.com/TheBitDrifter/table"

type factory struct{}

var Factory factory

func (f factory) NewArena(buf []byte) *Arena {
	return NewArena(buf)
}

// NewEngine builds an engine whose structures are all carved from arena.
// schema is the type-id provider for every component used with the engine.
func (f factory) NewEngine(arena *Arena, schema table.Schema, cfg Config, opts ...Option) (Engine, error) {
	return newEngine(arena, schema, cfg, opts...)
}

func (f factory) NewQuery() Query {
	return newQuery()
}

func (f factory) NewCursor(query QueryNode, eng Engine) *Cursor {
	return newCursor(query, eng)
}

func FactoryNewComponent[T any]() AccessibleComponent[T] {
	return AccessibleComponent[T]{
		Component: table.FactoryNewElementType[T](),
	}
}
