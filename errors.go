package tecs

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid engine config")

type LockedEngineError struct{}

func (e LockedEngineError) Error() string {
	return "engine is currently locked"
}

// ArenaExhaustedError reports an allocation the arena could not satisfy.
// It is fatal: the arena was sized too small for the population.
type ArenaExhaustedError struct {
	Requested int
	Remaining int
}

func (e ArenaExhaustedError) Error() string {
	return fmt.Sprintf("arena exhausted: requested %d bytes, %d remaining", e.Requested, e.Remaining)
}

// EntityCapacityError reports that every entity identifier is in use. It is fatal.
type EntityCapacityError struct {
	Capacity int
}

func (e EntityCapacityError) Error() string {
	return fmt.Sprintf("entity capacity exhausted (%d)", e.Capacity)
}

type InvalidEntityError struct {
	Entity Entity
}

func (e InvalidEntityError) Error() string {
	return fmt.Sprintf("invalid entity handle: id=%d generation=%d", e.Entity.ID, e.Entity.Generation)
}

type ComponentLimitError struct {
	Component Component
	TypeID    uint32
	Limit     int
}

func (e ComponentLimitError) Error() string {
	return fmt.Sprintf("component %T has type id %d, engine supports %d component types", e.Component, e.TypeID, e.Limit)
}

// ComponentTypeError is returned when a type id is already bound to a store
// of a different Go type.
type ComponentTypeError struct {
	Component Component
	TypeID    uint32
}

func (e ComponentTypeError) Error() string {
	return fmt.Sprintf("component %T: type id %d is bound to a different payload type", e.Component, e.TypeID)
}

// IsFatal reports whether err signals a sizing failure with no recovery path.
func IsFatal(err error) bool {
	var arenaErr ArenaExhaustedError
	var capErr EntityCapacityError
	return errors.As(err, &arenaErr) || errors.As(err, &capErr)
}
