package tecs

import (
	"reflect"
	"sync"
	"unsafe"
)

// minAlignment is the smallest alignment handed out by the arena.
const minAlignment = 4

// Arena is a bump allocator over a fixed, caller-supplied byte buffer.
//
// Allocations are never freed individually. The only way to reclaim memory is
// Reset, which rewinds the whole arena and invalidates everything carved from it.
type Arena struct {
	buf    []byte
	cursor int
	allocs int
}

// NewArena wraps buf. The caller owns buf and must keep it alive for as long
// as any engine built on this arena is in use.
func NewArena(buf []byte) *Arena {
	return &Arena{buf: buf}
}

// Capacity returns the size of the backing buffer in bytes.
func (a *Arena) Capacity() int {
	return len(a.buf)
}

// Used returns the number of bytes handed out so far, including alignment padding.
func (a *Arena) Used() int {
	return a.cursor
}

// Remaining returns the number of bytes still available.
func (a *Arena) Remaining() int {
	return len(a.buf) - a.cursor
}

// Allocations returns the number of successful allocations since the last Reset.
func (a *Arena) Allocations() int {
	return a.allocs
}

// Reset rewinds the arena to empty. Any engine or slice previously carved
// from it must be discarded before the arena is used again.
func (a *Arena) Reset() {
	a.cursor = 0
	a.allocs = 0
}

// Alloc returns a zeroed block of n contiguous values of T.
//
// Pointer-free types live inside the arena buffer. Types holding Go pointers
// are heap-backed, because the garbage collector does not scan byte buffers,
// but their size is still charged against the arena so capacity accounting
// does not depend on T's layout.
func Alloc[T any](a *Arena, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	var zero T
	elem := int(unsafe.Sizeof(zero))
	if elem == 0 {
		a.allocs++
		return make([]T, n), nil
	}
	if n > a.Remaining()/elem {
		return nil, ArenaExhaustedError{Requested: n * elem, Remaining: a.Remaining()}
	}
	size := n * elem

	if hasPointers[T]() {
		if a.cursor+size > len(a.buf) {
			return nil, ArenaExhaustedError{Requested: size, Remaining: a.Remaining()}
		}
		a.cursor += size
		a.allocs++
		return make([]T, n), nil
	}

	align := max(minAlignment, int(unsafe.Alignof(zero)))
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	addr := base + uintptr(a.cursor)
	pad := int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
	if a.cursor+pad+size > len(a.buf) {
		return nil, ArenaExhaustedError{Requested: pad + size, Remaining: a.Remaining()}
	}
	start := a.cursor + pad
	block := a.buf[start : start+size : start+size]
	clear(block)
	a.cursor = start + size
	a.allocs++
	return unsafe.Slice((*T)(unsafe.Pointer(&block[0])), n), nil
}

var pointerCache sync.Map // reflect.Type -> bool

func hasPointers[T any]() bool {
	typ := reflect.TypeFor[T]()
	if v, ok := pointerCache.Load(typ); ok {
		return v.(bool)
	}
	result := typeHasPointers(typ)
	pointerCache.Store(typ, result)
	return result
}

func typeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && typeHasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
