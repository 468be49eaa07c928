// Copyright (C) 2017-2026  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// You can also Link and Combine this program with other software covered by
// the terms of any of the Free Software licenses or any of the Open Source
// Initiative approved licenses and Convey the resulting work. Corresponding
// source of such a combination shall include the source code for all other
// software used.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.
// See https://www.nexedi.com/licensing for rationale and options.

// Package ptr provides nullable fat pointers to objects viewed through an
// interface.
//
// A Go interface value is two machine words: one describing the shape of the
// dynamic type (itab, or plain type for interface{}) and one holding the
// address of the object. Ptr and Mut keep these two words apart, so that the
// address can be inspected, compared and tested for nil on its own, and the
// interface view is rebuilt on demand without allocation.
//
// Zero Ptr is null. Its shape is the shape of nil interface, so reading the
// shape of a null pointer is useless but well defined.
//
// Objects are expected to be pointers. For other dynamic types Go boxes the
// value when it is converted to an interface, and a fat pointer then refers
// to the box.
package ptr

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

var (
	// ErrNull is the panic value for dereference of a null pointer.
	ErrNull = errors.New("ptr: nil pointer dereference")

	// ErrNotInterface is the panic cause when a fat pointer is created
	// over a type that is not an interface.
	ErrNotInterface = errors.New("ptr: not an interface type")
)

// iface is how Go runtime represents an interface.
//
// NOTE layout must be synchronized to Go runtime representation. It is the
// same for empty and non-empty interfaces.
//
// Both words are kept as unsafe.Pointer so that GC sees the object as
// referenced for as long as a fat pointer to it is alive.
type iface struct {
	tab  unsafe.Pointer // *itab, or *_type for interface{}
	data unsafe.Pointer
}

// split returns the words of obj.
func split[I any](obj I) iface {
	mustInterface[I]()
	return *(*iface)(unsafe.Pointer(&obj))
}

// join rebuilds interface value from its words.
//
// This is the only place where an interface is reconstructed.
func join[I any](w iface) (obj I) {
	*(*iface)(unsafe.Pointer(&obj)) = w
	return obj
}

func mustInterface[I any]() {
	if t := reflect.TypeFor[I](); t.Kind() != reflect.Interface {
		panic(errors.Wrapf(ErrNotInterface, "%v", t))
	}
}

func (w iface) String() string {
	if w.data == nil {
		return "nil"
	}
	return fmt.Sprintf("%p", w.data)
}

// Shape describes how to view memory at an address through an interface.
//
// Zero Shape describes nil interface.
type Shape struct {
	tab unsafe.Pointer
}

func (s Shape) IsZero() bool { return s.tab == nil }

func (s Shape) String() string {
	if s.tab == nil {
		return "shape(nil)"
	}
	return fmt.Sprintf("shape(%p)", s.tab)
}

// Ptr is read-only fat pointer to an object viewed through interface I.
//
// Ptr is a value type: copying it copies the pointer, not the object.
type Ptr[I any] struct {
	w iface
}

// New returns pointer to obj.
//
// I must be an interface type.
func New[I any](obj I) Ptr[I] {
	return Ptr[I]{split(obj)}
}

// Null returns null pointer.
func Null[I any]() Ptr[I] {
	return Ptr[I]{}
}

func (p Ptr[I]) IsNull() bool { return p.w.data == nil }
func (p Ptr[I]) Thin() unsafe.Pointer { return p.w.data }
func (p Ptr[I]) Shape() Shape { return Shape{p.w.tab} }
func (p Ptr[I]) Same(q Ptr[I]) bool { return p.w.data == q.w.data }
func (p Ptr[I]) String() string { return p.w.String() }

// Deref returns the object p points to viewed through I.
//
// It panics with ErrNull if p is null.
func (p Ptr[I]) Deref() I {
	if p.IsNull() {
		panic(ErrNull)
	}
	return join[I](p.w)
}

// Mut is mutable fat pointer to an object viewed through interface I.
//
// Mut converts to Ptr via Const; there is no conversion the other way.
type Mut[I any] struct {
	w iface
}

// NewMut returns mutable pointer to obj.
//
// I must be an interface type.
func NewMut[I any](obj I) Mut[I] {
	return Mut[I]{split(obj)}
}

// NullMut returns null mutable pointer.
func NullMut[I any]() Mut[I] {
	return Mut[I]{}
}

func (p Mut[I]) IsNull() bool { return p.w.data == nil }
func (p Mut[I]) Thin() unsafe.Pointer { return p.w.data }
func (p Mut[I]) Shape() Shape { return Shape{p.w.tab} }
func (p Mut[I]) Same(q Mut[I]) bool { return p.w.data == q.w.data }
func (p Mut[I]) String() string { return p.w.String() }
func (p Mut[I]) Const() Ptr[I] { return Ptr[I]{p.w} }

// Deref returns the object p points to viewed through I.
//
// It panics with ErrNull if p is null.
func (p Mut[I]) Deref() I {
	if p.IsNull() {
		panic(ErrNull)
	}
	return join[I](p.w)
}

// DerefMut is like Deref but states that the caller is going to modify the object.
func (p Mut[I]) DerefMut() I {
	return p.Deref()
}
