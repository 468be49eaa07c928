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

package list
// node pointers and operations on elements

import (
	"fmt"

	"lab.nexedi.com/kirr/ilist/ptr"
)

// NodePtr points to a node of lists under tag T.
//
// A node is either an object viewed through N, or a list sentinel. Zero
// NodePtr is null. Next and Prev links of every node are NodePtrs.
type NodePtr[T any, N any] struct {
	obj   ptr.Mut[N]   // null for sentinels
	links *Links[T, N] // nil for null NodePtr
}

func (p NodePtr[T, N]) IsNull() bool { return p.links == nil }
func (p NodePtr[T, N]) IsSentinel() bool { return p.links != nil && p.obj.IsNull() }
func (p NodePtr[T, N]) Ptr() ptr.Mut[N] { return p.obj }

// Same reports whether p and q point to the same node.
func (p NodePtr[T, N]) Same(q NodePtr[T, N]) bool { return p.links == q.links }

func (p NodePtr[T, N]) link() *Links[T, N] {
	if p.links == nil {
		panic(ErrNull)
	}
	return p.links
}

func (p NodePtr[T, N]) Next() NodePtr[T, N] { return p.link().next }
func (p NodePtr[T, N]) Prev() NodePtr[T, N] { return p.link().prev }
func (p NodePtr[T, N]) SetNext(next NodePtr[T, N]) { p.link().next = next }
func (p NodePtr[T, N]) SetPrev(prev NodePtr[T, N]) { p.link().prev = prev }

// Linked reports whether p is an element currently on a list.
func (p NodePtr[T, N]) Linked() bool { return p.link().linked }

// View returns the element p points to.
//
// It panics with ErrSentinel if p points to a sentinel.
func (p NodePtr[T, N]) View() N {
	if p.IsSentinel() {
		panic(ErrSentinel)
	}
	p.link()
	return p.obj.Deref()
}

// ViewMut is like View but states that the caller is going to modify the element.
func (p NodePtr[T, N]) ViewMut() N {
	if p.IsSentinel() {
		panic(ErrSentinel)
	}
	p.link()
	return p.obj.DerefMut()
}

// Remove removes element p from the list it is on.
//
// The list itself is not needed: p's neighbours are linked to each other.
// p's own next and prev are left as they were and keep pointing to its former
// neighbours until p is inserted again.
func (p NodePtr[T, N]) Remove() {
	l := p.link()
	if p.IsSentinel() {
		panic(ErrSentinel)
	}
	if !l.linked {
		panic(ErrNotLinked)
	}
	l.prev.SetNext(l.next)
	l.next.SetPrev(l.prev)
	l.linked = false
}

func (p NodePtr[T, N]) String() string {
	switch {
	case p.IsNull():
		return "nil"
	case p.IsSentinel():
		return fmt.Sprintf("sentinel(%p)", p.links)
	default:
		return fmt.Sprintf("node(%s)", p.obj)
	}
}

// insertAfter links element p in between at and at.next.
func insertAfter[T any, N any](at, p NodePtr[T, N]) {
	if p.links.linked {
		panic(ErrLinked)
	}
	next := at.Next()
	p.SetNext(next)
	p.SetPrev(at)
	next.SetPrev(p)
	at.SetNext(p)
	p.links.linked = true
}

// ---- operations on elements under a tag ----

// Of returns pointer to n as a node of lists under tag T.
//
// It panics with ErrNilNode if n is nil.
func Of[T Tag[T, N], N any](n N) NodePtr[T, N] {
	obj := ptr.NewMut(n)
	if obj.IsNull() {
		panic(ErrNilNode)
	}
	var tag T
	links := tag.Links(n)
	if links == nil {
		panic(ErrNilNode)
	}
	return NodePtr[T, N]{obj: obj, links: links}
}

// Remove removes n from the list under tag T it is on.
//
// Lists n is on under other tags are not affected.
func Remove[T Tag[T, N], N any](n N) { Of[T, N](n).Remove() }

// Linked reports whether n is on a list under tag T.
func Linked[T Tag[T, N], N any](n N) bool { return Of[T, N](n).Linked() }

func Next[T Tag[T, N], N any](n N) NodePtr[T, N] { return Of[T, N](n).Next() }
func Prev[T Tag[T, N], N any](n N) NodePtr[T, N] { return Of[T, N](n).Prev() }

// SetNext and SetPrev overwrite raw links of n.
//
// They do not update neighbours, and so are for callers that maintain the
// ring themselves.
func SetNext[T Tag[T, N], N any](n N, next NodePtr[T, N]) { Of[T, N](n).SetNext(next) }
func SetPrev[T Tag[T, N], N any](n N, prev NodePtr[T, N]) { Of[T, N](n).SetPrev(prev) }

// View returns n as seen by lists under tag T.
func View[T Tag[T, N], N any](n N) N { return Of[T, N](n).View() }
func ViewMut[T Tag[T, N], N any](n N) N { return Of[T, N](n).ViewMut() }
