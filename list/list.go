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

// Package list provides intrusive doubly-linked lists with multiple
// membership.
//
// Go standard library has container/list package which already provides
// double-linked lists. However in that implementation list itself is kept
// separate from data structures representing elements. This package provides
// alternative approach where elements embed necessary link storage, which is
// sometimes more convenient, for example when one wants to move a list element
// in O(1) starting from pointer to just its data.
//
// One object can be on several lists at the same time, one list per Tag. Each
// tag fixes the interface through which its lists see the object, and the
// Links the object embeds for it:
//
//	type entry struct {
//		inLRU    list.Links[lruTag, lruEntry]
//		inExpiry list.Links[expiryTag, expiryEntry]
//		...
//	}
//
// A List never allocates, frees or owns its elements. It is the caller's job
// to remove an element from all lists before forgetting it.
//
// Traversal is done via node pointers:
//
//	for p := l.HeadNext(); !p.Next().IsNull(); p = p.Next() {
//		... p.View() ...
//	}
//
// Lists are not safe for concurrent use.
package list

import (
	"fmt"
	"iter"
	"strings"

	"github.com/pkg/errors"
)

// Violations of list invariants panic with one of the following errors.
var (
	ErrNull       = errors.New("list: nil node pointer dereference")
	ErrNilNode    = errors.New("list: nil node")
	ErrSentinel   = errors.New("list: sentinel used as element")
	ErrLinked     = errors.New("list: node is already on a list")
	ErrNotLinked  = errors.New("list: node is not on a list")
	ErrSelfSplice = errors.New("list: splice of list into itself")
	ErrNotEmpty   = errors.New("list: release of non-empty list")
	ErrReleased   = errors.New("list: use of released list")
)

// sentinel marks list boundary. It is never viewed as an element.
type sentinel[T any, N any] struct {
	links Links[T, N]
}

// List is a ring of elements in between head and rear sentinels.
//
//	head <-> e1 <-> e2 <-> ... <-> rear
//
// head.prev and rear.next are always null.
//
// Zero List is NOT valid - always create lists with New.
type List[T Tag[T, N], N any] struct {
	head, rear NodePtr[T, N]
	sentinels  *[2]sentinel[T, N] // head & rear are allocated together
}

// New creates new empty list.
func New[T Tag[T, N], N any]() *List[T, N] {
	s := new([2]sentinel[T, N])
	l := &List[T, N]{
		head:      NodePtr[T, N]{links: &s[0].links},
		rear:      NodePtr[T, N]{links: &s[1].links},
		sentinels: s,
	}
	l.head.SetNext(l.rear)
	l.rear.SetPrev(l.head)
	return l
}

func (l *List[T, N]) check() {
	if l.sentinels == nil {
		panic(ErrReleased)
	}
}

// HeadNext returns the first element, or rear sentinel if l is empty.
func (l *List[T, N]) HeadNext() NodePtr[T, N] {
	l.check()
	return l.head.Next()
}

// Empty reports whether l has no elements.
func (l *List[T, N]) Empty() bool {
	l.check()
	return l.head.Next().Same(l.rear)
}

// Len returns number of elements in l.
//
// It takes O(len).
func (l *List[T, N]) Len() (n int) {
	for p := l.HeadNext(); !p.Next().IsNull(); p = p.Next() {
		n++
	}
	return n
}

// InsertFront inserts n in front of l.
//
// n must not be on any list under T.
func (l *List[T, N]) InsertFront(n N) {
	l.check()
	insertAfter(l.head, Of[T, N](n))
}

// InsertBack inserts n at the back of l.
//
// n must not be on any list under T.
func (l *List[T, N]) InsertBack(n N) {
	l.check()
	insertAfter(l.rear.Prev(), Of[T, N](n))
}

// MoveFront moves n to the front of l.
//
// n might be on l, on another list under T, or on no list at all.
func (l *List[T, N]) MoveFront(n N) {
	l.check()
	p := Of[T, N](n)
	if p.Linked() {
		p.Remove()
	}
	insertAfter(l.head, p)
}

// MoveBack moves n to the back of l.
//
// n might be on l, on another list under T, or on no list at all.
func (l *List[T, N]) MoveBack(n N) {
	l.check()
	p := Of[T, N](n)
	if p.Linked() {
		p.Remove()
	}
	insertAfter(l.rear.Prev(), p)
}

// ConcatFront moves all elements of other to the front of l.
//
// Order of elements is preserved and other becomes empty. It takes O(1)
// regardless of how many elements other has.
func (l *List[T, N]) ConcatFront(other *List[T, N]) {
	first, last, ok := l.take(other)
	if !ok {
		return
	}
	front := l.head.Next()
	l.head.SetNext(first)
	first.SetPrev(l.head)
	last.SetNext(front)
	front.SetPrev(last)
}

// ConcatBack moves all elements of other to the back of l.
//
// Order of elements is preserved and other becomes empty. It takes O(1)
// regardless of how many elements other has.
func (l *List[T, N]) ConcatBack(other *List[T, N]) {
	first, last, ok := l.take(other)
	if !ok {
		return
	}
	back := l.rear.Prev()
	back.SetNext(first)
	first.SetPrev(back)
	last.SetNext(l.rear)
	l.rear.SetPrev(last)
}

// take detaches the run of all elements of other for splicing into l.
//
// ok=false means other is empty and there is nothing to splice.
func (l *List[T, N]) take(other *List[T, N]) (first, last NodePtr[T, N], ok bool) {
	l.check()
	other.check()
	if other.sentinels == l.sentinels {
		panic(ErrSelfSplice)
	}
	if other.Empty() {
		return first, last, false
	}

	first = other.head.Next()
	last = other.rear.Prev()
	other.head.SetNext(other.rear)
	other.rear.SetPrev(other.head)
	return first, last, true
}

// Clear removes all elements from l.
//
// It takes O(len).
func (l *List[T, N]) Clear() {
	for p := l.HeadNext(); !p.IsSentinel(); {
		next := p.Next()
		p.Remove()
		p = next
	}
}

// Release releases l's sentinels.
//
// l must be empty. Released list must not be used anymore.
func (l *List[T, N]) Release() {
	if !l.Empty() {
		panic(ErrNotEmpty)
	}
	l.head = NodePtr[T, N]{}
	l.rear = NodePtr[T, N]{}
	l.sentinels = nil
}

// All returns iterator over elements of l from front to back.
//
// The loop body may remove the element it is given, but no other.
func (l *List[T, N]) All() iter.Seq[N] {
	l.check()
	return func(yield func(N) bool) {
		for p := l.HeadNext(); !p.Next().IsNull(); {
			next := p.Next()
			if !yield(p.View()) {
				return
			}
			p = next
		}
	}
}

func (l *List[T, N]) String() string {
	if l.sentinels == nil {
		return "[released]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for p := l.HeadNext(); !p.Next().IsNull(); p = p.Next() {
		if !p.Prev().IsSentinel() {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, p.View())
	}
	b.WriteByte(']')
	return b.String()
}
