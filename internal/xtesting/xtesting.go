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

// Package xtesting provides infrastructure for testing intrusive lists.
package xtesting

import (
	"testing"

	"lab.nexedi.com/kirr/ilist/list"
)

// CheckRing verifies that l is a well-formed ring and returns its elements
// in forward order.
//
// Well-formed means: head.prev and rear.next are null; for every element x
// x.next.prev = x and x.prev.next = x; x is marked as linked; walking back
// from rear visits the same elements in reverse and arrives at head.
func CheckRing[T list.Tag[T, N], N any](t testing.TB, l *list.List[T, N]) []N {
	t.Helper()

	p := l.HeadNext()
	head := p.Prev()
	if !head.IsSentinel() {
		t.Fatalf("ring: head: %v is not a sentinel", head)
	}
	if !head.Prev().IsNull() {
		t.Fatalf("ring: head.prev = %v  ; want nil", head.Prev())
	}

	var fwd []list.NodePtr[T, N]
	seen := map[list.NodePtr[T, N]]bool{}
	for ; !p.Next().IsNull(); p = p.Next() {
		switch {
		case p.IsSentinel():
			t.Fatalf("ring: #%d: sentinel %v in the middle", len(fwd), p)
		case seen[p]:
			t.Fatalf("ring: #%d: %v: cycle", len(fwd), p)
		case !p.Linked():
			t.Fatalf("ring: #%d: %v: not marked as linked", len(fwd), p)
		case !p.Next().Prev().Same(p):
			t.Fatalf("ring: #%d: %v: .next.prev = %v", len(fwd), p, p.Next().Prev())
		case !p.Prev().Next().Same(p):
			t.Fatalf("ring: #%d: %v: .prev.next = %v", len(fwd), p, p.Prev().Next())
		}
		seen[p] = true
		fwd = append(fwd, p)
	}

	rear := p
	if !rear.IsSentinel() {
		t.Fatalf("ring: rear: %v is not a sentinel", rear)
	}

	n := 0
	for q := rear.Prev(); !q.Same(head); q = q.Prev() {
		n++
		if q.IsNull() {
			t.Fatalf("ring: backward #%d: nil", n)
		}
		if n > len(fwd) {
			t.Fatalf("ring: backward walk is longer than forward (%d)", len(fwd))
		}
		if want := fwd[len(fwd)-n]; !q.Same(want) {
			t.Fatalf("ring: backward #%d: %v  ; want %v", n, q, want)
		}
	}
	if n != len(fwd) {
		t.Fatalf("ring: backward walk: %d elements  ; forward: %d", n, len(fwd))
	}

	var elemv []N
	for _, p := range fwd {
		elemv = append(elemv, p.View())
	}
	return elemv
}
