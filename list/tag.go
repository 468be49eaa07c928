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

// Tag distinguishes one list membership of an object from another.
//
// A tag is a zero-size marker type. It fixes N - the interface elements of
// lists under this tag are viewed through - and knows where an element keeps
// its Links for the tag. For example
//
//	type Task interface {
//		RunLinks() *list.Links[ByRun, Task]
//		Run()
//	}
//
//	type ByRun struct{}
//
//	func (ByRun) Links(t Task) *list.Links[ByRun, Task] { return t.RunLinks() }
//
// N must be an interface type.
//
// An object joins lists under several tags by embedding one Links per tag.
// List[ByRun, Task] and List[ByOwner, Task] are different types even though
// they might link the same objects.
type Tag[T any, N any] interface {
	~struct{}
	Links(N) *Links[T, N]
}

// Links is the link storage an object embeds for lists under tag T.
//
// Zero Links is valid and means the object is not on any list under T.
type Links[T any, N any] struct {
	next, prev NodePtr[T, N]
	linked     bool
}
