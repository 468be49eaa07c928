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

// Package task tracks the stack of operations being performed via context.
package task

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"lab.nexedi.com/kirr/go123/xerr"
)

// Task represents currently running operation.
type Task struct {
	Parent  *Task
	Name    string
	Started time.Time
}

type taskKey struct{}

// Running returns new context with task name running under current task of ctx.
func Running(ctx context.Context, name string) context.Context {
	t := &Task{Parent: Current(ctx), Name: name, Started: time.Now()}
	return context.WithValue(ctx, taskKey{}, t)
}

// Runningf is Running cousin with formatting support.
func Runningf(ctx context.Context, format string, argv ...any) context.Context {
	return Running(ctx, fmt.Sprintf(format, argv...))
}

// Current returns task ctx is running under, or nil.
func Current(ctx context.Context) *Task {
	t, _ := ctx.Value(taskKey{}).(*Task)
	return t
}

// Elapsed returns for how long t is running.
func (t *Task) Elapsed() time.Duration {
	return time.Since(t.Started)
}

// ErrContext prefixes *errp with the name of ctx's current task, if *errp != nil.
//
//	defer task.ErrContext(&err, ctx)
func ErrContext(errp *error, ctx context.Context) {
	if t := Current(ctx); t != nil {
		xerr.Context(errp, t.Name)
	}
}

// String returns whole operational stack, e.g. "preload 3 keys: load a" for
// task "load a" running under "preload 3 keys".
//
// nil Task is "".
func (t *Task) String() string {
	var namev []string
	for ; t != nil; t = t.Parent {
		namev = append(namev, t.Name)
	}
	slices.Reverse(namev)
	return strings.Join(namev, ": ")
}
