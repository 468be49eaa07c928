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

// Package task provides handy utilities to define & log tasks.
package task

import (
	"context"
	"fmt"
	"time"

	"lab.nexedi.com/kirr/ilist/internal/log"
	taskctx "lab.nexedi.com/kirr/ilist/internal/xcontext/task"
)

// Running pushes new task to operational stack of *ctxp and logs its start.
//
// The returned function logs task completion together with how long the task
// took, and prefixes error, if any, with the task name:
//
//	defer task.Running(&ctx, "preload")(&err)
func Running(ctxp *context.Context, name string) func(*error) {
	return running(ctxp, name)
}

// Runningf is Running cousin with formatting support.
func Runningf(ctxp *context.Context, format string, argv ...any) func(*error) {
	return running(ctxp, fmt.Sprintf(format, argv...))
}

func running(ctxp *context.Context, name string) func(*error) {
	ctx := taskctx.Running(*ctxp, name)
	*ctxp = ctx
	log.Depth(2).Info(ctx, "start")

	// NOTE ctx, not *ctxp: the caller may change *ctxp before deferred call is run.
	t := taskctx.Current(ctx)
	return func(errp *error) {
		took := t.Elapsed().Round(time.Microsecond)
		if *errp != nil {
			log.Depth(1).Warningf(ctx, "## %s  (%s)", *errp, took)
		} else {
			log.Depth(1).Infof(ctx, "done  (%s)", took)
		}
		taskctx.ErrContext(errp, ctx)
	}
}
