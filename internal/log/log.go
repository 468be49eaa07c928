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

// Package log provides leveled logging that knows about tasks.
//
// Every message is prefixed with the operational stack of the context it is
// logged under (see internal/xcontext/task). Output goes via glog, and glog's
// -v flag controls which of V(level) messages are emitted.
package log

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"lab.nexedi.com/kirr/ilist/internal/xcontext/task"
)

type severity int

const (
	sevInfo severity = iota
	sevWarning
	sevError
)

var emit = [...]func(depth int, args ...any){
	sevInfo:    glog.InfoDepth,
	sevWarning: glog.WarningDepth,
	sevError:   glog.ErrorDepth,
}

// withTask prepends string describing current task stack of ctx to argv.
func withTask(ctx context.Context, argv ...any) []any {
	prefix := task.Current(ctx).String()
	if prefix == "" {
		return argv
	}
	if len(argv) != 0 {
		prefix += ": "
	}
	return append([]any{prefix}, argv...)
}

// Depth allows to log on behalf of a caller n frames up the stack.
type Depth int

// print and printf are always called by a Depth method, hence +2.
func (d Depth) print(sev severity, ctx context.Context, argv ...any) {
	emit[sev](int(d)+2, withTask(ctx, argv...)...)
}

func (d Depth) printf(sev severity, ctx context.Context, format string, argv ...any) {
	emit[sev](int(d)+2, withTask(ctx, fmt.Sprintf(format, argv...))...)
}

func (d Depth) Info(ctx context.Context, argv ...any)    { d.print(sevInfo, ctx, argv...) }
func (d Depth) Warning(ctx context.Context, argv ...any) { d.print(sevWarning, ctx, argv...) }
func (d Depth) Error(ctx context.Context, argv ...any)   { d.print(sevError, ctx, argv...) }

func (d Depth) Infof(ctx context.Context, format string, argv ...any) {
	d.printf(sevInfo, ctx, format, argv...)
}

func (d Depth) Warningf(ctx context.Context, format string, argv ...any) {
	d.printf(sevWarning, ctx, format, argv...)
}

func (d Depth) Errorf(ctx context.Context, format string, argv ...any) {
	d.printf(sevError, ctx, format, argv...)
}

func Info(ctx context.Context, argv ...any)    { Depth(1).Info(ctx, argv...) }
func Warning(ctx context.Context, argv ...any) { Depth(1).Warning(ctx, argv...) }
func Error(ctx context.Context, argv ...any)   { Depth(1).Error(ctx, argv...) }

func Infof(ctx context.Context, format string, argv ...any) {
	Depth(1).Infof(ctx, format, argv...)
}

func Warningf(ctx context.Context, format string, argv ...any) {
	Depth(1).Warningf(ctx, format, argv...)
}

func Errorf(ctx context.Context, format string, argv ...any) {
	Depth(1).Errorf(ctx, format, argv...)
}

// Verbose logs info messages only if glog verbosity is high enough.
//
//	log.V(1).Infof(ctx, "expired %d entries", n)
type Verbose bool

// V returns Verbose that is enabled if glog -v is at least level.
func V(level int) Verbose {
	return Verbose(bool(glog.V(glog.Level(level))))
}

func (v Verbose) Info(ctx context.Context, argv ...any) {
	if v {
		Depth(1).Info(ctx, argv...)
	}
}

func (v Verbose) Infof(ctx context.Context, format string, argv ...any) {
	if v {
		Depth(1).Infof(ctx, format, argv...)
	}
}

func Flush() { glog.Flush() }
