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

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lab.nexedi.com/kirr/ilist/internal/xcontext/task"
)

func TestWithTask(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, []any{"hello", 1}, withTask(ctx, "hello", 1))

	ctx = task.Running(ctx, "preload")
	ctx = task.Running(ctx, "load a")
	require.Equal(t, []any{"preload: load a: ", "hello"}, withTask(ctx, "hello"))
	require.Equal(t, []any{"preload: load a"}, withTask(ctx))

	// smoke: output goes through glog without panics
	Infof(ctx, "%d entries", 3)
	Depth(0).Warning(ctx, "## ", "io error")
	V(0).Infof(ctx, "always on")
	require.False(t, bool(V(100)))
	Flush()
}
