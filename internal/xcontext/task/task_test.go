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

package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTask(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, Current(ctx))
	require.Equal(t, "", Current(ctx).String())

	ctx1 := Running(ctx, "preload")
	ctx2 := Runningf(ctx1, "load %s", "a")
	require.Equal(t, "preload", Current(ctx1).String())
	require.Equal(t, "preload: load a", Current(ctx2).String())
	require.Same(t, Current(ctx1), Current(ctx2).Parent)
	require.False(t, Current(ctx2).Started.Before(Current(ctx1).Started))
	require.False(t, Current(ctx1).Started.IsZero())
	require.GreaterOrEqual(t, int64(Current(ctx1).Elapsed()), int64(0))

	var err error
	ErrContext(&err, ctx2)
	require.NoError(t, err)

	err = errors.New("io error")
	ErrContext(&err, ctx2)
	require.EqualError(t, err, "load a: io error")

	err = errors.New("io error")
	ErrContext(&err, ctx)
	require.EqualError(t, err, "io error")
}
