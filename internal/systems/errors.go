// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package systems

import "errors"

// ErrResizeUnsupported is returned by Apply whenever a resize is queued
// (spec.md §9 open question 2: "Resize is fully absent in the source").
// The intent is still validated and staged by World.ResizeQueue; only
// committing it against a live device is unimplemented.
var ErrResizeUnsupported = errors.New("systems: resize is not yet implemented")
