// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package systems

import "diskengine/internal/world"

// runResize implements the documented placeholder for spec.md §4.4.2: the
// resize system never commits anything. If any resize was queued it
// fails loudly rather than silently dropping the caller's intent.
func runResize(w *world.World) error {
	if !w.ManagerFlags().Has(world.MgrResize) {
		return nil
	}
	if w.HasQueuedResize() {
		return ErrResizeUnsupported
	}
	return nil
}
