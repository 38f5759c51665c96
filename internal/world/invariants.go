// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

import "fmt"

// CheckInvariants re-verifies the structural invariants spec.md §3 and §8
// require after every successful apply. original_source/src/lib.rs
// asserts these in debug builds after every mutating op; Go has no
// debug-assert convention and panicking inside a library callers are
// meant to keep running is the wrong failure mode, so this is exposed as
// a callable method instead (see DESIGN.md).
func (w *World) CheckInvariants() error {
	for parent, kids := range w.children {
		if !w.deviceIsLive(parent) {
			return fmt.Errorf("world: children map references dead parent %s", parent)
		}
		for _, kid := range kids {
			if !w.deviceIsLive(kid) {
				return fmt.Errorf("world: children[%s] references dead entity %s", parent, kid)
			}
			found := false
			for _, p := range w.Parents(kid) {
				if p == parent {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("world: %s listed as child of %s but parents(%s) disagrees", kid, parent, kid)
			}
		}
	}

	byParent := make(map[DeviceEntity][]DeviceEntity)
	for e := range w.partitions {
		for _, p := range w.Parents(e) {
			byParent[p] = append(byParent[p], e)
		}
	}
	for parent, kids := range byParent {
		for i := range kids {
			for j := range kids {
				if i == j {
					continue
				}
				pi, pj := w.partitions[kids[i]], w.partitions[kids[j]]
				di, dj := w.devices[kids[i]], w.devices[kids[j]]
				if pi.Offset < pj.Offset+dj.Sectors && pj.Offset < pi.Offset+di.Sectors {
					return fmt.Errorf("world: partitions %s and %s overlap under %s", kids[i], kids[j], parent)
				}
			}
		}
	}

	for e := range w.partitions {
		parents := w.Parents(e)
		if len(parents) != 1 {
			continue // queued-but-unparented grandchildren (e.g. unattached PVs) are legal transiently
		}
		dev, ok := w.devices[e]
		if !ok {
			continue
		}
		part := w.partitions[e]
		parentDev, ok := w.devices[parents[0]]
		if !ok {
			continue
		}
		if part.Offset+dev.Sectors > parentDev.Sectors {
			return fmt.Errorf("world: partition %s exceeds parent %s bounds", e, parents[0])
		}
	}

	for e, l := range w.luks {
		kids := w.children[e]
		if len(kids) != 1 {
			return fmt.Errorf("world: luks entity %s has %d children, want 1", e, len(kids))
		}
		flags, _ := w.deviceFlags(kids[0])
		if !flags.Has(FlagLuksChild) {
			return fmt.Errorf("world: luks entity %s child %s missing LUKS_CHILD", e, kids[0])
		}
		_ = l
	}

	for vgEntity, vg := range w.volumeGroups {
		if vg.ExtentsFree > vg.Extents {
			return fmt.Errorf("world: vg %s extents_free %d exceeds extents %d", vgEntity, vg.ExtentsFree, vg.Extents)
		}
		if vg.ExtentSize == 0 || vg.ExtentSize%512 != 0 {
			return fmt.Errorf("world: vg %s extent_size %d is not a positive multiple of 512", vgEntity, vg.ExtentSize)
		}
	}

	for e, flags := range w.allDeviceFlags() {
		if flags.Has(FlagCreate) && flags.Has(FlagRemove) {
			return fmt.Errorf("world: entity %s has both CREATE and REMOVE", e)
		}
	}

	return nil
}

// allDeviceFlags snapshots every live device entity's flags, used only by
// CheckInvariants.
func (w *World) allDeviceFlags() map[DeviceEntity]EntityFlags {
	out := make(map[DeviceEntity]EntityFlags, w.deviceRegistry.len())
	for _, key := range w.deviceRegistry.keys() {
		e := DeviceEntity{key: key}
		flags, _ := w.deviceFlags(e)
		out[e] = flags
	}
	return out
}
