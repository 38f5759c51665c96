// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package world implements the entity-component model described in
// spec.md §3–4.1: the device graph, the queued-mutation staging area, and
// the query/mutation contract every other package in this module is built
// on top of.
package world

import (
	"sync/atomic"

	"github.com/go-logr/logr"
)

// World owns every entity, every committed component store, the queued
// changes awaiting apply, and the manager flags that tell the systems
// pipeline what to run next. It performs no I/O itself; Scanner populates
// it, the mutation methods in mutate.go stage changes into it, and the
// systems package (internal/systems) reads and commits against it.
//
// A World is not safe for concurrent use; spec.md §5 makes that the
// caller's responsibility.
type World struct {
	log logr.Logger

	deviceRegistry slotMap[EntityFlags]
	vgRegistry     slotMap[EntityFlags]

	devices    map[DeviceEntity]Device
	disks      map[DeviceEntity]Disk
	tables     map[DeviceEntity]Table
	deviceMaps map[DeviceEntity]string
	loopbacks  map[DeviceEntity]string
	partitions map[DeviceEntity]Partition
	luks       map[DeviceEntity]Luks
	lvs        map[DeviceEntity]Lv
	pvs        map[DeviceEntity]Pv
	children   map[DeviceEntity][]DeviceEntity

	volumeGroups map[VgEntity]VolumeGroup
	vgChildren   map[VgEntity][]DeviceEntity

	queued QueuedChanges

	managerFlags ManagerFlags
}

// New returns an empty World ready for Scanner to populate or for a test
// to construct fixtures directly into.
func New(log logr.Logger) *World {
	return &World{
		log:          log,
		devices:      make(map[DeviceEntity]Device),
		disks:        make(map[DeviceEntity]Disk),
		tables:       make(map[DeviceEntity]Table),
		deviceMaps:   make(map[DeviceEntity]string),
		loopbacks:    make(map[DeviceEntity]string),
		partitions:   make(map[DeviceEntity]Partition),
		luks:         make(map[DeviceEntity]Luks),
		lvs:          make(map[DeviceEntity]Lv),
		pvs:          make(map[DeviceEntity]Pv),
		children:     make(map[DeviceEntity][]DeviceEntity),
		volumeGroups: make(map[VgEntity]VolumeGroup),
		vgChildren:   make(map[VgEntity][]DeviceEntity),
		queued:       newQueuedChanges(),
	}
}

// Log returns the logger the World was constructed with.
func (w *World) Log() logr.Logger { return w.log }

// ManagerFlags reports which systems the next Apply must run.
func (w *World) ManagerFlags() ManagerFlags { return w.managerFlags }

// CancelFlag is the shared atomic boolean the systems pipeline polls
// between systems (spec.md §5 "Cancellation").
type CancelFlag struct {
	v atomic.Bool
}

// Set requests cancellation; the next system boundary in Apply observes it.
func (c *CancelFlag) Set() { c.v.Store(true) }

// Load reports whether cancellation has been requested.
func (c *CancelFlag) Load() bool { return c.v.Load() }

// newDeviceEntity allocates a device entity with the given initial flags
// and registers an empty children slice for it so lookups never need a
// presence check before ranging.
func (w *World) newDeviceEntity(flags EntityFlags) DeviceEntity {
	key := w.deviceRegistry.insert(flags)
	e := DeviceEntity{key: key}
	w.children[e] = nil
	return e
}

// newVgEntity allocates a VG entity with the given initial flags.
func (w *World) newVgEntity(flags EntityFlags) VgEntity {
	key := w.vgRegistry.insert(flags)
	e := VgEntity{key: key}
	w.vgChildren[e] = nil
	return e
}

// deviceFlags returns the entity's flags, or (0, false) if the entity is
// not live.
func (w *World) deviceFlags(e DeviceEntity) (EntityFlags, bool) {
	return w.deviceRegistry.get(e.key)
}

func (w *World) setDeviceFlags(e DeviceEntity, flags EntityFlags) {
	w.deviceRegistry.set(e.key, flags)
}

func (w *World) vgFlags(e VgEntity) (EntityFlags, bool) {
	return w.vgRegistry.get(e.key)
}

func (w *World) setVgFlags(e VgEntity, flags EntityFlags) {
	w.vgRegistry.set(e.key, flags)
}

// deviceIsLive reports whether e still has a live registry slot.
func (w *World) deviceIsLive(e DeviceEntity) bool {
	_, ok := w.deviceRegistry.get(e.key)
	return ok
}

func (w *World) vgIsLive(e VgEntity) bool {
	_, ok := w.vgRegistry.get(e.key)
	return ok
}

// dropDeviceEntity removes e from the registry and every component map.
// It does not touch children/parents bookkeeping in the caller's other
// entities; callers are responsible for unlinking e from its parent's
// children slice first.
func (w *World) dropDeviceEntity(e DeviceEntity) {
	w.deviceRegistry.remove(e.key)
	delete(w.devices, e)
	delete(w.disks, e)
	delete(w.tables, e)
	delete(w.deviceMaps, e)
	delete(w.loopbacks, e)
	delete(w.partitions, e)
	delete(w.luks, e)
	delete(w.lvs, e)
	delete(w.pvs, e)
	delete(w.children, e)
}

func (w *World) dropVgEntity(e VgEntity) {
	w.vgRegistry.remove(e.key)
	delete(w.volumeGroups, e)
	delete(w.vgChildren, e)
}

// reset clears every registry, component store, queued change, and
// manager flag, leaving the world as empty as New returns it.
func (w *World) reset() {
	w.deviceRegistry.clear()
	w.vgRegistry.clear()
	for k := range w.devices {
		delete(w.devices, k)
	}
	for k := range w.disks {
		delete(w.disks, k)
	}
	for k := range w.tables {
		delete(w.tables, k)
	}
	for k := range w.deviceMaps {
		delete(w.deviceMaps, k)
	}
	for k := range w.loopbacks {
		delete(w.loopbacks, k)
	}
	for k := range w.partitions {
		delete(w.partitions, k)
	}
	for k := range w.luks {
		delete(w.luks, k)
	}
	for k := range w.lvs {
		delete(w.lvs, k)
	}
	for k := range w.pvs {
		delete(w.pvs, k)
	}
	for k := range w.children {
		delete(w.children, k)
	}
	for k := range w.volumeGroups {
		delete(w.volumeGroups, k)
	}
	for k := range w.vgChildren {
		delete(w.vgChildren, k)
	}
	w.queued.clear()
	w.managerFlags = 0
}

// IsEmpty reports whether the world has no entities at all.
func (w *World) IsEmpty() bool {
	return w.deviceRegistry.len() == 0 && w.vgRegistry.len() == 0
}

// Reset clears the world back to empty.
func (w *World) Reset() { w.reset() }
