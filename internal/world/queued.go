// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

import (
	"diskengine/internal/diskfs"
	"diskengine/internal/secure"
)

// LuksParams describes how to format a newly created LUKS ciphertext
// device (spec.md §4.3, §6).
type LuksParams struct {
	KeySize    uint32 // key size in bits, passed to cryptsetup -s
	Kind       string // "luks1" or "luks2"
	TargetName string // device-mapper name used once unlocked
	Passphrase *secure.Buffer
}

// partitionVariant tags which PartitionCreate shape is in use.
type partitionVariant int

const (
	variantPlain partitionVariant = iota
	variantLuks
)

// PartitionCreate is the payload passed to the partition-creating
// mutation calls: either a plain filesystem, or a LUKS container wrapping
// one (spec.md §4.3 "PartitionCreate variants").
type PartitionCreate struct {
	variant    partitionVariant
	filesystem diskfs.Filesystem
	luks       LuksParams
}

// Plain creates a partition directly formatted with fs. If fs is
// diskfs.Lvm, apply will additionally stage an unparented physical volume
// sized to the partition (spec.md §4.3).
func Plain(fs diskfs.Filesystem) PartitionCreate {
	return PartitionCreate{variant: variantPlain, filesystem: fs}
}

// EncryptedWith wraps a LUKS container around the new partition using the
// given parameters; its plaintext child is created once apply formats the
// container (spec.md §4.3, §4.4.3).
func EncryptedWith(params LuksParams) PartitionCreate {
	return PartitionCreate{variant: variantLuks, filesystem: diskfs.Luks, luks: params}
}

// queuedLv is the staged payload for a logical volume not yet committed.
type queuedLv struct {
	lv LvmLv
	vg VgEntity
}

// queuedPv is the staged payload for a physical volume not yet committed.
type queuedPv struct {
	pv LvmPv
}

// ResizeOp records a queued resize intent; spec.md §4.4.2 reserves its
// semantics but leaves the system itself unimplemented (see DESIGN.md).
type ResizeOp struct {
	From uint64
	To   uint64
}

// queuedLuks is the staged LUKS-on-creation payload: the plaintext child
// entity allocated alongside the ciphertext partition, and the formatting
// parameters for it.
type queuedLuks struct {
	child  DeviceEntity
	params LuksParams
}

// QueuedChanges is the parallel set of component stores consulted during
// apply and, for any entity carrying FlagCreate, during queries (spec.md
// §3 "Queued changes"). It has no methods of its own; World owns all
// mutation and reads of it.
type QueuedChanges struct {
	devices      map[DeviceEntity]Device
	deviceMaps   map[DeviceEntity]string
	formats      map[DeviceEntity]diskfs.Filesystem
	labels       map[DeviceEntity]string
	luks         map[DeviceEntity]queuedLuks
	lvs          map[DeviceEntity]queuedLv
	parents      map[DeviceEntity]DeviceEntity // child -> parent
	partitions   map[DeviceEntity]Partition
	pvs          map[DeviceEntity]queuedPv
	pvParents    map[DeviceEntity]VgEntity // pv -> vg
	volumeGroups map[VgEntity]VolumeGroup
	vgParents    map[DeviceEntity]VgEntity // lv -> vg
	resize       map[DeviceEntity]ResizeOp
	tables       map[DeviceEntity]TableKind

	// childOrder records the order CreateAsChildOf allocated queued
	// partition children in, so the create system adds them to a disk's
	// table in the order the caller staged them rather than Go's
	// unspecified map iteration order (spec.md §4.4.3 step 2).
	childOrder []DeviceEntity
}

func newQueuedChanges() QueuedChanges {
	return QueuedChanges{
		devices:      make(map[DeviceEntity]Device),
		deviceMaps:   make(map[DeviceEntity]string),
		formats:      make(map[DeviceEntity]diskfs.Filesystem),
		labels:       make(map[DeviceEntity]string),
		luks:         make(map[DeviceEntity]queuedLuks),
		lvs:          make(map[DeviceEntity]queuedLv),
		parents:      make(map[DeviceEntity]DeviceEntity),
		partitions:   make(map[DeviceEntity]Partition),
		pvs:          make(map[DeviceEntity]queuedPv),
		pvParents:    make(map[DeviceEntity]VgEntity),
		volumeGroups: make(map[VgEntity]VolumeGroup),
		vgParents:    make(map[DeviceEntity]VgEntity),
		resize:       make(map[DeviceEntity]ResizeOp),
		tables:       make(map[DeviceEntity]TableKind),
	}
}

// clear empties every queued-change map, used by unset (spec.md §4.4.5).
func (q *QueuedChanges) clear() {
	*q = newQueuedChanges()
}

// isEmpty reports whether every queued-change map is empty, used by tests
// asserting invariant 5 (spec.md §8).
func (q *QueuedChanges) isEmpty() bool {
	return len(q.devices) == 0 &&
		len(q.deviceMaps) == 0 &&
		len(q.formats) == 0 &&
		len(q.labels) == 0 &&
		len(q.luks) == 0 &&
		len(q.lvs) == 0 &&
		len(q.parents) == 0 &&
		len(q.partitions) == 0 &&
		len(q.pvs) == 0 &&
		len(q.pvParents) == 0 &&
		len(q.volumeGroups) == 0 &&
		len(q.vgParents) == 0 &&
		len(q.resize) == 0 &&
		len(q.tables) == 0
}
