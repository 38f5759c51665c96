// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

import (
	"diskengine/internal/diskfs"
	"diskengine/internal/secure"
)

// Device is the universal component present for every live device entity.
type Device struct {
	Name               string
	Path               string
	Sectors            uint64
	LogicalSectorSize  uint64
	PhysicalSectorSize uint64
}

// Disk is present when the entity is a whole physical disk.
type Disk struct {
	Serial string
}

// TableKind identifies the partition table format on a disk.
type TableKind int

const (
	// TableNone is never stored; it exists so zero-value TableKind reads
	// as "absent" rather than aliasing Gpt.
	TableNone TableKind = iota
	TableGpt
	TableMbr
)

func (k TableKind) String() string {
	switch k {
	case TableGpt:
		return "gpt"
	case TableMbr:
		return "mbr"
	default:
		return "none"
	}
}

// Table is present when the device carries a partition table.
type Table struct {
	Kind TableKind
}

// MBRVariant distinguishes primary/logical/extended MBR partitions; it is
// meaningless for GPT partitions and always PartitionPrimary there.
type MBRVariant int

const (
	PartitionPrimary MBRVariant = iota
	PartitionLogical
	PartitionExtended
)

// Partition is present when the entity occupies a region of a parent
// device (a disk, loopback, dm target, or VG).
type Partition struct {
	Offset     uint64
	Number     uint32
	Filesystem diskfs.Filesystem // diskfs.Unknown means "no filesystem"
	PartUUID   string
	PartLabel  string
	UUID       string
	MBRVariant MBRVariant
}

// HasFilesystem reports whether a filesystem type has been recorded.
func (p Partition) HasFilesystem() bool { return p.Filesystem != diskfs.Unknown }

// LvmLv is the LVM-bus view of a logical volume.
type LvmLv struct {
	Name string
	Path string
	UUID string
}

// LvmPv is the LVM-bus view of a physical volume.
type LvmPv struct {
	Path      string
	UUID      string
	SizeBytes uint64
}

// Lv is present when the entity is the block target of a logical volume.
type Lv struct {
	Lv LvmLv
	Vg VgEntity
}

// Pv is present when the entity is a physical volume, optionally joined
// to a volume group.
type Pv struct {
	Pv LvmPv
	Vg VgEntity
	// InVg is false when the PV is not a member of any volume group; Vg
	// is meaningless in that case. A pointer would also work, but most of
	// this codebase prefers an explicit boolean flag alongside the zero
	// value to an Option-shaped pointer.
	InVg bool
}

// Luks is present when the entity is a LUKS ciphertext device.
type Luks struct {
	// Passphrase is nil when the passphrase was never supplied or has
	// been forgotten via World.ForgetEncryptionKeys.
	Passphrase *secure.Buffer
}

// VolumeGroup is the committed record for a VgEntity.
type VolumeGroup struct {
	Name        string
	ExtentSize  uint64 // bytes; positive multiple of 512
	Extents     uint64
	ExtentsFree uint64
}

// SectorsFree returns the VG's free space expressed in 512-byte sectors,
// the synthetic unit validator LV creation resolves against (spec.md §4.3).
func (vg VolumeGroup) SectorsFree() uint64 {
	return (vg.ExtentSize / 512) * vg.ExtentsFree
}

// Sectors returns the VG's total space in 512-byte sectors.
func (vg VolumeGroup) Sectors() uint64 {
	return (vg.ExtentSize / 512) * vg.Extents
}
