// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package diskfs defines the closed set of filesystem types this engine
// understands and the sizing policy the mutation API enforces before
// formatting.
package diskfs

import (
	"fmt"
	"strings"
)

// Filesystem identifies the format a partition or logical volume carries.
type Filesystem int

const (
	Unknown Filesystem = iota
	Btrfs
	Exfat
	Ext2
	Ext3
	Ext4
	F2fs
	Iso9660
	Luks
	Lvm
	Ntfs
	Squashfs
	Swap
	Vfat
	Xfs
	Zfs
)

// String renders the lowercase token used on the wire and in mkfs argv.
// Vfat renders as "vfat" regardless of whether it originated from a
// fat16 or fat32 probe result.
func (f Filesystem) String() string {
	switch f {
	case Btrfs:
		return "btrfs"
	case Exfat:
		return "exfat"
	case Ext2:
		return "ext2"
	case Ext3:
		return "ext3"
	case Ext4:
		return "ext4"
	case F2fs:
		return "f2fs"
	case Iso9660:
		return "iso9660"
	case Luks:
		return "luks"
	case Lvm:
		return "lvm"
	case Ntfs:
		return "ntfs"
	case Squashfs:
		return "squashfs"
	case Swap:
		return "swap"
	case Vfat:
		return "vfat"
	case Xfs:
		return "xfs"
	case Zfs:
		return "zfs"
	default:
		return "unknown"
	}
}

// Parse maps a probe-reported TYPE string (case-insensitive) to a
// Filesystem. It returns an error for any token outside the closed
// enumeration in the spec.
func Parse(s string) (Filesystem, error) {
	switch strings.ToLower(s) {
	case "btrfs":
		return Btrfs, nil
	case "exfat":
		return Exfat, nil
	case "ext2":
		return Ext2, nil
	case "ext3":
		return Ext3, nil
	case "ext4":
		return Ext4, nil
	case "f2fs":
		return F2fs, nil
	case "fat16", "fat32", "vfat":
		return Vfat, nil
	case "iso9660":
		return Iso9660, nil
	case "luks", "crypto_luks":
		return Luks, nil
	case "lvm", "lvm2_member":
		return Lvm, nil
	case "ntfs":
		return Ntfs, nil
	case "squashfs":
		return Squashfs, nil
	case "swap", "linux-swap(v1)":
		return Swap, nil
	case "xfs":
		return Xfs, nil
	case "zfs":
		return Zfs, nil
	default:
		return Unknown, fmt.Errorf("diskfs: unrecognized filesystem type %q", s)
	}
}

const (
	mib = 1024 * 1024
	gib = mib * 1024
	tib = gib * 1024

	fat16Min = 16 * mib
	fat16Max = 4095 * mib
	fat32Min = 33 * mib
	fat32Max = 2 * tib
	ext4Max  = 16 * tib
	btrfsMin = 250 * mib
)

// ValidateSize enforces the size policy the mutation API applies before
// formatting a partition of the given byte size. Filesystems with no
// documented bound always pass.
func ValidateSize(fs Filesystem, sizeBytes uint64) error {
	switch fs {
	case Btrfs:
		if sizeBytes < btrfsMin {
			return fmt.Errorf("diskfs: btrfs requires at least %d bytes, got %d", btrfsMin, sizeBytes)
		}
	case Ext4:
		if sizeBytes > ext4Max {
			return fmt.Errorf("diskfs: ext4 supports at most %d bytes, got %d", ext4Max, sizeBytes)
		}
	case Vfat:
		// Vfat covers both FAT16 and FAT32 on-disk; accept either window.
		if sizeBytes < fat16Min {
			return fmt.Errorf("diskfs: vfat requires at least %d bytes, got %d", fat16Min, sizeBytes)
		}
		if sizeBytes > fat32Max {
			return fmt.Errorf("diskfs: vfat supports at most %d bytes, got %d", fat32Max, sizeBytes)
		}
	}
	return nil
}
