// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

// sectorKind tags which symbolic addressing form a Sector holds.
type sectorKind int

const (
	sectorStart sectorKind = iota
	sectorEnd
	sectorUnit
	sectorMegabyte
	sectorMegabyteFromEnd
	sectorPercent
)

// Sector is a symbolic sector address, resolved against a specific
// device's size and logical sector size (spec.md §4.1 "Sector
// addressing"). Construct one with the Sector* functions below.
type Sector struct {
	kind  sectorKind
	value uint64
}

// SectorStart addresses the first sector of the device.
func SectorStart() Sector { return Sector{kind: sectorStart} }

// SectorEnd addresses one sector past the last addressable sector of the
// device (i.e. device.Sectors).
func SectorEnd() Sector { return Sector{kind: sectorEnd} }

// SectorUnit addresses an absolute sector number.
func SectorUnit(n uint64) Sector { return Sector{kind: sectorUnit, value: n} }

// SectorMegabyte addresses the sector n megabytes from the start.
func SectorMegabyte(n uint64) Sector { return Sector{kind: sectorMegabyte, value: n} }

// SectorMegabyteFromEnd addresses the sector n megabytes before the end.
func SectorMegabyteFromEnd(n uint64) Sector { return Sector{kind: sectorMegabyteFromEnd, value: n} }

// SectorPercent addresses n percent of the way through the device.
func SectorPercent(n uint64) Sector { return Sector{kind: sectorPercent, value: n} }

const bytesPerMegabyte = 1024 * 1024

// Resolve converts the symbolic sector to an absolute sector number using
// the device's own size and logical sector size, exactly as spec.md §4.1
// describes.
func (s Sector) Resolve(d Device) uint64 {
	switch s.kind {
	case sectorStart:
		return 0
	case sectorEnd:
		return d.Sectors
	case sectorUnit:
		return s.value
	case sectorMegabyte:
		return (s.value * bytesPerMegabyte) / d.LogicalSectorSize
	case sectorMegabyteFromEnd:
		delta := (s.value * bytesPerMegabyte) / d.LogicalSectorSize
		if delta > d.Sectors {
			return 0
		}
		return d.Sectors - delta
	case sectorPercent:
		return (d.Sectors * s.value) / 100
	default:
		return 0
	}
}
