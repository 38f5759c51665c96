// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package scanner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"diskengine/internal/diskfs"
	"diskengine/internal/extops"
	"diskengine/internal/metrics"
	"diskengine/internal/world"
)

// ErrWorldNotEmpty reports a World that already holds entities where an
// empty one is required. Scan does not return it: Scan always starts from
// a World fresh from world.New.
var ErrWorldNotEmpty = errors.New("scanner: world must be empty before scanning")

// Scanner rebuilds a World from the live system in the seven steps
// spec.md §4.2 describes. Each step is its own method so callers (and
// tests) can exercise them independently; Scan runs all seven in order.
type Scanner struct {
	fs     SysFS
	prober extops.Prober
	lvmBus extops.LvmBus
	log    logr.Logger
}

// New returns a Scanner wired to the real filesystem and the given
// collaborators. lvmBus may be nil, which behaves as if every LVM query
// failed (step 6 is skipped and logged, matching spec.md §4.2's "LVM may
// be uninstalled").
func New(log logr.Logger, fs SysFS, prober extops.Prober, lvmBus extops.LvmBus) *Scanner {
	return &Scanner{fs: fs, prober: prober, lvmBus: lvmBus, log: log}
}

// procPartitionEntry is one parsed /proc/partitions data line.
type procPartitionEntry struct {
	Major uint64
	Minor uint64
	Name  string
}

// Scan builds a new World from the live system, starting from an empty
// one created with world.New.
func (s *Scanner) Scan(ctx context.Context) (*world.World, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ScanDuration)

	w := world.New(s.log)

	entries, err := s.EnumerateWholeDisks(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]world.DeviceEntity, len(entries))
	for _, entry := range entries {
		e, err := s.ClassifyDevice(ctx, w, entry.Name)
		if err != nil {
			return nil, err
		}
		if e == (world.DeviceEntity{}) {
			continue // not a whole disk, e.g. already a partition of one enumerated above
		}
		byName[entry.Name] = e

		if err := s.InsertTopLevelFilesystem(ctx, w, e, entry.Name); err != nil {
			return nil, err
		}
		if err := s.EnumeratePartitions(ctx, w, e, entry.Name); err != nil {
			return nil, err
		}
	}

	if err := s.AssociateSlaves(w, byName); err != nil {
		return nil, err
	}

	if err := s.AssociateLvm(ctx, w, byName); err != nil {
		// Non-fatal per spec.md §4.2: LVM may not be installed.
		s.log.Info("skipping LVM association", "reason", err.Error())
	}

	s.MarkLuks(w)

	return w, nil
}

// EnumerateWholeDisks reads /proc/partitions and returns every entry
// whose /dev/<name> probes as a whole disk (spec.md §4.2 step 1).
func (s *Scanner) EnumerateWholeDisks(ctx context.Context) ([]procPartitionEntry, error) {
	lines, err := s.fs.ProcPartitionsLines()
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("scanner: /proc/partitions has no data lines")
	}

	var out []procPartitionEntry
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) != 4 {
			continue
		}
		major, err1 := strconv.ParseUint(fields[0], 10, 64)
		minor, err2 := strconv.ParseUint(fields[1], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		name := fields[3]

		whole, err := s.prober.IsWholeDisk(ctx, "/dev/"+name)
		if err != nil {
			return nil, fmt.Errorf("scanner: probing /dev/%s: %w", name, err)
		}
		if !whole {
			continue
		}
		out = append(out, procPartitionEntry{Major: major, Minor: minor, Name: name})
	}
	return out, nil
}

// ClassifyDevice inserts name as a device-map, loopback, or disk entity
// (spec.md §4.2 step 2) and returns its DeviceEntity.
func (s *Scanner) ClassifyDevice(ctx context.Context, w *world.World, name string) (world.DeviceEntity, error) {
	info, err := s.prober.DiskInfo(ctx, "/dev/"+name)
	if err != nil {
		return world.DeviceEntity{}, fmt.Errorf("scanner: probing /dev/%s: %w", name, err)
	}

	dev := world.Device{
		Name:               name,
		Path:               "/dev/" + name,
		Sectors:            info.SectorsTotal,
		LogicalSectorSize:  info.LogicalSectorSize,
		PhysicalSectorSize: info.PhysicalSectorSize,
	}
	e := w.InsertDevice(dev)

	switch {
	case strings.HasPrefix(name, "dm-"):
		dmName, err := s.fs.ReadFileTrimmed(fmt.Sprintf("/sys/class/block/%s/dm/name", name))
		if err != nil {
			return world.DeviceEntity{}, err
		}
		w.SetDeviceMapName(e, dmName)
	case strings.HasPrefix(name, "loop"):
		backing, err := s.fs.ReadFileTrimmed(fmt.Sprintf("/sys/class/block/%s/loop/backing_file", name))
		if err != nil {
			return world.DeviceEntity{}, err
		}
		w.SetLoopback(e, backing)
		w.AddFlags(e, world.FlagSupportsTable)
	default:
		w.SetDisk(e, world.Disk{})
		if info.Table != world.TableNone {
			w.SetTable(e, world.Table{Kind: info.Table})
		}
		w.AddFlags(e, world.FlagSupportsTable)
	}
	return e, nil
}

// InsertTopLevelFilesystem records the whole device's own filesystem, if
// any, as a zero-offset, zero-numbered partition component (spec.md
// §4.2 step 3).
func (s *Scanner) InsertTopLevelFilesystem(ctx context.Context, w *world.World, e world.DeviceEntity, name string) error {
	info, err := s.prober.DiskInfo(ctx, "/dev/"+name)
	if err != nil {
		return fmt.Errorf("scanner: probing /dev/%s: %w", name, err)
	}
	if info.Type == "" {
		return nil
	}
	fs, err := diskfs.Parse(info.Type)
	if err != nil {
		s.log.V(1).Info("unrecognized top-level filesystem type", "device", name, "type", info.Type)
		return nil
	}
	w.SetPartition(e, world.Partition{Offset: 0, Number: 0, Filesystem: fs, UUID: info.UUID})
	return nil
}

// EnumeratePartitions allocates a child entity for every partition the
// probe reports on parent's whole device (spec.md §4.2 step 4).
func (s *Scanner) EnumeratePartitions(ctx context.Context, w *world.World, parent world.DeviceEntity, parentName string) error {
	parentDev, ok := w.Device(parent)
	if !ok {
		return fmt.Errorf("scanner: parent device entity missing during partition enumeration")
	}

	parts, err := s.prober.Partitions(ctx, parentDev.Path)
	if err != nil {
		return fmt.Errorf("scanner: listing partitions of %s: %w", parentDev.Path, err)
	}

	for _, part := range parts {
		childName := world.PartitionDeviceName(parentName, part.Number)
		fs := diskfs.Unknown
		if part.Type != "" {
			if parsed, err := diskfs.Parse(part.Type); err == nil {
				fs = parsed
			}
		}
		child := w.InsertDevice(world.Device{
			Name:               childName,
			Path:               "/dev/" + childName,
			Sectors:            part.Sectors,
			LogicalSectorSize:  parentDev.LogicalSectorSize,
			PhysicalSectorSize: parentDev.PhysicalSectorSize,
		})
		w.SetPartition(child, world.Partition{
			Offset:     part.Offset,
			Number:     part.Number,
			Filesystem: fs,
			PartUUID:   part.PartUUID,
			PartLabel:  part.PartLabel,
			UUID:       part.UUID,
		})
		w.AppendChild(parent, child)
	}
	return nil
}

// AssociateSlaves edge-completes dm/LUKS/multipath relationships by
// reading /sys/class/block/<n>/slaves/* for every known device (spec.md
// §4.2 step 5).
func (s *Scanner) AssociateSlaves(w *world.World, byName map[string]world.DeviceEntity) error {
	for name, child := range byName {
		slaves, err := s.fs.ReadDirNames(fmt.Sprintf("/sys/class/block/%s/slaves", name))
		if err != nil {
			continue // no slaves directory, or device has no slaves; not an error
		}
		for _, slaveName := range slaves {
			slaveEntity, ok := byName[slaveName]
			if !ok {
				continue
			}
			w.AppendChild(slaveEntity, child)
		}
	}
	return nil
}

// AssociateLvm queries the LVM bus for VGs/PVs/LVs and wires them into
// the world (spec.md §4.2 step 6). Any error here is non-fatal to the
// caller, which is expected to log and continue.
func (s *Scanner) AssociateLvm(ctx context.Context, w *world.World, byName map[string]world.DeviceEntity) error {
	if s.lvmBus == nil {
		return fmt.Errorf("scanner: no LVM bus configured")
	}

	vgs, err := s.lvmBus.VolumeGroups(ctx)
	if err != nil {
		return fmt.Errorf("scanner: listing volume groups: %w", err)
	}
	vgByPath := make(map[string]world.VgEntity, len(vgs))
	for _, vg := range vgs {
		entity := w.InsertVg(world.VolumeGroup{
			Name:        vg.Name,
			ExtentSize:  vg.ExtentSize,
			Extents:     vg.ExtentCount,
			ExtentsFree: vg.FreeCount,
		})
		vgByPath[string(vg.ObjectPath)] = entity
	}

	lvs, err := s.lvmBus.LogicalVolumes(ctx)
	if err != nil {
		return fmt.Errorf("scanner: listing logical volumes: %w", err)
	}
	for _, lv := range lvs {
		vgEntity, ok := vgByPath[string(lv.Vg)]
		if !ok {
			continue
		}
		resolved, err := s.fs.EvalSymlinks(lv.Path)
		if err != nil {
			resolved = lv.Path
		}
		for name, entity := range byName {
			dev, ok := w.Device(entity)
			if ok && (dev.Path == resolved || "/dev/"+name == resolved) {
				w.SetLv(entity, world.Lv{Lv: world.LvmLv{Name: lv.Name, Path: lv.Path}, Vg: vgEntity})
				w.AppendVgChild(vgEntity, entity)
				break
			}
		}
	}

	pvs, err := s.lvmBus.PhysicalVolumes(ctx)
	if err != nil {
		return fmt.Errorf("scanner: listing physical volumes: %w", err)
	}
	for _, pv := range pvs {
		entity, ok := w.DeviceMapByName(pv.Name)
		if !ok {
			entity, _, ok = w.DeviceByName(pv.Name)
			if !ok {
				continue
			}
		}
		vgEntity, inVg := vgByPath[string(pv.Vg)]
		dev, _ := w.Device(entity)
		w.SetPv(entity, world.Pv{Pv: world.LvmPv{Path: dev.Path, SizeBytes: pv.SizeBytes}, Vg: vgEntity, InVg: inVg})
		if inVg {
			w.AppendVgChild(vgEntity, entity)
		}
	}
	return nil
}

// MarkLuks gives every partition whose filesystem is diskfs.Luks a luks
// component with no stored passphrase (spec.md §4.2 step 7); a
// passphrase is only known once a caller supplies one to activate it.
func (s *Scanner) MarkLuks(w *world.World) {
	for _, e := range w.Partitions() {
		p, ok := w.Partition(e)
		if !ok || p.Filesystem != diskfs.Luks {
			continue
		}
		w.SetLuks(e, world.Luks{})
	}
}
