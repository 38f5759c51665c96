// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"diskengine/internal/diskfs"
	"diskengine/internal/extops"
	"diskengine/internal/world"
)

// fakeSysFS is an in-memory SysFS fixture keyed by the same paths the
// real osSysFS would be asked to read.
type fakeSysFS struct {
	procPartitions []string
	files          map[string]string
	dirs           map[string][]string
	symlinks       map[string]string
}

func newFakeSysFS() *fakeSysFS {
	return &fakeSysFS{
		files:    make(map[string]string),
		dirs:     make(map[string][]string),
		symlinks: make(map[string]string),
	}
}

func (f *fakeSysFS) ProcPartitionsLines() ([]string, error) {
	return f.procPartitions, nil
}

func (f *fakeSysFS) ReadFileTrimmed(path string) (string, error) {
	v, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("fakeSysFS: no file %s", path)
	}
	return v, nil
}

func (f *fakeSysFS) ReadDirNames(path string) ([]string, error) {
	v, ok := f.dirs[path]
	if !ok {
		return nil, fmt.Errorf("fakeSysFS: no directory %s", path)
	}
	return v, nil
}

func (f *fakeSysFS) EvalSymlinks(path string) (string, error) {
	if v, ok := f.symlinks[path]; ok {
		return v, nil
	}
	return path, nil
}

func newScannerForTest(t *testing.T, fs SysFS, prober extops.Prober, lvmBus extops.LvmBus) *Scanner {
	t.Helper()
	return New(logr.Discard(), fs, prober, lvmBus)
}

func TestEnumerateWholeDisksSkipsPartitionsAndHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := extops.NewMockProber(ctrl)

	fs := newFakeSysFS()
	fs.procPartitions = []string{
		"major minor  #blocks  name",
		"",
		"   8        0  500000000 sda",
		"   8        1    1000000 sda1",
	}

	prober.EXPECT().IsWholeDisk(gomock.Any(), "/dev/sda").Return(true, nil)
	prober.EXPECT().IsWholeDisk(gomock.Any(), "/dev/sda1").Return(false, nil)

	s := newScannerForTest(t, fs, prober, nil)
	entries, err := s.EnumerateWholeDisks(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "sda", entries[0].Name)
}

func TestEnumerateWholeDisksRequiresDataLines(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := extops.NewMockProber(ctrl)
	fs := newFakeSysFS()
	fs.procPartitions = []string{"major minor  #blocks  name"}

	s := newScannerForTest(t, fs, prober, nil)
	_, err := s.EnumerateWholeDisks(context.Background())
	require.Error(t, err)
}

func TestClassifyDeviceLoopbackSetsFlagsAndBackingFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := extops.NewMockProber(ctrl)
	fs := newFakeSysFS()
	fs.files["/sys/class/block/loop0/loop/backing_file"] = "/tmp/disk.img"

	prober.EXPECT().DiskInfo(gomock.Any(), "/dev/loop0").Return(extops.DiskInfo{
		SectorsTotal:       4194304,
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
	}, nil)

	s := newScannerForTest(t, fs, prober, nil)
	w := world.New(logr.Discard())

	e, err := s.ClassifyDevice(context.Background(), w, "loop0")
	require.NoError(t, err)

	backing, ok := w.BackingFile(e)
	require.True(t, ok)
	require.Equal(t, "/tmp/disk.img", backing)

	flags, ok := w.EntityFlags(e)
	require.True(t, ok)
	require.True(t, flags.Has(world.FlagSupportsTable))
}

func TestClassifyDeviceWholeDiskRecordsExistingTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := extops.NewMockProber(ctrl)
	fs := newFakeSysFS()

	prober.EXPECT().DiskInfo(gomock.Any(), "/dev/sda").Return(extops.DiskInfo{
		SectorsTotal:       1000000,
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
		Table:              world.TableGpt,
	}, nil)

	s := newScannerForTest(t, fs, prober, nil)
	w := world.New(logr.Discard())

	e, err := s.ClassifyDevice(context.Background(), w, "sda")
	require.NoError(t, err)

	tbl, ok := w.Table(e)
	require.True(t, ok)
	require.Equal(t, world.TableGpt, tbl.Kind)
}

func TestEnumeratePartitionsAssignsDeviceNamesAndFilesystems(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := extops.NewMockProber(ctrl)
	fs := newFakeSysFS()

	prober.EXPECT().Partitions(gomock.Any(), "/dev/sda").Return([]extops.PartitionInfo{
		{Number: 1, Offset: 2048, Sectors: 204800, Type: "vfat"},
		{Number: 2, Offset: 206848, Sectors: 1000000, Type: "ext4"},
	}, nil)

	s := newScannerForTest(t, fs, prober, nil)
	w := world.New(logr.Discard())
	parent := w.InsertDevice(world.Device{Name: "sda", Path: "/dev/sda", LogicalSectorSize: 512, PhysicalSectorSize: 512})

	require.NoError(t, s.EnumeratePartitions(context.Background(), w, parent, "sda"))

	children := w.Children(parent)
	require.Len(t, children, 2)

	first, ok := w.Device(children[0])
	require.True(t, ok)
	require.Equal(t, "sda1", first.Name)
	part, ok := w.Partition(children[0])
	require.True(t, ok)
	require.Equal(t, diskfs.Vfat, part.Filesystem)
}

func TestEnumeratePartitionsNvmeStyleNaming(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := extops.NewMockProber(ctrl)
	fs := newFakeSysFS()

	prober.EXPECT().Partitions(gomock.Any(), "/dev/nvme0n1").Return([]extops.PartitionInfo{
		{Number: 1, Sectors: 204800},
	}, nil)

	s := newScannerForTest(t, fs, prober, nil)
	w := world.New(logr.Discard())
	parent := w.InsertDevice(world.Device{Name: "nvme0n1", Path: "/dev/nvme0n1"})

	require.NoError(t, s.EnumeratePartitions(context.Background(), w, parent, "nvme0n1"))
	children := w.Children(parent)
	require.Len(t, children, 1)
	dev, _ := w.Device(children[0])
	require.Equal(t, "nvme0n1p1", dev.Name)
}

func TestAssociateSlavesLinksDmParentsToSlaves(t *testing.T) {
	fs := newFakeSysFS()
	fs.dirs["/sys/class/block/dm-0/slaves"] = []string{"sda1"}

	s := newScannerForTest(t, fs, nil, nil)
	w := world.New(logr.Discard())
	dmEntity := w.InsertDevice(world.Device{Name: "dm-0"})
	sda1 := w.InsertDevice(world.Device{Name: "sda1"})

	byName := map[string]world.DeviceEntity{"dm-0": dmEntity, "sda1": sda1}
	require.NoError(t, s.AssociateSlaves(w, byName))

	children := w.Children(sda1)
	require.Contains(t, children, dmEntity)
}

func TestAssociateLvmIsNonFatalWithoutBus(t *testing.T) {
	s := newScannerForTest(t, newFakeSysFS(), nil, nil)
	w := world.New(logr.Discard())
	err := s.AssociateLvm(context.Background(), w, nil)
	require.Error(t, err)
}

func TestAssociateLvmWiresVgsPvsAndLvs(t *testing.T) {
	ctrl := gomock.NewController(t)
	lvmBus := extops.NewMockLvmBus(ctrl)
	fs := newFakeSysFS()

	lvmBus.EXPECT().VolumeGroups(gomock.Any()).Return([]extops.VgInfo{
		{ObjectPath: "/vg/0", Name: "data", ExtentSize: 4 * 1024 * 1024, ExtentCount: 100, FreeCount: 10},
	}, nil)
	lvmBus.EXPECT().LogicalVolumes(gomock.Any()).Return([]extops.LvInfo{
		{Name: "lv0", Path: "/dev/data/lv0", Vg: "/vg/0"},
	}, nil)
	lvmBus.EXPECT().PhysicalVolumes(gomock.Any()).Return([]extops.PvInfo{
		{Name: "sdb1", SizeBytes: 1024 * 1024 * 1024, Vg: "/vg/0"},
	}, nil)

	s := newScannerForTest(t, fs, nil, lvmBus)
	w := world.New(logr.Discard())
	lv := w.InsertDevice(world.Device{Name: "dm-1", Path: "/dev/data/lv0"})
	pv := w.InsertDevice(world.Device{Name: "sdb1", Path: "/dev/sdb1"})
	byName := map[string]world.DeviceEntity{"dm-1": lv, "sdb1": pv}

	require.NoError(t, s.AssociateLvm(context.Background(), w, byName))

	vgs := w.LvmVolumeGroups()
	require.Len(t, vgs, 1)
	vgEntity, vg, ok := w.LvmVolumeGroup("data")
	require.True(t, ok)
	require.Equal(t, uint64(100), vg.Extents)

	lvComp, ok := w.Lv(lv)
	require.True(t, ok)
	require.Equal(t, vgEntity, lv2vg(t, lvComp))

	pvComp, ok := w.Pv(pv)
	require.True(t, ok)
	require.True(t, pvComp.InVg)
}

func lv2vg(t *testing.T, lv world.Lv) world.VgEntity {
	t.Helper()
	return lv.Vg
}

func TestMarkLuksOnlyTagsLuksFilesystems(t *testing.T) {
	s := newScannerForTest(t, newFakeSysFS(), nil, nil)
	w := world.New(logr.Discard())
	luksPart := w.InsertDevice(world.Device{Name: "sda2"})
	w.SetPartition(luksPart, world.Partition{Filesystem: diskfs.Luks})
	plainPart := w.InsertDevice(world.Device{Name: "sda1"})
	w.SetPartition(plainPart, world.Partition{Filesystem: diskfs.Ext4})

	s.MarkLuks(w)

	_, ok := w.LuksInfo(luksPart)
	require.True(t, ok)
	_, ok = w.LuksInfo(plainPart)
	require.False(t, ok)
}

func TestScanRejectsProbeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := extops.NewMockProber(ctrl)
	fs := newFakeSysFS()
	fs.procPartitions = []string{
		"major minor  #blocks  name",
		"",
		"   8        0  500000000 sda",
	}

	boom := errors.New("boom")
	prober.EXPECT().IsWholeDisk(gomock.Any(), "/dev/sda").Return(false, boom)

	s := newScannerForTest(t, fs, prober, nil)
	_, err := s.Scan(context.Background())
	require.ErrorIs(t, err, boom)
}
