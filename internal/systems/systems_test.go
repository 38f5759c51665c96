// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package systems

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"go.uber.org/mock/gomock"

	"diskengine/internal/diskfs"
	"diskengine/internal/extops"
	"diskengine/internal/secure"
	"diskengine/internal/table"
	"diskengine/internal/world"
)

func newTestWorld() *world.World {
	return world.New(logr.Discard())
}

// loopback2GiB mirrors internal/world's own fixture of the same name: a 2
// GiB loopback-backed disk shaped like the end-to-end scenarios (spec.md
// §8 scenario 1).
func loopback2GiB(w *world.World) world.DeviceEntity {
	e := w.InsertDevice(world.Device{
		Name:               "loop0",
		Path:               "/dev/loop0",
		Sectors:            4194304,
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
	})
	w.SetFlags(e, world.FlagSupportsTable)
	w.SetLoopback(e, "/tmp/disk.img")
	return e
}

// stubOpener always returns adapter regardless of the kind/path/fresh
// arguments it is called with, letting a single MockAdapter accumulate
// expectations across however many times the systems pipeline opens a
// disk's table during one Apply.
func stubOpener(adapter table.Adapter) TableOpener {
	return func(world.TableKind, string, uint64, bool) (table.Adapter, error) {
		return adapter, nil
	}
}

func TestApplyFreshGptLayoutEndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := newTestWorld()
	disk := loopback2GiB(w)

	if err := w.CreateTable(disk, world.TableGpt); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	efi, err := w.CreateAsChildOf(disk, world.SectorStart(), world.SectorMegabyte(100), "EFI", world.Plain(diskfs.Vfat))
	if err != nil {
		t.Fatalf("create EFI: %v", err)
	}
	root, err := w.CreateAsChildOf(disk, world.SectorMegabyte(100), world.SectorMegabyteFromEnd(1000), "Root", world.Plain(diskfs.Ext4))
	if err != nil {
		t.Fatalf("create Root: %v", err)
	}
	swap, err := w.CreateAsChildOf(disk, world.SectorMegabyteFromEnd(1000), world.SectorEnd(), "Swap", world.Plain(diskfs.Swap))
	if err != nil {
		t.Fatalf("create Swap: %v", err)
	}

	adapter := table.NewMockAdapter(ctrl)
	adapter.EXPECT().Write().Return(nil).Times(2)
	adapter.EXPECT().Close().Return(nil).Times(2)
	adapter.EXPECT().Add(gomock.Any(), gomock.Any(), "EFI").Return(uint32(1), nil)
	adapter.EXPECT().Add(gomock.Any(), gomock.Any(), "Root").Return(uint32(2), nil)
	adapter.EXPECT().Add(gomock.Any(), gomock.Any(), "Swap").Return(uint32(3), nil)

	mkfs := extops.NewMockMkfs(ctrl)
	mkfs.EXPECT().Format(gomock.Any(), "/dev/loop0p1", diskfs.Vfat).Return(nil)
	mkfs.EXPECT().Format(gomock.Any(), "/dev/loop0p2", diskfs.Ext4).Return(nil)
	mkfs.EXPECT().Format(gomock.Any(), "/dev/loop0p3", diskfs.Swap).Return(nil)

	ops := Ops{Mkfs: mkfs, OpenTable: stubOpener(adapter)}
	cancel := &world.CancelFlag{}

	if err := Apply(context.Background(), w, cancel, ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for _, e := range []world.DeviceEntity{efi, root, swap} {
		flags, ok := w.EntityFlags(e)
		if !ok {
			t.Fatalf("entity %s dropped by apply", e)
		}
		if flags.Has(world.FlagCreate) {
			t.Fatalf("entity %s still carries FlagCreate after apply", e)
		}
	}

	if children := w.Children(disk); len(children) != 3 {
		t.Fatalf("Children(disk) = %d, want 3", len(children))
	}

	part, ok := w.Partition(efi)
	if !ok || part.Number != 1 {
		t.Fatalf("EFI partition = %+v, ok=%v, want Number=1", part, ok)
	}
	dev, ok := w.Device(efi)
	if !ok || dev.Path != "/dev/loop0p1" {
		t.Fatalf("EFI device = %+v, ok=%v, want Path=/dev/loop0p1", dev, ok)
	}
	if part.Filesystem != diskfs.Vfat {
		t.Fatalf("EFI filesystem after format = %v, want Vfat", part.Filesystem)
	}

	rootDev, _ := w.Device(root)
	if rootDev.Path != "/dev/loop0p2" {
		t.Fatalf("Root device path = %q, want /dev/loop0p2", rootDev.Path)
	}
	swapDev, _ := w.Device(swap)
	if swapDev.Path != "/dev/loop0p3" {
		t.Fatalf("Swap device path = %q, want /dev/loop0p3", swapDev.Path)
	}

	if w.ManagerFlags() != 0 {
		t.Fatalf("manager flags should be cleared after apply, got %v", w.ManagerFlags())
	}
}

func TestApplyLuksChildOfTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := newTestWorld()
	disk := loopback2GiB(w)

	if err := w.CreateTable(disk, world.TableGpt); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	params := world.LuksParams{
		KeySize:    512,
		Kind:       "luks2",
		TargetName: "cryptroot",
		Passphrase: secure.NewBuffer("correct horse battery staple"),
	}
	ciphertext, err := w.CreateAsChildOf(disk, world.SectorStart(), world.SectorMegabyteFromEnd(0), "Secret", world.EncryptedWith(params))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	adapter := table.NewMockAdapter(ctrl)
	adapter.EXPECT().Write().Return(nil).Times(2)
	adapter.EXPECT().Close().Return(nil).Times(2)
	adapter.EXPECT().Add(gomock.Any(), gomock.Any(), "Secret").Return(uint32(1), nil)

	cryptsetup := extops.NewMockCryptsetup(ctrl)
	cryptsetup.EXPECT().
		Format(gomock.Any(), "/dev/loop0p1", extops.CryptsetupParams{KeySizeBits: 512, Kind: "luks2"}, params.Passphrase).
		Return(nil)

	ops := Ops{Cryptsetup: cryptsetup, OpenTable: stubOpener(adapter)}
	cancel := &world.CancelFlag{}

	if err := Apply(context.Background(), w, cancel, ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !w.IsLuks(ciphertext) {
		t.Fatalf("ciphertext entity should carry a committed Luks component")
	}
	children := w.Children(ciphertext)
	if len(children) != 1 {
		t.Fatalf("ciphertext children = %d, want 1", len(children))
	}
	plaintext := children[0]
	dev, ok := w.Device(plaintext)
	if !ok || dev.Path != "/dev/mapper/cryptroot" {
		t.Fatalf("plaintext device = %+v, ok=%v, want Path=/dev/mapper/cryptroot", dev, ok)
	}
	if name, ok := w.DeviceMapName(plaintext); !ok || name != "cryptroot" {
		t.Fatalf("plaintext device-map name = %q, ok=%v, want cryptroot", name, ok)
	}
}

func TestApplyVolumeGroupAndLogicalVolumeCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := newTestWorld()
	disk := loopback2GiB(w)

	pv := w.InsertDevice(world.Device{Name: "loop0p1", Path: "/dev/loop0p1", Sectors: 2097152, LogicalSectorSize: 512, PhysicalSectorSize: 512})
	w.SetPartition(pv, world.Partition{Offset: 2048, Number: 1, Filesystem: diskfs.Lvm})
	w.AppendChild(disk, pv)
	w.SetPv(pv, world.Pv{Pv: world.LvmPv{SizeBytes: 2097152 * 512}})

	vg, err := w.VolumeGroupCreate("vgdata", []world.DeviceEntity{pv})
	if err != nil {
		t.Fatalf("VolumeGroupCreate: %v", err)
	}
	lv, err := w.CreateAsLogicalVolumeOf(vg, world.SectorMegabyte(512), "lvroot", world.Plain(diskfs.Ext4))
	if err != nil {
		t.Fatalf("CreateAsLogicalVolumeOf: %v", err)
	}

	lvmBus := extops.NewMockLvmBus(ctrl)
	lvmBus.EXPECT().VgCreate(gomock.Any(), "vgdata", []string{"/dev/loop0p1"}).Return(nil)
	lvmBus.EXPECT().LvCreate(gomock.Any(), "vgdata", "lvroot", gomock.Any()).Return(nil)

	mkfs := extops.NewMockMkfs(ctrl)
	mkfs.EXPECT().Format(gomock.Any(), "/dev/mapper/lvroot", diskfs.Ext4).Return(nil)

	ops := Ops{Mkfs: mkfs, LvmBus: lvmBus, OpenTable: stubOpener(table.NewMockAdapter(ctrl))}
	cancel := &world.CancelFlag{}

	if err := Apply(context.Background(), w, cancel, ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	vgFlags, ok := w.VgEntityFlags(vg)
	if !ok || vgFlags.Has(world.FlagCreate) {
		t.Fatalf("vg flags = %v, ok=%v, want FlagCreate cleared", vgFlags, ok)
	}
	lvFlags, ok := w.EntityFlags(lv)
	if !ok || lvFlags.Has(world.FlagCreate) {
		t.Fatalf("lv flags = %v, ok=%v, want FlagCreate cleared", lvFlags, ok)
	}
	pvInfo, ok := w.Pv(pv)
	if !ok || !pvInfo.InVg || pvInfo.Vg != vg {
		t.Fatalf("pv = %+v, ok=%v, want committed member of vg", pvInfo, ok)
	}
}

func TestApplyRemovesWholeDiskSubtree(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := newTestWorld()
	disk := loopback2GiB(w)
	child := w.InsertDevice(world.Device{Name: "loop0p1", Path: "/dev/loop0p1", Sectors: 100})
	w.SetPartition(child, world.Partition{Offset: 2048, Number: 1})
	w.AppendChild(disk, child)

	if err := w.Remove(disk); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	wipefs := extops.NewMockWipefs(ctrl)
	wipefs.EXPECT().Wipe(gomock.Any(), "/dev/loop0").Return(nil)

	ops := Ops{Wipefs: wipefs}
	cancel := &world.CancelFlag{}

	if err := Apply(context.Background(), w, cancel, ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := w.Device(disk); ok {
		t.Fatalf("disk entity should have been dropped")
	}
	if _, ok := w.Device(child); ok {
		t.Fatalf("child entity should have been dropped along with its parent")
	}
}

func TestApplyRemovesSinglePartitionFromSurvivingTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := newTestWorld()
	disk := loopback2GiB(w)
	w.SetTable(disk, world.Table{Kind: world.TableGpt})
	keep := w.InsertDevice(world.Device{Name: "loop0p1", Path: "/dev/loop0p1", Sectors: 100})
	w.SetPartition(keep, world.Partition{Offset: 2048, Number: 1})
	w.AppendChild(disk, keep)
	drop := w.InsertDevice(world.Device{Name: "loop0p2", Path: "/dev/loop0p2", Sectors: 100})
	w.SetPartition(drop, world.Partition{Offset: 4096, Number: 2})
	w.AppendChild(disk, drop)

	if err := w.Remove(drop); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	adapter := table.NewMockAdapter(ctrl)
	adapter.EXPECT().Remove(uint64(4097)).Return(nil)
	adapter.EXPECT().Write().Return(nil)
	adapter.EXPECT().Close().Return(nil)

	ops := Ops{OpenTable: stubOpener(adapter)}
	cancel := &world.CancelFlag{}

	if err := Apply(context.Background(), w, cancel, ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := w.Device(drop); ok {
		t.Fatalf("removed partition should have been dropped")
	}
	if _, ok := w.Device(keep); !ok {
		t.Fatalf("surviving partition should not have been touched")
	}
}

func TestApplyFormatAndLabel(t *testing.T) {
	w := newTestWorld()
	disk := loopback2GiB(w)
	w.SetTable(disk, world.Table{Kind: world.TableGpt})
	child := w.InsertDevice(world.Device{Name: "loop0p1", Path: "/dev/loop0p1", Sectors: 100})
	w.SetPartition(child, world.Partition{Offset: 2048, Number: 1})
	w.AppendChild(disk, child)

	if err := w.Format(child, diskfs.Ext4); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if err := w.Label(child, "data"); err != nil {
		t.Fatalf("Label: %v", err)
	}

	ctrl := gomock.NewController(t)
	mkfs := extops.NewMockMkfs(ctrl)
	mkfs.EXPECT().Format(gomock.Any(), "/dev/loop0p1", diskfs.Ext4).Return(nil)

	adapter := table.NewMockAdapter(ctrl)
	adapter.EXPECT().Label(uint64(2049), "data").Return(nil)
	adapter.EXPECT().Write().Return(nil)
	adapter.EXPECT().Close().Return(nil)

	ops := Ops{Mkfs: mkfs, OpenTable: stubOpener(adapter)}
	cancel := &world.CancelFlag{}

	if err := Apply(context.Background(), w, cancel, ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	part, ok := w.Partition(child)
	if !ok || part.Filesystem != diskfs.Ext4 || part.PartLabel != "data" {
		t.Fatalf("partition = %+v, ok=%v, want Ext4/data", part, ok)
	}
}

func TestApplyResizeQueuedReturnsUnsupported(t *testing.T) {
	w := newTestWorld()
	disk := loopback2GiB(w)
	if err := w.ResizeQueue(disk, world.ResizeOp{From: 4194304, To: 8388608}); err != nil {
		t.Fatalf("ResizeQueue: %v", err)
	}

	cancel := &world.CancelFlag{}
	err := Apply(context.Background(), w, cancel, Ops{})
	if !errors.Is(err, ErrResizeUnsupported) {
		t.Fatalf("Apply = %v, want ErrResizeUnsupported", err)
	}
	if !w.IsEmpty() {
		t.Fatalf("world should have its queued state unset even after a failing system")
	}
}

func TestApplyCancelledBeforeAnySystemRuns(t *testing.T) {
	w := newTestWorld()
	disk := loopback2GiB(w)
	if err := w.Remove(disk); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	cancel := &world.CancelFlag{}
	cancel.Set()

	if err := Apply(context.Background(), w, cancel, Ops{}); !errors.Is(err, world.ErrCancelled) {
		t.Fatalf("Apply = %v, want ErrCancelled", err)
	}
	if _, ok := w.Device(disk); !ok {
		t.Fatalf("disk should be untouched: no system ran before cancellation was observed")
	}
}
