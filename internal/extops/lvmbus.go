// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package extops

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	lvmDest      = "com.redhat.lvmdbus1"
	lvmManagerIf = "com.redhat.lvmdbus1.Manager"
	lvmManagerP  = dbus.ObjectPath("/com/redhat/lvmdbus1/Manager")
	lvmVgIf      = "com.redhat.lvmdbus1.Vg"
	lvmVgObj     = dbus.ObjectPath("/com/redhat/lvmdbus1/Vg")
	lvmLvIf      = "com.redhat.lvmdbus1.Lv"
	lvmLvObj     = dbus.ObjectPath("/com/redhat/lvmdbus1/Lv")
	lvmPvIf      = "com.redhat.lvmdbus1.Pv"
	lvmPvObj     = dbus.ObjectPath("/com/redhat/lvmdbus1/Pv")
)

// VgInfo is one volume group as reported over the LVM management bus.
type VgInfo struct {
	ObjectPath  dbus.ObjectPath
	Name        string
	ExtentSize  uint64
	ExtentCount uint64
	FreeCount   uint64
}

// LvInfo is one logical volume.
type LvInfo struct {
	ObjectPath dbus.ObjectPath
	Name       string
	Path       string
	SizeBytes  uint64
	Vg         dbus.ObjectPath
}

// PvInfo is one physical volume.
type PvInfo struct {
	ObjectPath dbus.ObjectPath
	Name       string
	SizeBytes  uint64
	Vg         dbus.ObjectPath
}

// LvmBus talks to the LVM management daemon over the system D-Bus
// (spec.md §4.6 "LVM bus"), the Go-native counterpart of a client that
// talks to com.redhat.lvmdbus1 the way original_source/members/lvmdbus1
// does for a Rust engine. A scan failure here is non-fatal to the rest
// of scanning (spec.md §4.2 step 6): callers log and continue.
//
//go:generate mockgen -destination=mock_lvmbus.go -mock_names=LvmBus=MockLvmBus -package=extops -source=lvmbus.go LvmBus
type LvmBus interface {
	VolumeGroups(ctx context.Context) ([]VgInfo, error)
	LogicalVolumes(ctx context.Context) ([]LvInfo, error)
	PhysicalVolumes(ctx context.Context) ([]PvInfo, error)
	VgCreate(ctx context.Context, name string, pvPaths []string) error
	LvCreate(ctx context.Context, vgName, lvName string, sizeBytes uint64) error
	Close() error
}

type lvmBus struct {
	conn *dbus.Conn
}

// NewLvmBus dials the system bus and returns the real LvmBus. Callers
// should Close it once done.
func NewLvmBus() (LvmBus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("extops: connecting to system bus: %w", err)
	}
	return &lvmBus{conn: conn}, nil
}

func (b *lvmBus) Close() error {
	return b.conn.Close()
}

// children introspects parent and returns the object paths of its direct
// children, e.g. "/com/redhat/lvmdbus1/Vg/1" under ".../Vg".
func (b *lvmBus) children(ctx context.Context, parent dbus.ObjectPath) ([]dbus.ObjectPath, error) {
	obj := b.conn.Object(lvmDest, parent)
	var xml string
	if err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Introspectable.Introspect", 0).Store(&xml); err != nil {
		return nil, fmt.Errorf("extops: introspecting %s: %w", parent, err)
	}
	node, err := introspect.Parse(bytesOf(xml), lvmDest)
	if err != nil {
		return nil, fmt.Errorf("extops: parsing introspection data for %s: %w", parent, err)
	}
	paths := make([]dbus.ObjectPath, 0, len(node.Children))
	for _, child := range node.Children {
		paths = append(paths, dbus.ObjectPath(fmt.Sprintf("%s/%s", parent, child.Name)))
	}
	return paths, nil
}

func bytesOf(s string) []byte { return []byte(s) }

func (b *lvmBus) getProp(ctx context.Context, path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	obj := b.conn.Object(lvmDest, path)
	return obj.GetPropertyWithContext(ctx, iface+"."+prop)
}

func (b *lvmBus) VolumeGroups(ctx context.Context) ([]VgInfo, error) {
	paths, err := b.children(ctx, lvmVgObj)
	if err != nil {
		return nil, err
	}
	out := make([]VgInfo, 0, len(paths))
	for _, p := range paths {
		name, _ := b.getProp(ctx, p, lvmVgIf, "Name")
		extentSize, _ := b.getProp(ctx, p, lvmVgIf, "ExtentSizeBytes")
		extentCount, _ := b.getProp(ctx, p, lvmVgIf, "ExtentCount")
		freeCount, _ := b.getProp(ctx, p, lvmVgIf, "FreeCount")
		out = append(out, VgInfo{
			ObjectPath:  p,
			Name:        variantString(name),
			ExtentSize:  variantUint64(extentSize),
			ExtentCount: variantUint64(extentCount),
			FreeCount:   variantUint64(freeCount),
		})
	}
	return out, nil
}

func (b *lvmBus) LogicalVolumes(ctx context.Context) ([]LvInfo, error) {
	paths, err := b.children(ctx, lvmLvObj)
	if err != nil {
		return nil, err
	}
	out := make([]LvInfo, 0, len(paths))
	for _, p := range paths {
		name, _ := b.getProp(ctx, p, lvmLvIf, "Name")
		path, _ := b.getProp(ctx, p, lvmLvIf, "Path")
		size, _ := b.getProp(ctx, p, lvmLvIf, "SizeBytes")
		vg, _ := b.getProp(ctx, p, lvmLvIf, "Vg")
		out = append(out, LvInfo{
			ObjectPath: p,
			Name:       variantString(name),
			Path:       variantString(path),
			SizeBytes:  variantUint64(size),
			Vg:         dbus.ObjectPath(variantString(vg)),
		})
	}
	return out, nil
}

func (b *lvmBus) PhysicalVolumes(ctx context.Context) ([]PvInfo, error) {
	paths, err := b.children(ctx, lvmPvObj)
	if err != nil {
		return nil, err
	}
	out := make([]PvInfo, 0, len(paths))
	for _, p := range paths {
		name, _ := b.getProp(ctx, p, lvmPvIf, "Name")
		size, _ := b.getProp(ctx, p, lvmPvIf, "SizeBytes")
		vg, _ := b.getProp(ctx, p, lvmPvIf, "Vg")
		out = append(out, PvInfo{
			ObjectPath: p,
			Name:       variantString(name),
			SizeBytes:  variantUint64(size),
			Vg:         dbus.ObjectPath(variantString(vg)),
		})
	}
	return out, nil
}

// VgCreate calls Manager.VgCreate, the bus equivalent of `vgcreate`.
func (b *lvmBus) VgCreate(ctx context.Context, name string, pvPaths []string) error {
	obj := b.conn.Object(lvmDest, lvmManagerP)
	call := obj.CallWithContext(ctx, lvmManagerIf+".VgCreate", 0, name, pvPaths, uint64(0), int32(0))
	if call.Err != nil {
		return fmt.Errorf("extops: lvmbus VgCreate %s: %w", name, call.Err)
	}
	return nil
}

// LvCreate calls Vg.LvCreateLinear, the bus equivalent of `lvcreate -L`.
func (b *lvmBus) LvCreate(ctx context.Context, vgName, lvName string, sizeBytes uint64) error {
	vgs, err := b.VolumeGroups(ctx)
	if err != nil {
		return err
	}
	var vgPath dbus.ObjectPath
	for _, vg := range vgs {
		if vg.Name == vgName {
			vgPath = vg.ObjectPath
			break
		}
	}
	if vgPath == "" {
		return fmt.Errorf("extops: lvmbus LvCreate: volume group %s not found on bus", vgName)
	}
	obj := b.conn.Object(lvmDest, vgPath)
	call := obj.CallWithContext(ctx, lvmVgIf+".LvCreateLinear", 0, lvName, sizeBytes, false, int32(0))
	if call.Err != nil {
		return fmt.Errorf("extops: lvmbus LvCreate %s/%s: %w", vgName, lvName, call.Err)
	}
	return nil
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}

func variantUint64(v dbus.Variant) uint64 {
	switch n := v.Value().(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case uint32:
		return uint64(n)
	default:
		return 0
	}
}
