// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"diskengine/internal/world"
)

func newTestWorld() *world.World {
	return world.New(logr.Discard())
}

func loopback2GiB(w *world.World) world.DeviceEntity {
	e := w.InsertDevice(world.Device{
		Name:               "loop0",
		Path:               "/dev/loop0",
		Sectors:            4194304,
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
	})
	w.SetFlags(e, world.FlagSupportsTable)
	return e
}

func TestLoadParsesYAML(t *testing.T) {
	path := writeTempPlan(t, `
operations:
  - type: create_table
    disk: /dev/loop0
    kind: gpt
  - type: create
    disk: /dev/loop0
    start: {kind: start}
    end: {kind: megabyte, value: 100}
    label: EFI
    filesystem: vfat
`)

	p, err := Load(path)
	require.NoError(t, err)
	require.Len(t, p.Operations, 2)
	require.Equal(t, "create_table", p.Operations[0].Type)
	require.Equal(t, "gpt", p.Operations[0].Kind)
	require.Equal(t, "megabyte", p.Operations[1].End.Kind)
	require.Equal(t, uint64(100), p.Operations[1].End.Value)
}

func TestApplyCreateTableAndPartition(t *testing.T) {
	w := newTestWorld()
	loopback2GiB(w)

	p := &Plan{Operations: []Operation{
		{Type: "create_table", Disk: "/dev/loop0", Kind: "gpt"},
		{
			Type:       "create",
			Disk:       "/dev/loop0",
			Start:      &Bound{Kind: "start"},
			End:        &Bound{Kind: "megabyte", Value: 100},
			Label:      "EFI",
			Filesystem: "vfat",
		},
	}}

	require.NoError(t, p.Apply(w))
	require.True(t, w.ManagerFlags().Has(world.MgrCreate))
}

func TestApplyUnknownDiskFails(t *testing.T) {
	w := newTestWorld()
	p := &Plan{Operations: []Operation{
		{Type: "create_table", Disk: "/dev/does-not-exist", Kind: "gpt"},
	}}
	err := p.Apply(w)
	require.Error(t, err)
}

func TestApplyUnknownOperationFails(t *testing.T) {
	w := newTestWorld()
	p := &Plan{Operations: []Operation{{Type: "teleport"}}}
	err := p.Apply(w)
	require.Error(t, err)
}

func TestApplyLuksCreate(t *testing.T) {
	w := newTestWorld()
	loopback2GiB(w)
	require.NoError(t, w.CreateTable(mustDisk(t, w), world.TableGpt))

	p := &Plan{Operations: []Operation{
		{
			Type:  "create",
			Disk:  "/dev/loop0",
			Start: &Bound{Kind: "start"},
			End:   &Bound{Kind: "megabyte_from_end", Value: 0},
			Label: "Secret",
			Luks: &LuksSpec{
				KeySize:    512,
				Kind:       "luks2",
				TargetName: "cryptroot",
				Passphrase: "hunter2",
			},
		},
	}}
	require.NoError(t, p.Apply(w))
}

func TestBoundResolveUnknownKind(t *testing.T) {
	_, err := Bound{Kind: "sideways"}.Resolve()
	require.Error(t, err)
}

func mustDisk(t *testing.T, w *world.World) world.DeviceEntity {
	t.Helper()
	e, _, ok := w.DeviceByPath("/dev/loop0")
	require.True(t, ok)
	return e
}

func writeTempPlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
