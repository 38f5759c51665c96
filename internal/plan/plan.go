// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package plan decodes a declarative YAML plan file into a sequence of
// World mutation calls. It exists for cmd/diskenginectl to demonstrate
// the scan -> mutate -> apply lifecycle end to end; it is not a listing
// tool and not a general-purpose configuration layer.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"diskengine/internal/diskfs"
	"diskengine/internal/secure"
	"diskengine/internal/world"
)

// Plan is the root document a plan file decodes into.
type Plan struct {
	Operations []Operation `yaml:"operations"`
}

// Bound is the YAML shape of a world.Sector: kind selects which Sector*
// constructor to use, value supplies its argument for every kind but
// "start" and "end".
type Bound struct {
	Kind  string `yaml:"kind"`
	Value uint64 `yaml:"value,omitempty"`
}

// Resolve converts b into a world.Sector.
func (b Bound) Resolve() (world.Sector, error) {
	switch b.Kind {
	case "start":
		return world.SectorStart(), nil
	case "end":
		return world.SectorEnd(), nil
	case "unit":
		return world.SectorUnit(b.Value), nil
	case "megabyte":
		return world.SectorMegabyte(b.Value), nil
	case "megabyte_from_end":
		return world.SectorMegabyteFromEnd(b.Value), nil
	case "percent":
		return world.SectorPercent(b.Value), nil
	default:
		return world.Sector{}, fmt.Errorf("plan: unknown sector bound kind %q", b.Kind)
	}
}

// LuksSpec is the YAML shape of world.LuksParams. Passphrase is taken
// from the plan file in cleartext, matching this command's role as a
// demonstration of the lifecycle rather than a production secrets path.
type LuksSpec struct {
	KeySize    uint32 `yaml:"key_size"`
	Kind       string `yaml:"kind"`
	TargetName string `yaml:"target_name"`
	Passphrase string `yaml:"passphrase"`
}

// Operation is one step of a plan, dispatched on Type. Fields not used by
// a given Type are left zero.
type Operation struct {
	Type       string    `yaml:"type"`
	Disk       string    `yaml:"disk,omitempty"`
	Device     string    `yaml:"device,omitempty"`
	Kind       string    `yaml:"kind,omitempty"`
	Start      *Bound    `yaml:"start,omitempty"`
	End        *Bound    `yaml:"end,omitempty"`
	Label      string    `yaml:"label,omitempty"`
	Filesystem string    `yaml:"filesystem,omitempty"`
	Luks       *LuksSpec `yaml:"luks,omitempty"`
	Name       string    `yaml:"name,omitempty"`
	Pvs        []string  `yaml:"pvs,omitempty"`
	Vg         string    `yaml:"vg,omitempty"`
	Length     *Bound    `yaml:"length,omitempty"`
}

// Load reads and parses the plan file at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plan: reading %s: %w", path, err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("plan: parsing %s: %w", path, err)
	}
	return &p, nil
}

// Apply stages every operation in p against w, in order, stopping at the
// first validation failure. It performs no I/O itself; callers run
// systems.Apply separately to materialize whatever gets staged here.
func (p *Plan) Apply(w *world.World) error {
	for i, op := range p.Operations {
		if err := op.apply(w); err != nil {
			return fmt.Errorf("plan: operation %d (%s): %w", i, op.Type, err)
		}
	}
	return nil
}

func (op Operation) apply(w *world.World) error {
	switch op.Type {
	case "create_table":
		disk, _, ok := w.DeviceByPath(op.Disk)
		if !ok {
			return fmt.Errorf("no such disk %q", op.Disk)
		}
		kind, err := parseTableKind(op.Kind)
		if err != nil {
			return err
		}
		return w.CreateTable(disk, kind)

	case "create":
		disk, _, ok := w.DeviceByPath(op.Disk)
		if !ok {
			return fmt.Errorf("no such disk %q", op.Disk)
		}
		start, end, err := op.bounds()
		if err != nil {
			return err
		}
		create, err := op.partitionCreate()
		if err != nil {
			return err
		}
		_, err = w.CreateAsChildOf(disk, start, end, op.Label, create)
		return err

	case "create_on":
		dev, _, ok := w.DeviceByPath(op.Device)
		if !ok {
			return fmt.Errorf("no such device %q", op.Device)
		}
		create, err := op.partitionCreate()
		if err != nil {
			return err
		}
		return w.CreateOn(dev, create)

	case "format":
		dev, _, ok := w.DeviceByPath(op.Device)
		if !ok {
			return fmt.Errorf("no such device %q", op.Device)
		}
		fs, err := diskfs.Parse(op.Filesystem)
		if err != nil {
			return err
		}
		return w.Format(dev, fs)

	case "label":
		dev, _, ok := w.DeviceByPath(op.Device)
		if !ok {
			return fmt.Errorf("no such device %q", op.Device)
		}
		return w.Label(dev, op.Label)

	case "remove":
		dev, _, ok := w.DeviceByPath(op.Device)
		if !ok {
			return fmt.Errorf("no such device %q", op.Device)
		}
		return w.Remove(dev)

	case "volume_group_create":
		pvs := make([]world.DeviceEntity, 0, len(op.Pvs))
		for _, path := range op.Pvs {
			pv, _, ok := w.DeviceByPath(path)
			if !ok {
				return fmt.Errorf("no such pv %q", path)
			}
			pvs = append(pvs, pv)
		}
		_, err := w.VolumeGroupCreate(op.Name, pvs)
		return err

	case "create_lv":
		vg, _, ok := w.LvmVolumeGroup(op.Vg)
		if !ok {
			return fmt.Errorf("no such volume group %q", op.Vg)
		}
		if op.Length == nil {
			return fmt.Errorf("create_lv requires length")
		}
		length, err := op.Length.Resolve()
		if err != nil {
			return err
		}
		create, err := op.partitionCreate()
		if err != nil {
			return err
		}
		_, err = w.CreateAsLogicalVolumeOf(vg, length, op.Name, create)
		return err

	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

func (op Operation) bounds() (start, end world.Sector, err error) {
	if op.Start == nil || op.End == nil {
		return world.Sector{}, world.Sector{}, fmt.Errorf("%s requires start and end", op.Type)
	}
	start, err = op.Start.Resolve()
	if err != nil {
		return world.Sector{}, world.Sector{}, err
	}
	end, err = op.End.Resolve()
	if err != nil {
		return world.Sector{}, world.Sector{}, err
	}
	return start, end, nil
}

func (op Operation) partitionCreate() (world.PartitionCreate, error) {
	if op.Luks != nil {
		return world.EncryptedWith(world.LuksParams{
			KeySize:    op.Luks.KeySize,
			Kind:       op.Luks.Kind,
			TargetName: op.Luks.TargetName,
			Passphrase: secure.NewBuffer(op.Luks.Passphrase),
		}), nil
	}
	fs, err := diskfs.Parse(op.Filesystem)
	if err != nil {
		return world.PartitionCreate{}, err
	}
	return world.Plain(fs), nil
}

func parseTableKind(s string) (world.TableKind, error) {
	switch s {
	case "gpt":
		return world.TableGpt, nil
	case "mbr":
		return world.TableMbr, nil
	default:
		return world.TableNone, fmt.Errorf("plan: unknown table kind %q", s)
	}
}
