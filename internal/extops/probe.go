// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package extops wraps every external collaborator the engine shells out
// to or otherwise talks to over a non-Go-native protocol: blkid, mkfs.*,
// cryptsetup, wipefs, the loopback control device, and the LVM D-Bus
// management bus. Each collaborator is a narrow interface with one real
// implementation and one generated mock, following the injection pattern
// internal/pkg/block and internal/pkg/probe use in the teacher repo this
// module was built from.
package extops

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	utilexec "k8s.io/utils/exec"

	"diskengine/internal/world"
)

const blkidCmd = "blkid"

// DiskInfo is the probe's report on a whole block device.
type DiskInfo struct {
	SectorsTotal       uint64
	LogicalSectorSize  uint64
	PhysicalSectorSize uint64
	Table              world.TableKind // world.TableNone if unpartitioned
	Type               string          // top-level filesystem TYPE, "" if none
	UUID               string
}

// PartitionInfo is one entry from a whole device's partition table.
type PartitionInfo struct {
	Number    uint32
	Offset    uint64
	Sectors   uint64
	Type      string
	PartUUID  string
	PartLabel string
	UUID      string
}

// Prober wraps libblkid: whole-disk classification, a full probe, and
// partition enumeration (spec.md §4.6 "probe").
//
//go:generate mockgen -destination=mock_probe.go -mock_names=Prober=MockProber -package=extops -source=probe.go Prober
type Prober interface {
	IsWholeDisk(ctx context.Context, path string) (bool, error)
	DiskInfo(ctx context.Context, path string) (DiskInfo, error)
	Partitions(ctx context.Context, path string) ([]PartitionInfo, error)
}

type blkidProbe struct {
	exec utilexec.Interface
}

// NewProber returns the real blkid-backed Prober.
func NewProber() Prober {
	return &blkidProbe{exec: utilexec.New()}
}

// IsWholeDisk reports whether path names a top-level device rather than a
// partition of one, by checking blkid's PART_ENTRY_NUMBER is absent.
func (p *blkidProbe) IsWholeDisk(ctx context.Context, path string) (bool, error) {
	out, err := p.runBlkid(ctx, path)
	if err != nil {
		if exitErr, ok := err.(utilexec.ExitError); ok && exitErr.ExitStatus() == 2 {
			// blkid found nothing at all for this device; treat it as an
			// unrecognized whole disk rather than failing the scan.
			return true, nil
		}
		return false, err
	}
	_, hasPartEntry := out["PART_ENTRY_NUMBER"]
	return !hasPartEntry, nil
}

// DiskInfo reports the whole-device probe fields spec.md §4.2 step 2–3 need.
func (p *blkidProbe) DiskInfo(ctx context.Context, path string) (DiskInfo, error) {
	out, err := p.runBlkid(ctx, path)
	if err != nil {
		if exitErr, ok := err.(utilexec.ExitError); ok && exitErr.ExitStatus() == 2 {
			return DiskInfo{}, nil
		}
		return DiskInfo{}, err
	}
	info := DiskInfo{
		Type: out["TYPE"],
		UUID: out["UUID"],
	}
	switch strings.ToUpper(out["PTTYPE"]) {
	case "GPT":
		info.Table = world.TableGpt
	case "DOS", "MBR":
		info.Table = world.TableMbr
	}
	return info, nil
}

const sfdiskCmd = "sfdisk"

// sfdiskDump is the subset of `sfdisk -J` output this probe consumes.
type sfdiskDump struct {
	PartitionTable struct {
		Partitions []struct {
			Node  string `json:"node"`
			Start uint64 `json:"start"`
			Size  uint64 `json:"size"`
			Type  string `json:"type"`
			UUID  string `json:"uuid"`
			Name  string `json:"name"`
		} `json:"partitions"`
	} `json:"partitiontable"`
}

// Partitions enumerates a whole device's partition table entries via
// `sfdisk -J`, then fills each entry's filesystem TYPE with a per-partition
// blkid probe.
func (p *blkidProbe) Partitions(ctx context.Context, path string) ([]PartitionInfo, error) {
	if _, err := p.exec.LookPath(sfdiskCmd); err != nil {
		return nil, fmt.Errorf("extops: unable to find %s in PATH: %w", sfdiskCmd, err)
	}
	cmd := p.exec.CommandContext(ctx, sfdiskCmd, "-J", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("extops: sfdisk partition listing for %s: %w", path, err)
	}
	var dump sfdiskDump
	if err := json.Unmarshal(output, &dump); err != nil {
		return nil, fmt.Errorf("extops: parsing sfdisk output for %s: %w", path, err)
	}

	out := make([]PartitionInfo, 0, len(dump.PartitionTable.Partitions))
	for i, part := range dump.PartitionTable.Partitions {
		info := PartitionInfo{
			Number:    uint32(i + 1),
			Offset:    part.Start,
			Sectors:   part.Size,
			PartLabel: part.Name,
			PartUUID:  part.UUID,
		}
		if fields, err := p.runBlkid(ctx, part.Node); err == nil {
			info.Type = fields["TYPE"]
			info.UUID = fields["UUID"]
		}
		out = append(out, info)
	}
	return out, nil
}

func (p *blkidProbe) runBlkid(ctx context.Context, path string) (map[string]string, error) {
	if _, err := p.exec.LookPath(blkidCmd); err != nil {
		return nil, fmt.Errorf("extops: unable to find %s in PATH: %w", blkidCmd, err)
	}
	cmd := p.exec.CommandContext(ctx, blkidCmd, "-p", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, err
	}
	return parseBlkidExportFormat(output), nil
}

// parseBlkidExportFormat parses `blkid -p <dev>` output, which is a single
// line of space-separated KEY="value" pairs.
func parseBlkidExportFormat(output []byte) map[string]string {
	fields := make(map[string]string)
	for _, pair := range splitBlkidPairs(string(output)) {
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		key := pair[:eq]
		value := strings.Trim(pair[eq+1:], `"`)
		fields[key] = value
	}
	return fields
}

// splitBlkidPairs splits `blkid -p` output on whitespace outside quotes,
// since values like PARTLABEL can themselves contain spaces.
func splitBlkidPairs(s string) []string {
	var pairs []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case (r == ' ' || r == '\n' || r == '\t') && !inQuotes:
			if cur.Len() > 0 {
				pairs = append(pairs, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		pairs = append(pairs, cur.String())
	}
	return pairs
}
