// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newFixture creates a regular file of the given size, standing in for a
// loopback-backed block device, with the reread ioctl stubbed out since
// a regular file has no partition table for the kernel to reread.
func newFixture(t *testing.T, sectors, sectorSize uint64) string {
	t.Helper()
	old := rereadPartitionTable
	rereadPartitionTable = func(*os.File) error { return nil }
	t.Cleanup(func() { rereadPartitionTable = old })

	path := filepath.Join(t.TempDir(), "disk.img")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(int64(sectors*sectorSize)))
	require.NoError(t, f.Close())
	return path
}

func TestCreateAddWriteOpenRoundTrip(t *testing.T) {
	const sectorSize = 512
	path := newFixture(t, 131072, sectorSize) // 64 MiB

	gpt, err := Create(path, sectorSize)
	require.NoError(t, err)

	efiNum, err := gpt.Add(2048, 206847, "EFI")
	require.NoError(t, err)
	require.Equal(t, uint32(1), efiNum)

	rootNum, err := gpt.Add(206848, gpt.LastSector(), "Root")
	require.NoError(t, err)
	require.Equal(t, uint32(2), rootNum)

	require.NoError(t, gpt.Write())
	require.NoError(t, gpt.Close())

	reopened, err := Open(path, sectorSize)
	require.NoError(t, err)

	name, ok := reopened.PartitionName(1)
	require.True(t, ok)
	require.Equal(t, "EFI", name)

	name, ok = reopened.PartitionName(2)
	require.True(t, ok)
	require.Equal(t, "Root", name)

	require.Equal(t, gpt.LastSector(), reopened.LastSector())
}

func TestOpenRejectsNonGptDevice(t *testing.T) {
	const sectorSize = 512
	path := newFixture(t, 131072, sectorSize)

	_, err := Open(path, sectorSize)
	require.ErrorIs(t, err, ErrNotGuid)
}

func TestAddRejectsBeyondEntryLimit(t *testing.T) {
	const sectorSize = 512
	path := newFixture(t, 131072, sectorSize)

	gpt, err := Create(path, sectorSize)
	require.NoError(t, err)

	for i := 0; i < entryCount; i++ {
		start := uint64(i) * 10
		_, err := gpt.Add(start, start+1, "p")
		require.NoError(t, err)
	}
	_, err = gpt.Add(0, 1, "overflow")
	require.ErrorIs(t, err, ErrLimitExceeded)
}

func TestLabelAndRemoveBySector(t *testing.T) {
	const sectorSize = 512
	path := newFixture(t, 131072, sectorSize)

	gpt, err := Create(path, sectorSize)
	require.NoError(t, err)

	_, err = gpt.Add(2048, 206847, "EFI")
	require.NoError(t, err)

	require.NoError(t, gpt.Label(2049, "ESP"))
	name, ok := gpt.PartitionName(1)
	require.True(t, ok)
	require.Equal(t, "ESP", name)

	require.NoError(t, gpt.Remove(2049))
	_, ok = gpt.PartitionName(1)
	require.False(t, ok)

	require.ErrorIs(t, gpt.Remove(2049), ErrPartitionNotFound)
}

func TestProtectiveMBRSignatureAndLayout(t *testing.T) {
	const sectorSize = 512
	path := newFixture(t, 131072, sectorSize)

	_, err := Create(path, sectorSize)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, byte(0x55), data[510])
	require.Equal(t, byte(0xaa), data[511])
	require.Equal(t, byte(0xee), data[450]) // partition type at offset 446+4
}

func TestMbrPlaceholderReturnsUnsupported(t *testing.T) {
	m := NewMbr()
	_, err := m.Add(0, 1, "x")
	require.ErrorIs(t, err, ErrMbrUnsupported)
	require.ErrorIs(t, m.Label(0, "x"), ErrMbrUnsupported)
	require.ErrorIs(t, m.Remove(0), ErrMbrUnsupported)
	require.ErrorIs(t, m.Write(), ErrMbrUnsupported)
}
