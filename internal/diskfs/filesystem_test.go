// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package diskfs

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Filesystem
	}{
		{"btrfs", Btrfs},
		{"EXT4", Ext4},
		{"fat16", Vfat},
		{"fat32", Vfat},
		{"VFAT", Vfat},
		{"crypto_luks", Luks},
		{"LUKS", Luks},
		{"lvm2_member", Lvm},
		{"linux-swap(v1)", Swap},
		{"zfs", Zfs},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseUnknownToken(t *testing.T) {
	if _, err := Parse("reiserfs"); err == nil {
		t.Fatal("expected an error for an unrecognized filesystem token")
	}
}

func TestStringRendersLowercaseAndVfat(t *testing.T) {
	if got := Vfat.String(); got != "vfat" {
		t.Errorf("Vfat.String() = %q, want vfat", got)
	}
	if got := Ext4.String(); got != "ext4" {
		t.Errorf("Ext4.String() = %q, want ext4", got)
	}
}

func TestValidateSize(t *testing.T) {
	tests := []struct {
		name    string
		fs      Filesystem
		size    uint64
		wantErr bool
	}{
		{"btrfs too small", Btrfs, 100 * mib, true},
		{"btrfs minimum ok", Btrfs, btrfsMin, false},
		{"ext4 at limit ok", Ext4, ext4Max, false},
		{"ext4 over limit", Ext4, ext4Max + 1, true},
		{"vfat below fat16 min", Vfat, 10 * mib, true},
		{"vfat within range", Vfat, 100 * mib, false},
		{"vfat above fat32 max", Vfat, 3 * tib, true},
		{"xfs unbounded", Xfs, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSize(tt.fs, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSize(%v, %d) error = %v, wantErr %v", tt.fs, tt.size, err, tt.wantErr)
			}
		})
	}
}
