// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package table

import "github.com/google/uuid"

// toDiskGUID canonicalizes a uuid.UUID (RFC 4122 big-endian byte order)
// into the mixed-endian layout GPT stores on disk (spec.md §6 "UUID
// canonicalization"): the first three groups (4, 2, 2 bytes) are
// byte-reversed, the last two groups (2, 6 bytes) are copied as-is.
func toDiskGUID(u uuid.UUID) [16]byte {
	var out [16]byte
	reverseInto(out[0:4], u[0:4])
	reverseInto(out[4:6], u[4:6])
	reverseInto(out[6:8], u[6:8])
	copy(out[8:10], u[8:10])
	copy(out[10:16], u[10:16])
	return out
}

// fromDiskGUID is toDiskGUID's inverse. Nothing in this module calls it.
func fromDiskGUID(b [16]byte) uuid.UUID {
	var u uuid.UUID
	reverseInto(u[0:4], b[0:4])
	reverseInto(u[4:6], b[4:6])
	reverseInto(u[6:8], b[6:8])
	copy(u[8:10], b[8:10])
	copy(u[10:16], b[10:16])
	return u
}

func reverseInto(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = src[n-1-i]
	}
}

// randomDiskGUID returns a fresh random 16-byte GUID in on-disk byte
// order (spec.md §6 "GPT UUIDs elsewhere are generated uniformly at
// random").
func randomDiskGUID() [16]byte {
	return toDiskGUID(uuid.New())
}

var linuxFilesystemTypeGUIDBytes = func() [16]byte {
	u := uuid.MustParse(linuxFilesystemTypeGUID)
	return toDiskGUID(u)
}()

var zeroGUID [16]byte
