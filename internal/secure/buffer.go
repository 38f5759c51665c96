// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package secure holds a small zero-on-drop byte buffer used for LUKS
// passphrases. Nothing in this package ever formats or logs its contents.
package secure

import "runtime"

// Buffer holds sensitive bytes (a LUKS passphrase) that must never be
// logged, printed, or serialized. Zero must be called once the buffer is
// no longer needed; a finalizer also zeroes it as a backstop in case a
// caller forgets, matching spec.md's "zeroes on drop" requirement as
// closely as a garbage-collected language allows.
type Buffer struct {
	b []byte
}

// NewBuffer copies s into a new secured buffer. The caller's copy of s is
// not touched; callers that can afford to should overwrite their own copy
// after this call.
func NewBuffer(s string) *Buffer {
	buf := &Buffer{b: []byte(s)}
	runtime.SetFinalizer(buf, func(b *Buffer) { b.Zero() })
	return buf
}

// Len reports the number of bytes held.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.b)
}

// Bytes returns the underlying slice for use by a collaborator that needs
// to write it to a pipe (e.g. cryptsetup's stdin). Callers must not retain
// the slice past the call that consumes it.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.b
}

// Zero overwrites every byte with 0 and releases the backing slice. Safe
// to call multiple times and on a nil receiver.
func (b *Buffer) Zero() {
	if b == nil {
		return
	}
	for i := range b.b {
		b.b[i] = 0
	}
	b.b = nil
}

// String never reveals the passphrase; it exists only so *Buffer satisfies
// fmt.Stringer without accidentally leaking secrets through %v/%s.
func (b *Buffer) String() string {
	return "secure.Buffer(REDACTED)"
}

// MarshalJSON refuses to serialize the buffer, so an accidental
// json.Marshal of a struct embedding one fails loudly instead of writing
// the passphrase to disk or a log sink.
func (b *Buffer) MarshalJSON() ([]byte, error) {
	return nil, errRedacted
}

var errRedacted = stringError("secure: refusing to marshal a secured buffer")

type stringError string

func (e stringError) Error() string { return string(e) }
