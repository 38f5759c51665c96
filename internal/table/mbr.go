// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package table

// Mbr is the documented placeholder for legacy MBR tables (spec.md §9
// open question 3: "MBR table support is stubbed. Spec assumes GPT only
// until MBR is added."). It satisfies Adapter so callers that branch on
// world.TableKind get a typed error instead of a silent no-op, matching
// the TablesUnsupported family of validation errors in §4.3.
type Mbr struct{}

// NewMbr returns the MBR placeholder adapter.
func NewMbr() *Mbr { return &Mbr{} }

func (m *Mbr) Add(start, end uint64, name string) (uint32, error) { return 0, ErrMbrUnsupported }
func (m *Mbr) Label(sector uint64, name string) error             { return ErrMbrUnsupported }
func (m *Mbr) Remove(sector uint64) error                         { return ErrMbrUnsupported }
func (m *Mbr) LastSector() uint64                                 { return 0 }
func (m *Mbr) Write() error                                       { return ErrMbrUnsupported }
func (m *Mbr) Close() error                                       { return nil }

var _ Adapter = (*Mbr)(nil)
