// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

import "errors"

// Validation errors (spec.md §7 "Validation errors"). Returned
// synchronously from the mutation API; no world state changes on
// validation failure.
var (
	ErrExceedsDevice     = errors.New("world: partition exceeds device bounds")
	ErrPartitionOverlap  = errors.New("world: partition overlaps an existing partition")
	ErrInputsInverted    = errors.New("world: end sector is not after start sector")
	ErrNotPartitionable  = errors.New("world: parent entity has no children store")
	ErrTablesUnsupported = errors.New("world: entity does not support partition tables")
	ErrExpectedLvmPv     = errors.New("world: entity is not a physical volume")
	ErrLvmVgNonExistent  = errors.New("world: volume group does not exist")
	ErrUnknownDevice     = errors.New("world: unknown device entity")
	ErrUnknownVg         = errors.New("world: unknown volume group entity")
)

// Control errors (spec.md §7 "Control").
var ErrCancelled = errors.New("world: apply cancelled")
