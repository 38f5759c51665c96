// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package extops

import (
	"context"
	"fmt"

	utilexec "k8s.io/utils/exec"
)

const wipefsCmd = "wipefs"

// Wipefs erases every recognized signature on a device (spec.md §4.6
// "wipefs", invoked by the Remove system before dropping a disk's
// partition table).
//
//go:generate mockgen -destination=mock_wipefs.go -mock_names=Wipefs=MockWipefs -package=extops -source=wipefs.go Wipefs
type Wipefs interface {
	Wipe(ctx context.Context, path string) error
}

type wipefs struct {
	exec utilexec.Interface
}

// NewWipefs returns the real wipefs wrapper.
func NewWipefs() Wipefs {
	return &wipefs{exec: utilexec.New()}
}

// Wipe runs `wipefs -a <path>`.
func (w *wipefs) Wipe(ctx context.Context, path string) error {
	if _, err := w.exec.LookPath(wipefsCmd); err != nil {
		return fmt.Errorf("extops: unable to find %s in PATH: %w", wipefsCmd, err)
	}
	cmd := w.exec.CommandContext(ctx, wipefsCmd, "-a", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("extops: wipefs %s: %w, output: %s", path, err, out)
	}
	return nil
}
