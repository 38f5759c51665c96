// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package extops

import (
	"bytes"
	"context"
	"fmt"

	utilexec "k8s.io/utils/exec"

	"diskengine/internal/secure"
)

const cryptsetupCmd = "cryptsetup"

// ExitStatusError surfaces a non-zero cryptsetup exit code the way
// spec.md §7 describes ("a cryptsetup non-zero exit surfaces
// ExitStatus(code)").
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("extops: cryptsetup exited with status %d", e.Code)
}

// CryptsetupParams mirrors world.LuksParams but stays local to this
// package so extops never needs to import a type solely to thread it
// through to a single argv builder.
type CryptsetupParams struct {
	KeySizeBits uint32
	Kind        string // "luks1" or "luks2"
}

// Cryptsetup wraps the three cryptsetup verbs the engine needs (spec.md
// §4.6 "cryptsetup"). Passphrases are piped to stdin with a trailing
// newline and are never placed in argv, where they would leak into
// process listings.
//
//go:generate mockgen -destination=mock_cryptsetup.go -mock_names=Cryptsetup=MockCryptsetup -package=extops -source=cryptsetup.go Cryptsetup
type Cryptsetup interface {
	Format(ctx context.Context, device string, params CryptsetupParams, passphrase *secure.Buffer) error
	Activate(ctx context.Context, device, mapName string, passphrase *secure.Buffer) error
	Deactivate(ctx context.Context, device string) error
}

type cryptsetup struct {
	exec utilexec.Interface
}

// NewCryptsetup returns the real cryptsetup wrapper.
func NewCryptsetup() Cryptsetup {
	return &cryptsetup{exec: utilexec.New()}
}

func (c *cryptsetup) Format(ctx context.Context, device string, params CryptsetupParams, passphrase *secure.Buffer) error {
	args := []string{
		"-s", fmt.Sprintf("%d", params.KeySizeBits),
		"luksFormat", "--type", params.Kind, device,
	}
	return c.runWithPassphrase(ctx, passphrase, args...)
}

func (c *cryptsetup) Activate(ctx context.Context, device, mapName string, passphrase *secure.Buffer) error {
	return c.runWithPassphrase(ctx, passphrase, "open", device, mapName)
}

func (c *cryptsetup) Deactivate(ctx context.Context, device string) error {
	return c.runWithPassphrase(ctx, nil, "close", device)
}

// runWithPassphrase spawns cryptsetup, writes the passphrase (if any) to
// its stdin followed by a newline, and waits for exit — the scoped
// acquire/release pattern spec.md §9 "Resource scoping" describes.
func (c *cryptsetup) runWithPassphrase(ctx context.Context, passphrase *secure.Buffer, args ...string) error {
	if _, err := c.exec.LookPath(cryptsetupCmd); err != nil {
		return fmt.Errorf("extops: unable to find %s in PATH: %w", cryptsetupCmd, err)
	}
	cmd := c.exec.CommandContext(ctx, cryptsetupCmd, args...)
	if passphrase != nil {
		stdin := bytes.NewBuffer(passphrase.Bytes())
		stdin.WriteByte('\n')
		cmd.SetStdin(stdin)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(utilexec.ExitError); ok {
			return &ExitStatusError{Code: exitErr.ExitStatus()}
		}
		return fmt.Errorf("extops: cryptsetup %v: %w, output: %s", args, err, out)
	}
	return nil
}
