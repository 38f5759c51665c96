// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package extops

import (
	"context"
	"errors"
	"io"
	"testing"

	utilexec "k8s.io/utils/exec"
	fakeexec "k8s.io/utils/exec/testing"

	"diskengine/internal/secure"
)

func TestCryptsetupFormatWritesPassphraseToStdin(t *testing.T) {
	var gotArgs []string
	var gotStdin string
	fake := &fakeexec.FakeExec{
		LookPathFunc: func(cmd string) (string, error) { return cmd, nil },
		CommandScript: []fakeexec.FakeCommandAction{
			func(cmd string, args ...string) utilexec.Cmd {
				gotArgs = args
				fcmd := &fakeexec.FakeCmd{
					CombinedOutputScript: []fakeexec.FakeAction{
						func() ([]byte, []byte, error) { return nil, nil, nil },
					},
				}
				c := fakeexec.InitFakeCmd(fcmd, cmd, args...)
				return &stdinCapturingCmd{Cmd: c, captured: &gotStdin}
			},
		},
	}
	cs := &cryptsetup{exec: fake}
	pass := secure.NewBuffer("hunter2")
	err := cs.Format(context.Background(), "/dev/loop0p1", CryptsetupParams{KeySizeBits: 512, Kind: "luks2"}, pass)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	wantArgs := []string{"-s", "512", "luksFormat", "--type", "luks2", "/dev/loop0p1"}
	if len(gotArgs) != len(wantArgs) {
		t.Fatalf("args = %v, want %v", gotArgs, wantArgs)
	}
	for i := range wantArgs {
		if gotArgs[i] != wantArgs[i] {
			t.Fatalf("args[%d] = %q, want %q", i, gotArgs[i], wantArgs[i])
		}
	}
	if gotStdin != "hunter2\n" {
		t.Fatalf("stdin = %q, want passphrase plus trailing newline", gotStdin)
	}
}

func TestCryptsetupSurfacesExitStatus(t *testing.T) {
	fake := &fakeexec.FakeExec{
		LookPathFunc: func(cmd string) (string, error) { return cmd, nil },
		CommandScript: []fakeexec.FakeCommandAction{
			func(cmd string, args ...string) utilexec.Cmd {
				fcmd := &fakeexec.FakeCmd{
					CombinedOutputScript: []fakeexec.FakeAction{
						func() ([]byte, []byte, error) {
							return nil, nil, fakeexec.FakeExitError{Status: 1}
						},
					},
				}
				return fakeexec.InitFakeCmd(fcmd, cmd, args...)
			},
		},
	}
	cs := &cryptsetup{exec: fake}
	err := cs.Deactivate(context.Background(), "/dev/mapper/foo")
	var exitErr *ExitStatusError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitStatusError", err)
	}
	if exitErr.Code != 1 {
		t.Fatalf("Code = %d, want 1", exitErr.Code)
	}
}

// stdinCapturingCmd wraps a fake Cmd and records whatever SetStdin is
// given, since FakeCmd itself only stores the reader, not its content.
type stdinCapturingCmd struct {
	utilexec.Cmd
	captured *string
}

func (c *stdinCapturingCmd) SetStdin(in io.Reader) {
	buf := make([]byte, 0, 64)
	tmp := make([]byte, 64)
	for {
		n, err := in.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			break
		}
	}
	*c.captured = string(buf)
}
