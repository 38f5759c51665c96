// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package extops

import (
	"context"
	"errors"
	"testing"

	utilexec "k8s.io/utils/exec"
	fakeexec "k8s.io/utils/exec/testing"
)

func TestWipefsWipeRunsWipefsA(t *testing.T) {
	var gotArgs []string
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
				return fakeexec.InitFakeCmd(fcmd, cmd, args...)
			},
		},
	}
	w := &wipefs{exec: fake}
	if err := w.Wipe(context.Background(), "/dev/loop0"); err != nil {
		t.Fatalf("Wipe() error = %v", err)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "-a" || gotArgs[1] != "/dev/loop0" {
		t.Fatalf("args = %v, want [-a /dev/loop0]", gotArgs)
	}
}

func TestWipefsWipeSurfacesFailure(t *testing.T) {
	fake := &fakeexec.FakeExec{
		LookPathFunc: func(cmd string) (string, error) { return cmd, nil },
		CommandScript: []fakeexec.FakeCommandAction{
			func(cmd string, args ...string) utilexec.Cmd {
				fcmd := &fakeexec.FakeCmd{
					CombinedOutputScript: []fakeexec.FakeAction{
						func() ([]byte, []byte, error) { return nil, nil, errors.New("device busy") },
					},
				}
				return fakeexec.InitFakeCmd(fcmd, cmd, args...)
			},
		},
	}
	w := &wipefs{exec: fake}
	if err := w.Wipe(context.Background(), "/dev/loop0"); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestWipefsWipeMissingBinary(t *testing.T) {
	fake := &fakeexec.FakeExec{
		LookPathFunc: func(cmd string) (string, error) { return "", errors.New("not found") },
	}
	w := &wipefs{exec: fake}
	if err := w.Wipe(context.Background(), "/dev/loop0"); err == nil {
		t.Fatal("expected LookPath error to propagate")
	}
}
