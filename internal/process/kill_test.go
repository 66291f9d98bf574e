package process

// KillProcessGroup is only exercised with a PID that cannot exist: PID 0
// would target the test's own process group. Real termination is covered by
// the converter timeout tests in internal/invoke.

import (
	"os/exec"
	"testing"
)

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	KillProcessGroup(999999999)
}

func TestIsolate_SetsProcAttr(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("converter")
	Isolate(cmd)
	if cmd.SysProcAttr == nil {
		t.Fatal("SysProcAttr not set")
	}

	// Calling twice keeps the existing attributes.
	attr := cmd.SysProcAttr
	Isolate(cmd)
	if cmd.SysProcAttr != attr {
		t.Error("Isolate replaced existing SysProcAttr")
	}
}
