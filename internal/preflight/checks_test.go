package preflight

import (
	"net"
	"strings"
	"testing"
)

func TestCheckMetricsPortFree(t *testing.T) {
	// Port 0 lets the kernel pick, so the bind always succeeds.
	check := checkMetricsPort("127.0.0.1:0")
	if !check.Passed {
		t.Errorf("expected pass for ephemeral port: %s", check.Message)
	}
}

func TestCheckMetricsPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	check := checkMetricsPort(ln.Addr().String())
	if check.Passed {
		t.Error("expected failure for port already in use")
	}
	if !strings.Contains(check.Message, "cannot bind") {
		t.Errorf("message = %q, want bind failure", check.Message)
	}
}

func TestCheckMetricsPortDisabled(t *testing.T) {
	check := checkMetricsPort("")
	if !check.Passed {
		t.Error("empty address should pass (server disabled)")
	}
}

func TestCheckRunnerCount(t *testing.T) {
	check := checkRunnerCount(100)
	if !check.Passed || check.Warning {
		t.Errorf("100 runners should pass cleanly: %+v", check)
	}

	check = checkRunnerCount(maxRecommendedRunners + 1)
	if !check.Passed {
		t.Error("oversized swarm should warn, not fail")
	}
	if !check.Warning {
		t.Error("oversized swarm should set Warning")
	}
}

func TestCheckFileDescriptors(t *testing.T) {
	check := checkFileDescriptors(10)
	if check.Name != "file_descriptors" {
		t.Errorf("Name = %q", check.Name)
	}
	if check.Actual <= 0 {
		t.Errorf("Actual = %d, expected a real rlimit", check.Actual)
	}
}

func TestRunAll(t *testing.T) {
	result := RunAll(10, "127.0.0.1:0")
	if len(result.Checks) != 3 {
		t.Fatalf("len(Checks) = %d, want 3", len(result.Checks))
	}
	// A tiny swarm with an ephemeral port should pass everywhere the
	// tests run.
	if !result.Passed {
		for _, c := range result.Checks {
			t.Logf("%s", c.String())
		}
		t.Error("RunAll failed unexpectedly")
	}
}

func TestCheckString(t *testing.T) {
	passed := Check{Name: "x", Passed: true, Message: "ok"}
	if !strings.Contains(passed.String(), "✓") {
		t.Errorf("passed check missing ✓: %q", passed.String())
	}

	failed := Check{Name: "x", Passed: false, Message: "nope"}
	if !strings.Contains(failed.String(), "✗") {
		t.Errorf("failed check missing ✗: %q", failed.String())
	}

	warn := Check{Name: "x", Passed: true, Warning: true, Message: "careful"}
	if !strings.Contains(warn.String(), "⚠") {
		t.Errorf("warning check missing ⚠: %q", warn.String())
	}

	withValues := Check{Name: "x", Passed: true, Required: 5, Actual: 10}
	if !strings.Contains(withValues.String(), "10 available (need 5)") {
		t.Errorf("value check format wrong: %q", withValues.String())
	}
}
