// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"net"
	"syscall"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// RunAll executes all preflight checks.
func RunAll(targetRunners int, metricsAddr string) *Result {
	result := &Result{
		Checks: make([]Check, 0, 3),
		Passed: true,
	}

	// Metrics port check
	portCheck := checkMetricsPort(metricsAddr)
	result.Checks = append(result.Checks, portCheck)
	if !portCheck.Passed {
		result.Passed = false
	}

	// Runner count check (warning only)
	countCheck := checkRunnerCount(targetRunners)
	result.Checks = append(result.Checks, countCheck)
	if !countCheck.Passed {
		result.Passed = false
	}

	// File descriptor check
	fdCheck := checkFileDescriptors(targetRunners)
	result.Checks = append(result.Checks, fdCheck)
	if !fdCheck.Passed {
		result.Passed = false
	}

	return result
}

// checkMetricsPort verifies the metrics address can be bound.
func checkMetricsPort(addr string) Check {
	if addr == "" {
		return Check{
			Name:    "metrics_port",
			Passed:  true,
			Message: "metrics server disabled",
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Check{
			Name:    "metrics_port",
			Passed:  false,
			Message: fmt.Sprintf("cannot bind %s: %v", addr, err),
		}
	}
	ln.Close()

	return Check{
		Name:    "metrics_port",
		Passed:  true,
		Message: fmt.Sprintf("%s is free", addr),
	}
}

// maxRecommendedRunners is where goroutine scheduling and fan-out
// overhead start to dominate a single process.
const maxRecommendedRunners = 100_000

// checkRunnerCount sanity-checks the requested swarm size.
func checkRunnerCount(runners int) Check {
	if runners > maxRecommendedRunners {
		return Check{
			Name:     "runner_count",
			Required: maxRecommendedRunners,
			Actual:   runners,
			Passed:   true,
			Warning:  true,
			Message:  fmt.Sprintf("%d runners exceeds recommended maximum %d", runners, maxRecommendedRunners),
		}
	}

	return Check{
		Name:    "runner_count",
		Passed:  true,
		Message: fmt.Sprintf("%d runners", runners),
	}
}

// checkFileDescriptors verifies sufficient file descriptors are available.
// Runners are goroutines, not processes, so the swarm itself needs few
// FDs; the floor covers the metrics server, self-scrape, and logging.
func checkFileDescriptors(runners int) Check {
	var limit syscall.Rlimit
	syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit)

	required := 128
	if runners > 1000 {
		required = 256
	}
	actual := int(limit.Cur)

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, required),
	}
}

// PrintResults prints the preflight check results to stdout.
func PrintResults(result *Result) {
	fmt.Println("Preflight checks:")
	for _, check := range result.Checks {
		fmt.Println(check.String())
		if !check.Passed {
			fmt.Printf("    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Println()
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "metrics_port":
		return "pick another port with -metrics, or stop the process holding it"
	case "file_descriptors":
		return "ulimit -n 8192 (or edit /etc/security/limits.conf)"
	default:
		return "see documentation"
	}
}
