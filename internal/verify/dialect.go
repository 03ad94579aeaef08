// Package verify runs blueprint verification checks and parses build
// and test tool output into structured diagnostics.
package verify

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CoverageUnavailable is reported for every test run. Coverage report
// parsing is not implemented.
const CoverageUnavailable = "unavailable"

// BuildDiagnostic is a single compiler message extracted from build
// output. File, Line, and Column are zero when the tool did not report
// a location.
type BuildDiagnostic struct {
	File    string
	Line    int
	Column  int
	Message string
}

// BuildResult holds the parsed outcome of a build invocation. Success
// requires both zero errors and the dialect's success marker; a success
// marker alone does not outweigh parsed errors.
type BuildResult struct {
	Success  bool
	Errors   []BuildDiagnostic
	Warnings []BuildDiagnostic
	Raw      string
}

// TestFailure is a single failed test extracted from test output
type TestFailure struct {
	Test    string
	Message string
}

// TestResult holds the parsed outcome of a test invocation
type TestResult struct {
	Success  bool
	Failures []TestFailure

	// Coverage is always CoverageUnavailable
	Coverage string

	Raw string
}

// Dialect describes one build tool's invocation and output format.
// Parsing is best-effort: output that matches no pattern yields an
// empty result, never an error.
type Dialect interface {
	// Name returns the dialect identifier used by DialectFor
	Name() string

	// BuildArgs returns the tool and arguments for a build. The scheme
	// narrows the build when the tool supports it and may be empty.
	BuildArgs(scheme string) (string, []string)

	// TestArgs returns the tool and arguments for a test run. The
	// target narrows the run when the tool supports it and may be
	// empty.
	TestArgs(target string) (string, []string)

	// ParseBuild extracts diagnostics and the success marker from raw
	// build output
	ParseBuild(raw string) *BuildResult

	// ParseTests extracts failures and the pass marker from raw test
	// output
	ParseTests(raw string) *TestResult
}

// DialectFor returns the dialect for a tool name. Dialects are selected
// explicitly by the caller, never detected from the workspace, and an
// unknown name fails here rather than mid-run.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "xcodebuild":
		return &xcodebuildDialect{}, nil
	case "swift":
		return &swiftDialect{}, nil
	case "gotest":
		return &goDialect{}, nil
	case "":
		return nil, fmt.Errorf("dialect name cannot be empty")
	default:
		return nil, fmt.Errorf("dialect %q is not valid (must be xcodebuild, swift, or gotest)", name)
	}
}

// DialectNames lists the supported dialect identifiers
func DialectNames() []string {
	return []string{"xcodebuild", "swift", "gotest"}
}

// clangDiagnosticPattern matches compiler diagnostics in the
// "file:line:col: error: message" form emitted by swiftc and clang
var clangDiagnosticPattern = regexp.MustCompile(`^(.+?):(\d+):(\d+): (error|warning): (.+)$`)

// parseClangDiagnostics extracts error and warning diagnostics from
// compiler-style output
func parseClangDiagnostics(raw string) (errs, warnings []BuildDiagnostic) {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := clangDiagnosticPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		diag := BuildDiagnostic{
			File:    m[1],
			Line:    line,
			Column:  col,
			Message: m[5],
		}
		if m[4] == "error" {
			errs = append(errs, diag)
		} else {
			warnings = append(warnings, diag)
		}
	}
	return errs, warnings
}

// XCTest reports failed cases as "Test Case '-[Suite test]' failed" on
// Darwin and "Test Case 'Suite.test' failed" on Linux. Assertion detail
// lines precede the case verdict.
var (
	xctestCaseDarwin   = regexp.MustCompile(`Test Case '-\[(\S+)\s+(\S+)\]' failed`)
	xctestCaseLinux    = regexp.MustCompile(`Test Case '(\S+)\.(\S+)' failed`)
	xctestAssertDarwin = regexp.MustCompile(`^.+:\d+: error: -\[(\S+)\s+(\S+)\] : (.+)$`)
	xctestAssertLinux  = regexp.MustCompile(`^.+:\d+: error: (\S+)\.(\S+) : (.+)$`)
)

// parseXCTestFailures extracts failed test cases and their first
// assertion message from XCTest output
func parseXCTestFailures(raw string) []TestFailure {
	messages := make(map[string]string)
	var failures []TestFailure
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := xctestAssertDarwin.FindStringSubmatch(line); m != nil {
			key := m[1] + "." + m[2]
			if _, ok := messages[key]; !ok {
				messages[key] = m[3]
			}
			continue
		}
		if m := xctestAssertLinux.FindStringSubmatch(line); m != nil {
			key := m[1] + "." + m[2]
			if _, ok := messages[key]; !ok {
				messages[key] = m[3]
			}
			continue
		}

		var key string
		if m := xctestCaseDarwin.FindStringSubmatch(line); m != nil {
			key = m[1] + "." + m[2]
		} else if m := xctestCaseLinux.FindStringSubmatch(line); m != nil {
			key = m[1] + "." + m[2]
		}
		if key != "" && !seen[key] {
			seen[key] = true
			failures = append(failures, TestFailure{Test: key, Message: messages[key]})
		}
	}

	return failures
}
