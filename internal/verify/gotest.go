package verify

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// goDialect drives the Go toolchain. Build diagnostics use the
// "file.go:line:col: message" form with no error token, and go build
// succeeds silently, so the absence of "# package" failure headers
// stands in for a success marker. Test output uses "--- FAIL:" verdicts
// with indented reasons and trailing ok/FAIL package lines.
type goDialect struct{}

var (
	goBuildDiagnostic = regexp.MustCompile(`^(\S+\.go):(\d+)(?::(\d+))?: (.+)$`)
	goTestFail        = regexp.MustCompile(`^\s*--- FAIL: (\S+)`)
	goTestOK          = regexp.MustCompile(`^ok\s`)
)

func (d *goDialect) Name() string {
	return "gotest"
}

func (d *goDialect) BuildArgs(scheme string) (string, []string) {
	if scheme != "" {
		return "go", []string{"build", scheme}
	}
	return "go", []string{"build", "./..."}
}

func (d *goDialect) TestArgs(target string) (string, []string) {
	if target != "" {
		return "go", []string{"test", "-run", target, "./..."}
	}
	return "go", []string{"test", "./..."}
}

func (d *goDialect) ParseBuild(raw string) *BuildResult {
	var errs []BuildDiagnostic
	failureHeader := false

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "# ") {
			failureHeader = true
			continue
		}
		m := goBuildDiagnostic.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		errs = append(errs, BuildDiagnostic{
			File:    m[1],
			Line:    lineNo,
			Column:  col,
			Message: m[4],
		})
	}

	return &BuildResult{
		Success: len(errs) == 0 && !failureHeader,
		Errors:  errs,
		Raw:     raw,
	}
}

func (d *goDialect) ParseTests(raw string) *TestResult {
	var failures []TestFailure
	lastIdx := -1
	sawOK := false

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := goTestFail.FindStringSubmatch(line); m != nil {
			failures = append(failures, TestFailure{Test: m[1]})
			lastIdx = len(failures) - 1
			continue
		}
		if goTestOK.MatchString(line) {
			sawOK = true
			continue
		}

		// The first indented line after a verdict carries the reason
		if lastIdx >= 0 && failures[lastIdx].Message == "" && isIndented(line) {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "--- ") && !strings.HasPrefix(trimmed, "=== ") {
				failures[lastIdx].Message = trimmed
			}
		}
	}

	return &TestResult{
		Success:  len(failures) == 0 && sawOK && !strings.Contains(raw, "FAIL"),
		Failures: failures,
		Coverage: CoverageUnavailable,
		Raw:      raw,
	}
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

var _ Dialect = (*goDialect)(nil)
