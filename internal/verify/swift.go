package verify

import "strings"

// swiftDialect drives SwiftPM. Compiler diagnostics match the
// xcodebuild form, but the build success marker is "Build complete!"
// and tests finish with a "Test Suite 'All tests' passed" summary.
type swiftDialect struct{}

func (d *swiftDialect) Name() string {
	return "swift"
}

func (d *swiftDialect) BuildArgs(scheme string) (string, []string) {
	args := []string{"build"}
	if scheme != "" {
		args = append(args, "--product", scheme)
	}
	return "swift", args
}

func (d *swiftDialect) TestArgs(target string) (string, []string) {
	args := []string{"test"}
	if target != "" {
		args = append(args, "--filter", target)
	}
	return "swift", args
}

func (d *swiftDialect) ParseBuild(raw string) *BuildResult {
	errs, warnings := parseClangDiagnostics(raw)
	return &BuildResult{
		Success:  len(errs) == 0 && strings.Contains(raw, "Build complete!"),
		Errors:   errs,
		Warnings: warnings,
		Raw:      raw,
	}
}

func (d *swiftDialect) ParseTests(raw string) *TestResult {
	failures := parseXCTestFailures(raw)
	return &TestResult{
		Success:  len(failures) == 0 && strings.Contains(raw, "Test Suite 'All tests' passed"),
		Failures: failures,
		Coverage: CoverageUnavailable,
		Raw:      raw,
	}
}

var _ Dialect = (*swiftDialect)(nil)
