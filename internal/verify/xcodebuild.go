package verify

import "strings"

// xcodebuildDialect drives xcodebuild and parses its output. Builds
// report "BUILD SUCCEEDED" or "** BUILD FAILED **"; tests report
// XCTest case verdicts and "** TEST SUCCEEDED **".
type xcodebuildDialect struct{}

func (d *xcodebuildDialect) Name() string {
	return "xcodebuild"
}

func (d *xcodebuildDialect) BuildArgs(scheme string) (string, []string) {
	var args []string
	if scheme != "" {
		args = append(args, "-scheme", scheme)
	}
	args = append(args, "build")
	return "xcodebuild", args
}

func (d *xcodebuildDialect) TestArgs(target string) (string, []string) {
	var args []string
	if target != "" {
		args = append(args, "-only-testing:"+target)
	}
	args = append(args, "test")
	return "xcodebuild", args
}

func (d *xcodebuildDialect) ParseBuild(raw string) *BuildResult {
	errs, warnings := parseClangDiagnostics(raw)
	return &BuildResult{
		// Parsed errors override the marker: a log that says BUILD
		// SUCCEEDED but contains error diagnostics is not a success
		Success:  len(errs) == 0 && strings.Contains(raw, "BUILD SUCCEEDED"),
		Errors:   errs,
		Warnings: warnings,
		Raw:      raw,
	}
}

func (d *xcodebuildDialect) ParseTests(raw string) *TestResult {
	failures := parseXCTestFailures(raw)
	return &TestResult{
		Success:  len(failures) == 0 && strings.Contains(raw, "** TEST SUCCEEDED **"),
		Failures: failures,
		Coverage: CoverageUnavailable,
		Raw:      raw,
	}
}

var _ Dialect = (*xcodebuildDialect)(nil)
