package cmd

import (
	"testing"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
)

func TestCountSteps(t *testing.T) {
	tests := []struct {
		name   string
		phases []blueprint.Phase
		want   int
	}{
		{
			name:   "no phases",
			phases: nil,
			want:   0,
		},
		{
			name: "steps across phases",
			phases: []blueprint.Phase{
				{Name: "a", Steps: []blueprint.Step{commandStep("one"), commandStep("two")}},
				{Name: "b", Steps: []blueprint.Step{commandStep("three")}},
			},
			want: 3,
		},
		{
			name: "conditional counts once",
			phases: []blueprint.Phase{
				{Name: "a", Steps: []blueprint.Step{{
					Type: blueprint.StepConditional,
					Cond: &blueprint.Conditional{
						Condition: blueprint.Condition{Kind: blueprint.ConditionFileExists, Path: "x"},
						Then:      []blueprint.Step{commandStep("one"), commandStep("two")},
						Else:      []blueprint.Step{commandStep("three")},
					},
				}}},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := &blueprint.Blueprint{Name: "test", Phases: tt.phases}
			if got := countSteps(bp); got != tt.want {
				t.Errorf("countSteps() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildValidationReport(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name: "deploy",
		Phases: []blueprint.Phase{
			{Name: "build", Steps: []blueprint.Step{commandStep("make build")}},
			{Name: "release", Steps: []blueprint.Step{commandStep("make release"), commandStep("make verify")}},
		},
	}

	report := buildValidationReport("blueprints/deploy.yaml", bp, "blake3:abc123")

	if !report.Valid {
		t.Error("Valid should be true")
	}
	if report.File != "blueprints/deploy.yaml" {
		t.Errorf("File = %q", report.File)
	}
	if report.Name != "deploy" {
		t.Errorf("Name = %q, want deploy", report.Name)
	}
	if report.Phases != 2 {
		t.Errorf("Phases = %d, want 2", report.Phases)
	}
	if report.Steps != 3 {
		t.Errorf("Steps = %d, want 3", report.Steps)
	}
	if report.Fingerprint != "blake3:abc123" {
		t.Errorf("Fingerprint = %q", report.Fingerprint)
	}
}
