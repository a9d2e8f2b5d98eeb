package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ritzau/forge-graph/pkg/analysis/integrity"
	"github.com/ritzau/forge-graph/pkg/analysis/scenes"
	"github.com/ritzau/forge-graph/pkg/command"
)

func init() {
	color.NoColor = true
}

func TestPrintIssueReport(t *testing.T) {
	r := &integrity.Report{
		Scene:   "Assets/Scenes/Level.unity",
		Checked: 3,
		Issues: []integrity.Issue{
			{Type: integrity.IssueMissingScript, Severity: integrity.SeverityError, Object: "Broken", Message: "2 missing script(s)"},
			{Type: integrity.IssueNullReference, Severity: integrity.SeverityWarning, Object: "Player",
				Component: "Game.PlayerController", Property: "target",
				Message: "Field 'target' references a destroyed object", Suggestion: "Candidates with Enemy: Enemy2"},
		},
		IssueCount: 2,
		Summary:    &integrity.Summary{Errors: 1, Warnings: 1},
	}

	var buf bytes.Buffer
	PrintIssueReport(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"Integrity Report: Assets/Scenes/Level.unity",
		"Checked: 3 objects",
		"[error] missingScript: Broken",
		"[warning] nullReference: Player",
		"At: Game.PlayerController.target",
		"Suggestion: Candidates with Enemy: Enemy2",
		"Summary: 2 issue(s): 1 error(s), 1 warning(s), 0 info",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q:\n%s", want, out)
		}
	}
}

func TestPrintIssueReport_Clean(t *testing.T) {
	var buf bytes.Buffer
	PrintIssueReport(&buf, &integrity.Report{Scene: "Assets/Scenes/Main.unity", Issues: []integrity.Issue{}})
	if !strings.Contains(buf.String(), "No issues found") {
		t.Errorf("clean report = %q", buf.String())
	}
}

func TestPrintBuildValidation(t *testing.T) {
	v := &scenes.BuildValidation{
		IsValid:    false,
		IssueCount: 1,
		Issues: []scenes.BuildIssue{{
			Type: scenes.IssueMissingFromBuild, Scene: "Assets/Scenes/Level2.unity",
			Message: "not in build", ReferencedBy: []string{"Assets/Scenes/Menu.unity"},
		}},
		BuildOrder:         []string{"Assets/Scenes/Boot.unity"},
		UnregisteredScenes: []string{"Assets/Scenes/Secret.unity"},
	}
	var buf bytes.Buffer
	PrintBuildValidation(&buf, v)
	out := buf.String()
	for _, want := range []string{
		"  Assets/Scenes/Boot.unity",
		"Not in build:",
		"[missing_from_build] Assets/Scenes/Level2.unity",
		"Loaded from: Assets/Scenes/Menu.unity",
		"Summary: 1 build issue(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("validation lacks %q:\n%s", want, out)
		}
	}
}

func TestPrintResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *command.Response
		want string
	}{
		{
			"failure",
			&command.Response{Operation: "analyze_class", ErrorKind: command.ErrorNotFound, Error: "type Nope: not found"},
			"Error (not_found): type Nope: not found\n",
		},
		{
			"text",
			&command.Response{Success: true, Format: "summary", Result: "Graph: class_dependency\n"},
			"Graph: class_dependency\n",
		},
		{
			"structured",
			&command.Response{Success: true, Format: "json", Result: map[string]any{"count": 2}},
			"{\n  \"count\": 2\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := PrintResponse(&buf, tt.resp); err != nil {
				t.Fatalf("PrintResponse: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
