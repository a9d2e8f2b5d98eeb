// Package output prints command responses to the console.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ritzau/forge-graph/pkg/analysis/integrity"
	"github.com/ritzau/forge-graph/pkg/analysis/scenes"
	"github.com/ritzau/forge-graph/pkg/command"
)

// Color definitions
var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// PrintResponse writes a response in its most readable form: issue reports
// and build validations as colored text, rendered graphs as is, anything
// else as indented JSON.
func PrintResponse(w io.Writer, resp *command.Response) error {
	if !resp.Success {
		red.Fprintf(w, "Error (%s): %s\n", resp.ErrorKind, resp.Error)
		return nil
	}
	switch r := resp.Result.(type) {
	case string:
		_, err := fmt.Fprint(w, r)
		return err
	case *integrity.Report:
		PrintIssueReport(w, r)
		return nil
	case *scenes.BuildValidation:
		PrintBuildValidation(w, r)
		return nil
	}
	data, err := json.MarshalIndent(resp.Result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s result: %w", resp.Operation, err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// severityColor picks the color of an issue line
func severityColor(severity string) *color.Color {
	switch severity {
	case integrity.SeverityError:
		return red
	case integrity.SeverityWarning:
		return yellow
	default:
		return cyan
	}
}

// PrintIssueReport prints an integrity report with issues colored by severity
func PrintIssueReport(w io.Writer, r *integrity.Report) {
	bold.Fprintf(w, "Integrity Report: %s\n", r.Scene)
	if r.Target != "" {
		fmt.Fprintf(w, "Target: %s\n", r.Target)
	}
	fmt.Fprintf(w, "Checked: %d objects\n", r.Checked)
	fmt.Fprintln(w)

	for _, issue := range r.Issues {
		c := severityColor(issue.Severity)
		c.Fprintf(w, "[%s] %s: %s\n", issue.Severity, issue.Type, issue.Object)
		location := issue.Component
		if issue.Property != "" {
			location += "." + issue.Property
		}
		if location != "" {
			cyan.Fprintf(w, "    At: %s\n", location)
		}
		fmt.Fprintf(w, "    %s\n", issue.Message)
		if issue.Suggestion != "" {
			fmt.Fprintf(w, "    Suggestion: %s\n", issue.Suggestion)
		}
	}

	if r.IssueCount == 0 {
		green.Fprintln(w, "✓ No issues found")
		return
	}
	summaryColor := yellow
	if r.Summary != nil && r.Summary.Errors > 0 {
		summaryColor = red
	}
	if r.Summary != nil {
		summaryColor.Fprintf(w, "Summary: %d issue(s): %d error(s), %d warning(s), %d info\n",
			r.IssueCount, r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)
		return
	}
	summaryColor.Fprintf(w, "Summary: %d issue(s)\n", r.IssueCount)
}

// PrintBuildValidation prints the build settings check
func PrintBuildValidation(w io.Writer, v *scenes.BuildValidation) {
	bold.Fprintln(w, "Build Settings")
	for _, scene := range v.BuildOrder {
		fmt.Fprintf(w, "  %s\n", scene)
	}
	if len(v.UnregisteredScenes) > 0 {
		fmt.Fprintln(w)
		yellow.Fprintln(w, "Not in build:")
		for _, scene := range v.UnregisteredScenes {
			fmt.Fprintf(w, "  %s\n", scene)
		}
	}
	fmt.Fprintln(w)

	for _, issue := range v.Issues {
		red.Fprintf(w, "[%s] %s\n", issue.Type, issue.Scene)
		fmt.Fprintf(w, "    %s\n", issue.Message)
		for _, ref := range issue.ReferencedBy {
			cyan.Fprintf(w, "    Loaded from: %s\n", ref)
		}
	}

	if v.IsValid {
		green.Fprintln(w, "✓ Every loaded scene is enabled in the build")
		return
	}
	red.Fprintf(w, "Summary: %d build issue(s)\n", v.IssueCount)
}
