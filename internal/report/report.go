// Package report renders the human-readable end-of-run summary.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/piforge/piforge/internal/domain/orchestrator"
	"github.com/piforge/piforge/internal/domain/provision"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	succeededStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	skippedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	unverifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

func statusLabel(status provision.PhaseStatus) string {
	switch status {
	case provision.StatusSucceeded:
		return succeededStyle.Render("succeeded")
	case provision.StatusSkipped:
		return skippedStyle.Render("skipped (already complete)")
	case provision.StatusFailed:
		return failedStyle.Render("FAILED")
	default:
		return string(status)
	}
}

// Print writes the run summary to w.
func Print(w io.Writer, summary *orchestrator.RunSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Provisioning summary"))
	fmt.Fprintln(w, strings.Repeat("-", 40))

	for _, phase := range summary.Phases {
		fmt.Fprintf(w, "  %-14s %s\n", phase.Phase, statusLabel(phase.Status))
		for _, warning := range phase.Warnings {
			fmt.Fprintf(w, "    %s %s: %s\n", warnStyle.Render("warning"), warning.Step, warning.Message)
		}
		for _, u := range phase.Unverified {
			fmt.Fprintf(w, "    %s %s: %s\n", unverifiedStyle.Render("unverified"), u.Capability, u.Reason)
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "  %d succeeded, %d skipped, %d failed, %d warnings, %d unverified\n",
		summary.Succeeded(), summary.Skipped(), summary.Failed(),
		len(summary.Warnings()), len(summary.UnverifiedCapabilities()))

	if summary.Fatal != nil {
		var perr *provision.Error
		fmt.Fprintln(w)
		if errors.As(summary.Fatal, &perr) {
			fmt.Fprintln(w, failedStyle.Render(perr.Format()))
		} else {
			fmt.Fprintln(w, failedStyle.Render("Error: "+summary.Fatal.Error()))
		}
	}

	if summary.RebootRequired {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render("Reboot required. Re-run after rebooting to continue; completed phases will be skipped."))
	}
}
