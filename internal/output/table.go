// Package output provides terminal output utilities for repovault.
//
// All table rendering functions use ASCII characters and ANSI color
// codes for terminal output.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/repovault/internal/store"
)

// ANSI color codes for status display
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// RenderRepositoryTable renders a table of registered working copies
// with their remote linkage. Rows follow the order the store returned.
func RenderRepositoryTable(repos []*store.LocalRepository) string {
	if len(repos) == 0 {
		return "No repositories registered.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-36s %-28s %-10s %-8s %s\n",
		"Path", "Remote", "Branch", "Status", "Stash Checked"))
	sb.WriteString(strings.Repeat("─", 96))
	sb.WriteString("\n")

	for _, repo := range repos {
		remote := "—"
		branch := "—"
		if gh := repo.GitHubRepository; gh != nil {
			remote = gh.Owner.Login + "/" + gh.Name
			branch = gh.DefaultBranch
		}

		sb.WriteString(fmt.Sprintf("%-36s %-28s %-10s %-8s %s\n",
			truncate(repo.Path, 36),
			truncate(remote, 28),
			truncate(branch, 10),
			formatStatus(repo.Missing),
			formatRelativeTime(repo.LastStashCheckDate)))
	}

	return sb.String()
}

// formatStatus renders the missing flag, colored when the terminal
// supports it.
func formatStatus(missing bool) string {
	if missing {
		return colorize(colorRed, "missing")
	}
	return colorize(colorGreen, "ok")
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}

	diff := time.Since(*t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	case diff < 365*24*time.Hour:
		months := int(diff.Hours() / 24 / 30)
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	default:
		years := int(diff.Hours() / 24 / 365)
		if years == 1 {
			return "1 year ago"
		}
		return fmt.Sprintf("%d years ago", years)
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
