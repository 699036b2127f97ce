package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"journal/internal/app"
	"journal/internal/journal"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	idColor        = color.New(color.Faint)
	headingColor   = color.New(color.Bold)
	suggestedColor = color.New(color.FgGreen, color.Bold)
	completedColor = color.New(color.FgYellow)
	missingColor   = color.New(color.FgRed)
	plainColor     = color.New()
)

// setupColor applies the color mode: "always", "never", or "auto" to
// colorize only when stdout is a terminal.
func setupColor(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// labelColor highlights placeholders for references that no longer resolve.
func labelColor(missing bool) *color.Color {
	if missing {
		return missingColor
	}
	return plainColor
}

func formatTime(a *app.JournalApp, t time.Time) string {
	if a.Display().RelativeTime {
		return app.FormatTime(t, a.Now())
	}
	return t.UTC().Format(time.RFC3339)
}

// readPassphrase prompts on stderr and reads a passphrase without echo.
// When stdin is not a terminal the first line of stdin is used.
func readPassphrase(prompt string, confirm bool) (string, error) {
	if !isTerminal(os.Stdin) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	p, err := promptHidden(prompt)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	if confirm {
		again, err := promptHidden("Confirm passphrase: ")
		if err != nil {
			return "", err
		}
		if again != p {
			return "", fmt.Errorf("passphrases do not match")
		}
	}
	return p, nil
}

func promptHidden(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(raw), nil
}

func printProject(a *app.JournalApp, p journal.ProjectItemView) {
	fmt.Printf("%s  %-24s  %d event templates, %d trace templates, %d active traces  (created %s)\n",
		idColor.Sprint(p.ID),
		p.Name,
		p.EventTemplateCount,
		p.TraceTemplateCount,
		p.ActiveTraceCount,
		formatTime(a, p.CreatedAt),
	)
}

func printTraceItem(a *app.JournalApp, t journal.TraceItemView) {
	fmt.Printf("%s  %-14s  %-24s  %s\n",
		idColor.Sprint(t.ID),
		formatTime(a, t.CreatedAt),
		t.Name,
		labelColor(t.TemplateName == nil).Sprint(t.TemplateLabel()),
	)
}

func printTrace(a *app.JournalApp, v journal.TraceView) {
	fmt.Printf("%s %s\n", headingColor.Sprint(v.Name), idColor.Sprint(v.ID))
	fmt.Printf("  Template:  %s\n", labelColor(v.TraceTemplate == nil).Sprint(v.TemplateLabel()))
	fmt.Printf("  Created:   %s\n", formatTime(a, v.CreatedAt))
	if v.Completion != nil {
		fmt.Printf("  Status:    %s\n", completedColor.Sprintf("completed %s", formatTime(a, v.Completion.CompletedAt)))
	} else {
		fmt.Printf("  Status:    active\n")
	}
	for _, o := range v.OriginTraces {
		fmt.Printf("  Origin:    %s %s\n", o.Name, idColor.Sprint(o.ID))
	}
	if v.LastEvent != nil {
		fmt.Printf("  Last:      %s at %s\n",
			labelColor(v.LastEvent.EventTemplate == nil).Sprint(v.LastEvent.TemplateLabel()),
			formatTime(a, v.LastEvent.CreatedAt))
	}

	if v.TraceTemplate == nil {
		return
	}
	fmt.Println()
	fmt.Println(headingColor.Sprint("Suggested next"))
	if len(v.SuggestedEventTemplates) == 0 {
		fmt.Println("  (none)")
	}
	for _, t := range v.SuggestedEventTemplates {
		fmt.Printf("  %s %s\n", suggestedColor.Sprint(t.Name), idColor.Sprint(t.ID))
	}
	if len(v.OtherEventTemplates) > 0 {
		fmt.Println(headingColor.Sprint("Other"))
		for _, t := range v.OtherEventTemplates {
			fmt.Printf("  %s %s\n", t.Name, idColor.Sprint(t.ID))
		}
	}
}

func printEvent(a *app.JournalApp, v journal.EventView) {
	fmt.Printf("%s %s\n", headingColor.Sprint(v.TemplateLabel()), idColor.Sprint(v.ID))
	fmt.Printf("  Trace:     %s\n", labelColor(v.Trace == nil).Sprint(v.TraceLabel()))
	fmt.Printf("  Began:     %s\n", formatTime(a, v.BeganAt))
	fmt.Printf("  Created:   %s\n", formatTime(a, v.CreatedAt))
	if len(v.Tags) > 0 {
		fmt.Printf("  Tags:      %s\n", strings.Join(v.Tags, ", "))
	}
	for _, f := range v.Fields {
		fmt.Printf("  %-10s %s\n", f.Label+":", f.Display())
	}
}
