package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func (u *ui) notice(n domain.Notice) {
	tag := u.ok("[OK]")
	if n.Destructive {
		tag = u.err("[!!]")
	}
	fmt.Fprintf(os.Stderr, "%s %s: %s\n", tag, u.title(n.Title), n.Description)
}

func (u *ui) status(s domain.SearchStatus) string {
	switch s {
	case domain.StatusSuccess:
		return u.ok(string(s))
	case domain.StatusError:
		return u.err(string(s))
	default:
		return u.warn(string(s))
	}
}

// renderMarkdown styles md for the terminal and leaves it untouched when
// stdout is not a terminal.
func renderMarkdown(md string) string {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return md
	}
	width := 100
	if w, _, err := term.GetSize(fd); err == nil && w > 20 {
		width = w
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width-4))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func helpTemplate(u *ui) string {
	return fmt.Sprintf(`%s - CLI for the FuturNod agents

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Profiles:
  %s

Examples:
  futurnod init
  futurnod health
  futurnod search --company "Acme Corp" --product "Widget X" --save
  futurnod agent lead-genie-score --params '{"company":"Acme Corp","product_description":"Widget X"}'
  futurnod history --limit 20

`, u.title("futurnod"), cliConfigPath())
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptSecret(r *bufio.Reader, label string) (string, error) {
	fmt.Printf("%s: ", label)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := r.ReadString('\n')
		return strings.TrimSpace(line), err
	}
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func maskToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}
