// cmd/kcep-run/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"kcep/internal/dispatch"
	"kcep/internal/kcepconfig"
	"kcep/internal/memory"
	"kcep/internal/plan"
	"kcep/internal/planfile"
	"kcep/internal/stepper"
)

const usage = `usage: kcep-run [--time-travel] [--timeout=10s] <plan.json|->`

func main() {
	cfg, path, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	program, err := loadPlan(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kcep-run: %v\n", err)
		os.Exit(1)
	}

	mem, stack := memory.New(), memory.NewStack()
	// Authentication and transport establishment are out of scope
	// (spec.md §1): a nil Dispatcher runs any plan that never reaches an
	// ApiRequest instruction, and reports NoApiClient on the first one
	// that does.
	var d *dispatch.Dispatcher

	colorize := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// cfg.Timeout is the per-response deadline a real session.Start would
	// be given; with no transport attached here (§1 Non-goals), it plays
	// no role beyond bounding how long a future GetResponse call may
	// block once a session is wired in by the caller.
	ctx := context.Background()

	if cfg.TimeTravel {
		hist := stepper.RunTimeTravel(ctx, mem, stack, program, d)
		printHistory(os.Stdout, hist, colorize)
		if hist.Err != nil {
			os.Exit(1)
		}
		return
	}

	events, err := stepper.Run(ctx, mem, stack, program, d)
	printEvents(os.Stdout, events, colorize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kcep-run: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (kcepconfig.Config, string, error) {
	cfg := kcepconfig.FromEnv()
	var path string

	for _, a := range args {
		switch {
		case a == "--time-travel":
			cfg.TimeTravel = true
		case strings.HasPrefix(a, "--timeout="):
			d, err := time.ParseDuration(strings.TrimPrefix(a, "--timeout="))
			if err != nil {
				return cfg, "", fmt.Errorf("invalid --timeout: %w", err)
			}
			cfg.Timeout = d
		case strings.HasPrefix(a, "--"):
			return cfg, "", fmt.Errorf("unknown flag %q", a)
		default:
			if path != "" {
				return cfg, "", fmt.Errorf("unexpected extra argument %q", a)
			}
			path = a
		}
	}
	if path == "" {
		return cfg, "", fmt.Errorf("missing plan path")
	}
	return cfg, path, nil
}

func loadPlan(path string) ([]plan.Instruction, error) {
	if path == "-" {
		return planfile.Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return planfile.Load(f)
}

func printEvents(w io.Writer, events []plan.Event, colorize bool) {
	for _, e := range events {
		fmt.Fprintln(w, formatEvent(e, colorize))
	}
}

func printHistory(w io.Writer, hist stepper.History, colorize bool) {
	for _, snap := range hist.Snapshots {
		fmt.Fprintf(w, "--- step %d ---\n", snap.PC)
		for _, e := range snap.Events {
			fmt.Fprintln(w, formatEvent(e, colorize))
		}
	}
	if hist.Err != nil {
		fmt.Fprintf(w, "halted at step %d: %v\n", hist.LastPC, hist.Err)
	}
}

func formatEvent(e plan.Event, colorize bool) string {
	line := fmt.Sprintf("[%s] %s", e.Severity, e.Text)
	if !colorize {
		return line
	}
	switch e.Severity {
	case plan.SeverityError:
		return "\x1b[31m" + line + "\x1b[0m"
	case plan.SeverityDebug:
		return "\x1b[90m" + line + "\x1b[0m"
	default:
		return line
	}
}
