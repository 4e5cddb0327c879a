package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"souschef/internal/agent/ports"
	"souschef/internal/agent/state"
)

// isTTY checks if the current environment has a TTY available
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// configureColor disables colored output when there is no TTY, e.g. when the
// output is piped or the command runs in CI. It never force-enables color, so
// NO_COLOR and similar conventions keep working.
func configureColor() {
	if !isTTY() {
		color.NoColor = true
	}
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func errorText(msg string) string {
	return red("✗ " + msg)
}

func successText(msg string) string {
	return green("✓ " + msg)
}

// stepRenderer prints loop events as they happen
type stepRenderer struct {
	verbose bool
}

func (r *stepRenderer) OnEvent(event ports.Event) {
	switch event.Type {
	case ports.EventTaskStart:
		fmt.Printf("%s %s\n", cyan("▸"), bold("Cooking task: "+event.Message))
	case ports.EventStepStart:
		if r.verbose {
			fmt.Printf("%s iteration %d: %s\n", gray("·"), event.Iteration, gray(event.Action))
		}
	case ports.EventStepEnd:
		if event.Outcome == string(state.OutcomeCompleted) {
			fmt.Printf("  %s %s\n", green("✓"), event.Message)
		} else {
			fmt.Printf("  %s %s %s\n", red("✗"), event.Message, gray("("+event.Error+")"))
		}
	case ports.EventTaskEnd:
		if r.verbose {
			fmt.Printf("%s finished: %s\n", gray("·"), event.Message)
		}
	}
}
