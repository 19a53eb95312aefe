// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommandExecuteDispatchesToSubcommand(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "keeper",
		Subcommands: []*Command{
			{
				Name: "health",
				Run: func(ctx context.Context, args []string) error {
					called = "health"
					return nil
				},
			},
			{
				Name: "rcon",
				Run: func(ctx context.Context, args []string) error {
					called = "rcon"
					receivedArgs = args
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"rcon", "list"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "rcon" {
		t.Errorf("dispatched to %q, want rcon", called)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "list" {
		t.Errorf("args = %v, want [list]", receivedArgs)
	}
}

func TestCommandExecutePassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")

	var got any
	root := &Command{
		Name: "keeper",
		Subcommands: []*Command{{
			Name: "status",
			Run: func(ctx context.Context, args []string) error {
				got = ctx.Value(key{})
				return nil
			},
		}},
	}
	if err := root.Execute(ctx, []string{"status"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "value" {
		t.Errorf("context value = %v, want the caller's context", got)
	}
}

func TestCommandExecuteFlagParsing(t *testing.T) {
	var port int
	var words []string

	command := &Command{
		Name: "rcon",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("rcon", pflag.ContinueOnError)
			flagSet.IntVar(&port, "port", 25575, "RCON port")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			words = args
			return nil
		},
	}

	// Flags after "--" belong to the game command.
	if err := command.Execute(context.Background(), []string{"--port", "25580", "--", "say", "-hello"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if port != 25580 {
		t.Errorf("port = %d, want 25580", port)
	}
	if strings.Join(words, " ") != "say -hello" {
		t.Errorf("args = %v, want [say -hello]", words)
	}
}

func TestCommandExecuteUnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "rcon",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("rcon", pflag.ContinueOnError)
			flagSet.String("password", "", "RCON password")
			flagSet.Int("retries", 0, "retry count")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--pasword", "x"})
	if err == nil {
		t.Fatal("Execute succeeded with an unknown flag")
	}
	for _, want := range []string{"pasword", "did you mean --password", "--help"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want it to contain %q", err, want)
		}
	}
}

func TestCommandExecuteUnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "rcon",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("rcon", pflag.ContinueOnError)
			flagSet.String("password", "", "RCON password")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute succeeded with an unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for a distant flag", err)
	}
}

func TestCommandExecuteUnknownSubcommand(t *testing.T) {
	root := &Command{
		Name: "keeper",
		Subcommands: []*Command{
			{Name: "supervise"},
			{Name: "status"},
			{Name: "notify"},
		},
	}

	err := root.Execute(context.Background(), []string{"supervize"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "supervise"`) {
		t.Errorf("error = %v, want a suggestion for supervise", err)
	}

	err = root.Execute(context.Background(), []string{"zzzzzzzz"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want unknown command without suggestion", err)
	}
}

func TestCommandExecuteHelp(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			var output bytes.Buffer
			root := &Command{
				Name:        "keeper",
				Summary:     "Game server control plane",
				Output:      &output,
				Subcommands: []*Command{{Name: "rcon", Summary: "Run one console command"}},
			}
			if err := root.Execute(context.Background(), []string{helpArg}); err != nil {
				t.Errorf("Execute(%q): %v", helpArg, err)
			}
			if !strings.Contains(output.String(), "Run one console command") {
				t.Errorf("help output = %q", output.String())
			}
		})
	}
}

func TestCommandExecuteSubcommandHelpUsesRootOutput(t *testing.T) {
	var output bytes.Buffer
	root := &Command{
		Name:   "keeper",
		Output: &output,
		Subcommands: []*Command{{
			Name:    "notify",
			Summary: "Broadcast a message to players",
		}},
	}
	if err := root.Execute(context.Background(), []string{"notify", "--help"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(output.String(), "Usage:\n  keeper notify [flags]") {
		t.Errorf("help output = %q, want the full command path", output.String())
	}
}

func TestCommandExecuteNoArgs(t *testing.T) {
	var output bytes.Buffer
	root := &Command{
		Name:        "keeper",
		Output:      &output,
		Subcommands: []*Command{{Name: "health"}},
	}

	err := root.Execute(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %v, want subcommand required", err)
	}
	if !strings.Contains(output.String(), "Commands:") {
		t.Errorf("help not printed: %q", output.String())
	}
}

func TestCommandPrintHelp(t *testing.T) {
	command := &Command{
		Name:        "keeper",
		Description: "Control plane for a long-running game server.",
		Subcommands: []*Command{
			{Name: "rcon", Summary: "Run one console command"},
			{Name: "supervise", Summary: "Keep the server running"},
		},
		Examples: []Example{
			{Description: "List online players", Command: "keeper rcon list"},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Control plane for a long-running game server.",
		"keeper <command> [flags]",
		"Commands:",
		"Run one console command",
		"Keep the server running",
		"# List online players",
		"keeper rcon list",
		"Run 'keeper <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommandPrintHelpWithFlags(t *testing.T) {
	command := &Command{
		Name:  "health",
		Usage: "keeper health [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("health", pflag.ContinueOnError)
			flagSet.String("config", "", "configuration file")
			flagSet.Bool("json", false, "output as JSON")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	for _, want := range []string{"Flags:", "--config", "--json"} {
		if !strings.Contains(buffer.String(), want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, buffer.String())
		}
	}
}
