// Package cmd implements the CLI application to manage accounts and net worth.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/networth"
	"github.com/etnz/networth/config"
	"github.com/etnz/networth/slot"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Commands are the subcommands of the application, by group.
var Commands = map[string][]subcommands.Command{
	"accounts": {&typesCmd{}, &addCmd{}, &editCmd{}, &rmCmd{}, &lsCmd{}, &showCmd{}, &networthCmd{}},
	"profile":  {&profileCmd{}},
	"advisor":  {&chatCmd{}, &summaryCmd{}, &adviceCmd{}},
	"server":   {&serveCmd{}},
	"help":     {&topicCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for group, cmds := range Commands {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

// stdout receives the command outputs.
var stdout io.Writer = os.Stdout

// Raw disables the terminal rendering of markdown outputs.
var Raw bool

// app holds what a command needs, opened from the environment configuration.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	slot    *slot.Adapter
	store   *networth.Store
	profile *networth.ProfileStore
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := cfg.Logger(os.Stderr, true)
	b, err := cfg.OpenBackend()
	if err != nil {
		return nil, fmt.Errorf("cannot open %s storage: %w", cfg.Storage, err)
	}
	a := slot.New(b, log)
	return &app{
		cfg:     cfg,
		log:     log,
		slot:    a,
		store:   networth.OpenStore(a, log),
		profile: networth.OpenProfileStore(a, log),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.profile.Close()
	a.slot.Close()
}

// printMarkdown renders md for the terminal.
func printMarkdown(md string) {
	if Raw {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(stdout, out)
			return
		}
	}
	fmt.Fprint(stdout, md)
}

// parseAssignments reads key=value arguments into a payload.
//
// Values are read as JSON when they are valid JSON, like 12.5, true or
// [{"ticker":"VTI"}], and as text otherwise. Dotted keys address nested
// records, like fee.monthlyFee=5.
func parseAssignments(p networth.Payload, args []string) error {
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid argument %q, want key=value", arg)
		}
		var value any = raw
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err == nil && !dec.More() {
			value = v
		}

		target := map[string]any(p)
		path := strings.Split(key, ".")
		for _, name := range path[:len(path)-1] {
			next, ok := target[name].(map[string]any)
			if !ok {
				next = map[string]any{}
				target[name] = next
			}
			target = next
		}
		target[path[len(path)-1]] = value
	}
	return nil
}

// readPayload reads a JSON object from file, or stdin if file is "-".
func readPayload(file string) (networth.Payload, error) {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, err
	}
	return networth.ParsePayload(data)
}

// printJSON prints v as indented JSON.
func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printFailure prints err, with one line per invalid field.
func printFailure(err error) {
	if v, ok := err.(networth.ValidationError); ok {
		fmt.Fprintln(os.Stderr, "Error: invalid account:")
		for _, f := range v {
			fmt.Fprintf(os.Stderr, "  %s %s\n", f.Path, f.Message)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}
