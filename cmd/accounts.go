package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/networth"
	"github.com/etnz/networth/renderer"
	"github.com/google/subcommands"
)

type typesCmd struct{}

func (*typesCmd) Name() string     { return "types" }
func (*typesCmd) Synopsis() string { return "list the account types and their fields" }
func (*typesCmd) Usage() string {
	return `types

  Lists every account type with the fields it accepts.
`
}
func (*typesCmd) SetFlags(f *flag.FlagSet) {}

func (*typesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	printMarkdown(renderer.RenderTypes())
	return subcommands.ExitSuccess
}

type addCmd struct {
	file string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an account" }
func (*addCmd) Usage() string {
	return `add [-f <file.json>] key=value...

  Adds an account. Its fields are read from a JSON file, then from
  key=value arguments, like:

    add type="Credit Card" name=Visa outstandingDebt=1200.50 interestRate=19.9

  Values are JSON when valid JSON, text otherwise. Use dotted keys for
  records (fee.monthlyFee=5). An id is generated when none is given.
  See 'types' for the fields of each type.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "read the account from a JSON file, '-' for stdin")
}

func (c *addCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p := networth.Payload{}
	if c.file != "" {
		var err error
		if p, err = readPayload(c.file); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", c.file, err)
			return subcommands.ExitUsageError
		}
	}
	if err := parseAssignments(p, f.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	acc, err := a.store.Add(p)
	if err != nil {
		printFailure(err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderAccount(acc))
	return subcommands.ExitSuccess
}

type editCmd struct {
	file string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit an account" }
func (*editCmd) Usage() string {
	return `edit [-f <file.json>] <id> key=value...

  Changes the fields of account <id>. Fields not mentioned keep their
  value, unless -f is used: the file then replaces the whole account.
  Changing the type is allowed, fields unknown to the new type must be
  removed with key=null.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "replace the account with a JSON file, '-' for stdin")
}

func (c *editCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: missing account id")
		return subcommands.ExitUsageError
	}
	id := f.Arg(0)

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var p networth.Payload
	if c.file != "" {
		if p, err = readPayload(c.file); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", c.file, err)
			return subcommands.ExitUsageError
		}
	} else {
		acc, ok := a.store.Get(id)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: no account %q\n", id)
			return subcommands.ExitFailure
		}
		p = networth.PayloadOf(acc)
	}
	if err := parseAssignments(p, f.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	p["id"] = id
	dropNulls(p)

	acc, err := a.store.Edit(p)
	if err != nil {
		printFailure(err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderAccount(acc))
	return subcommands.ExitSuccess
}

// dropNulls removes top level keys set to null, so that they can be removed from the command line.
func dropNulls(p networth.Payload) {
	for k, v := range p {
		if v == nil {
			delete(p, k)
		}
	}
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove accounts" }
func (*rmCmd) Usage() string {
	return `rm <id>...

  Removes the accounts. Unknown ids are reported but are not an error.
`
}
func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (*rmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: missing account id")
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	for _, id := range f.Args() {
		if a.store.Remove(id) {
			fmt.Fprintf(stdout, "removed %s\n", id)
		} else {
			fmt.Fprintf(os.Stderr, "warning: no account %q\n", id)
		}
	}
	return subcommands.ExitSuccess
}

type lsCmd struct {
	json bool
}

func (*lsCmd) Name() string     { return "ls" }
func (*lsCmd) Synopsis() string { return "list accounts" }
func (*lsCmd) Usage() string {
	return `ls [-json]

  Lists the accounts, grouped by type.
`
}

func (c *lsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the accounts as JSON")
}

func (c *lsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.json {
		return printJSON(a.store.List())
	}
	printMarkdown(renderer.RenderAccounts(a.store.List()))
	return subcommands.ExitSuccess
}

type showCmd struct{}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "show the details of accounts" }
func (*showCmd) Usage() string {
	return `show <id>...

  Shows every field of the accounts.
`
}
func (*showCmd) SetFlags(f *flag.FlagSet) {}

func (*showCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var b strings.Builder
	status := subcommands.ExitSuccess
	for _, id := range f.Args() {
		acc, ok := a.store.Get(id)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: no account %q\n", id)
			status = subcommands.ExitFailure
			continue
		}
		b.WriteString(renderer.RenderAccount(acc))
		b.WriteString("\n")
	}
	printMarkdown(b.String())
	return status
}

type networthCmd struct {
	json bool
}

func (*networthCmd) Name() string     { return "networth" }
func (*networthCmd) Synopsis() string { return "show assets, liabilities and net worth per currency" }
func (*networthCmd) Usage() string {
	return `networth [-json]

  Sums the account balances per currency.
`
}

func (c *networthCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the summary as JSON")
}

func (c *networthCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.json {
		return printJSON(a.store.NetWorth())
	}
	printMarkdown(renderer.RenderNetWorth(a.store.NetWorth()))
	return subcommands.ExitSuccess
}
