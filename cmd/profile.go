package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/networth"
	"github.com/etnz/networth/renderer"
	"github.com/google/subcommands"
)

type profileCmd struct {
	clear bool
}

func (*profileCmd) Name() string     { return "profile" }
func (*profileCmd) Synopsis() string { return "show or change the user profile" }
func (*profileCmd) Usage() string {
	return `profile [-clear] [key=value...]

  Without arguments, shows the user profile given to the assistant.
  With key=value arguments, changes the profile, like:

    profile name=Ada age=36 country=US taxFilingStatus=single isTaxResident=true
`
}

func (c *profileCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "forget the profile")
}

func (c *profileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.clear {
		a.profile.Clear()
	}
	if f.NArg() > 0 {
		p := networth.Payload{}
		if current := a.profile.Get(); current != nil {
			p = profilePayload(*current)
		}
		if err := parseAssignments(p, f.Args()); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		if _, err := a.profile.Set(p); err != nil {
			printFailure(err)
			return subcommands.ExitFailure
		}
	}
	printMarkdown(renderer.RenderProfile(a.profile.Get()))
	return subcommands.ExitSuccess
}

func profilePayload(p networth.Profile) networth.Payload {
	return networth.Payload{
		"name":            p.Name,
		"age":             p.Age,
		"state":           p.State,
		"country":         p.Country,
		"citizenOf":       p.CitizenOf,
		"taxFilingStatus": p.TaxFilingStatus,
		"isTaxResident":   p.IsTaxResident,
	}
}
