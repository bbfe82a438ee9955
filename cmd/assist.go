package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/networth/advisor"
	"github.com/etnz/networth/chat"
	"github.com/etnz/networth/renderer"
	"github.com/google/subcommands"
)

// backend returns the configured chat backend: the remote service when
// NW_CHAT_URL is set, the Gemini assistant otherwise.
func (a *app) backend(ctx context.Context) (chat.Backend, error) {
	if a.cfg.ChatURL != "" {
		return chat.NewClient(a.cfg.ChatURL), nil
	}
	gen, err := advisor.NewGenerator(ctx, a.cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return advisor.NewAssistant(gen, a.cfg.Model, a.log), nil
}

type chatCmd struct {
	clear bool
}

func (*chatCmd) Name() string     { return "chat" }
func (*chatCmd) Synopsis() string { return "talk with the financial assistant" }
func (*chatCmd) Usage() string {
	return `chat [-clear] [message...]

  Sends the message to the assistant and prints its answer. The assistant
  reads your accounts and your profile. Without a message, prints the
  conversation so far.
`
}

func (c *chatCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "forget the conversation")
}

func (c *chatCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	text := strings.Join(f.Args(), " ")
	var backend chat.Backend
	if text != "" {
		if backend, err = a.backend(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error initializing the assistant:", err)
			return subcommands.ExitFailure
		}
	}
	s := chat.NewSession(a.slot, backend, a.store, a.profile, a.log)
	defer s.Close()

	if c.clear {
		s.Clear()
	}
	if text == "" {
		printMarkdown(renderer.RenderTranscript(s.Messages()))
		return subcommands.ExitSuccess
	}

	answer, err := s.Send(ctx, text)
	if errors.Is(err, chat.ErrBusy) {
		fmt.Fprintln(os.Stderr, "Error: wait for the previous answer")
		return subcommands.ExitFailure
	}
	printMarkdown(answer.Text)
	if answer.Text == chat.Apology {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	goal string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "summarize your finances in the light of a goal" }
func (*summaryCmd) Usage() string {
	return `summary -goal <goal> [prompt...]

  Asks the model for a summary of the accounts in the context of a
  financial goal, like "retirement" or "buying a house".
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.goal, "goal", "", "the financial goal (required)")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.goal == "" {
		fmt.Fprintln(os.Stderr, "Error: -goal is required")
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	data, err := advisor.FinancialData(a.store.List())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	gen, err := advisor.NewGenerator(ctx, a.cfg.APIKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}
	out, err := advisor.New(gen, a.cfg.Model).Summarize(ctx, advisor.SummaryInput{
		FinancialData: data,
		Goal:          c.goal,
		UserPrompt:    strings.Join(f.Args(), " "),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(out.Summary)
	return subcommands.ExitSuccess
}

type adviceCmd struct {
	risk  string
	goals string
}

func (*adviceCmd) Name() string     { return "advice" }
func (*adviceCmd) Synopsis() string { return "get investment advice" }
func (*adviceCmd) Usage() string {
	return `advice -risk <low|medium|high> -goals <goals> [prompt...]

  Asks the model for investment advice based on the accounts, a risk
  tolerance and investment goals. The advice is informational only.
`
}

func (c *adviceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.risk, "risk", "medium", "risk tolerance: low, medium or high")
	f.StringVar(&c.goals, "goals", "", "investment goals, like 'retire at 60'")
}

func (c *adviceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	data, err := advisor.FinancialData(a.store.List())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	gen, err := advisor.NewGenerator(ctx, a.cfg.APIKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}
	out, err := advisor.New(gen, a.cfg.Model).Advise(ctx, advisor.AdviceInput{
		FinancialData:   data,
		RiskTolerance:   c.risk,
		InvestmentGoals: c.goals,
		UserPrompt:      strings.Join(f.Args(), " "),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(out.Advice + "\n\n> " + out.Disclaimer + "\n")
	return subcommands.ExitSuccess
}
