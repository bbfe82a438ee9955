package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/networth/server"
	"github.com/google/subcommands"
	"golang.org/x/time/rate"
)

type serveCmd struct {
	addr   string
	noChat bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the accounts and the assistant over HTTP" }
func (*serveCmd) Usage() string {
	return `serve [-addr <addr>] [-no-chat]

  Serves the JSON API on /api, and the chat backend on POST /chat.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address, defaults to NW_LISTEN")
	f.BoolVar(&c.noChat, "no-chat", false, "do not serve the chat backend")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	cfg := server.Config{
		Addr:      a.cfg.Listen,
		Log:       a.log,
		Accounts:  a.store,
		Profile:   a.profile,
		ChatLimit: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	if c.addr != "" {
		cfg.Addr = c.addr
	}
	if !c.noChat {
		if cfg.Backend, err = a.backend(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error initializing the assistant:", err)
			return subcommands.ExitFailure
		}
	}
	s := server.New(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdown)
	}()

	if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
