// Command fintrack-cli reads and edits the finance tracker's persisted state
// from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"fintrack/internal/backup"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

var plain = flag.Bool("plain", false, "Print raw markdown instead of rendering it for the terminal.")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()

	a := &app{out: os.Stdout, open: openFromEnv}
	status := commander.Execute(context.Background(), a)
	a.close()
	os.Exit(int(status))
}

// register adds the fintrack commands, grouped the way help lists them.
func register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "transactions")
	c.Register(&listCmd{}, "transactions")
	c.Register(&deleteCmd{}, "transactions")
	c.Register(&summaryCmd{}, "reports")
	c.Register(&budgetsCmd{}, "reports")
	c.Register(&goalsCmd{}, "reports")
	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
}

// app is handed to every command. The tracker is opened on first use so
// help and usage never touch storage.
type app struct {
	out     io.Writer
	raw     bool
	open    func(ctx context.Context) (*store.Tracker, func() error, error)
	tracker *store.Tracker
	cleanup func() error
}

func fromArgs(args []any) *app {
	a := args[0].(*app)
	a.raw = a.raw || *plain
	return a
}

func (a *app) Tracker(ctx context.Context) (*store.Tracker, error) {
	if a.tracker != nil {
		return a.tracker, nil
	}
	tr, cleanup, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	a.tracker, a.cleanup = tr, cleanup
	return tr, nil
}

func (a *app) close() {
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			fmt.Fprintln(os.Stderr, "close storage:", err)
		}
	}
}

// printMarkdown renders md for the terminal, falling back to the raw text
// when rendering fails.
func (a *app) printMarkdown(md string) {
	if a.raw {
		fmt.Fprint(a.out, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Fprint(a.out, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(a.out, md)
		return
	}
	fmt.Fprint(a.out, out)
}

// openFromEnv opens the tracker the server uses. Commits made here request
// backups just like the server's when a broker is configured.
func openFromEnv(ctx context.Context) (*store.Tracker, func() error, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Output = os.Stderr
	lc.Component = log.ComponentCLI
	logger := log.New(lc)

	tracker, res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if res.Publisher != nil {
		tracker.OnCommit(backup.Hook(res.Publisher, logger.WithComponent(log.ComponentBackup)))
	}
	return tracker, res.Cleanup, nil
}
