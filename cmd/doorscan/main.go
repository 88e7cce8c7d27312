package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doorcheck/internal/doorclient"
	"doorcheck/internal/scan"
	"doorcheck/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var apiURL, token, eventId, operator string
	var wedge bool

	flagSet := pflag.NewFlagSet("doorscan", pflag.ContinueOnError)
	flagSet.StringVar(&apiURL, "api", envOr("DOORCHECK_API", "http://localhost:8080"), "check-in API base URL")
	flagSet.StringVar(&token, "token", os.Getenv("DOORCHECK_TOKEN"), "operator bearer token (default $DOORCHECK_TOKEN)")
	flagSet.StringVarP(&eventId, "event", "e", os.Getenv("DOORCHECK_EVENT"), "event id to admit into")
	flagSet.StringVar(&operator, "operator", envOr("USER", "door"), "name shown in the console header")
	flagSet.BoolVarP(&wedge, "wedge", "w", false, "read scanner lines from stdin instead of the interactive console")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if eventId == "" {
		return fmt.Errorf("--event is required")
	}
	if token == "" {
		return fmt.Errorf("--token or DOORCHECK_TOKEN is required")
	}

	client := doorclient.New(apiURL, token)

	if wedge {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		src := scan.NewLineSource(os.Stdin)
		errc := make(chan error, 1)
		go func() { errc <- src.Run(ctx) }()

		if err := runWedge(ctx, client, src, eventId, os.Stdout, time.Local); err != nil {
			return err
		}
		if err := <-errc; err != nil {
			return fmt.Errorf("read scanner: %w", err)
		}
		return nil
	}

	program := tea.NewProgram(tui.NewConsole(client, eventId, operator, time.Local), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `doorscan checks ticket holders in at the door.

The interactive console looks a code up, shows the holder and whether
check-in is open, and checks in on confirmation. With --wedge every
line read from stdin (a keyboard-wedge or serial scanner) is admitted
directly; scans made while one is in flight are dropped.

Usage:
  doorscan --event <id> [flags]

Flags:
%s`, flagSet.FlagUsages())
}
