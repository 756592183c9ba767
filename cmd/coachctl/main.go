package main

import (
	"context"
	"fmt"
	"os"

	"github.com/briangreenhill/coachengine/internal/app"
	"github.com/briangreenhill/coachengine/internal/cli"
	"github.com/briangreenhill/coachengine/internal/config"
	"github.com/briangreenhill/coachengine/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout carries command output
	logger := logging.New(os.Stderr, cfg.LogLevel, true)

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	root := cli.NewRootCmd(&cli.App{
		Contexts:  a.Aggregator,
		Readiness: a.Scorer,
		Workouts:  a.Workouts,
		Plans:     a.Plans,
		Chat:      a.Chat,
	})
	return root.ExecuteContext(ctx)
}
