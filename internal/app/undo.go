package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/canonical"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/cli"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/logging"
)

func runUndo(args []string) int {
	fs := flag.NewFlagSet("undo", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	window := addWindowFlags(fs)
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "undo does not accept positional arguments")
		return 2
	}

	filter, err := window.filter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid window: %v\n", err)
		return 2
	}

	ctx, cancel, cfg, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	// Undo needs no classifier, so none is wired here.
	canonicalizer, err := canonical.NewCanonicalizer(pool, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize canonicalizer: %v\n", err)
		return 1
	}

	result, err := canonicalizer.Undo(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to clear canonical names: %v\n", err)
		return 1
	}

	fmt.Printf("cleared canonical names on %d records\n", result.ClearedRecords)
	return 0
}
