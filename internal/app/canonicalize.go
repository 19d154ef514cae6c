package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/canonical"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/classify"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/cli"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/logging"
)

func runCanonicalize(args []string) int {
	fs := flag.NewFlagSet("canonicalize", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	window := addWindowFlags(fs)
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	timeout := fs.Duration("timeout", 15*time.Minute, "Command timeout, must cover the classifier round-trips")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "canonicalize does not accept positional arguments")
		return 2
	}

	filter, err := window.filter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid window: %v\n", err)
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
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

	classifier, err := classify.NewClient(cfg, logger)
	if err != nil {
		if errors.Is(err, classify.ErrNotConfigured) {
			fmt.Fprintln(os.Stderr, "CLASSIFIER_ENDPOINT and CLASSIFIER_MODEL must be set to canonicalize")
			return 2
		}
		fmt.Fprintf(os.Stderr, "Failed to initialize classifier: %v\n", err)
		return 1
	}

	canonicalizer, err := canonical.NewCanonicalizer(pool, classifier, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize canonicalizer: %v\n", err)
		return 1
	}

	result, runErr := canonicalizer.Run(ctx, filter)

	if outputFormat == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
	} else {
		fmt.Printf("run id:          %s\n", result.RunID)
		fmt.Printf("distinct names:  %d\n", result.DistinctNames)
		fmt.Printf("groups:          %d\n", result.Groups)
		fmt.Printf("merged groups:   %d\n", result.MergedGroups)
		fmt.Printf("updated records: %d\n", result.UpdatedRecords)
		if result.Skipped {
			fmt.Printf("skipped:         %s\n", result.SkipReason)
		}
		for _, merged := range result.Merged {
			fmt.Printf("\n%s (%d records)\n", merged.CanonicalName, merged.Records)
			for _, name := range merged.MemberNames {
				fmt.Printf("  - %s\n", name)
			}
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Canonicalization failed: %v\n", runErr)
		return 1
	}
	return 0
}
