package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "products":
		return runProducts(args[1:])
	case "top":
		return runTop(args[1:])
	case "canonicalize":
		return runCanonicalize(args[1:])
	case "undo":
		return runUndo(args[1:])
	case "stats":
		return runStats(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "reportd CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  reportd <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health       Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  products     List aggregated product groups in a window")
	fmt.Fprintln(os.Stderr, "  top          Show the top product groups by a metric")
	fmt.Fprintln(os.Stderr, "  canonicalize Persist canonical product names for a window")
	fmt.Fprintln(os.Stderr, "  undo         Clear persisted canonical names in a window")
	fmt.Fprintln(os.Stderr, "  stats        Show engine-wide record counts")
	fmt.Fprintln(os.Stderr, "  serve        Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"reportd <command> -h\" for command-specific flags.")
}
