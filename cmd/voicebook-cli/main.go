// Command voicebook-cli manages the ledger from a terminal.
//
// Commands:
//
//	add       Add a record from fields
//	say       Add a record from a transcript (arguments or one line of stdin)
//	list      Print every record and the current month's totals
//	summary   Print one month's totals
//	share     Print one month's share text
//	edit      Change a stored record
//	delete    Remove a record
//	clear     Remove every record
//	export    Write the CSV export
//	import    Read a CSV export
//	sheets    Mirror the ledger to Google Sheets
package main

import (
	"context"
	"fmt"
	"os"

	"voicebook/internal/cli"
	applog "voicebook/internal/log"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	cfg, res, logger := cli.Bootstrap(ctx)
	svc := cli.NewService(cfg, res)

	exporter, err := cli.NewSheetsExporter(ctx, cfg)
	if err != nil {
		logger.Warn("Google Sheets unavailable", applog.FieldError, err)
	}

	a := &app{svc: svc, exporter: exporter, stdin: os.Stdin, stdout: os.Stdout}
	runErr := a.run(ctx, os.Args[1:])

	if err := svc.Close(); err != nil {
		logger.Error("Failed to close ledger", applog.FieldError, err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
