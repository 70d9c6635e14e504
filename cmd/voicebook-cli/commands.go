package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"voicebook/internal/capture"
	"voicebook/internal/core"
	"voicebook/internal/services"
	"voicebook/internal/sheets"
)

var errUsage = errors.New("invalid usage")

type app struct {
	svc      *services.LedgerService
	exporter sheets.Exporter
	stdin    io.Reader
	stdout   io.Writer
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Voicebook CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  voicebook-cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  add       Add a record: -date -desc -cat -amount -attr income|fixed|variable")
	fmt.Fprintln(w, "  say       Add a record from a transcript, e.g. say 昨天 午餐 85")
	fmt.Fprintln(w, "  list      Print every record and this month's totals")
	fmt.Fprintln(w, "  summary   Print totals: -period YYYY-MM")
	fmt.Fprintln(w, "  share     Print the share text: -period YYYY-MM")
	fmt.Fprintln(w, "  edit      Change a record: -id N plus any of -date -desc -cat -income -var -fix")
	fmt.Fprintln(w, "  delete    Remove a record: -id N")
	fmt.Fprintln(w, "  clear     Remove every record: -yes")
	fmt.Fprintln(w, "  export    Write CSV: -o FILE (default stdout)")
	fmt.Fprintln(w, "  import    Read CSV: -f FILE (default stdin)")
	fmt.Fprintln(w, "  sheets    Mirror every record to Google Sheets")
	fmt.Fprintln(w, "\nConfiguration is read from the environment and .env.")
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage(a.stdout)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return a.runAdd(ctx, rest)
	case "say":
		return a.runSay(ctx, rest)
	case "list":
		return a.runList(ctx)
	case "summary":
		return a.runSummary(ctx, rest)
	case "share":
		return a.runShare(ctx, rest)
	case "edit":
		return a.runEdit(ctx, rest)
	case "delete":
		return a.runDelete(ctx, rest)
	case "clear":
		return a.runClear(ctx, rest)
	case "export":
		return a.runExport(ctx, rest)
	case "import":
		return a.runImport(ctx, rest)
	case "sheets":
		return a.runSheets(ctx)
	default:
		fmt.Fprintf(a.stdout, "Unknown command: %s\n\n", cmd)
		printUsage(a.stdout)
		return errUsage
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *app) runAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	date := fs.String("date", "", "date YYYY-MM-DD (default today)")
	desc := fs.String("desc", "", "description")
	cat := fs.String("cat", "", "category")
	amount := fs.String("amount", "", "amount")
	attr := fs.String("attr", string(core.AttrVariable), "income, fixed or variable")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	v, err := a.svc.AddRecord(ctx, core.StructuredInput{
		Date:   *date,
		Desc:   *desc,
		Cat:    *cat,
		Amount: *amount,
		Attr:   core.ParseAttribution(*attr),
	})
	if err != nil {
		return err
	}
	a.printView(v)
	return nil
}

func (a *app) runSay(ctx context.Context, args []string) error {
	var src capture.Source = capture.NewReaderSource(a.stdin)
	if len(args) > 0 {
		src = capture.StaticSource(strings.Join(args, " "))
	}

	v, err := a.svc.Capture(ctx, src)
	if err != nil {
		return err
	}
	a.printView(v)
	return nil
}

func (a *app) runList(ctx context.Context) error {
	v, err := a.svc.List(ctx)
	if err != nil {
		return err
	}
	a.printView(v)
	return nil
}

func parsePeriodFlag(name string, args []string) (string, error) {
	fs := newFlagSet(name)
	period := fs.String("period", "", "month YYYY-MM (default current)")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return *period, nil
}

func (a *app) runSummary(ctx context.Context, args []string) error {
	period, err := parsePeriodFlag("summary", args)
	if err != nil {
		return err
	}
	sum, err := a.svc.Summary(ctx, period)
	if err != nil {
		return err
	}
	a.printSummary(sum)
	return nil
}

func (a *app) runShare(ctx context.Context, args []string) error {
	period, err := parsePeriodFlag("share", args)
	if err != nil {
		return err
	}
	text, err := a.svc.Share(ctx, period)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, text)
	return nil
}

// runEdit starts from the stored values; only flags given on the command
// line change a field.
func (a *app) runEdit(ctx context.Context, args []string) error {
	fs := newFlagSet("edit")
	id := fs.Int64("id", 0, "record id")
	fs.String("date", "", "date")
	fs.String("desc", "", "description")
	fs.String("cat", "", "category")
	fs.String("income", "", "income amount")
	fs.String("var", "", "variable expense amount")
	fs.String("fix", "", "fixed expense amount")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	if *id <= 0 {
		return fmt.Errorf("edit: -id is required: %w", errUsage)
	}

	v, err := a.svc.List(ctx)
	if err != nil {
		return err
	}
	var form *services.EditForm
	for _, r := range v.Records {
		if r.ID == *id {
			form = &services.EditForm{
				Date:   r.Date,
				Desc:   r.Desc,
				Cat:    r.Cat,
				Income: r.Income.String(),
				Var:    r.Var.String(),
				Fix:    r.Fix.String(),
			}
			break
		}
	}
	if form == nil {
		return fmt.Errorf("edit record %d: %w", *id, core.ErrRecordNotFound)
	}

	fs.Visit(func(f *flag.Flag) {
		val := f.Value.String()
		switch f.Name {
		case "date":
			form.Date = val
		case "desc":
			form.Desc = val
		case "cat":
			form.Cat = val
		case "income":
			form.Income = val
		case "var":
			form.Var = val
		case "fix":
			form.Fix = val
		}
	})

	v, err = a.svc.Edit(ctx, *id, *form)
	if err != nil {
		return err
	}
	a.printView(v)
	return nil
}

func (a *app) runDelete(ctx context.Context, args []string) error {
	fs := newFlagSet("delete")
	id := fs.Int64("id", 0, "record id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if *id <= 0 {
		return fmt.Errorf("delete: -id is required: %w", errUsage)
	}

	v, err := a.svc.Delete(ctx, *id)
	if err != nil {
		return err
	}
	a.printView(v)
	return nil
}

func (a *app) runClear(ctx context.Context, args []string) error {
	fs := newFlagSet("clear")
	yes := fs.Bool("yes", false, "confirm removing every record")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if !*yes {
		return fmt.Errorf("clear: pass -yes to remove every record: %w", errUsage)
	}

	v, err := a.svc.Clear(ctx)
	if err != nil {
		return err
	}
	a.printView(v)
	return nil
}

func (a *app) runExport(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	out := fs.String("o", "-", "output file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if *out == "-" {
		return a.svc.Export(ctx, a.stdout)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := a.svc.Export(ctx, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}
	fmt.Fprintf(a.stdout, "Exported to %s\n", *out)
	return nil
}

func (a *app) runImport(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	in := fs.String("f", "-", "input file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	r := a.stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return fmt.Errorf("open %s: %w", *in, err)
		}
		defer f.Close()
		r = f
	}

	n, v, err := a.svc.Import(ctx, r)
	if err != nil {
		return fmt.Errorf("imported %d records before failing: %w", n, err)
	}
	fmt.Fprintf(a.stdout, "Imported %d records\n", n)
	a.printView(v)
	return nil
}

func (a *app) runSheets(ctx context.Context) error {
	if a.exporter == nil {
		return errors.New("google sheets export is not configured (GOOGLE_SPREADSHEET_ID)")
	}
	v, err := a.svc.List(ctx)
	if err != nil {
		return err
	}
	rows, err := a.exporter.Export(ctx, v.Records)
	if err != nil {
		return fmt.Errorf("export to sheets: %w", err)
	}
	fmt.Fprintf(a.stdout, "Wrote %d rows to Google Sheets\n", rows)
	return nil
}

func (a *app) printView(v services.View) {
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tCATEGORY\tINCOME\tVARIABLE\tFIXED")
	for _, r := range v.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.Desc, r.Cat, r.Income, r.Var, r.Fix)
	}
	tw.Flush()
	a.printSummary(v.Summary)
}

func (a *app) printSummary(s core.Summary) {
	fmt.Fprintf(a.stdout, "%s  收入 %s  變動 %s  固定 %s  淨額 %s\n",
		s.Period, s.Income, s.VariableExpense, s.FixedExpense, core.FormatCents(s.Net))
}
