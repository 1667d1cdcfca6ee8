package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/report"
	"fintrack/internal/store"
	"fintrack/internal/transfer"
)

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}

type addCmd struct {
	description string
	amount      string
	txType      string
	category    string
	date        string
	notes       string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an income or expense" }
func (*addCmd) Usage() string {
	return `fintrack-cli add -d <description> -a <amount> -c <category> [-t income|expense] [-date YYYY-MM-DD] [-n <notes>]

  Adds a transaction. The date defaults to today and the type to expense.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.description, "d", "", "Description of the transaction.")
	f.StringVar(&c.amount, "a", "", "Positive amount, e.g. 12.50. A comma works as the decimal separator; thousands separators are rejected.")
	f.StringVar(&c.txType, "t", string(core.Expense), "Transaction type: income or expense.")
	f.StringVar(&c.category, "c", "", "Category name.")
	f.StringVar(&c.date, "date", "", "Date as YYYY-MM-DD. Defaults to today.")
	f.StringVar(&c.notes, "n", "", "Optional notes.")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := fromArgs(args)
	amount, err := core.ParseMoney(c.amount)
	if err != nil {
		return fail(err)
	}
	tr, err := a.Tracker(ctx)
	if err != nil {
		return fail(err)
	}
	date := tr.Today()
	if c.date != "" {
		if date, err = core.ParseDate(c.date); err != nil {
			return fail(err)
		}
	}

	tx, err := tr.AddTransaction(ctx, core.Transaction{
		Description: strings.TrimSpace(c.description),
		Amount:      amount,
		Type:        core.TxType(strings.ToLower(c.txType)),
		Category:    strings.TrimSpace(c.category),
		Date:        date,
		Notes:       strings.TrimSpace(c.notes),
	})
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(a.out, "Added transaction %d: %s %s on %s\n",
		tx.ID, tx.Type, tx.Amount.Format(tr.Settings().Currency), tx.Date)
	return subcommands.ExitSuccess
}

type listCmd struct {
	params   query.Params
	page     int
	pageSize int
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions with filters and paging" }
func (*listCmd) Usage() string {
	return `fintrack-cli list [-q <text>] [-t income|expense] [-c <category>] [-p today|week|month|year] [-sort <order>] [-page <n>] [-size <n>]

  Lists one page of transactions, newest first unless -sort says otherwise.
  Sort orders: date-desc, date-asc, amount-desc, amount-asc, category.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.params.Search, "q", "", "Case-insensitive text to find in description, category or notes.")
	f.StringVar(&c.params.Type, "t", "", "Only income or expense.")
	f.StringVar(&c.params.Category, "c", "", "Only this category.")
	f.StringVar(&c.params.Period, "p", "", "Only today, week, month or year.")
	f.StringVar(&c.params.Sort, "sort", "", "Sort order.")
	f.IntVar(&c.page, "page", 1, "Page to show.")
	f.IntVar(&c.pageSize, "size", 0, "Items per page. Defaults to the itemsPerPage setting.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := fromArgs(args)
	if err := c.params.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	tr, err := a.Tracker(ctx)
	if err != nil {
		return fail(err)
	}
	settings := tr.Settings()
	size := c.pageSize
	if size <= 0 {
		size = settings.ItemsPerPage
	}

	view := query.Apply(tr.Transactions(), c.params, tr.Today())
	page, err := query.Paginate(view, c.page, size)
	if err != nil {
		return fail(err)
	}
	a.printMarkdown(transactionsMarkdown(page, settings.Currency))
	return subcommands.ExitSuccess
}

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete transactions by id" }
func (*deleteCmd) Usage() string {
	return `fintrack-cli delete <id>...

  Deletes the given transactions. Unknown ids are ignored.
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (*deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := fromArgs(args)
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one id is required")
		return subcommands.ExitUsageError
	}
	ids := make([]int64, 0, f.NArg())
	for _, raw := range f.Args() {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", raw)
			return subcommands.ExitUsageError
		}
		ids = append(ids, id)
	}
	tr, err := a.Tracker(ctx)
	if err != nil {
		return fail(err)
	}
	n, err := tr.DeleteTransactions(ctx, ids)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(a.out, "Deleted %d transaction(s)\n", n)
	return subcommands.ExitSuccess
}

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show totals, budgets, goals and insights" }
func (*summaryCmd) Usage() string {
	return `fintrack-cli summary

  Prints the dashboard: all-time and monthly totals, top expense
  categories, recent transactions, budget and goal progress, insights.
`
}

func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := fromArgs(args)
	tr, err := a.Tracker(ctx)
	if err != nil {
		return fail(err)
	}
	ds, rev := tr.Snapshot()
	a.printMarkdown(summaryMarkdown(report.Build(ds, rev, tr.Today())))
	return subcommands.ExitSuccess
}

type budgetsCmd struct {
	activeOnly bool
}

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "show budget progress" }
func (*budgetsCmd) Usage() string {
	return `fintrack-cli budgets [-active]

  Lists budgets with the amount spent in their category and date range.
`
}

func (c *budgetsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.activeOnly, "active", false, "Only active budgets.")
}

func (c *budgetsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := fromArgs(args)
	tr, err := a.Tracker(ctx)
	if err != nil {
		return fail(err)
	}
	budgets := tr.Budgets()
	if c.activeOnly {
		active := budgets[:0:0]
		for _, b := range budgets {
			if b.IsActive {
				active = append(active, b)
			}
		}
		budgets = active
	}
	views := report.BudgetViews(budgets, tr.Transactions())
	a.printMarkdown(budgetsMarkdown(views, tr.Settings().Currency))
	return subcommands.ExitSuccess
}

type goalsCmd struct {
	contribute int64
	amount     string
}

func (*goalsCmd) Name() string     { return "goals" }
func (*goalsCmd) Synopsis() string { return "show goal progress or add a contribution" }
func (*goalsCmd) Usage() string {
	return `fintrack-cli goals [-contribute <id> -a <amount>]

  Lists savings goals. With -contribute, adds the amount to that goal first.
`
}

func (c *goalsCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.contribute, "contribute", 0, "Goal id to contribute to.")
	f.StringVar(&c.amount, "a", "", "Contribution amount.")
}

func (c *goalsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := fromArgs(args)
	tr, err := a.Tracker(ctx)
	if err != nil {
		return fail(err)
	}
	if c.contribute != 0 {
		amount, err := core.ParseMoney(c.amount)
		if err != nil {
			return fail(err)
		}
		g, err := tr.Contribute(ctx, c.contribute, amount)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(a.out, "Contributed %s to %q\n", amount.Format(tr.Settings().Currency), g.Name)
	}
	views := report.GoalViews(tr.Goals(), tr.Today())
	a.printMarkdown(goalsMarkdown(views, tr.Settings().Currency))
	return subcommands.ExitSuccess
}

type exportCmd struct {
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export transactions or a full backup" }
func (*exportCmd) Usage() string {
	return `fintrack-cli export [-f csv|json|backup] [-o <file>|-]

  Writes an export file. Without -o the file is named after today's date
  in the current directory; -o - writes to standard output.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "f", "backup", "Export format: csv, json or backup.")
	f.StringVar(&c.output, "o", "", "Output file, or - for standard output.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := fromArgs(args)
	tr, err := a.Tracker(ctx)
	if err != nil {
		return fail(err)
	}
	ds, _ := tr.Snapshot()
	now := time.Now()

	var (
		buf      bytes.Buffer
		filename string
	)
	switch c.format {
	case "csv":
		filename = transfer.CSVFilename(now)
		err = transfer.WriteCSV(&buf, ds.Transactions)
	case "json":
		filename = transfer.TransactionsFilename(now)
		var export transfer.TransactionExport
		if export, err = transfer.NewTransactionExport(ds, now); err == nil {
			err = transfer.WriteJSON(&buf, export)
		}
	case "backup":
		filename = transfer.BackupFilename(now)
		err = transfer.WriteJSON(&buf, transfer.NewBackup(ds, now))
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if err != nil {
		return fail(err)
	}

	switch c.output {
	case "-":
		_, err = a.out.Write(buf.Bytes())
	case "":
		err = os.WriteFile(filename, buf.Bytes(), 0o600)
	default:
		filename = c.output
		err = os.WriteFile(filename, buf.Bytes(), 0o600)
	}
	if err != nil {
		return fail(err)
	}
	if c.output != "-" {
		fmt.Fprintf(a.out, "Exported %d transaction(s) to %s\n", len(ds.Transactions), filename)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	mode string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a JSON export or backup" }
func (*importCmd) Usage() string {
	return `fintrack-cli import [-mode merge|replace] <file>|-

  Imports transactions, and budgets, goals and settings when present.
  merge keeps existing records and adds those with new ids; replace
  swaps every collection present in the file.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mode, "mode", string(store.Merge), "Import mode: merge or replace.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := fromArgs(args)
	mode := store.ImportMode(strings.ToLower(c.mode))
	if !mode.Valid() || f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	var r io.Reader = os.Stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return fail(err)
		}
		defer file.Close()
		r = file
	}

	set, format, err := transfer.Parse(r)
	if err != nil {
		return fail(err)
	}
	tr, err := a.Tracker(ctx)
	if err != nil {
		return fail(err)
	}
	res, err := tr.Import(ctx, set, mode)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(a.out, "Imported %d transaction(s), %d budget(s), %d goal(s) from %s file (%s); %d record(s) dropped\n",
		res.Transactions, res.Budgets, res.Goals, format, mode, res.Dropped)
	return subcommands.ExitSuccess
}
