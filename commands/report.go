package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/verdant/endorser/endorse"
	"github.com/verdant/endorser/ledger"
)

var ReportCmd = Report{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},
	limit: 20,
}

type Report struct {
	command
	id    string
	list  bool
	limit int
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func (cmd *Report) Name() string {
	return "report"
}

func (cmd *Report) Description() string {
	return "Displays the report for an earlier endorse run"
}

func (cmd *Report) Usage() string {
	return "[--id <run>] [--list]"
}

func (cmd *Report) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s report [options]\n", APP)
	fmt.Println()
	fmt.Println("  Displays the report for the most recent endorse run, or for the run with the given ID.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s report\n", APP)
	fmt.Printf("    %s report --list\n", APP)
	fmt.Printf("    %s report --id 01JAR3X6YV7E9Q8ZB4T5KQ2M1N\n", APP)
	fmt.Println()
}

func (cmd *Report) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("report")

	flagset.StringVar(&cmd.id, "id", cmd.id, "Run ID. Defaults to the most recent run")
	flagset.BoolVar(&cmd.list, "list", cmd.list, "Lists the recorded runs")
	flagset.IntVar(&cmd.limit, "limit", cmd.limit, "Maximum number of runs for --list")

	return flagset
}

func (cmd *Report) Execute(args ...any) error {
	ctx := args[0].(context.Context)
	options := args[1].(*Options)

	cmd.debug = options.Debug

	file := filepath.Join(cmd.workdir, LEDGER)
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("no recorded runs in %v (%v)", cmd.workdir, err)
	}

	db, err := ledger.Open(ctx, file)
	if err != nil {
		return fmt.Errorf("error opening run ledger (%v)", err)
	}

	defer db.Close()

	if cmd.list {
		runs, err := db.List(ctx, cmd.limit)
		if err != nil {
			return err
		}

		fmt.Println(renderRuns(runs))
		return nil
	}

	var report *endorse.Report
	if cmd.id != "" {
		report, err = db.Get(ctx, cmd.id)
	} else {
		report, err = db.Latest(ctx)
	}

	if errors.Is(err, ledger.ErrNotFound) && cmd.id != "" {
		return fmt.Errorf("no such run (%v)", cmd.id)
	} else if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("no recorded runs")
	} else if err != nil {
		return err
	}

	fmt.Println(render(report))

	return nil
}

// render formats a run report for the console.
func render(report *endorse.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%v\n", titleStyle.Render("Endorsement run "+report.ID))
	fmt.Fprintf(&b, "%v\n", dimStyle.Render(fmt.Sprintf("batch:%v  output:%v  started:%v  elapsed:%v",
		report.Batch,
		report.Output,
		report.Started.Format("2006-01-02 15:04:05"),
		report.Finished.Sub(report.Started).Round(time.Millisecond))))

	b.WriteString("\n")
	fmt.Fprintf(&b, "%v\n", headingStyle.Render(fmt.Sprintf("Endorsed (%v)", len(report.Endorsed))))
	for _, e := range report.Endorsed {
		line := fmt.Sprintf("  %-32v %v layout + %v photo pages", e.Subject, e.LayoutPages, e.PhotoPages)
		fmt.Fprintf(&b, "%v\n", okStyle.Render(line))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%v\n", headingStyle.Render(fmt.Sprintf("No output (%v)", len(report.NoOutput))))
	for _, s := range report.NoOutput {
		line := fmt.Sprintf("  %-32v %v", s.Subject, s.Reason)
		fmt.Fprintf(&b, "%v\n", skipStyle.Render(line))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%v\n", headingStyle.Render(fmt.Sprintf("Photo failures (%v)", len(report.Failures))))
	for _, f := range report.Failures {
		line := fmt.Sprintf("  %-32v %-24v %v", f.Subject, f.Photo, f.Reason)
		fmt.Fprintf(&b, "%v\n", failStyle.Render(line))
	}

	return boxStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}

func renderRuns(runs []ledger.Run) string {
	if len(runs) == 0 {
		return dimStyle.Render("no recorded runs")
	}

	lines := []string{
		headingStyle.Render(fmt.Sprintf("%-26v  %-19v  %8v  %9v  %8v  %v", "ID", "STARTED", "ENDORSED", "NO OUTPUT", "FAILURES", "BATCH")),
	}

	for _, r := range runs {
		lines = append(lines, fmt.Sprintf("%-26v  %-19v  %8v  %9v  %8v  %v",
			r.ID,
			r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Endorsed,
			r.NoOutput,
			r.Failures,
			r.Batch))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
