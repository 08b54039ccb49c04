package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verdant/endorser/endorse"
	"github.com/verdant/endorser/ledger"
)

const (
	LOCKFILE = "endorser.lock"
	LEDGER   = "endorser.db"
)

var EndorseCmd = Endorse{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},
}

type Endorse struct {
	command
	batch        string
	output       string
	stamp        string
	noRasterizer bool
}

func (cmd *Endorse) Name() string {
	return "endorse"
}

func (cmd *Endorse) Description() string {
	return "Stamps each subject's layout document and appends the subject's photos as A4 landscape pages"
}

func (cmd *Endorse) Usage() string {
	return "--batch <dir> --output <dir> [--stamp <file>] [--config <file>]"
}

func (cmd *Endorse) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] endorse [options] --batch <dir> --output <dir>\n", APP)
	fmt.Println()
	fmt.Println("  Creates '<layout> - Endorsed.pdf' in the output directory for every subject folder in the batch")
	fmt.Println("  directory. The report is printed and stored in the run ledger in the work directory.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s endorse --batch \"Batch 71\" --output \"Batch 71/Endorsed\" --stamp stamp.png\n", APP)
	fmt.Printf("    %s endorse --config endorser.yaml --no-rasterizer\n", APP)
	fmt.Println()
}

func (cmd *Endorse) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("endorse")

	flagset.StringVar(&cmd.batch, "batch", cmd.batch, "Directory containing the subject folders")
	flagset.StringVar(&cmd.output, "output", cmd.output, "Directory for the endorsed documents")
	flagset.StringVar(&cmd.stamp, "stamp", cmd.stamp, "Stamp image. Overrides the stamp file in the configuration")
	flagset.BoolVar(&cmd.noRasterizer, "no-rasterizer", cmd.noRasterizer, "Converts photos in-process only")

	return flagset
}

func (cmd *Endorse) Execute(args ...any) error {
	ctx := args[0].(context.Context)
	options := args[1].(*Options)

	cmd.debug = options.Debug

	config, err := cmd.configuration()
	if err != nil {
		return err
	}

	cmd.apply(&config)

	// ... check parameters
	if strings.TrimSpace(config.Batch) == "" {
		return fmt.Errorf("--batch is a required option")
	}

	if strings.TrimSpace(config.Output) == "" {
		return fmt.Errorf("--output is a required option")
	}

	if info, err := os.Stat(config.Batch); err != nil {
		return fmt.Errorf("invalid batch directory (%v)", err)
	} else if !info.IsDir() {
		return fmt.Errorf("invalid batch directory (%v is not a directory)", config.Batch)
	}

	chain := endorse.NewChain(config.Rasterizer)
	if cmd.debug {
		debugf("Converters: %v", chain.Name())
	}

	pipeline, err := endorse.NewPipeline(config, chain, cmd.debug)
	if err != nil {
		return err
	}

	l, err := acquire(cmd.workdir, LOCKFILE)
	if err != nil {
		return err
	}

	defer func() {
		if err := l.release(); err != nil {
			warnf("error removing lock file (%v)", err)
		}
	}()

	report, err := pipeline.Run(ctx, config.Batch, config.Output)
	if report == nil {
		return err
	}

	fmt.Println(render(report))

	if e := cmd.record(ctx, report); e != nil {
		warnf("error recording run %v (%v)", report.ID, e)
	}

	return err
}

// apply overrides the configuration with the values given on the command line.
func (cmd *Endorse) apply(config *endorse.Config) {
	if cmd.batch != "" {
		config.Batch = cmd.batch
	}

	if cmd.output != "" {
		config.Output = cmd.output
	}

	if cmd.stamp != "" {
		config.Stamp.File = cmd.stamp
	}

	if cmd.noRasterizer {
		config.Rasterizer.Disabled = true
	}
}

// record stores the report in the run ledger, including the partial report of a cancelled run.
func (cmd *Endorse) record(ctx context.Context, report *endorse.Report) error {
	ctx = context.WithoutCancel(ctx)

	db, err := ledger.Open(ctx, filepath.Join(cmd.workdir, LEDGER))
	if err != nil {
		return err
	}

	defer db.Close()

	return db.Record(ctx, report)
}
