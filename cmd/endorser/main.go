package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/verdant/endorser/commands"
)

var cli = []uhppoted.CommandV{
	&commands.VersionCmd,
	&commands.AuthoriseCmd,
	&commands.GetCmd,
	&commands.FoldersCmd,
	&commands.DownloadCmd,
	&commands.EndorseCmd,
	&commands.ReportCmd,
}

var options = commands.Options{
	Debug: false,
}

var help = uhppoted.NewHelpV(commands.APP, cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	cmd, err := uhppoted.ParseV(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cmd == nil {
		help.Execute(ctx)
		os.Exit(1)
	}

	if err = cmd.Execute(ctx, &options); err != nil {
		cancel()
		log.Fatalf("ERROR: %v", err)
	}
}
