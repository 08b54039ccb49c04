package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/option"

	"github.com/verdant/endorser/gdrive"
	"github.com/verdant/endorser/manifest"
)

var DownloadCmd = Download{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
	depth: 3,
}

type Download struct {
	command
	source
	root      string
	recursive bool
	depth     int
}

// summary is the outcome of a download run.
type summary struct {
	processed  int
	downloaded int
	layouts    int
	failures   []gdrive.Failure
}

func (cmd *Download) Name() string {
	return "download"
}

func (cmd *Download) Description() string {
	return "Downloads the photos and layout document for every subject in a manifest"
}

func (cmd *Download) Usage() string {
	return "--credentials <file> --manifest <file> --root <dir> [--recursive] [--depth <N>]"
}

func (cmd *Download) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] download [options] --manifest <file> --root <dir>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the images behind each subject's Google Drive link, and the layout PDF behind")
	fmt.Println("  the subject's layout link, into <root>/<index>_<name>.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s download --credentials \"credentials.json\" --manifest \"BATCH 71.xlsx\" --root \"Batch 71\" --recursive\n", APP)
	fmt.Println()
}

func (cmd *Download) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("download")

	cmd.google(flagset)
	cmd.source.flags(flagset)
	flagset.StringVar(&cmd.root, "root", cmd.root, "Directory containing the subject folders")
	flagset.BoolVar(&cmd.recursive, "recursive", cmd.recursive, "Also downloads the images in Drive sub-folders")
	flagset.IntVar(&cmd.depth, "depth", cmd.depth, "Maximum sub-folder depth for --recursive")

	return flagset
}

func (cmd *Download) Execute(args ...any) error {
	ctx := args[0].(context.Context)
	options := args[1].(*Options)

	cmd.debug = options.Debug

	// ... check parameters
	if strings.TrimSpace(cmd.credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	if err := cmd.source.validate(); err != nil {
		return err
	}

	if strings.TrimSpace(cmd.root) == "" {
		return fmt.Errorf("--root is a required option")
	}

	if cmd.depth < 0 {
		return fmt.Errorf("invalid --depth %v", cmd.depth)
	}

	subjects, err := cmd.source.load(ctx, &cmd.command)
	if err != nil {
		return err
	}

	client, err := authorize(cmd.credentials, DRIVE, cmd.tokenDir())
	if err != nil {
		return fmt.Errorf("authentication/authorization error (%v)", err)
	}

	drive, err := gdrive.NewClient(ctx, cmd.debug, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("unable to create new Drive client (%v)", err)
	}

	depth := 0
	if cmd.recursive {
		depth = cmd.depth
	}

	result, err := download(ctx, drive, cmd.root, subjects, depth)
	if err != nil {
		return err
	}

	printSummary(result)

	return nil
}

func download(ctx context.Context, drive *gdrive.Client, root string, subjects []manifest.Subject, depth int) (*summary, error) {
	result := summary{}

	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return &result, err
		}

		result.processed++

		dir := filepath.Join(root, subject.Folder())
		if err := os.MkdirAll(dir, 0770); err != nil {
			return &result, err
		}

		if link := strings.TrimSpace(subject.DriveLink); link != "" {
			n, failures := drive.Photos(ctx, subject.Name, link, dir, depth)

			infof("%v: %v images downloaded", subject.Name, n)

			result.downloaded += n
			result.failures = append(result.failures, failures...)
		}

		if link := strings.TrimSpace(subject.LayoutLink); link != "" {
			if !gdrive.IsLayoutLink(link) {
				result.failures = append(result.failures, gdrive.Failure{Subject: subject.Name, File: "Invalid layout link", Error: link})
				continue
			}

			file, err := drive.Layout(ctx, link, dir)
			if err != nil {
				result.failures = append(result.failures, gdrive.Failure{Subject: subject.Name, File: "Layout", Error: err.Error()})
				continue
			}

			infof("%v: downloaded layout %v", subject.Name, filepath.Base(file))
			result.layouts++
		}
	}

	return &result, nil
}

func printSummary(result *summary) {
	fmt.Println()
	fmt.Printf("  Processed:  %v\n", result.processed)
	fmt.Printf("  Downloaded: %v images, %v layouts\n", result.downloaded, result.layouts)
	fmt.Printf("  Failures:   %v\n", len(result.failures))

	for _, f := range result.failures {
		fmt.Printf("    %-24v %-32v %v\n", f.Subject, f.File, f.Error)
	}

	fmt.Println()
}
