package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verdant/endorser/manifest"
)

var FoldersCmd = Folders{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Folders struct {
	command
	source
	root string
}

func (cmd *Folders) Name() string {
	return "folders"
}

func (cmd *Folders) Description() string {
	return "Creates a working folder for every subject in a manifest"
}

func (cmd *Folders) Usage() string {
	return "--manifest <file> --root <dir>"
}

func (cmd *Folders) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] folders [options] --manifest <file> --root <dir>\n", APP)
	fmt.Println()
	fmt.Println("  Creates <root>/<index>_<name> for every subject in the manifest. Existing folders are kept.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s folders --manifest \"BATCH 71.xlsx\" --root \"Batch 71\"\n", APP)
	fmt.Println()
}

func (cmd *Folders) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("folders")

	cmd.google(flagset)
	cmd.source.flags(flagset)
	flagset.StringVar(&cmd.root, "root", cmd.root, "Directory in which to create the subject folders")

	return flagset
}

func (cmd *Folders) Execute(args ...any) error {
	ctx := args[0].(context.Context)
	options := args[1].(*Options)

	cmd.debug = options.Debug

	// ... check parameters
	if err := cmd.source.validate(); err != nil {
		return err
	}

	if strings.TrimSpace(cmd.root) == "" {
		return fmt.Errorf("--root is a required option")
	}

	subjects, err := cmd.source.load(ctx, &cmd.command)
	if err != nil {
		return err
	}

	created, err := mkfolders(cmd.root, subjects)
	if err != nil {
		return err
	}

	infof("Created %v of %v subject folders in %v", created, len(subjects), cmd.root)

	return nil
}

// mkfolders creates the subject folders and returns the number created.
func mkfolders(root string, subjects []manifest.Subject) (int, error) {
	if err := os.MkdirAll(root, 0770); err != nil {
		return 0, err
	}

	created := 0
	for _, subject := range subjects {
		dir := filepath.Join(root, subject.Folder())

		if _, err := os.Stat(dir); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, err
		}

		if err := os.Mkdir(dir, 0770); err != nil {
			return created, fmt.Errorf("error creating folder for %v (%v)", subject.Name, err)
		}

		infof("Created folder: %v", subject.Folder())
		created++
	}

	return created, nil
}
