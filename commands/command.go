package commands

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/verdant/endorser/endorse"
	"github.com/verdant/endorser/manifest"
)

const APP = "endorser"

// Options holds the global command line options.
type Options struct {
	Debug bool
}

type command struct {
	workdir     string
	credentials string
	tokens      string
	config      string
	debug       bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (tokens, lock file, run ledger)")
	flagset.StringVar(&c.config, "config", c.config, "YAML configuration file")

	return flagset
}

func (c *command) google(flagset *flag.FlagSet) {
	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path for the 'credentials.json' file")
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")
}

func (c *command) tokenDir() string {
	if c.tokens != "" {
		return c.tokens
	}

	return filepath.Join(c.workdir, ".google")
}

// configuration loads the pipeline configuration file if one was given.
func (c *command) configuration() (endorse.Config, error) {
	if strings.TrimSpace(c.config) == "" {
		return endorse.DefaultConfig(), nil
	}

	config, err := endorse.LoadConfig(c.config)
	if err != nil {
		return config, fmt.Errorf("error loading configuration (%v)", err)
	}

	return config, nil
}

// source identifies a manifest: a local file, or a Google Sheets URL and range.
type source struct {
	file string
	url  string
	area string
}

func (s *source) flags(flagset *flag.FlagSet) {
	flagset.StringVar(&s.file, "manifest", s.file, "Manifest file (.xlsx, .tsv or .csv)")
	flagset.StringVar(&s.url, "url", s.url, "Google Sheets manifest URL (alternative to --manifest)")
	flagset.StringVar(&s.area, "range", s.area, "Google Sheets manifest range e.g. 'Batch 71!A1:D'")
}

func (s *source) validate() error {
	if strings.TrimSpace(s.file) == "" && strings.TrimSpace(s.url) == "" {
		return fmt.Errorf("either --manifest or --url is a required option")
	}

	if strings.TrimSpace(s.url) != "" && strings.TrimSpace(s.area) == "" {
		return fmt.Errorf("--range is a required option")
	}

	return nil
}

func (s *source) load(ctx context.Context, c *command) ([]manifest.Subject, error) {
	if strings.TrimSpace(s.file) != "" {
		table, err := manifest.Load(s.file)
		if err != nil {
			return nil, fmt.Errorf("error reading manifest %v (%v)", s.file, err)
		}

		return table.Subjects(), nil
	}

	table, err := fetchManifest(ctx, c, s.url, s.area)
	if err != nil {
		return nil, err
	}

	return table.Subjects(), nil
}

func spreadsheetID(url string) (string, error) {
	match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(url)
	if len(match) < 2 {
		return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
	}

	return match[1], nil
}

func fetchManifest(ctx context.Context, c *command, url, area string) (*manifest.Table, error) {
	if strings.TrimSpace(c.credentials) == "" {
		return nil, fmt.Errorf("--credentials is a required option")
	}

	spreadsheet, err := spreadsheetID(url)
	if err != nil {
		return nil, err
	}

	if c.debug {
		debugf("Spreadsheet - ID:%s  range:%s", spreadsheet, area)
	}

	client, err := authorize(c.credentials, SHEETS, c.tokenDir())
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%v)", err)
	}

	google, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	response, err := google.Spreadsheets.Values.Get(spreadsheet, area).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet (%v)", err)
	}

	if len(response.Values) == 0 {
		return nil, fmt.Errorf("no data in spreadsheet/range")
	}

	return manifest.FromValueRange(response)
}

func helpOptions(flagset *flag.FlagSet) {
	fmt.Println("  Options:")
	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-12s %s\n", f.Name, f.Usage)
	})
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}
