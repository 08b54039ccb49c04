package commands

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sys/execabs"

	"github.com/verdant/endorser/endorse"
)

var AuthoriseCmd = Authorise{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
	scope: "all",
}

type Authorise struct {
	command
	scope string
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises endorser to read the manifest spreadsheet and the subjects' Google Drive files"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file> [--scope sheets|drive|all]"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Runs the Google OAuth2 consent flow in a browser and saves the access tokens to the tokens directory")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --credentials \"credentials.json\" --scope drive\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("authorise")

	cmd.google(flagset)
	flagset.StringVar(&cmd.scope, "scope", cmd.scope, "Access to authorise: 'sheets', 'drive' or 'all'")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	ctx := args[0].(context.Context)
	options := args[1].(*Options)

	cmd.debug = options.Debug

	// ... check parameters
	if strings.TrimSpace(cmd.credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	scopes := []string{}
	switch strings.ToLower(strings.TrimSpace(cmd.scope)) {
	case "sheets":
		scopes = append(scopes, SHEETS)
	case "drive":
		scopes = append(scopes, DRIVE)
	case "all", "":
		scopes = append(scopes, SHEETS, DRIVE)
	default:
		return fmt.Errorf("invalid --scope '%v' - expected 'sheets', 'drive' or 'all'", cmd.scope)
	}

	// ... CTRL-C handler
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	for _, scope := range scopes {
		file := tokenFile(cmd.credentials, scope, cmd.tokenDir())

		if err := cmd.authenticate(ctx, scope, file); err != nil {
			return fmt.Errorf("authorisation error (%v)", err)
		}

		infof("Saved authorisation tokens to %v", file)
	}

	return nil
}

func (cmd *Authorise) authenticate(ctx context.Context, scope, file string) error {
	config, err := oauthConfig(cmd.credentials, scope)
	if err != nil {
		return err
	}

	// ... start HTTP server on the loopback interface
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	config.RedirectURL = fmt.Sprintf("http://%v/", listener.Addr())

	state := endorse.NewID()
	authorised := make(chan string, 1)

	srv := &http.Server{
		Handler:           callback(state, authorised),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			warnf("%v", err)
		}
	}()

	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			warnf("%v", err)
		}
	}()

	// ... open OAuth2 URL in browser
	url := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if err := browse(url); err != nil {
		fmt.Printf("Could not open the authorisation page in your browser - please open the following link manually:\n\n  %v\n\n", url)
	}

	// ... wait for authorisation
	select {
	case <-ctx.Done():
		return fmt.Errorf("cancelled")

	case code := <-authorised:
		token, err := config.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("unable to retrieve token from web (%v)", err)
		}

		return saveToken(file, token)
	}
}

// callback handles the OAuth2 redirect, passing the authorisation code to the channel if the
// state matches.
func callback(state string, authorised chan<- string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, rq *http.Request) {
		code := rq.FormValue("code")

		if rq.FormValue("state") != state || code == "" {
			http.Error(w, "Invalid authorisation response", http.StatusBadRequest)
			return
		}

		select {
		case authorised <- code:
		default:
		}

		fmt.Fprintf(w, "%s is authorised - you can close this page.\n", APP)
	})
}

func browse(url string) error {
	var command string

	switch runtime.GOOS {
	case "darwin":
		command = "open"
	default:
		command = "xdg-open"
	}

	path, err := execabs.LookPath(command)
	if err != nil {
		return err
	}

	return execabs.Command(path, url).Start()
}
