// Package cli implements the interactive LinkStash client: a small REPL
// over the HTTP API with prompt-based input for credentials and link data.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/ymatrosov/linkstash/internal/client/api"
	"github.com/ymatrosov/linkstash/internal/client/config"
)

// apiClient is the backend surface the CLI commands need. The real
// implementation is *api.Client; tests provide stubs.
type apiClient interface {
	Register(ctx context.Context, email string, password []byte) (*api.User, error)
	Login(ctx context.Context, email string, password []byte) error
	Whoami(ctx context.Context) (*api.Identity, error)
	Me(ctx context.Context) (*api.User, error)
	UpdateMe(ctx context.Context, email, password *string) (*api.User, error)
	DeleteMe(ctx context.Context) error
	CreateLink(ctx context.Context, rawURL string, title, notes *string) (*api.Link, error)
	ListLinks(ctx context.Context, search string, archived *bool) ([]*api.Link, error)
	GetLink(ctx context.Context, id string) (*api.Link, error)
	UpdateLink(ctx context.Context, id string, title, notes *string) (*api.Link, error)
	ArchiveLink(ctx context.Context, id string) (*api.Link, error)
	UnarchiveLink(ctx context.Context, id string) (*api.Link, error)
	DeleteLink(ctx context.Context, id string) error
	RandomLink(ctx context.Context, archived bool) (*api.Link, error)
	Authenticated() bool
	ClearToken()
}

type App struct {
	config *config.Config
	api    apiClient
	email  string
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	client := api.NewClient(c.ServerBaseURL, c.RequestTimeout)
	return &App{config: c, api: client, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.Authenticated()
}

func (a *App) Run(ctx context.Context) {
	printlnFn("LinkStash CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

// status is shown in the prompt: the logged-in email or "guest".
func (a *App) status() string {
	if a.isLoggedIn() {
		return a.email
	}
	return "guest"
}
