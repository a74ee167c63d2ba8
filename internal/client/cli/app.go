package cli

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/example/fieldentry/internal/client/api"
	"github.com/example/fieldentry/internal/client/config"
	"github.com/example/fieldentry/internal/client/credentials"
	"github.com/example/fieldentry/internal/client/localdb"
	"github.com/example/fieldentry/internal/client/services"
	"github.com/example/fieldentry/internal/client/transport"
	"github.com/example/fieldentry/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// App wires configuration, local storage, the authenticated API client and
// the interactive command loop together.
type App struct {
	config      *config.Config
	log         logging.Logger
	repos       *localdb.Repositories
	creds       *credentials.Store
	api         *api.Client
	resolver    *services.Resolver
	submissions *services.Submissions
	Mode        Mode
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {

	ctx := context.Background()

	repos, err := localdb.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	source := credentials.NewHTTPTokenSource(c.IdentityURL, &http.Client{Timeout: 10 * time.Second})
	creds := credentials.NewStore(repos.Secure, source, log)

	httpClient := transport.NewClient(&http.Client{Timeout: 15 * time.Second}, creds, log)
	apiClient := api.NewClient(c.BackendURL, httpClient, log)

	return &App{
		config:      c,
		log:         log,
		repos:       repos,
		creds:       creds,
		api:         apiClient,
		resolver:    services.NewResolver(apiClient, repos.Schemas, log),
		submissions: services.NewSubmissions(apiClient, repos.Queue, log),
		Mode:        ModeOffline,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) isOnline() bool {
	return a.Mode == ModeOnline
}

func (a *App) isLoggedIn() bool {
	tok := a.creds.Load(context.Background())
	return tok != nil && !tok.IsEmpty()
}

// Run starts the interactive loop and blocks until the user exits or ctx is
// cancelled. The database handle is released on return.
func (a *App) Run(ctx context.Context) {
	defer a.repos.Close()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.Root(ctx)
}

// StartOnlineStatusWatcher periodically probes the backend and flips the
// online/offline mode accordingly. It returns when ctx is cancelled.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
