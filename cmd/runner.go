package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statify/internal/services"
	"github.com/desertthunder/statify/internal/session"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/desertthunder/statify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      session.Store
	session    *session.Session
	mine       *session.MyPlaylist
	backend    *services.BackendClient
	spotify    *services.SpotifyService
	stats      services.StatsSource
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.StatsEngine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Stats replaces the Spotify Web API client, for tests.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      session.Store
	Stats      services.StatsSource
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}

	client := opts.Config.Client
	backend := services.NewBackendClient(client.BackendURL, client.ExchangeURL, opts.HTTPClient)
	sess := session.New(opts.Store, backend, shared.WithLogger(opts.Logger, "component", "session"))
	spotify := services.NewSpotifyService(opts.Config.Provider.APIURL, opts.HTTPClient, sess)

	stats := opts.Stats
	if stats == nil {
		stats = spotify
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		session:    sess,
		mine:       session.NewMyPlaylist(opts.Store),
		backend:    backend,
		spotify:    spotify,
		stats:      stats,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     tasks.NewStatsEngine(stats, shared.WithLogger(opts.Logger, "component", "stats")),
	}
}

// SetLogger replaces the logger, e.g. to keep log lines out of the TUI. The session and
// stats engine are moved to the new logger too.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.session.SetLogger(shared.WithLogger(logger, "component", "session"))
	r.engine = tasks.NewStatsEngine(r.stats, shared.WithLogger(logger, "component", "stats"))
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, loginCommand, logoutCommand, statusCommand,
		topCommand, genresCommand, recentCommand, playlistsCommand, searchCommand, dashboardCommand,
		mineCommand, signupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireLogin fails fast when no token is stored, before any request is made.
func (r *Runner) requireLogin() error {
	if !r.session.Authenticated() {
		return fmt.Errorf("%w: run `statify login` first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
