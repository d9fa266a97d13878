package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mibands/internal/preview"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/shared"
	"github.com/desertthunder/mibands/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	previews   preview.Source
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB        // Shared database; opened from Config per command when nil
	Previews   preview.Source // Overrides the cached website preview fetcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		previews:   opts.Previews,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

// SetLogger swaps the logger used by every command.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, bandsCommand, linksCommand, previewsCommand, usersCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration file named by --config, when it exists, and applies --log-level.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			cfg, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = cfg
		}
	}

	if lvl := cmd.String("log-level"); lvl != "" {
		level, err := shared.ParseLogLevel(lvl)
		if err != nil {
			return ctx, err
		}
		shared.SetLogLevel(r.logger, level)
	}
	return ctx, nil
}

// openDB returns the shared database, or opens the configured one and, when migrate is
// set, applies pending migrations. The returned func closes only a database opened here.
func (r *Runner) openDB(migrate bool) (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if !migrate {
		return db, func() { db.Close() }, nil
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, func() { db.Close() }, nil
}

// fetcher builds an uncached preview fetcher on the runner's HTTP client.
func (r *Runner) fetcher() *preview.Fetcher {
	return preview.NewFetcher(r.config.Preview, r.config.Server.BaseURL).WithClient(r.httpClient)
}

// previewSource returns the injected preview source or a database-backed cache over [Runner.fetcher].
func (r *Runner) previewSource(db *sql.DB) preview.Source {
	if r.previews != nil {
		return r.previews
	}
	return preview.NewCached(
		r.fetcher(),
		repositories.NewPreviewRepository(db),
		r.config.Preview.CacheTTL(),
		shared.WithLogger(r.logger, "component", "preview"),
	)
}

func (r *Runner) engine(db *sql.DB) *tasks.Engine {
	return tasks.NewEngine(repositories.NewBandRepository(db), r.previewSource(db), shared.WithLogger(r.logger, "component", "tasks"))
}

// logProgress drains progress updates into the debug log until the channel closes.
func (r *Runner) logProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	for update := range progress {
		r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
	}
	close(done)
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
