package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rbcopy/internal/rekordbox"
	"github.com/desertthunder/rbcopy/internal/shared"
	"github.com/desertthunder/rbcopy/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
	input  *bufio.Reader
	openDB func(shared.DatabaseConfig) (*sql.DB, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	Input  io.Reader                                    // Answers to interactive prompts; defaults to stdin
	OpenDB func(shared.DatabaseConfig) (*sql.DB, error) // Defaults to [shared.OpenHistory]
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
	if opts.OpenDB == nil {
		opts.OpenDB = shared.OpenHistory
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		input:  bufio.NewReader(opts.Input),
		openDB: opts.OpenDB,
	}
}

// SetLogger replaces the runner's logger, e.g. while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		copyCommand, playlistsCommand, tracksCommand, infoCommand, historyCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig is the root Before hook. A config file that does not exist is only an error
// when its path was given explicitly and the command is not setup, which creates it.
// Otherwise the current config is kept.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	if _, err := os.Stat(path); err != nil {
		creating := cmd.Args().First() == "setup"
		if errors.Is(err, fs.ErrNotExist) && (!cmd.IsSet("config") || creating) {
			r.applyLogLevel(cmd)
			return ctx, nil
		}
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("loaded config", "path", path)
	r.applyLogLevel(cmd)
	return ctx, nil
}

func (r *Runner) applyLogLevel(cmd *cli.Command) {
	level := r.config.Log.ParsedLevel()
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
}

// loadLibrary parses the export at path with the runner's logger.
func (r *Runner) loadLibrary(path string) (*rekordbox.Library, error) {
	return rekordbox.Load(path, rekordbox.WithLogger(r.logger))
}

func (r *Runner) newEngine(rateLimit float64) *tasks.CopyEngine {
	return tasks.NewCopyEngine(tasks.CopyEngineOpts{
		RateLimit:     rateLimit,
		PreserveTimes: r.config.Copy.PreserveTimes,
		Logger:        r.logger,
	})
}

// prompt writes label and reads one trimmed line of input. EOF yields an empty answer.
func (r *Runner) prompt(label string) (string, error) {
	if err := r.writePlain("%s", label); err != nil {
		return "", err
	}

	line, err := r.input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
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

func rule(c string) string { return strings.Repeat(c, 60) }

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("\n%s\n", rule("="))
	r.writePlain("%v\n", title)
	r.writePlain("%s\n\n", rule("="))
}
