package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rbcopy/internal/shared"
	"github.com/desertthunder/rbcopy/internal/tasks"
	"github.com/desertthunder/rbcopy/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// TUI launches the interactive terminal UI for playlist copying.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("%w: the TUI needs an interactive terminal, use the copy command instead", shared.ErrNotTerminal)
	}

	xmlFile := cmd.StringArg("xmlFile")
	if xmlFile == "" {
		answer, err := r.prompt("Enter path to Rekordbox XML file: ")
		if err != nil {
			return err
		}
		xmlFile = answer
	}
	if expanded, err := shared.ExpandHome(xmlFile); err == nil {
		xmlFile = expanded
	}

	lib, err := r.loadLibrary(xmlFile)
	if err != nil {
		return err
	}

	logPath, err := shared.ExpandHome(cmd.String("log-file"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.Log.ParsedLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, lib, r.newEngine(r.config.Copy.RateLimit), ui.Options{
		OutputFolder: func(playlist string) string {
			dir, err := r.config.Output.DefaultFolder(playlist)
			if err != nil {
				r.logger.Warn("falling back to working directory", "error", err)
				return playlist
			}
			return dir
		},
		OnComplete: func(playlist string, result *tasks.CopyResult) {
			recorder := r.beginRun(r.config.Database.History, lib.Path, playlist, result.OutputDir)
			defer recorder.close()
			recorder.finish(result)
		},
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
