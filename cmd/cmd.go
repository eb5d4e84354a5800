// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/rbcopy/internal/formatter"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// app builds the root command. Its action is the interactive copy shell.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:      "rbcopy",
		Usage:     "Copy the tracks of a Rekordbox playlist into a folder",
		Version:   version,
		ArgsUsage: "[xmlFile] [playlist] [outputFolder]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to configuration file",
				DefaultText: "config.toml",
				Value:       "config.toml",
				Sources:     cli.EnvVars("RBCOPY_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		}, copyFlags(true)...),
		Arguments: copyArguments(),
		Before:    r.loadConfig,
		Action:    r.Copy,
		Commands:  r.register(),
	}
}

func copyArguments() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{Name: "xmlFile", UsageText: "Path to the Rekordbox XML export"},
		&cli.StringArg{Name: "playlist", UsageText: "Playlist name or number"},
		&cli.StringArg{Name: "outputFolder", UsageText: "Destination folder"},
	}
}

// copyFlags returns the flags accepted by the copy action. On the root command they are
// local so they do not clash with the copy subcommand's own set.
func copyFlags(local bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "manifest",
			Usage: "Write rbcopy_manifest.json into the output folder",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  "m3u",
			Usage: "Write playlist.m3u8 listing the copied files",
			Local: local,
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "Maximum files copied per second, 0 for unlimited (overrides copy.rate_limit)",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "Do not record this run in the history database",
			Local: local,
		},
	}
}

// copyCommand is an explicit alias of the root action.
func copyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Aliases:   []string{"cp"},
		Usage:     "Copy a playlist's tracks into an output folder",
		ArgsUsage: "[xmlFile] [playlist] [outputFolder]",
		Arguments: copyArguments(),
		Flags:     copyFlags(false),
		Action:    r.Copy,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List playlists with their resolved track counts",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "xmlFile"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Playlists,
	}
}

func tracksCommand(r *Runner) *cli.Command {
	formats := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		formats[i] = string(f)
	}

	return &cli.Command{
		Name:  "tracks",
		Usage: "Print a playlist's resolved tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "xmlFile"},
			&cli.StringArg{Name: "playlist"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Output format (%s)", strings.Join(formats, ", ")),
				Value:   string(formatter.FormatText),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Tracks,
	}
}

func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show library export metadata",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "xmlFile"},
		},
		Action: r.Info,
	}
}

// historyCommand handles copy run history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect past copy runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List copy runs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only show runs of this playlist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one copy run and its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id", UsageText: "Run ID or sequence number"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// setupCommand writes a config file and initialises the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialise the history database",
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist copying.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist copying",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "xmlFile"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI is running",
				Value: "~/.rbcopy/tui.log",
			},
		},
		Action: r.TUI,
	}
}
