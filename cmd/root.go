package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/masmgr/tfs2git/config"
	"github.com/urfave/cli/v2"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "tfs2git",
		Usage:     "Replay the changeset history of a TFVC branch as Git commits",
		UsageText: "tfs2git -p <collection uri> -b <$/Project/Branch> -r <repository dir> [options]",
		Version:   "1.0.0",
		Flags:     migrateFlags(),
		Action:    migrateAction,
	}
}

func migrateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "teamprojectcollection",
			Aliases:  []string{"p"},
			Usage:    "Project collection URI, e.g. https://tfsserver/tfs/AcmeCorp",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "tfsbranchpath",
			Aliases:  []string{"b"},
			Usage:    "TFVC server path of the branch, e.g. $/Project/Main",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "repository",
			Aliases:  []string{"r"},
			Usage:    "Destination Git repository directory (created when missing)",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "continueonerror",
			Usage: "Report a failed job and carry on instead of aborting",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file (default: " + config.FileName + " in the working or home directory)",
		},
		&cli.StringFlag{
			Name:  "journal",
			Usage: "Path to the migration journal database",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Personal access token for the collection's REST API",
			EnvVars: []string{config.EnvToken},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Run report format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Run report file path (default: stdout)",
		},
		&cli.BoolFlag{
			Name:  "prompt-token",
			Usage: "Read the personal access token from the terminal",
		},
	}
}

// migrateAction runs the single migration job described by the flags.
func migrateAction(c *cli.Context) error {
	if c.NArg() > 0 {
		_ = cli.ShowAppHelp(c)
		return fmt.Errorf("unexpected arguments: %s", strings.Join(c.Args().Slice(), " "))
	}

	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	return cc.Migrate(c.Context)
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
