package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/beadwork/bead/internal/config"
	"github.com/beadwork/bead/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "bead",
		Usage:                  "Manage content-addressed computation archives",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: per-user config dir)",
			},
		},
		Commands: []*cli.Command{
			boxCommand(),
			newCommand(),
			saveCommand(),
			inputCommand(),
			searchCommand(),
			webCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// environment loads the box registry named by --config, or the default one.
func environment(c *cli.Context) (string, *config.Config, error) {
	path := c.String("config")
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return "", nil, err
		}
	}
	cfg, err := config.Load(path)
	return path, cfg, err
}

// now returns the freeze instant for store operations.
func now() time.Time {
	return time.Now().UTC()
}
