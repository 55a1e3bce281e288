package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/beadwork/bead/internal/box"
	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/workspace"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a new workspace directory for a new bead",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: bead new NAME")
			}
			dir := c.Args().Get(0)
			if _, err := os.Stat(dir); err == nil {
				return fmt.Errorf("%s already exists", dir)
			}
			ws, err := workspace.Create(dir, workspace.NewKind())
			if err != nil {
				return err
			}
			fmt.Printf("Created %q\n", ws.Name())
			return nil
		},
	}
}

func saveCommand() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Freeze the current workspace into a box",
		ArgsUsage: "BOX",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "workspace",
				Usage: "Workspace directory",
				Value: ".",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: bead save BOX")
			}
			b, err := namedBox(c, c.Args().Get(0))
			if err != nil {
				return err
			}
			ws, err := workspace.Open(c.String("workspace"))
			if err != nil {
				return err
			}
			path, err := b.Store(ws, now())
			if err != nil {
				return err
			}
			fmt.Printf("Successfully stored %s\n", path)
			return nil
		},
	}
}

func inputCommand() *cli.Command {
	return &cli.Command{
		Name:  "input",
		Usage: "Manage workspace input references",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Record the newest bead with the given name as an input",
				ArgsUsage: "ALIAS BEAD-NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Value: "."},
					&cli.StringFlag{Name: "box", Usage: "Restrict the lookup to one box"},
				},
				Action: inputAdd,
			},
			{
				Name:      "delete",
				Usage:     "Remove an input reference",
				ArgsUsage: "ALIAS",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Value: "."},
				},
				Action: inputDelete,
			},
		},
	}
}

func inputAdd(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: bead input add ALIAS BEAD-NAME")
	}
	alias, beadName := c.Args().Get(0), c.Args().Get(1)

	boxes, err := allBoxes(c)
	if err != nil {
		return err
	}
	found, err := box.SearchBoxes(boxes).ByName(beadName).Newest()
	if err != nil {
		return err
	}

	ws, err := workspace.Open(c.String("workspace"))
	if err != nil {
		return err
	}
	if err := ws.SetInput(meta.InputSpec{
		Name:          alias,
		Kind:          found.Kind,
		ContentID:     found.ContentID,
		FreezeTimeStr: found.FreezeTimeStr,
	}); err != nil {
		return err
	}
	fmt.Printf("Input %q now references %s (%s)\n", alias, found.Name, found.FreezeTimeStr)
	return nil
}

func inputDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: bead input delete ALIAS")
	}
	ws, err := workspace.Open(c.String("workspace"))
	if err != nil {
		return err
	}
	return ws.DeleteInput(c.Args().Get(0))
}

// namedBox opens one registered box.
func namedBox(c *cli.Context, name string) (*box.Box, error) {
	_, cfg, err := environment(c)
	if err != nil {
		return nil, err
	}
	def, ok := cfg.Box(name)
	if !ok {
		return nil, fmt.Errorf("unknown box %q", name)
	}
	return box.New(def.Name, def.Directory), nil
}

// allBoxes opens every registered box, or only the one named by --box.
func allBoxes(c *cli.Context) ([]*box.Box, error) {
	_, cfg, err := environment(c)
	if err != nil {
		return nil, err
	}
	if only := c.String("box"); only != "" {
		b, err := namedBox(c, only)
		if err != nil {
			return nil, err
		}
		return []*box.Box{b}, nil
	}
	boxes := make([]*box.Box, 0, len(cfg.Boxes))
	for _, def := range cfg.Boxes {
		dir := def.Directory
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		boxes = append(boxes, box.New(def.Name, dir))
	}
	return boxes, nil
}
