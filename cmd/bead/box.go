package main

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/beadwork/bead/internal/boxindex"
	"github.com/beadwork/bead/internal/config"
)

func boxCommand() *cli.Command {
	return &cli.Command{
		Name:  "box",
		Usage: "Manage bead boxes",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Register a directory as a box",
				ArgsUsage: "NAME DIRECTORY",
				Action:    boxAdd,
			},
			{
				Name:      "forget",
				Usage:     "Remove a box from the registry (files are kept)",
				ArgsUsage: "NAME",
				Action:    boxForget,
			},
			{
				Name:   "list",
				Usage:  "List registered boxes",
				Action: boxList,
			},
			{
				Name:      "rebuild",
				Usage:     "Rebuild a box's index from its archives",
				ArgsUsage: "NAME",
				Action:    boxRebuild,
			},
			{
				Name:      "sync",
				Usage:     "Reconcile a box's index with its archives",
				ArgsUsage: "NAME",
				Action:    boxSync,
			},
		},
	}
}

func boxAdd(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: bead box add NAME DIRECTORY")
	}
	name, dir := c.Args().Get(0), c.Args().Get(1)

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", abs)
	}

	path, cfg, err := environment(c)
	if err != nil {
		return err
	}
	if err := cfg.AddBox(name, abs); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Box %q added: %s\n", name, abs)
	return nil
}

func boxForget(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: bead box forget NAME")
	}
	name := c.Args().Get(0)

	path, cfg, err := environment(c)
	if err != nil {
		return err
	}
	if !cfg.ForgetBox(name) {
		return fmt.Errorf("unknown box %q", name)
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Box %q forgotten\n", name)
	return nil
}

func boxList(c *cli.Context) error {
	_, cfg, err := environment(c)
	if err != nil {
		return err
	}
	if len(cfg.Boxes) == 0 {
		fmt.Println("There are no defined boxes")
		return nil
	}
	for _, b := range cfg.Boxes {
		fmt.Printf("%s: %s\n", b.Name, b.Directory)
	}
	return nil
}

func boxRebuild(c *cli.Context) error {
	ix, err := namedBoxIndex(c)
	if err != nil {
		return err
	}
	return runWithProgress(ix.Rebuild())
}

func boxSync(c *cli.Context) error {
	ix, err := namedBoxIndex(c)
	if err != nil {
		return err
	}
	return runWithProgress(ix.Sync())
}

func namedBoxIndex(c *cli.Context) (*boxindex.Index, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one box name")
	}
	name := c.Args().Get(0)
	_, cfg, err := environment(c)
	if err != nil {
		return nil, err
	}
	def, ok := cfg.Box(name)
	if !ok {
		return nil, fmt.Errorf("unknown box %q", name)
	}
	return boxindex.New(def.Directory), nil
}

func runWithProgress(stream iter.Seq2[boxindex.Progress, error]) error {
	for p, err := range stream {
		if err != nil {
			return err
		}
		status := "ok"
		if p.Err != nil {
			status = p.Err.Error()
		}
		fmt.Printf("[%d/%d] %s: %s\n", p.Processed, p.Total, p.Path, status)
		if p.Processed == p.Total && p.ErrorCount > 0 {
			fmt.Printf("%d files failed\n", p.ErrorCount)
		}
	}
	return nil
}
