package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/beadwork/bead/internal/box"
	"github.com/beadwork/bead/internal/boxindex"
	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/watch"
	"github.com/beadwork/bead/internal/web"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "List beads matching the given filters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "box", Usage: "Restrict to one box"},
			&cli.StringFlag{Name: "name", Usage: "Filter by bead name"},
			&cli.StringFlag{Name: "kind", Usage: "Filter by kind"},
			&cli.StringFlag{Name: "content-id", Usage: "Filter by content id"},
			&cli.StringFlag{Name: "newer-than", Usage: "Filter by freeze time (exclusive lower bound)"},
			&cli.StringFlag{Name: "older-than", Usage: "Filter by freeze time (exclusive upper bound)"},
			&cli.BoolFlag{Name: "unique", Usage: "Keep one bead per content id"},
		},
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	boxes, err := allBoxes(c)
	if err != nil {
		return err
	}

	s := box.SearchBoxes(boxes)
	if name := c.String("name"); name != "" {
		s = s.ByName(name)
	}
	if kind := c.String("kind"); kind != "" {
		s = s.ByKind(kind)
	}
	if contentID := c.String("content-id"); contentID != "" {
		s = s.ByContentID(contentID)
	}
	if spec := c.String("newer-than"); spec != "" {
		t, err := meta.ParseTimestamp(spec)
		if err != nil {
			return err
		}
		s = s.NewerThan(t)
	}
	if spec := c.String("older-than"); spec != "" {
		t, err := meta.ParseTimestamp(spec)
		if err != nil {
			return err
		}
		s = s.OlderThan(t)
	}
	if c.Bool("unique") {
		s = s.Unique()
	}

	beads, err := s.All()
	if err != nil {
		return err
	}
	for _, b := range beads {
		fmt.Printf("%s\t%s\t%s\t%.16s\n", b.BoxName, b.Name, b.FreezeTimeStr, b.ContentID)
	}
	return nil
}

func webCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Render the provenance graph of all known beads as DOT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "box", Usage: "Restrict to one box"},
			&cli.StringSliceFlag{Name: "source", Usage: "Keep only clusters reachable from these names"},
			&cli.StringSliceFlag{Name: "sink", Usage: "Keep only clusters leading to these names"},
			&cli.BoolFlag{Name: "heads", Usage: "Show only cluster heads and their inputs"},
			&cli.BoolFlag{Name: "simplify", Usage: "Drop unconnected clusters"},
		},
		Action: webAction,
	}
}

func webAction(c *cli.Context) error {
	boxes, err := allBoxes(c)
	if err != nil {
		return err
	}

	var all []meta.Bead
	for _, b := range boxes {
		beads, err := b.AllBeads()
		if err != nil {
			return err
		}
		all = append(all, beads...)
	}

	sketch := web.FromMetaBeads(all)
	if sources := c.StringSlice("source"); len(sources) > 0 {
		sketch = sketch.SetSources(sources)
	}
	if sinks := c.StringSlice("sink"); len(sinks) > 0 {
		sketch = sketch.SetSinks(sinks)
	}
	if c.Bool("simplify") {
		sketch = sketch.Simplify()
	}
	if _, err := sketch.ColorBeads(); err != nil {
		return err
	}
	if c.Bool("heads") {
		sketch = sketch.Heads()
	}

	fmt.Print(sketch.AsDot())
	return nil
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Keep a box's index in sync with filesystem changes",
		ArgsUsage: "BOX",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "debounce-ms", Value: 500, Usage: "Debounce for filesystem events"},
		},
		Action: watchAction,
	}
}

func watchAction(c *cli.Context) error {
	ix, err := namedBoxIndex(c)
	if err != nil {
		return err
	}
	_, cfg, err := environment(c)
	if err != nil {
		return err
	}
	def, _ := cfg.Box(c.Args().Get(0))

	w := watch.New(def.Directory, ix, time.Duration(c.Int("debounce-ms"))*time.Millisecond)
	w.OnProgress = func(p boxindex.Progress) {
		fmt.Printf("synced [%d/%d] %s\n", p.Processed, p.Total, p.Path)
	}
	w.OnError = func(err error) {
		fmt.Fprintln(os.Stderr, "watch:", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Printf("Watching %s (ctrl-c to stop)\n", def.Directory)
	return w.Run(ctx)
}
