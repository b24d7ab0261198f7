package main

import (
	"context"
	"fmt"

	"gopkg.in/urfave/cli.v1"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/backend"
)

var resetCommand = cli.Command{
	Name:   "reset",
	Usage:  "Delete everything persisted for the index",
	Action: runReset,
}

func runReset(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := context.Background()
	dir, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer dir.Close()
	if err := dir.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "index %s reset\n", cfg.Index.Path)
	return nil
}
