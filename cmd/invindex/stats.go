package main

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/backend"
)

var statsCommand = cli.Command{
	Name:   "stats",
	Usage:  "Print the counters and fields of the index",
	Action: runStats,
}

func runStats(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := context.Background()
	dir, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	r := searcher.NewReader(index.New(), dir, newAnalyzer(cfg))
	defer r.Close()
	if err := r.Open(ctx); err != nil {
		return err
	}

	idx := r.Index()
	fmt.Fprintf(c.App.Writer, "documents: %d\n", idx.NumDocs())
	fmt.Fprintf(c.App.Writer, "terms:     %d\n", idx.NumTerms())
	fmt.Fprintf(c.App.Writer, "indexed:   %s\n", strings.Join(idx.FieldNames(document.OptionIndexed), ", "))
	fmt.Fprintf(c.App.Writer, "stored:    %s\n", strings.Join(idx.FieldNames(document.OptionStored), ", "))
	return nil
}
