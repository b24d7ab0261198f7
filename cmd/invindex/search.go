package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/backend"
)

var searchCommand = cli.Command{
	Name:      "search",
	Usage:     "Search a field of the index",
	ArgsUsage: "TERM...",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "field, f", Usage: "field to search (default from config)"},
		cli.IntFlag{Name: "limit, n", Usage: "maximum number of hits to print, 0 for all"},
	},
	Action: runSearch,
}

func runSearch(c *cli.Context) error {
	if c.NArg() == 0 {
		fmt.Fprintln(c.App.Writer, "No query term specified!")
		return nil
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	field := c.String("field")
	if field == "" {
		field = cfg.Search.DefaultField
	}
	term := strings.Join(c.Args(), " ")
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

	hits, err := r.Query(ctx, field, term)
	if err != nil {
		return err
	}
	printHits(c.App.Writer, hits.Top(c.Int("limit")), len(hits), term, cfg.Search.TitleField)
	return nil
}

// printHits lists hits best-first, labelling each with its stored title
// or, lacking one, its document id.
func printHits(out io.Writer, hits ranker.Hits, total int, term, titleField string) {
	if total == 0 {
		fmt.Fprintf(out, "No documents found matching the term %s\n", term)
		return
	}
	fmt.Fprintf(out, "%d Documents found matching the term %s:\n", total, term)
	for i, h := range hits {
		label := h.DocID()
		if f, ok := h.Document.Field(titleField); ok {
			label = f.Data
		}
		fmt.Fprintf(out, "%d - %f - %s\n", i+1, h.Score, label)
	}
}
