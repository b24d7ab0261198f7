package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/backend"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

const maxRecordSize = 64 << 20

var loadCommand = cli.Command{
	Name:      "load",
	Usage:     "Add documents from JSON-lines files to the index",
	ArgsUsage: "FILE... (- for stdin)",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "remove", Usage: "remove the documents instead of adding them"},
	},
	Action: runLoad,
}

func runLoad(c *cli.Context) error {
	if c.NArg() == 0 {
		return apperrors.New(apperrors.ErrInvalidArgument, "no input files specified")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := context.Background()

	dir, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	w := indexer.NewWriter(index.New(), dir, newAnalyzer(cfg), indexer.WithFlushEvery(cfg.Index.FlushEvery))
	defer w.Close()
	if err := w.Open(ctx); err != nil {
		return err
	}

	apply := w.AddDocument
	if c.Bool("remove") {
		apply = w.RemoveDocument
	}

	var total loadStats
	for _, name := range c.Args() {
		stats, err := loadFile(ctx, name, apply)
		total.applied += stats.applied
		total.skipped += stats.skipped
		if err != nil {
			return err
		}
	}
	if err := w.Flush(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d documents applied, %d skipped, index has %d documents\n",
		total.applied, total.skipped, w.Index().NumDocs())
	return nil
}

type loadStats struct {
	applied int
	skipped int
}

func loadFile(ctx context.Context, name string, apply func(context.Context, *document.Document) error) (loadStats, error) {
	var in io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return loadStats{}, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}
	stats, err := loadDocuments(ctx, in, apply)
	if err != nil {
		return stats, fmt.Errorf("loading %s: %w", name, err)
	}
	return stats, nil
}

// loadDocuments applies one document per non-empty line of r. Documents
// the index rejects are skipped; malformed lines and storage failures stop
// the load.
func loadDocuments(ctx context.Context, r io.Reader, apply func(context.Context, *document.Document) error) (loadStats, error) {
	var stats loadStats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		doc, err := document.Decode(scanner.Bytes())
		if err != nil {
			return stats, fmt.Errorf("line %d: %v", line, err)
		}
		err = apply(ctx, doc)
		if errors.Is(err, apperrors.ErrInvalidArgument) || errors.Is(err, apperrors.ErrUnknownTokenizer) {
			slog.Warn("document skipped", "line", line, "doc_id", doc.ID, "error", err)
			stats.skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		stats.applied++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading input: %w", err)
	}
	return stats, nil
}
