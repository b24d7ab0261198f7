package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/consumer"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/kafka"
)

const publishBatchSize = 100

var publishCommand = cli.Command{
	Name:      "publish",
	Usage:     "Send documents from JSON-lines files to the indexer service through Kafka",
	ArgsUsage: "FILE... (- for stdin)",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "remove", Usage: "publish remove events instead of add events"},
	},
	Action: runPublish,
}

type publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

func runPublish(c *cli.Context) error {
	if c.NArg() == 0 {
		return apperrors.New(apperrors.ErrInvalidArgument, "no input files specified")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	action := consumer.ActionAdd
	if c.Bool("remove") {
		action = consumer.ActionRemove
	}

	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	ctx := context.Background()
	published := 0
	for _, name := range c.Args() {
		n, err := publishFile(ctx, producer, name, action)
		published += n
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(c.App.Writer, "%d events published to %s\n", published, cfg.Kafka.DocumentTopic)
	return nil
}

func publishFile(ctx context.Context, p publisher, name, action string) (int, error) {
	var in io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return 0, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}
	n, err := publishDocuments(ctx, p, in, action)
	if err != nil {
		return n, fmt.Errorf("publishing %s: %w", name, err)
	}
	return n, nil
}

// publishDocuments sends one event per document read from r, in batches.
// Records are decoded first so that ids are assigned before publishing.
func publishDocuments(ctx context.Context, p publisher, r io.Reader, action string) (int, error) {
	published := 0
	batch := make([]kafka.Event, 0, publishBatchSize)
	flush := func() error {
		if err := p.PublishBatch(ctx, batch); err != nil {
			return err
		}
		published += len(batch)
		batch = batch[:0]
		return nil
	}

	_, err := loadDocuments(ctx, r, func(_ context.Context, doc *document.Document) error {
		batch = append(batch, consumer.Event(action, document.ToRecord(doc)))
		if len(batch) == publishBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return published, err
	}
	if err := flush(); err != nil {
		return published, err
	}
	return published, nil
}
