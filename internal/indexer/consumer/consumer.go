// Package consumer applies document events read from Kafka to an index
// writer.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/metrics"
)

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Message outcomes recorded in metrics.
const (
	StatusIndexed  = "indexed"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// DocumentEvent is the payload of a message on the document topic. Remove
// events must carry the document as it was indexed.
type DocumentEvent struct {
	Action   string          `json:"action"`
	Document document.Record `json:"document"`
}

// Event wraps a DocumentEvent for publishing, keyed by document id.
func Event(action string, rec document.Record) kafka.Event {
	return kafka.Event{Key: rec.ID, Value: DocumentEvent{Action: action, Document: rec}}
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// CommitHandled commits the offsets of events applied so far. Call it once
// they are flushed.
func (ic *IndexConsumer) CommitHandled(ctx context.Context) error {
	return ic.consumer.CommitHandled(ctx)
}

func (ic *IndexConsumer) Close() error {
	return ic.consumer.Close()
}

// HandleMessage returns a Kafka MessageHandler that applies each document
// event to w. Events that can never succeed (malformed, unknown action,
// rejected document) are logged and acknowledged; other failures are
// returned so the message is not committed.
func HandleMessage(w *indexer.Writer, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event", "error", err, "key", string(key))
			m.MessageConsumed("unknown", StatusRejected)
			return nil
		}
		doc, err := event.Document.Document()
		if err != nil {
			logger.Error("invalid document in event", "error", err, "key", string(key))
			m.MessageConsumed(event.Action, StatusRejected)
			return nil
		}

		switch event.Action {
		case ActionAdd:
			err = w.AddDocument(ctx, doc)
		case ActionRemove:
			if doc.ID == "" {
				err = apperrors.New(apperrors.ErrInvalidArgument, "remove event without document id")
			} else {
				err = w.RemoveDocument(ctx, doc)
			}
		default:
			logger.Warn("unknown document action", "action", event.Action, "key", string(key))
			m.MessageConsumed(event.Action, StatusRejected)
			return nil
		}

		if errors.Is(err, apperrors.ErrInvalidArgument) || errors.Is(err, apperrors.ErrUnknownTokenizer) {
			logger.Warn("document event rejected", "action", event.Action, "doc_id", doc.ID, "error", err)
			m.MessageConsumed(event.Action, StatusRejected)
			return nil
		}
		if err != nil {
			m.MessageConsumed(event.Action, StatusFailed)
			return fmt.Errorf("applying %s of document %s: %w", event.Action, doc.ID, err)
		}

		m.MessageConsumed(event.Action, StatusIndexed)
		logger.Debug("document event applied", "action", event.Action, "doc_id", doc.ID)
		return nil
	}
}
