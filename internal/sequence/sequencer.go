// Package sequence issues gap-free, human-readable tickets ("AUD-17") per tenant and prefix.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/compliance-service/internal/persistence"
)

var (
	// ErrInvalidKey is returned for an empty tenant id or prefix.
	ErrInvalidKey = errors.New("tenant id and prefix are required")
	// ErrCounterUnavailable means the counter row vanished between a lost insert race and the
	// locked re-read, which only happens when the winning transaction rolled back. Retry.
	ErrCounterUnavailable = errors.New("ticket counter unavailable")
)

// CounterStore is the row-locked counter storage. All calls happen inside one transaction.
type CounterStore interface {
	LockSerial(ctx context.Context, tenantID, prefix string) (int64, bool, error)
	InsertFirst(ctx context.Context, tenantID, prefix string) (bool, error)
	SaveSerial(ctx context.Context, tenantID, prefix string, serial int64) error
}

// Observer receives issued serials, e.g. for metrics.
type Observer func(prefix string, serial int64)

// Sequencer hands out the next serial for a (tenant, prefix) key.
type Sequencer struct {
	tx       persistence.Transactor
	counters CounterStore
	logger   *zap.Logger
	observe  Observer
}

// Option customizes a Sequencer.
type Option func(*Sequencer)

// WithObserver registers a callback invoked after each issued serial.
func WithObserver(fn Observer) Option {
	return func(s *Sequencer) { s.observe = fn }
}

// NewSequencer builds a sequencer.
func NewSequencer(tx persistence.Transactor, counters CounterStore, logger *zap.Logger, opts ...Option) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sequencer{tx: tx, counters: counters, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Format renders a ticket.
func Format(prefix string, serial int64) string {
	return prefix + "-" + strconv.FormatInt(serial, 10)
}

// Next returns the next ticket for the key.
func (s *Sequencer) Next(ctx context.Context, tenantID, prefix string) (string, error) {
	serial, err := s.NextSerial(ctx, tenantID, prefix)
	if err != nil {
		return "", err
	}
	return Format(prefix, serial), nil
}

// NextSerial returns the next serial for the key. It joins the transaction carried by ctx,
// if any, so the serial is only consumed when that transaction commits. Failures are not
// retried here; a retry always yields a serial that was never handed out.
func (s *Sequencer) NextSerial(ctx context.Context, tenantID, prefix string) (int64, error) {
	if tenantID == "" || prefix == "" {
		return 0, ErrInvalidKey
	}
	ctx, span := otel.Tracer("compliance-service/sequence").Start(ctx, "sequence.next")
	span.SetAttributes(attribute.String("tenant_id", tenantID), attribute.String("prefix", prefix))
	defer span.End()

	var serial int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		serial, err = s.increment(ctx, tenantID, prefix)
		return err
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("ticket sequence failed",
			zap.String("tenant_id", tenantID),
			zap.String("prefix", prefix),
			zap.Error(err))
		return 0, err
	}
	if s.observe != nil {
		s.observe(prefix, serial)
	}
	return serial, nil
}

func (s *Sequencer) increment(ctx context.Context, tenantID, prefix string) (int64, error) {
	current, found, err := s.counters.LockSerial(ctx, tenantID, prefix)
	if err != nil {
		return 0, err
	}
	if !found {
		inserted, err := s.counters.InsertFirst(ctx, tenantID, prefix)
		if err != nil {
			return 0, err
		}
		if inserted {
			return 1, nil
		}
		current, found, err = s.counters.LockSerial(ctx, tenantID, prefix)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("%w: %s/%s", ErrCounterUnavailable, tenantID, prefix)
		}
	}
	next := current + 1
	if err := s.counters.SaveSerial(ctx, tenantID, prefix, next); err != nil {
		return 0, err
	}
	return next, nil
}
