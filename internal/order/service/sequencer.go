package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type CounterRepository interface {
	NextSequence(ctx context.Context, dayKey string) (int, error)
}

// Sequencer derives human-readable, date-scoped order numbers of the form
// ORD + YYMMDD + zero-padded sequence. The counter key is the day alone,
// so numbering is system-wide across restaurants; scoping it per
// restaurant would mean keying on day plus restaurant id.
type Sequencer struct {
	counters CounterRepository
	logger   *zap.Logger
}

func NewSequencer(counters CounterRepository, logger *zap.Logger) *Sequencer {
	return &Sequencer{
		counters: counters,
		logger:   logger,
	}
}

// Next never fails: when the counter store is unavailable it falls back to
// a timestamp-derived code so order creation is not blocked. A fallback
// collision surfaces later as a uniqueness conflict and is retried there.
func (s *Sequencer) Next(ctx context.Context, now time.Time) string {
	dayKey := now.Format("060102")

	seq, err := s.counters.NextSequence(ctx, dayKey)
	if err != nil {
		s.logger.Warn("order counter unavailable, using timestamp fallback",
			zap.String("dayKey", dayKey),
			zap.Error(err))
		return fmt.Sprintf("ORD%s%06d", dayKey, now.UnixNano()%1000000)
	}

	return fmt.Sprintf("ORD%s%03d", dayKey, seq)
}
