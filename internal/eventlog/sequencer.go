// Package eventlog keeps both ends of per-partition event ordering: the
// sequence numbers stamped on outgoing events and the checkpoints consumers
// use to drop redeliveries.
package eventlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var ErrEmptyPartition = errors.New("partition key is required")

// Sequencer allocates gap-free sequences per partition. Allocation is a
// single upsert, so concurrent publishers never share a number.
type Sequencer struct {
	q db.Querier
}

func NewSequencer(q db.Querier) *Sequencer {
	return &Sequencer{q: q}
}

// NextSequence returns 1 for a new partition and last+1 afterwards.
func (s *Sequencer) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, ErrEmptyPartition
	}
	var next int64
	if err := s.q.QueryRow(ctx, `
		INSERT INTO event_sequence AS s (partition_key, last_sequence)
		VALUES ($1, 1)
		ON CONFLICT (partition_key)
		DO UPDATE SET last_sequence = s.last_sequence + 1, updated_at = now()
		RETURNING s.last_sequence
	`, partitionKey).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocate sequence for %s: %w", partitionKey, err)
	}
	return next, nil
}
