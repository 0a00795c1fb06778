package eventlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

// Decision is what a consumer should do with an incoming event.
type Decision int

const (
	Process Decision = iota
	Duplicate
	Gap
)

func (d Decision) String() string {
	switch d {
	case Duplicate:
		return "duplicate"
	case Gap:
		return "gap"
	default:
		return "process"
	}
}

// Verdict pairs a decision with the checkpoint it was made against.
type Verdict struct {
	Decision Decision
	Last     int64
}

// Checkpoints tracks the last processed sequence per partition for one
// consumer.
type Checkpoints struct {
	q        db.Querier
	consumer string
}

func NewCheckpoints(q db.Querier, consumer string) *Checkpoints {
	return &Checkpoints{q: q, consumer: consumer}
}

// In binds the checkpoints to tx so reads lock and writes commit with it.
func (c *Checkpoints) In(tx db.Querier) *Checkpoints {
	return &Checkpoints{q: tx, consumer: c.consumer}
}

func (c *Checkpoints) Consumer() string { return c.consumer }

// Last returns the stored checkpoint, locking the row when called inside a
// transaction. found is false before the first event of a partition.
func (c *Checkpoints) Last(ctx context.Context, partitionKey string) (last int64, found bool, err error) {
	err = c.q.QueryRow(ctx, `
		SELECT last_sequence
		FROM event_dedup_checkpoint
		WHERE consumer_name = $1 AND partition_key = $2
		FOR UPDATE
	`, c.consumer, partitionKey).Scan(&last)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read checkpoint %s/%s: %w", c.consumer, partitionKey, err)
	}
	return last, true, nil
}

// Check classifies incoming against the checkpoint. Unsequenced events
// (incoming == 0) are always processed and never touch the table.
//
// A zero checkpoint row is seeded first so the locking read always has a row
// to lock; concurrent deliveries for a new partition then queue behind the
// first transaction instead of both reading "no row".
func (c *Checkpoints) Check(ctx context.Context, partitionKey string, incoming int64) (Verdict, error) {
	if incoming == 0 {
		return Verdict{Decision: Process}, nil
	}
	if err := c.seed(ctx, partitionKey); err != nil {
		return Verdict{}, err
	}
	last, found, err := c.Last(ctx, partitionKey)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Decision: classify(incoming, last, found), Last: last}, nil
}

func (c *Checkpoints) seed(ctx context.Context, partitionKey string) error {
	if _, err := c.q.Exec(ctx, `
		INSERT INTO event_dedup_checkpoint (consumer_name, partition_key, last_sequence)
		VALUES ($1, $2, 0)
		ON CONFLICT (consumer_name, partition_key) DO NOTHING
	`, c.consumer, partitionKey); err != nil {
		return fmt.Errorf("seed checkpoint %s/%s: %w", c.consumer, partitionKey, err)
	}
	return nil
}

// Advance records seq as processed. The checkpoint never moves backwards and
// a zero seq is ignored.
func (c *Checkpoints) Advance(ctx context.Context, partitionKey string, seq int64) error {
	if seq == 0 {
		return nil
	}
	if _, err := c.q.Exec(ctx, `
		INSERT INTO event_dedup_checkpoint AS c (consumer_name, partition_key, last_sequence)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer_name, partition_key)
		DO UPDATE SET last_sequence = GREATEST(c.last_sequence, EXCLUDED.last_sequence), updated_at = now()
	`, c.consumer, partitionKey, seq); err != nil {
		return fmt.Errorf("advance checkpoint %s/%s: %w", c.consumer, partitionKey, err)
	}
	return nil
}

func classify(incoming, last int64, found bool) Decision {
	switch {
	case !found, last == 0:
		return Process
	case incoming <= last:
		return Duplicate
	case incoming > last+1:
		return Gap
	default:
		return Process
	}
}
