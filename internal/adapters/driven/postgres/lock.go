package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// Lock implements DistributedLock on the locks table. Unlike session-level
// advisory locks it honours the TTL and survives pooled connections being
// swapped between Acquire and Release.
type Lock struct {
	db      *DB
	ownerID string
}

// NewLock creates a new PostgreSQL-backed lock.
func NewLock(db *DB) *Lock {
	hostname, _ := os.Hostname()
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return &Lock{
		db:      db,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(b)),
	}
}

// Acquire inserts the lock row, or takes over a row whose TTL has passed.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO locks (name, owner, expires_at)
		VALUES ($1, $2, NOW() + make_interval(secs => $3))
		ON CONFLICT (name) DO UPDATE SET
			owner = EXCLUDED.owner,
			expires_at = EXCLUDED.expires_at
		WHERE locks.expires_at <= NOW()
		RETURNING owner
	`

	var owner string
	err := l.db.QueryRowContext(ctx, query, name, l.ownerID, ttl.Seconds()).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return owner == l.ownerID, nil
}

// Release deletes the lock row if this instance owns it.
func (l *Lock) Release(ctx context.Context, name string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM locks WHERE name = $1 AND owner = $2`, name, l.ownerID)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
