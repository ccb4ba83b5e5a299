package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaetram/mobengine/internal/game/mob"
)

// ErrKillNotFound is returned when a kill lookup yields no results.
var ErrKillNotFound = errors.New("kill not found")

// KillRepository persists the boss kill ledger.
type KillRepository struct {
	db *pgxpool.Pool
}

// NewKillRepository creates a KillRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewKillRepository(db *pgxpool.Pool) *KillRepository {
	return &KillRepository{db: db}
}

// Record inserts k and returns it with ID and KilledAt set. A zero KilledAt
// is stamped by the database.
//
// Precondition: k must be non-nil with Species and Instance non-empty.
// Postcondition: Returns the stored kill, or an error.
func (r *KillRepository) Record(ctx context.Context, k *mob.Kill) (*mob.Kill, error) {
	if k == nil || k.Species == "" || k.Instance == "" {
		return nil, fmt.Errorf("recording kill: species and instance must not be empty")
	}
	var killedAt any
	if !k.KilledAt.IsZero() {
		killedAt = k.KilledAt
	}

	var out mob.Kill
	err := r.db.QueryRow(ctx, `
		INSERT INTO boss_kills (species, instance, killer, x, y, killed_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING id, species, instance, killer, x, y, killed_at`,
		k.Species, k.Instance, k.Killer, k.X, k.Y, killedAt,
	).Scan(&out.ID, &out.Species, &out.Instance, &out.Killer, &out.X, &out.Y, &out.KilledAt)
	if err != nil {
		return nil, fmt.Errorf("recording kill: %w", err)
	}
	return &out, nil
}

// Get returns the kill with the given id.
//
// Postcondition: Returns ErrKillNotFound if no such kill exists.
func (r *KillRepository) Get(ctx context.Context, id int64) (*mob.Kill, error) {
	var k mob.Kill
	err := r.db.QueryRow(ctx, `
		SELECT id, species, instance, killer, x, y, killed_at
		FROM boss_kills WHERE id = $1`, id,
	).Scan(&k.ID, &k.Species, &k.Instance, &k.Killer, &k.X, &k.Y, &k.KilledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKillNotFound
		}
		return nil, fmt.Errorf("getting kill %d: %w", id, err)
	}
	return &k, nil
}

// ListByBoss returns up to limit kills of species, newest first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns an empty slice when species has no kills.
func (r *KillRepository) ListByBoss(ctx context.Context, species string, limit int) ([]*mob.Kill, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("listing kills: limit must be > 0, got %d", limit)
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, species, instance, killer, x, y, killed_at
		FROM boss_kills
		WHERE species = $1
		ORDER BY killed_at DESC, id DESC
		LIMIT $2`, species, limit)
	if err != nil {
		return nil, fmt.Errorf("listing kills of %q: %w", species, err)
	}
	defer rows.Close()

	kills := []*mob.Kill{}
	for rows.Next() {
		var k mob.Kill
		if err := rows.Scan(&k.ID, &k.Species, &k.Instance, &k.Killer, &k.X, &k.Y, &k.KilledAt); err != nil {
			return nil, fmt.Errorf("scanning kill: %w", err)
		}
		kills = append(kills, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating kills: %w", err)
	}
	return kills, nil
}
