package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
)

// AttackRepository persists attack instances between the attack and damage
// calls. State transitions are compare-and-set on the stored state.
type AttackRepository struct {
	db *pgxpool.Pool
}

var _ combat.InstanceStore = (*AttackRepository)(nil)

// NewAttackRepository creates an AttackRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAttackRepository(db *pgxpool.Pool) *AttackRepository {
	return &AttackRepository{db: db}
}

// Create implements combat.InstanceStore.
func (r *AttackRepository) Create(ctx context.Context, inst combat.AttackInstance) error {
	body, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encoding attack instance: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO attack_instances (id, actor_id, state, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		inst.ID, inst.ActorID, inst.State.String(), body, inst.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("attack instance %q already exists: %w", inst.ID, err)
		}
		return fmt.Errorf("inserting attack instance: %w", err)
	}
	return nil
}

// Get implements combat.InstanceStore.
func (r *AttackRepository) Get(ctx context.Context, id string) (combat.AttackInstance, error) {
	var body []byte
	err := r.db.QueryRow(ctx, `SELECT body FROM attack_instances WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return combat.AttackInstance{}, fmt.Errorf("%w: %q", combat.ErrInstanceNotFound, id)
	}
	if err != nil {
		return combat.AttackInstance{}, fmt.Errorf("loading attack instance: %w", err)
	}
	var inst combat.AttackInstance
	if err := json.Unmarshal(body, &inst); err != nil {
		return combat.AttackInstance{}, fmt.Errorf("decoding attack instance %q: %w", id, err)
	}
	return inst, nil
}

// Advance implements combat.InstanceStore.
//
// Postcondition: the row is replaced only if its stored state equals from;
// a concurrent writer that moved it first makes this call return
// combat.ErrStaleState.
func (r *AttackRepository) Advance(ctx context.Context, inst combat.AttackInstance, from combat.State) error {
	body, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encoding attack instance: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE attack_instances
		SET state = $2, body = $3, updated_at = NOW()
		WHERE id = $1 AND state = $4`,
		inst.ID, inst.State.String(), body, from.String(),
	)
	if err != nil {
		return fmt.Errorf("advancing attack instance: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current string
	err = r.db.QueryRow(ctx, `SELECT state FROM attack_instances WHERE id = $1`, inst.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %q", combat.ErrInstanceNotFound, inst.ID)
	}
	if err != nil {
		return fmt.Errorf("reading attack instance state: %w", err)
	}
	return fmt.Errorf("%w: %q is %s, expected %s", combat.ErrStaleState, inst.ID, current, from)
}

// Expire implements combat.InstanceStore.
func (r *AttackRepository) Expire(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM attack_instances WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expiring attack instances: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
