package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
)

// ActorRepository persists actors, their items and active effects.
// Items are stored one row each with a JSONB body keyed by kind.
type ActorRepository struct {
	db *pgxpool.Pool
}

var _ combat.Store = (*ActorRepository)(nil)

// NewActorRepository creates an ActorRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewActorRepository(db *pgxpool.Pool) *ActorRepository {
	return &ActorRepository{db: db}
}

type itemRow struct {
	id   string
	kind inventory.ItemKind
	body []byte
}

func itemRows(a *inventory.Actor) ([]itemRow, error) {
	var rows []itemRow
	add := func(id string, kind inventory.ItemKind, v any) error {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s %q: %w", kind, id, err)
		}
		rows = append(rows, itemRow{id: id, kind: kind, body: body})
		return nil
	}
	for _, w := range a.Weapons {
		if err := add(w.ID, inventory.KindWeapon, w); err != nil {
			return nil, err
		}
	}
	for _, s := range a.Skills {
		if err := add(s.ID, inventory.KindSkill, s); err != nil {
			return nil, err
		}
	}
	for _, r := range a.Runes {
		if err := add(r.ID, inventory.KindRune, r); err != nil {
			return nil, err
		}
	}
	for _, h := range a.HitLocations {
		if err := add(h.ID, inventory.KindHitLocation, h); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// decodeItem appends the item encoded in body to a.
func decodeItem(a *inventory.Actor, kind inventory.ItemKind, body []byte) error {
	var err error
	switch kind {
	case inventory.KindWeapon:
		var w inventory.Weapon
		if err = json.Unmarshal(body, &w); err == nil {
			a.Weapons = append(a.Weapons, w)
		}
	case inventory.KindSkill:
		var s inventory.Skill
		if err = json.Unmarshal(body, &s); err == nil {
			a.Skills = append(a.Skills, s)
		}
	case inventory.KindRune:
		var r inventory.Rune
		if err = json.Unmarshal(body, &r); err == nil {
			a.Runes = append(a.Runes, r)
		}
	case inventory.KindHitLocation:
		var h inventory.HitLocation
		if err = json.Unmarshal(body, &h); err == nil {
			a.HitLocations = append(a.HitLocations, h)
		}
	default:
		return fmt.Errorf("unknown item kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", kind, err)
	}
	return nil
}

// Save inserts or fully replaces an actor with its items and effects.
//
// Precondition: a.Validate() == nil.
// Postcondition: a later Actor(a.ID) returns an equal actor.
func (r *ActorRepository) Save(ctx context.Context, a *inventory.Actor) error {
	rows, err := itemRows(a)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
		INSERT INTO actors (id, name, damage_bonus) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, damage_bonus = EXCLUDED.damage_bonus, updated_at = NOW()`,
		a.ID, a.Name, a.DamageBonus,
	); err != nil {
		return fmt.Errorf("upserting actor: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM actor_items WHERE actor_id = $1`, a.ID); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM active_effects WHERE actor_id = $1`, a.ID); err != nil {
		return fmt.Errorf("clearing effects: %w", err)
	}

	batch := &pgx.Batch{}
	for i, row := range rows {
		batch.Queue(`
			INSERT INTO actor_items (actor_id, item_id, kind, position, body)
			VALUES ($1, $2, $3, $4, $5)`,
			a.ID, row.id, string(row.kind), i, row.body)
	}
	for i, e := range a.Effects {
		batch.Queue(`
			INSERT INTO active_effects (actor_id, effect_id, origin, key, value, disabled, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, e.ID, e.Origin, e.Key, e.Value, e.Disabled, i)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("actor %q has duplicate item or effect ids: %w", a.ID, err)
			}
			return fmt.Errorf("inserting items: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Actor implements combat.Store.
func (r *ActorRepository) Actor(ctx context.Context, id string) (*inventory.Actor, error) {
	a := &inventory.Actor{ID: id}
	err := r.db.QueryRow(ctx, `SELECT name, damage_bonus FROM actors WHERE id = $1`, id).
		Scan(&a.Name, &a.DamageBonus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", combat.ErrActorNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading actor: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT kind, body FROM actor_items WHERE actor_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind string
			body []byte
		)
		if err := rows.Scan(&kind, &body); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if err := decodeItem(a, inventory.ItemKind(kind), body); err != nil {
			return nil, fmt.Errorf("actor %q: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	effects, err := r.db.Query(ctx, `
		SELECT effect_id, origin, key, value, disabled
		FROM active_effects WHERE actor_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("loading effects: %w", err)
	}
	defer effects.Close()
	for effects.Next() {
		var e inventory.ActiveEffect
		if err := effects.Scan(&e.ID, &e.Origin, &e.Key, &e.Value, &e.Disabled); err != nil {
			return nil, fmt.Errorf("scanning effect: %w", err)
		}
		a.Effects = append(a.Effects, e)
	}
	if err := effects.Err(); err != nil {
		return nil, fmt.Errorf("iterating effects: %w", err)
	}
	return a, nil
}

// UpdateItems implements combat.Store. Each touched row is locked for the
// duration of the transaction; either every update applies or none does.
func (r *ActorRepository) UpdateItems(ctx context.Context, actorID string, updates []inventory.ItemUpdate) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM actors WHERE id = $1)`, actorID).Scan(&exists); err != nil {
		return fmt.Errorf("checking actor: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %q", combat.ErrActorNotFound, actorID)
	}

	for _, u := range updates {
		var (
			kind string
			body []byte
		)
		err := tx.QueryRow(ctx, `
			SELECT kind, body FROM actor_items
			WHERE actor_id = $1 AND item_id = $2 FOR UPDATE`,
			actorID, u.ItemID,
		).Scan(&kind, &body)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %q on actor %q", inventory.ErrItemNotFound, u.ItemID, actorID)
		}
		if err != nil {
			return fmt.Errorf("loading item %q: %w", u.ItemID, err)
		}

		scratch := &inventory.Actor{ID: actorID}
		if err := decodeItem(scratch, inventory.ItemKind(kind), body); err != nil {
			return err
		}
		if err := scratch.Apply(u); err != nil {
			return err
		}
		next, err := itemRows(scratch)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE actor_items SET body = $3 WHERE actor_id = $1 AND item_id = $2`,
			actorID, u.ItemID, next[0].body,
		); err != nil {
			return fmt.Errorf("updating item %q: %w", u.ItemID, err)
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE actors SET updated_at = NOW() WHERE id = $1`, actorID); err != nil {
		return fmt.Errorf("touching actor: %w", err)
	}
	return tx.Commit(ctx)
}

// ConsumeItem implements combat.Store with a single conditional UPDATE, so
// concurrent draws on one stock serialize on the row and never go below 0.
func (r *ActorRepository) ConsumeItem(ctx context.Context, actorID, itemID string) (int, error) {
	var after int
	err := r.db.QueryRow(ctx, `
		UPDATE actor_items
		SET body = jsonb_set(body, '{quantity}', to_jsonb((body->>'quantity')::int - 1))
		WHERE actor_id = $1 AND item_id = $2 AND kind = $3
		  AND (body->>'quantity')::int > 0
		RETURNING (body->>'quantity')::int`,
		actorID, itemID, string(inventory.KindWeapon),
	).Scan(&after)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q on actor %q", combat.ErrItemDepleted, itemID, actorID)
	}
	if err != nil {
		return 0, fmt.Errorf("consuming item %q: %w", itemID, err)
	}
	return after, nil
}

// DeleteEffects implements combat.Store.
func (r *ActorRepository) DeleteEffects(ctx context.Context, actorID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		DELETE FROM active_effects WHERE actor_id = $1 AND effect_id = ANY($2)`,
		actorID, ids)
	if err != nil {
		return fmt.Errorf("deleting effects: %w", err)
	}
	return nil
}

// ListIDs returns every actor id in ascending order.
func (r *ActorRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM actors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing actors: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// isDuplicateKeyError reports whether err is a unique_violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
