package repo

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("basket not found")

// Postgres persiste cestas e pernas nas tabelas baskets e basket_legs.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateBasket grava cesta e pernas atomicamente.
func (p *Postgres) CreateBasket(ctx context.Context, b *Basket) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO baskets (id, user_id, kind, total_stake, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.UserID, b.Kind, b.TotalStake, b.Status, b.CreatedAt,
	); err != nil {
		return err
	}

	for _, leg := range b.Legs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO basket_legs (basket_id, match_id, selection, odds)
			VALUES ($1,$2,$3,$4)`,
			b.ID, leg.MatchID, leg.Selection, leg.Odds,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *Postgres) GetBasket(ctx context.Context, id string) (*Basket, error) {
	var b Basket
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, total_stake, status, created_at
		FROM baskets WHERE id=$1`, id,
	).Scan(&b.ID, &b.UserID, &b.Kind, &b.TotalStake, &b.Status, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	legs, err := p.legsOf(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Legs = legs
	return &b, nil
}

// Validate flipa in_progress -> validated exatamente uma vez.
// Retorna false se a cesta já foi validada.
func (p *Postgres) Validate(ctx context.Context, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE baskets SET status=$1 WHERE id=$2 AND status=$3`,
		StatusValidated, id, StatusInProgress)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *Postgres) ListByUser(ctx context.Context, userID string) ([]Basket, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, kind, total_stake, status, created_at
		FROM baskets WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Basket
	for rows.Next() {
		var b Basket
		if err := rows.Scan(&b.ID, &b.UserID, &b.Kind, &b.TotalStake, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		legs, err := p.legsOf(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Legs = legs
	}
	return out, nil
}

func (p *Postgres) legsOf(ctx context.Context, basketID string) ([]Leg, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT match_id, selection, odds FROM basket_legs WHERE basket_id=$1 ORDER BY id`, basketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var legs []Leg
	for rows.Next() {
		var l Leg
		if err := rows.Scan(&l.MatchID, &l.Selection, &l.Odds); err != nil {
			return nil, err
		}
		legs = append(legs, l)
	}
	return legs, rows.Err()
}
