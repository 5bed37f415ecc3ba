package repo

import (
	"context"
	"database/sql"

	"github.com/soutodev/wager-platform/internal/wager-service/core"
)

// Postgres implementa core.Repo sobre as tabelas wagers e wager_groups.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const wagerColumns = `id, user_id, match_id, selection, stake, odds, potential_payout,
	status, COALESCE(group_id,''), cancelled, COALESCE(cancellation_reason,''), created_at`

func scanWager(row interface{ Scan(...any) error }) (*core.Wager, error) {
	var w core.Wager
	var selection, status string
	err := row.Scan(&w.ID, &w.UserID, &w.MatchID, &selection, &w.Stake, &w.Odds,
		&w.PotentialPayout, &status, &w.GroupID, &w.Cancelled, &w.CancellationReason, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	w.Selection = core.Selection(selection)
	w.Status = core.Status(status)
	return &w, nil
}

// CreateWager insere uma aposta simples pendente.
func (p *Postgres) CreateWager(ctx context.Context, w *core.Wager) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO wagers (id, user_id, match_id, selection, stake, odds, potential_payout, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		w.ID, w.UserID, w.MatchID, string(w.Selection), w.Stake, w.Odds,
		w.PotentialPayout, string(w.Status), w.CreatedAt,
	)
	return err
}

func (p *Postgres) GetWager(ctx context.Context, id string) (*core.Wager, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE id=$1`, id)
	w, err := scanWager(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	return w, err
}

func (p *Postgres) ListByUser(ctx context.Context, userID string) ([]core.Wager, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWagers(rows)
}

// PendingByMatch retorna as apostas ainda pendentes de uma partida.
func (p *Postgres) PendingByMatch(ctx context.Context, matchID string) ([]core.Wager, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE match_id=$1 AND status='pending'`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWagers(rows)
}

func collectWagers(rows *sql.Rows) ([]core.Wager, error) {
	var out []core.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// SettleWager transiciona pending -> won|lost. Retorna false se a aposta já
// saiu de pending (liquidação concorrente ou anulação).
func (p *Postgres) SettleWager(ctx context.Context, id string, status core.Status) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE wagers SET status=$1 WHERE id=$2 AND status='pending'`, string(status), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CancelWager marca a aposta como anulada com o motivo informado.
func (p *Postgres) CancelWager(ctx context.Context, id, reason string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE wagers SET status='cancelled', cancelled=TRUE, cancellation_reason=NULLIF($1,'')
		WHERE id=$2 AND status='pending'`, reason, id)
	return err
}

// CreateGroup grava grupo e pernas atomicamente.
func (p *Postgres) CreateGroup(ctx context.Context, g *core.Group) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wager_groups (id, user_id, stake, combined_odds, potential_payout, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		g.ID, g.UserID, g.Stake, g.CombinedOdds, g.PotentialPayout, string(g.Status), g.CreatedAt,
	); err != nil {
		return err
	}

	for i := range g.Legs {
		leg := &g.Legs[i]
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO wagers (id, user_id, match_id, selection, stake, odds, potential_payout, status, group_id, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			leg.ID, leg.UserID, leg.MatchID, string(leg.Selection), leg.Stake, leg.Odds,
			leg.PotentialPayout, string(leg.Status), g.ID, leg.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetGroup carrega o grupo com todas as pernas.
func (p *Postgres) GetGroup(ctx context.Context, id string) (*core.Group, error) {
	var g core.Group
	var status string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, stake, combined_odds, potential_payout, status, created_at
		FROM wager_groups WHERE id=$1`, id,
	).Scan(&g.ID, &g.UserID, &g.Stake, &g.CombinedOdds, &g.PotentialPayout, &status, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.Status = core.Status(status)

	rows, err := p.db.QueryContext(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE group_id=$1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	g.Legs, err = collectWagers(rows)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// SettleGroup transiciona o grupo a partir de pending.
func (p *Postgres) SettleGroup(ctx context.Context, id string, status core.Status) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE wager_groups SET status=$1 WHERE id=$2 AND status='pending'`, string(status), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CancelGroup cascateia a anulação para o grupo dono da perna.
func (p *Postgres) CancelGroup(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE wager_groups SET status='cancelled' WHERE id=$1 AND status='pending'`, id)
	return err
}
