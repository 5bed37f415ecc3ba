package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/soutodev/wager-platform/internal/ledger-service/core"
)

// Postgres implementa core.Store sobre as tabelas balances e transactions.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateBalance insere o registro de saldo zerado do usuário.
func (p *Postgres) CreateBalance(ctx context.Context, userID, role string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO balances (user_id, role, amount, version)
		VALUES ($1, $2, 0, 1)`,
		userID, role,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return core.ErrExists
		}
		return err
	}
	return nil
}

// GetBalance retorna saldo e papel do usuário.
func (p *Postgres) GetBalance(ctx context.Context, userID string) (decimal.Decimal, string, error) {
	var amount decimal.Decimal
	var role string
	err := p.db.QueryRowContext(ctx,
		`SELECT amount, role FROM balances WHERE user_id=$1`, userID,
	).Scan(&amount, &role)
	if err == sql.ErrNoRows {
		return decimal.Zero, "", core.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, "", err
	}
	return amount, role, nil
}

// ApplyEffect executa o ajuste numa única transação de banco:
// lock pessimista da linha do saldo, insert da transação (reference única,
// duplicada vira no-op) e aplicação do delta. Serializa ajustes concorrentes
// do mesmo usuário via FOR UPDATE.
func (p *Postgres) ApplyEffect(ctx context.Context, userID string, kind core.Kind, signedAmount decimal.Decimal, reference string) (decimal.Decimal, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, false, err
	}
	defer tx.Rollback()

	var current decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT amount FROM balances WHERE user_id=$1 FOR UPDATE`, userID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, core.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	// Idempotência: reference única; conflito significa efeito já aplicado
	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, kind, amount, reference, status)
		VALUES ($1,$2,$3,$4,$5,'confirmed')
		ON CONFLICT (reference) DO NOTHING`,
		uuid.NewString(), userID, string(kind), signedAmount, reference,
	)
	if err != nil {
		return decimal.Zero, false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return decimal.Zero, false, err
	}
	if inserted == 0 {
		if err := tx.Commit(); err != nil {
			return decimal.Zero, false, err
		}
		return current, true, nil
	}

	newBalance := current.Add(signedAmount)
	if _, err = tx.ExecContext(ctx,
		`UPDATE balances SET amount=$1, version=version+1 WHERE user_id=$2`,
		newBalance, userID,
	); err != nil {
		return decimal.Zero, false, err
	}

	if err = tx.Commit(); err != nil {
		return decimal.Zero, false, err
	}
	return newBalance, false, nil
}

// ListTransactions retorna as transações do usuário, mais recentes primeiro.
func (p *Postgres) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, kind, amount, reference, status, created_at
		FROM transactions
		WHERE user_id=$1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.UserID, &kind, &t.Amount, &t.Reference, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Kind = core.Kind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}
