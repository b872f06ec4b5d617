package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
)

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

// Settle records a completed payment exactly once and reconciles stock for
// the session's basket in a single transaction. The unique index on
// payments.checkout_session_id is the idempotency anchor: a replayed event
// inserts nothing and the whole call becomes a no-op. Lines whose stock was
// depleted in the meantime are written to reconciliation_conflicts instead
// of failing the settlement, because the external payment has already
// happened and cannot be rolled back from here.
func (p *PostgresPaymentRepository) Settle(
	ctx context.Context,
	settlement domain.Settlement) (*domain.SettlementResult, error) {

	var result domain.SettlementResult

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO payments (user_id, checkout_session_id, payment_intent, amount, currency, status, payment_date)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (checkout_session_id) DO NOTHING
		`

		tag, err := tx.Exec(
			ctx,
			query,
			settlement.OwnerID,
			settlement.ProviderSessionID,
			settlement.PaymentIntent,
			settlement.Amount,
			settlement.Currency,
			domain.PaymentStatusCompleted,
		)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			result.AlreadySettled = true
			return nil
		}

		for _, line := range settlement.Lines {
			err = decrementStock(ctx, tx, settlement.OwnerID, line.ProductID, line.Quantity)
			if err == nil {
				continue
			}

			if !errors.Is(err, domain.ErrInsufficientStock) && !errors.Is(err, domain.ErrRecordNotFound) {
				return err
			}

			conflict := domain.ReconciliationConflict{
				ProviderSessionID: settlement.ProviderSessionID,
				ProductID:         line.ProductID,
				Requested:         line.Quantity,
			}

			query = `
				INSERT INTO reconciliation_conflicts (checkout_session_id, product_id, requested)
				VALUES ($1, $2, $3)
			`

			_, err = tx.Exec(ctx, query, conflict.ProviderSessionID, conflict.ProductID, conflict.Requested)
			if err != nil {
				return err
			}

			result.Conflicts = append(result.Conflicts, conflict)
		}

		query = `
			UPDATE checkout_sessions
			SET status = $1, updated_at = NOW()
			WHERE provider_session_id = $2 AND status = $3
		`

		_, err = tx.Exec(
			ctx,
			query,
			domain.CheckoutSessionStatusCompleted,
			settlement.ProviderSessionID,
			domain.CheckoutSessionStatusPending,
		)

		return err
	})

	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (p *PostgresPaymentRepository) GetByCheckoutSessionId(
	ctx context.Context,
	providerSessionID string) (*domain.Payment, error) {

	query := `
		SELECT id, user_id, checkout_session_id, payment_intent, amount, currency, status, payment_date, created_at
		FROM payments
		WHERE checkout_session_id = $1
	`

	var payment domain.Payment

	err := p.db.QueryRow(ctx, query, providerSessionID).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.CheckoutSessionId,
		&payment.PaymentIntent,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.PaymentDate,
		&payment.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &payment, nil
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
