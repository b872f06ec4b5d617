package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
)

type PostgresCheckoutSessionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCheckoutSessionRepository(db *pgxpool.Pool) *PostgresCheckoutSessionRepository {
	return &PostgresCheckoutSessionRepository{
		db: db,
	}
}

func (p *PostgresCheckoutSessionRepository) Create(ctx context.Context, session *domain.CheckoutSession) error {
	basket, err := json.Marshal(session.Basket)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO checkout_sessions (provider_session_id, user_id, basket, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return p.db.QueryRow(
		ctx,
		query,
		session.ProviderSessionID,
		session.OwnerID,
		basket,
		session.Amount,
		session.Currency,
		session.Status,
	).Scan(&session.ID, &session.CreatedAt)
}

func (p *PostgresCheckoutSessionRepository) GetByProviderSessionId(
	ctx context.Context,
	providerSessionID string) (*domain.CheckoutSession, error) {

	query := `
		SELECT id, provider_session_id, user_id, basket, amount, currency, status, created_at, updated_at
		FROM checkout_sessions
		WHERE provider_session_id = $1
	`

	var (
		session domain.CheckoutSession
		basket  []byte
	)

	err := p.db.QueryRow(ctx, query, providerSessionID).Scan(
		&session.ID,
		&session.ProviderSessionID,
		&session.OwnerID,
		&basket,
		&session.Amount,
		&session.Currency,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	err = json.Unmarshal(basket, &session.Basket)
	if err != nil {
		return nil, err
	}

	return &session, nil
}
