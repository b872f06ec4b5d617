package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so ledger mutations
// can run standalone or inside a settlement transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresProductRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProductRepository(db *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{
		db: db,
	}
}

func (p *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO products (user_id, name, quantity, current_price, unit, purchase_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at, version
		`

		err := tx.QueryRow(
			ctx,
			query,
			product.OwnerID,
			product.Name,
			product.Quantity,
			product.CurrentPrice,
			product.Unit,
			product.PurchaseDate,
		).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt, &product.Version)

		if err != nil {
			return err
		}

		query = `
			INSERT INTO price_history (product_id, user_id, price)
			VALUES ($1, $2, $3)
		`

		_, err = tx.Exec(ctx, query, product.ID, product.OwnerID, product.CurrentPrice)

		return err
	})
}

func (p *PostgresProductRepository) GetAllByOwner(ctx context.Context, ownerID int) ([]domain.Product, error) {
	query := `
		SELECT id, user_id, name, quantity, current_price, unit, purchase_date, created_at, updated_at, version
		FROM products
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (p *PostgresProductRepository) GetById(ctx context.Context, ownerID, productID int) (*domain.Product, error) {
	query := `
		SELECT id, user_id, name, quantity, current_price, unit, purchase_date, created_at, updated_at, version
		FROM products
		WHERE id = $1 AND user_id = $2
	`

	rows, err := p.db.Query(ctx, query, productID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, err
		}

		return nil, domain.ErrRecordNotFound
	}

	product, err := scanProduct(rows)
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (p *PostgresProductRepository) GetByIds(
	ctx context.Context,
	ownerID int,
	productIDs []int) (map[int]domain.Product, error) {

	query := `
		SELECT id, user_id, name, quantity, current_price, unit, purchase_date, created_at, updated_at, version
		FROM products
		WHERE user_id = $1 AND id = ANY($2)
	`

	rows, err := p.db.Query(ctx, query, ownerID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int]domain.Product, len(productIDs))

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}

		products[product.ID] = product
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (p *PostgresProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, quantity = $2, unit = $3, purchase_date = $4, updated_at = NOW(), version = version + 1
		WHERE id = $5 AND user_id = $6 AND version = $7
		RETURNING version, updated_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		product.Name,
		product.Quantity,
		product.Unit,
		product.PurchaseDate,
		product.ID,
		product.OwnerID,
		product.Version,
	).Scan(&product.Version, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEditConflict
		}

		return err
	}

	return nil
}

func (p *PostgresProductRepository) Delete(ctx context.Context, ownerID, productID int) error {
	query := `DELETE FROM products WHERE id = $1 AND user_id = $2`

	tag, err := p.db.Exec(ctx, query, productID, ownerID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresProductRepository) ConditionalDecrement(ctx context.Context, ownerID, productID, amount int) error {
	return decrementStock(ctx, p.db, ownerID, productID, amount)
}

// decrementStock is a single conditional update evaluated by the database,
// never a read-then-write pair, so two settlements racing on the same row
// cannot lose updates or drive the quantity negative.
func decrementStock(ctx context.Context, q querier, ownerID, productID, amount int) error {
	query := `
		UPDATE products
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND quantity >= $1
	`

	tag, err := q.Exec(ctx, query, amount, productID, ownerID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool

	query = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND user_id = $2)`

	err = q.QueryRow(ctx, query, productID, ownerID).Scan(&exists)
	if err != nil {
		return err
	}

	if !exists {
		return domain.ErrRecordNotFound
	}

	return domain.ErrInsufficientStock
}

func (p *PostgresProductRepository) UpdatePrice(
	ctx context.Context,
	ownerID, productID int,
	newPrice decimal.Decimal) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE products
			SET current_price = $1, updated_at = NOW(), version = version + 1
			WHERE id = $2 AND user_id = $3
		`

		tag, err := tx.Exec(ctx, query, newPrice, productID, ownerID)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrRecordNotFound
		}

		query = `
			UPDATE price_history
			SET ended_at = NOW()
			WHERE product_id = $1 AND user_id = $2 AND ended_at IS NULL
		`

		_, err = tx.Exec(ctx, query, productID, ownerID)
		if err != nil {
			return err
		}

		query = `
			INSERT INTO price_history (product_id, user_id, price)
			VALUES ($1, $2, $3)
		`

		_, err = tx.Exec(ctx, query, productID, ownerID, newPrice)

		return err
	})
}

func (p *PostgresProductRepository) GetPriceHistory(
	ctx context.Context,
	ownerID, productID int) ([]domain.PriceHistoryEntry, error) {

	query := `
		SELECT id, product_id, user_id, price, started_at, ended_at
		FROM price_history
		WHERE product_id = $1 AND user_id = $2
		ORDER BY started_at DESC
	`

	rows, err := p.db.Query(ctx, query, productID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.PriceHistoryEntry, 0)

	for rows.Next() {
		var entry domain.PriceHistoryEntry

		err := rows.Scan(
			&entry.ID,
			&entry.ProductID,
			&entry.OwnerID,
			&entry.Price,
			&entry.StartedAt,
			&entry.EndedAt,
		)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func scanProduct(rows pgx.Rows) (domain.Product, error) {
	var product domain.Product

	err := rows.Scan(
		&product.ID,
		&product.OwnerID,
		&product.Name,
		&product.Quantity,
		&product.CurrentPrice,
		&product.Unit,
		&product.PurchaseDate,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)

	return product, err
}
