package repository_test

import (
	"context"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/osanchezal/inventory-checkout-system/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	dbName      = "inventory_checkout"
	dbUser      = "test_user"
	dbPassword  = "test_password"
	dbImageName = "postgres:17-alpine"
)

// SettlementRepoTestSuite runs the repositories against a real database so
// the guarantees the SQL itself carries, the unique payment per session and
// the conditional decrement, are checked where they live.
type SettlementRepoTestSuite struct {
	suite.Suite
	container    *postgres.PostgresContainer
	db           *pgxpool.Pool
	productRepo  *repository.PostgresProductRepository
	checkoutRepo *repository.PostgresCheckoutSessionRepository
	paymentRepo  *repository.PostgresPaymentRepository
}

func (s *SettlementRepoTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx, dbImageName,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err, "failed to start DB container")
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(repository.Migrate(dsn), "failed to run migrations")

	db, err := pgxpool.New(ctx, dsn)
	s.Require().NoError(err)

	s.db = db
	s.productRepo = repository.NewPostgresProductRepository(db)
	s.checkoutRepo = repository.NewPostgresCheckoutSessionRepository(db)
	s.paymentRepo = repository.NewPostgresPaymentRepository(db)
}

func (s *SettlementRepoTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}

	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

func TestSettlementRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository tests in short mode")
	}

	suite.Run(t, new(SettlementRepoTestSuite))
}

func (s *SettlementRepoTestSuite) createUser(username string) int {
	var id int

	err := s.db.QueryRow(context.Background(),
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, username+"@test.com", []byte("hash")).Scan(&id)
	s.Require().NoError(err)

	return id
}

func (s *SettlementRepoTestSuite) createProduct(ownerId, quantity int, price string) int {
	product := domain.Product{
		OwnerID:      ownerId,
		Name:         "Coffee beans",
		Quantity:     quantity,
		CurrentPrice: decimal.RequireFromString(price),
		Unit:         "kg",
		PurchaseDate: time.Now(),
	}

	s.Require().NoError(s.productRepo.Create(context.Background(), &product))

	return product.ID
}

func (s *SettlementRepoTestSuite) createPendingSession(ownerId, productId, quantity int, providerSessionId, amount string) {
	session := domain.CheckoutSession{
		ProviderSessionID: providerSessionId,
		OwnerID:           ownerId,
		Basket:            []domain.BasketItem{{ProductID: productId, Quantity: quantity}},
		Amount:            decimal.RequireFromString(amount),
		Currency:          "mxn",
		Status:            domain.CheckoutSessionStatusPending,
	}

	s.Require().NoError(s.checkoutRepo.Create(context.Background(), &session))
}

func (s *SettlementRepoTestSuite) productQuantity(productId int) int {
	var quantity int

	err := s.db.QueryRow(context.Background(),
		`SELECT quantity FROM products WHERE id = $1`, productId).Scan(&quantity)
	s.Require().NoError(err)

	return quantity
}

func (s *SettlementRepoTestSuite) paymentCount(providerSessionId string) int {
	var count int

	err := s.db.QueryRow(context.Background(),
		`SELECT count(*) FROM payments WHERE checkout_session_id = $1`, providerSessionId).Scan(&count)
	s.Require().NoError(err)

	return count
}

func (s *SettlementRepoTestSuite) conflictCount(providerSessionId string) int {
	var count int

	err := s.db.QueryRow(context.Background(),
		`SELECT count(*) FROM reconciliation_conflicts WHERE checkout_session_id = $1`, providerSessionId).Scan(&count)
	s.Require().NoError(err)

	return count
}

func (s *SettlementRepoTestSuite) sessionStatus(providerSessionId string) string {
	var status string

	err := s.db.QueryRow(context.Background(),
		`SELECT status FROM checkout_sessions WHERE provider_session_id = $1`, providerSessionId).Scan(&status)
	s.Require().NoError(err)

	return status
}

func settlementFor(ownerId, productId, quantity int, providerSessionId, amount string) domain.Settlement {
	return domain.Settlement{
		ProviderSessionID: providerSessionId,
		OwnerID:           ownerId,
		Amount:            decimal.RequireFromString(amount),
		Currency:          "mxn",
		Lines:             []domain.BasketItem{{ProductID: productId, Quantity: quantity}},
	}
}

func (s *SettlementRepoTestSuite) TestConditionalDecrement() {
	ctx := context.Background()
	ownerId := s.createUser("decrement_owner")
	otherId := s.createUser("decrement_other")
	productId := s.createProduct(ownerId, 2, "50.00")

	s.Run("fails without touching the row when stock is short", func() {
		err := s.productRepo.ConditionalDecrement(ctx, ownerId, productId, 3)

		s.ErrorIs(err, domain.ErrInsufficientStock)
		s.Equal(2, s.productQuantity(productId))
	})

	s.Run("reports a missing row for an unknown product", func() {
		err := s.productRepo.ConditionalDecrement(ctx, ownerId, 999999, 1)

		s.ErrorIs(err, domain.ErrRecordNotFound)
	})

	s.Run("reports a missing row for another owner's product", func() {
		err := s.productRepo.ConditionalDecrement(ctx, otherId, productId, 1)

		s.ErrorIs(err, domain.ErrRecordNotFound)
		s.Equal(2, s.productQuantity(productId))
	})

	s.Run("takes the stock down to exactly zero", func() {
		err := s.productRepo.ConditionalDecrement(ctx, ownerId, productId, 2)

		s.NoError(err)
		s.Equal(0, s.productQuantity(productId))
	})
}

func (s *SettlementRepoTestSuite) TestSettleIsIdempotentUnderReplay() {
	ctx := context.Background()
	ownerId := s.createUser("replay_owner")
	productId := s.createProduct(ownerId, 5, "50.00")
	sessionId := "cs_replay_1"

	s.createPendingSession(ownerId, productId, 2, sessionId, "100.00")
	settlement := settlementFor(ownerId, productId, 2, sessionId, "100.00")

	result, err := s.paymentRepo.Settle(ctx, settlement)
	s.Require().NoError(err)
	s.False(result.AlreadySettled)
	s.Empty(result.Conflicts)

	replayed, err := s.paymentRepo.Settle(ctx, settlement)
	s.Require().NoError(err)
	s.True(replayed.AlreadySettled)

	s.Equal(1, s.paymentCount(sessionId))
	s.Equal(3, s.productQuantity(productId))
	s.Equal("completed", s.sessionStatus(sessionId))
}

func (s *SettlementRepoTestSuite) TestSettleRecordsConflictAndKeepsPayment() {
	ctx := context.Background()
	ownerId := s.createUser("conflict_owner")
	productId := s.createProduct(ownerId, 1, "50.00")
	sessionId := "cs_conflict_1"

	s.createPendingSession(ownerId, productId, 3, sessionId, "150.00")

	result, err := s.paymentRepo.Settle(ctx, settlementFor(ownerId, productId, 3, sessionId, "150.00"))
	s.Require().NoError(err)

	s.False(result.AlreadySettled)
	s.Require().Len(result.Conflicts, 1)
	s.Equal(productId, result.Conflicts[0].ProductID)
	s.Equal(3, result.Conflicts[0].Requested)

	s.Equal(1, s.paymentCount(sessionId))
	s.Equal(1, s.conflictCount(sessionId))
	s.Equal(1, s.productQuantity(productId))
	s.Equal("completed", s.sessionStatus(sessionId))
}

func (s *SettlementRepoTestSuite) TestConcurrentSettlementsNeverOversell() {
	ctx := context.Background()
	ownerId := s.createUser("race_owner")
	productId := s.createProduct(ownerId, 2, "50.00")

	sessionIds := []string{"cs_race_1", "cs_race_2"}
	for _, sessionId := range sessionIds {
		s.createPendingSession(ownerId, productId, 2, sessionId, "100.00")
	}

	results := make([]*domain.SettlementResult, len(sessionIds))
	errs := make([]error, len(sessionIds))

	var wg sync.WaitGroup
	for i, sessionId := range sessionIds {
		wg.Add(1)

		go func(i int, sessionId string) {
			defer wg.Done()
			results[i], errs[i] = s.paymentRepo.Settle(ctx, settlementFor(ownerId, productId, 2, sessionId, "100.00"))
		}(i, sessionId)
	}
	wg.Wait()

	conflicts := 0
	for i, sessionId := range sessionIds {
		s.Require().NoError(errs[i], fmt.Sprintf("settlement %s failed", sessionId))
		s.False(results[i].AlreadySettled)
		s.Equal(1, s.paymentCount(sessionId))

		conflicts += len(results[i].Conflicts)
	}

	// Exactly one settlement wins the stock; the loser records a conflict
	// and its payment stands.
	s.Equal(1, conflicts)
	s.Equal(0, s.productQuantity(productId))
	s.Equal(1, s.conflictCount(sessionIds[0])+s.conflictCount(sessionIds[1]))
}
