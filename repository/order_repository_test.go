package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"shop-service/models"
	"shop-service/repository"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB connects to the Postgres instance named by TEST_POSTGRES_DSN.
// Tests are skipped when the variable is unset so the suite stays runnable
// without infrastructure.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping repository tests")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, repo repository.OrderRepository) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:          models.NewOrderID(),
		UserID:      "user-1",
		UserEmail:   "buyer@example.com",
		TotalAmount: 2500,
		Address:     "Tokyo",
		Phone:       "090-0000-0000",
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "Mug", Quantity: 2, Price: 1250},
		},
	}
	assert.NoError(t, repo.Create(context.Background(), order))
	t.Cleanup(func() {
		_ = repo.Delete(context.Background(), order.ID)
	})
	return order
}

func TestSetPaymentIntent_SetOnce(t *testing.T) {
	repo := repository.NewGormOrderRepository(openTestDB(t))
	order := seedOrder(t, repo)
	ctx := context.Background()

	ok, err := repo.SetPaymentIntent(ctx, order.ID, order.ID+"-1", "https://qr.example/1")
	assert.NoError(t, err)
	assert.True(t, ok)

	// A second intent must not overwrite the stored reference.
	ok, err = repo.SetPaymentIntent(ctx, order.ID, order.ID+"-2", "https://qr.example/2")
	assert.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, order.ID+"-1", got.ProviderPaymentRef)
	assert.Equal(t, models.PaymentStatusIntentCreated, got.PaymentStatus)
}

func TestSetPaymentIntent_PaidOrderUntouched(t *testing.T) {
	repo := repository.NewGormOrderRepository(openTestDB(t))
	order := seedOrder(t, repo)
	ctx := context.Background()

	// Paid before the intent is persisted (completion webhook won the race).
	ok, err := repo.MarkPaid(ctx, order.ID)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetPaymentIntent(ctx, order.ID, order.ID+"-1", "https://qr.example/1")
	assert.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Empty(t, got.ProviderPaymentRef)
}

func TestMarkPaid_ExactlyOnce(t *testing.T) {
	repo := repository.NewGormOrderRepository(openTestDB(t))
	order := seedOrder(t, repo)
	ctx := context.Background()

	ok, err := repo.MarkPaid(ctx, order.ID)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkPaid(ctx, order.ID)
	assert.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.NotNil(t, got.PaidAt)
}

func TestMarkPaid_ConcurrentSingleWinner(t *testing.T) {
	repo := repository.NewGormOrderRepository(openTestDB(t))
	order := seedOrder(t, repo)
	ctx := context.Background()

	const writers = 8
	results := make(chan bool, writers)
	for i := 0; i < writers; i++ {
		go func() {
			ok, err := repo.MarkPaid(ctx, order.ID)
			assert.NoError(t, err)
			results <- ok
		}()
	}

	wins := 0
	for i := 0; i < writers; i++ {
		if <-results {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one writer should perform the transition")
}

func TestUpdatePaymentStatus_RevertClearsPaidAt(t *testing.T) {
	repo := repository.NewGormOrderRepository(openTestDB(t))
	order := seedOrder(t, repo)
	ctx := context.Background()

	_, err := repo.MarkPaid(ctx, order.ID)
	assert.NoError(t, err)

	assert.NoError(t, repo.UpdatePaymentStatus(ctx, order.ID, models.PaymentStatusUnpaid))

	got, err := repo.FindByID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, got.PaymentStatus)
	assert.Nil(t, got.PaidAt)
}

func TestFindByUserID_NewestFirst(t *testing.T) {
	repo := repository.NewGormOrderRepository(openTestDB(t))
	first := seedOrder(t, repo)
	second := seedOrder(t, repo)

	orders, err := repo.FindByUserID(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(orders), 2)

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestDelete_UnknownOrder(t *testing.T) {
	repo := repository.NewGormOrderRepository(openTestDB(t))

	err := repo.Delete(context.Background(), fmt.Sprintf("%032d", 0))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
