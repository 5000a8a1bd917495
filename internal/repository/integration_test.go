package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/sandwichshop/internal/model"
)

// newIntegrationRepo подключается к TEST_DATABASE_URI и очищает таблицы.
func newIntegrationRepo(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	r, err := NewPostgresRepository(dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.pool.Exec(context.Background(), `TRUNCATE order_items, orders, sandwiches, users`)
	require.NoError(t, err)

	return r
}

func mustSandwich(t *testing.T, r *PostgresRepository, name, price string) *model.Sandwich {
	t.Helper()

	s := &model.Sandwich{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, r.CreateSandwich(context.Background(), s))
	return s
}

func placeholder(name string) *model.User {
	return &model.User{
		Name:         name,
		Email:        name + "_" + uuid.NewString() + "@example.com",
		PasswordHash: []byte("hash"),
		Role:         model.RoleUser,
	}
}

func TestIntegration_OrderSnapshotsPrice(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()

	club := mustSandwich(t, r, "Club", "5.00")

	set, err := r.CreateOrder(ctx, CreateOrderParams{
		Placeholder: placeholder("Alice"),
		Items:       []model.OrderItemInput{{SandwichID: club.ID, Quantity: 2}},
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, set.Orders, 1)
	require.Len(t, set.Orders[0].Items, 1)
	assert.Equal(t, model.OrderStatusPending, set.Orders[0].Order.Status)

	newPrice := decimal.RequireFromString("7.50")
	_, err = r.UpdateSandwich(ctx, club.ID, model.SandwichUpdate{Price: &newPrice})
	require.NoError(t, err)

	listed, err := r.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, listed.Orders, 1)
	assert.True(t, listed.Orders[0].Items[0].Price.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, listed.Sandwiches[club.ID].Price.Equal(newPrice))
}

func TestIntegration_UnknownSandwichCreatesNothing(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()

	club := mustSandwich(t, r, "Club", "5.00")

	_, err := r.CreateOrder(ctx, CreateOrderParams{
		Placeholder: placeholder("Bob"),
		Items: []model.OrderItemInput{
			{SandwichID: club.ID, Quantity: 1},
			{SandwichID: uuid.New(), Quantity: 1},
		},
		Date: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrSandwichesMissing)

	users, err := r.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, users)

	set, err := r.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, set.Orders)
}

func TestIntegration_DeleteReferencedSandwich(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()

	club := mustSandwich(t, r, "Club", "5.00")
	blt := mustSandwich(t, r, "BLT", "4.00")

	_, err := r.CreateOrder(ctx, CreateOrderParams{
		Placeholder: placeholder("Carol"),
		Items:       []model.OrderItemInput{{SandwichID: club.ID, Quantity: 1}},
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, r.DeleteSandwich(ctx, club.ID), ErrSandwichOrdered)
	_, err = r.GetSandwich(ctx, club.ID)
	assert.NoError(t, err)

	assert.NoError(t, r.DeleteSandwich(ctx, blt.ID))
	assert.ErrorIs(t, r.DeleteSandwich(ctx, blt.ID), ErrSandwichNotFound)
}

func TestIntegration_FindOrCreateUserByNameReusesUser(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()

	club := mustSandwich(t, r, "Club", "5.00")
	params := func() CreateOrderParams {
		return CreateOrderParams{
			Placeholder: placeholder("Dave"),
			Items:       []model.OrderItemInput{{SandwichID: club.ID, Quantity: 1}},
			Date:        time.Now().UTC(),
		}
	}

	first, err := r.CreateOrder(ctx, params())
	require.NoError(t, err)
	second, err := r.CreateOrder(ctx, params())
	require.NoError(t, err)

	assert.Equal(t, first.Orders[0].User.ID, second.Orders[0].User.ID)

	users, err := r.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, users)
}

func TestIntegration_DuplicateSandwichName(t *testing.T) {
	r := newIntegrationRepo(t)

	mustSandwich(t, r, "Club", "5.00")

	err := r.CreateSandwich(context.Background(), &model.Sandwich{Name: "Club", Price: decimal.NewFromInt(3)})
	assert.ErrorIs(t, err, ErrSandwichExists)
}

func TestIntegration_ListOrdersKeepsItemOrder(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()

	names := []string{"Club", "BLT", "Reuben", "Cuban", "Caprese", "Gyro"}
	items := make([]model.OrderItemInput, 0, len(names))
	for i, name := range names {
		s := mustSandwich(t, r, name, "5.00")
		items = append(items, model.OrderItemInput{SandwichID: s.ID, Quantity: i + 1})
	}

	_, err := r.CreateOrder(ctx, CreateOrderParams{
		Placeholder: placeholder("Alice"),
		Items:       items,
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)

	listed, err := r.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, listed.Orders, 1)
	require.Len(t, listed.Orders[0].Items, len(items))
	for i, it := range listed.Orders[0].Items {
		assert.Equal(t, items[i].SandwichID, it.SandwichID)
		assert.Equal(t, items[i].Quantity, it.Quantity)
	}
	assert.Len(t, listed.Sandwiches, len(names))
}
