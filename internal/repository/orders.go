package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/sandwichshop/internal/model"
)

// CreateOrderParams описывает заказ, который нужно создать атомарно.
type CreateOrderParams struct {
	// UserID задаёт владельца явно. Если nil, владелец ищется по имени Placeholder.Name
	// и создаётся из Placeholder при отсутствии.
	UserID      *uuid.UUID
	Placeholder *model.User
	Items       []model.OrderItemInput
	Date        time.Time
}

// OrderFilter ограничивает выборку заказов.
type OrderFilter struct {
	UserID *uuid.UUID
	// From и To задают полуинтервал [From, To) по дате заказа.
	From       *time.Time
	To         *time.Time
	Descending bool
}

// CreateOrder в одной транзакции проверяет наличие сэндвичей, определяет владельца,
// создаёт заголовок заказа и его позиции с ценой сэндвича на момент заказа.
// При любой ошибке ничего не сохраняется.
func (r *PostgresRepository) CreateOrder(ctx context.Context, p CreateOrderParams) (*model.OrderSet, error) {
	if len(p.Items) == 0 {
		return nil, fmt.Errorf("create order: no items")
	}
	if p.UserID == nil && p.Placeholder == nil {
		return nil, fmt.Errorf("create order: no user reference")
	}

	ids := distinctSandwichIDs(p.Items)

	var set *model.OrderSet
	err := r.withRetry(ctx, func() error {
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()

		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return wrapErr("begin tx", err)
		}
		defer tx.Rollback(ctx)

		// FOR SHARE не даёт удалить сэндвич до фиксации заказа.
		rows, err := tx.Query(ctx,
			`SELECT `+sandwichColumns+` FROM sandwiches WHERE id = ANY($1::uuid[]) FOR SHARE`,
			uuidStrings(ids),
		)
		if err != nil {
			return wrapErr("lock sandwiches", err)
		}
		found, err := collectSandwiches(rows)
		if err != nil {
			return wrapErr("lock sandwiches", err)
		}
		if len(found) < len(ids) {
			return ErrSandwichesMissing
		}

		sandwiches := make(map[uuid.UUID]model.Sandwich, len(found))
		for _, s := range found {
			sandwiches[s.ID] = s
		}

		var user *model.User
		if p.UserID != nil {
			user, err = getUserByID(ctx, tx, *p.UserID)
		} else {
			user, err = findOrCreateUserByName(ctx, tx, p.Placeholder)
		}
		if err != nil {
			return err
		}

		orderID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate order id: %w", err)
		}
		order := model.Order{
			ID:     orderID,
			UserID: user.ID,
			Date:   p.Date,
			Status: model.OrderStatusPending,
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO orders (id, user_id, date, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at, updated_at`,
			order.ID, order.UserID, order.Date, string(order.Status),
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return wrapErr("insert order", err)
		}

		items := make([]model.OrderItem, 0, len(p.Items))
		batch := &pgx.Batch{}
		for _, in := range p.Items {
			// UUIDv7 монотонен, поэтому позиции читаются в порядке запроса.
			itemID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate order item id: %w", err)
			}
			item := model.OrderItem{
				ID:         itemID,
				OrderID:    order.ID,
				SandwichID: in.SandwichID,
				Quantity:   in.Quantity,
				Price:      sandwiches[in.SandwichID].Price,
			}
			items = append(items, item)
			batch.Queue(
				`INSERT INTO order_items (id, order_id, sandwich_id, quantity, price)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING created_at`,
				item.ID, item.OrderID, item.SandwichID, item.Quantity, model.PriceToCents(item.Price),
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := range items {
			if err := br.QueryRow().Scan(&items[i].CreatedAt); err != nil {
				_ = br.Close()
				return wrapErr("insert order item", err)
			}
		}
		if err := br.Close(); err != nil {
			return wrapErr("close batch", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return wrapErr("commit tx", err)
		}

		set = &model.OrderSet{
			Orders: []model.OrderDetails{{
				Order: order,
				User:  *user,
				Items: items,
			}},
			Sandwiches: sandwiches,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return set, nil
}

func distinctSandwichIDs(items []model.OrderItemInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.SandwichID]; ok {
			continue
		}
		seen[it.SandwichID] = struct{}{}
		ids = append(ids, it.SandwichID)
	}
	return ids
}

// ListOrders возвращает заказы с владельцами, позициями и сэндвичами, на которые они ссылаются.
// Выполняется тремя запросами: заказы с именами владельцев, позиции, сэндвичи.
func (r *PostgresRepository) ListOrders(ctx context.Context, f OrderFilter) (*model.OrderSet, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	direction := "ASC"
	if f.Descending {
		direction = "DESC"
	}

	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.user_id, o.date, o.status, o.created_at, o.updated_at, u.name
		 FROM orders o
		 JOIN users u ON u.id = o.user_id
		 WHERE ($1::uuid IS NULL OR o.user_id = $1::uuid)
		   AND ($2::timestamptz IS NULL OR o.date >= $2::timestamptz)
		   AND ($3::timestamptz IS NULL OR o.date < $3::timestamptz)
		 ORDER BY o.date `+direction+`, o.id`,
		nullableUUID(f.UserID), f.From, f.To,
	)
	if err != nil {
		return nil, wrapErr("select orders", err)
	}
	defer rows.Close()

	set := &model.OrderSet{Sandwiches: map[uuid.UUID]model.Sandwich{}}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var (
			d      model.OrderDetails
			status string
		)
		if err := rows.Scan(&d.Order.ID, &d.Order.UserID, &d.Order.Date, &status,
			&d.Order.CreatedAt, &d.Order.UpdatedAt, &d.User.Name); err != nil {
			return nil, wrapErr("scan order", err)
		}
		d.Order.Status = model.OrderStatus(status)
		d.User.ID = d.Order.UserID

		index[d.Order.ID] = len(set.Orders)
		set.Orders = append(set.Orders, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("rows error", err)
	}

	if len(set.Orders) == 0 {
		return set, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(set.Orders))
	for _, d := range set.Orders {
		orderIDs = append(orderIDs, d.Order.ID)
	}

	itemRows, err := r.pool.Query(ctx,
		`SELECT id, order_id, sandwich_id, quantity, price, created_at
		 FROM order_items
		 WHERE order_id = ANY($1::uuid[])
		 ORDER BY created_at, id`,
		uuidStrings(orderIDs),
	)
	if err != nil {
		return nil, wrapErr("select order items", err)
	}
	defer itemRows.Close()

	sandwichIDs := map[uuid.UUID]struct{}{}
	for itemRows.Next() {
		var (
			it         model.OrderItem
			priceCents int64
		)
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.SandwichID, &it.Quantity, &priceCents, &it.CreatedAt); err != nil {
			return nil, wrapErr("scan order item", err)
		}
		it.Price = model.PriceFromCents(priceCents)

		i := index[it.OrderID]
		set.Orders[i].Items = append(set.Orders[i].Items, it)
		sandwichIDs[it.SandwichID] = struct{}{}
	}
	if err := itemRows.Err(); err != nil {
		return nil, wrapErr("rows error", err)
	}

	ids := make([]uuid.UUID, 0, len(sandwichIDs))
	for id := range sandwichIDs {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return set, nil
	}

	found, err := r.GetSandwichesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range found {
		set.Sandwiches[s.ID] = s
	}

	return set, nil
}

func nullableUUID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// CountOrdersBetween возвращает количество заказов с датой в полуинтервале [from, to).
func (r *PostgresRepository) CountOrdersBetween(ctx context.Context, from, to time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE date >= $1 AND date < $2`,
		from, to,
	).Scan(&n)
	if err != nil {
		return 0, wrapErr("count orders", err)
	}
	return n, nil
}
