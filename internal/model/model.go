// Package model содержит доменные сущности сервиса сэндвич-бара.
package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role описывает роль пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли значение известной ролью.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Satisfies проверяет, что роль обладает правами требуемой роли.
// Администратор удовлетворяет любому требованию.
func (r Role) Satisfies(required Role) bool {
	switch required {
	case RoleAdmin:
		return r == RoleAdmin
	case RoleUser:
		return r.Valid()
	default:
		return false
	}
}

// User представляет пользователя системы.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sandwich описывает позицию каталога.
type Sandwich struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SandwichUpdate содержит частичное обновление позиции каталога. Nil-поля не изменяются.
type SandwichUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
}

// Empty сообщает, что в обновлении нет ни одного поля.
func (u SandwichUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order описывает заголовок заказа. Позиции хранятся отдельно.
type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Date      time.Time
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem описывает позицию заказа. Price фиксирует цену сэндвича на момент заказа.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	SandwichID uuid.UUID
	Quantity   int
	Price      decimal.Decimal
	CreatedAt  time.Time
}

// MaxQuantity ограничивает количество в позиции заказа размером колонки quantity.
const MaxQuantity = math.MaxInt32

// OrderItemInput описывает запрошенную позицию заказа.
type OrderItemInput struct {
	SandwichID uuid.UUID
	Quantity   int
}

// OrderDetails объединяет заказ, его владельца и позиции.
type OrderDetails struct {
	Order Order
	User  User
	Items []OrderItem
}

// OrderSet содержит выборку заказов и сэндвичи, на которые ссылаются их позиции.
type OrderSet struct {
	Orders     []OrderDetails
	Sandwiches map[uuid.UUID]Sandwich
}

// Stats содержит сводку для панели администратора.
type Stats struct {
	TotalSandwiches int64 `json:"totalSandwiches"`
	TotalOrders     int64 `json:"totalOrders"`
	TotalUsers      int64 `json:"totalUsers"`
}

// PriceFromCents переводит сумму в копейках в десятичную цену.
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

var maxPriceCents = decimal.NewFromInt(math.MaxInt64)

// PriceFitsCents сообщает, помещается ли цена, округлённая до копеек, в int64.
func PriceFitsCents(price decimal.Decimal) bool {
	return price.Round(2).Shift(2).Abs().Cmp(maxPriceCents) <= 0
}

// PriceToCents округляет цену до копеек. Цена должна проходить PriceFitsCents.
func PriceToCents(price decimal.Decimal) int64 {
	return price.Round(2).Shift(2).IntPart()
}
