package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRef описывает владельца заказа в ответе API.
type UserRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SandwichSnapshot содержит сэндвич, встроенный в позицию заказа.
type SandwichSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
}

// OrderItemView описывает позицию заказа в ответе API.
type OrderItemView struct {
	ID         uuid.UUID         `json:"id"`
	SandwichID uuid.UUID         `json:"sandwichId"`
	Quantity   int               `json:"quantity"`
	Price      float64           `json:"price"`
	Sandwich   *SandwichSnapshot `json:"sandwich"`
}

// OrderView содержит денормализованный заказ для ответа API.
type OrderView struct {
	ID     uuid.UUID       `json:"id"`
	User   UserRef         `json:"user"`
	Date   time.Time       `json:"date"`
	Status OrderStatus     `json:"status"`
	Items  []OrderItemView `json:"items"`
}
