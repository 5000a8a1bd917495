package service

import (
	"github.com/google/uuid"

	"github.com/mmeshcher/sandwichshop/internal/model"
)

// buildOrderViews собирает денормализованные представления заказов.
// Цена позиции берётся из позиции (снимок на момент заказа), а встроенный сэндвич
// из текущего каталога. Если сэндвич пропал, поле sandwich остаётся пустым.
func buildOrderViews(set *model.OrderSet) []model.OrderView {
	if set == nil {
		return []model.OrderView{}
	}

	views := make([]model.OrderView, 0, len(set.Orders))
	for _, d := range set.Orders {
		views = append(views, buildOrderView(d, set.Sandwiches))
	}
	return views
}

func buildOrderView(d model.OrderDetails, sandwiches map[uuid.UUID]model.Sandwich) model.OrderView {
	items := make([]model.OrderItemView, 0, len(d.Items))
	for _, it := range d.Items {
		item := model.OrderItemView{
			ID:         it.ID,
			SandwichID: it.SandwichID,
			Quantity:   it.Quantity,
			Price:      it.Price.InexactFloat64(),
		}
		if sw, ok := sandwiches[it.SandwichID]; ok {
			item.Sandwich = &model.SandwichSnapshot{
				ID:          sw.ID,
				Name:        sw.Name,
				Price:       sw.Price.InexactFloat64(),
				Description: sw.Description,
			}
		}
		items = append(items, item)
	}

	return model.OrderView{
		ID: d.Order.ID,
		User: model.UserRef{
			ID:   d.User.ID,
			Name: d.User.Name,
		},
		Date:   d.Order.Date,
		Status: d.Order.Status,
		Items:  items,
	}
}
