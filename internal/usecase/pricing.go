package usecase

import (
	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/shopspring/decimal"
)

// PricedOrder is the result of pricing a validated item list.
type PricedOrder struct {
	TotalAmount decimal.Decimal
	TotalItems  int64
	Items       []entity.OrderItem
}

// PriceItems computes order totals from the requested items and the catalog
// answer. Pure computation: totals cannot drift from the items because both
// come out of the same pass.
//
// Every item must reference a product present in products; a miss means the
// validation step and the pricing step disagree, which is a bug in the
// caller, not user input. The whole computation aborts in that case.
func PriceItems(items []OrderItemInput, products []Product) (PricedOrder, error) {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := PricedOrder{
		TotalAmount: decimal.Zero,
		Items:       make([]entity.OrderItem, 0, len(items)),
	}
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return PricedOrder{}, entity.Internalf("product %s missing from validation result", it.ProductID)
		}
		qty := decimal.NewFromInt(it.Quantity)
		out.TotalAmount = out.TotalAmount.Add(p.Price.Mul(qty))
		out.TotalItems += it.Quantity
		out.Items = append(out.Items, entity.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     p.Price,
			Name:      p.Name,
		})
	}
	return out, nil
}
