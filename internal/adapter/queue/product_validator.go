package queue

import (
	"context"
	"encoding/json"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/logging"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
	"github.com/shopspring/decimal"
)

const validateProductsQueue = "products.validate"

// rpcCaller is what the bus clients need from RPCClient.
type rpcCaller interface {
	Call(ctx context.Context, routingKey string, req any) ([]byte, error)
}

// BusProductValidator resolves product ids through the catalog service over
// the bus. Any problem (unreachable service, unknown product, malformed or
// partial reply) collapses into one opaque external failure, as callers
// only need to know that validation did not happen.
type BusProductValidator struct {
	rpc rpcCaller
}

func NewBusProductValidator(rpc rpcCaller) *BusProductValidator {
	return &BusProductValidator{rpc: rpc}
}

var _ usecase.ProductValidator = (*BusProductValidator)(nil)

func (v *BusProductValidator) Validate(ctx context.Context, ids []string) ([]usecase.Product, error) {
	body, err := v.rpc.Call(ctx, validateProductsQueue, ids)
	if err != nil {
		logging.New("product-validator").Warn("validate call failed", "error", err)
		return nil, entity.Externalf("unable to validate products")
	}

	var products []usecase.Product
	if err := json.Unmarshal(body, &products); err != nil {
		// could be an error envelope; either way the call failed
		return nil, entity.Externalf("unable to validate products")
	}

	// the contract is all-or-nothing: every requested id, non-negative price
	byID := make(map[string]usecase.Product, len(products))
	for _, p := range products {
		if p.Price.LessThan(decimal.Zero) {
			return nil, entity.Externalf("unable to validate products")
		}
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, entity.Externalf("unable to validate products")
		}
	}
	return products, nil
}
