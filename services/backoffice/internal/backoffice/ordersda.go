package backoffice

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/billing"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/query"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/remote"
)

// PaymentRequest is sent to settle an order.
type PaymentRequest struct {
	OrderID string          `json:"orderId"`
	Method  string          `json:"method"`
	Amount  decimal.Decimal `json:"amount"`
}

// Payment is the settlement record returned by the API.
type Payment struct {
	ID      string          `json:"id"`
	OrderID string          `json:"orderId"`
	Method  string          `json:"method"`
	Amount  decimal.Decimal `json:"amount"`
	PaidAt  time.Time       `json:"paidAt"`
}

// OrderDataAccess reads and mutates orders through the remote API. Reads go
// through the query cache.
type OrderDataAccess struct {
	client *remote.Client
	cache  *query.Cache
}

func NewOrderDataAccess(client *remote.Client, cache *query.Cache) *OrderDataAccess {
	return &OrderDataAccess{client: client, cache: cache}
}

func (da *OrderDataAccess) ListByReservation(ctx context.Context, reservationID string) ([]billing.Order, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}
	if reservationID == "" {
		return nil, fmt.Errorf("missing reservation id")
	}

	path := fmt.Sprintf("/reservations/%s/orders", url.PathEscape(reservationID))
	return query.Load(ctx, da.cache, query.OrdersFor(reservationID), func(ctx context.Context) ([]billing.Order, error) {
		return remote.Get[[]billing.Order](ctx, da.client, path)
	})
}

func (da *OrderDataAccess) GetOrder(ctx context.Context, id string) (billing.Order, error) {
	if da == nil || da.client == nil {
		return billing.Order{}, fmt.Errorf("order client not configured")
	}
	if id == "" {
		return billing.Order{}, fmt.Errorf("missing order id")
	}

	path := fmt.Sprintf("/orders/%s", url.PathEscape(id))
	return query.Load(ctx, da.cache, query.Order(id), func(ctx context.Context) (billing.Order, error) {
		return remote.Get[billing.Order](ctx, da.client, path)
	})
}

// Split returns the orders the API left after the split: the source order
// and the newly created one.
func (da *OrderDataAccess) Split(ctx context.Context, req billing.SplitRequest) ([]billing.Order, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}
	return remote.Post[[]billing.Order](ctx, da.client, "/orders/split", req)
}

func (da *OrderDataAccess) Merge(ctx context.Context, req billing.MergeRequest) (billing.Order, error) {
	if da == nil || da.client == nil {
		return billing.Order{}, fmt.Errorf("order client not configured")
	}
	return remote.Post[billing.Order](ctx, da.client, "/orders/merge", req)
}

func (da *OrderDataAccess) DeleteOrder(ctx context.Context, id string) error {
	if da == nil || da.client == nil {
		return fmt.Errorf("order client not configured")
	}
	return remote.Delete(ctx, da.client, fmt.Sprintf("/orders/%s", url.PathEscape(id)))
}

func (da *OrderDataAccess) DeleteLine(ctx context.Context, orderID, lineID string) error {
	if da == nil || da.client == nil {
		return fmt.Errorf("order client not configured")
	}
	path := fmt.Sprintf("/orders/%s/lines/%s", url.PathEscape(orderID), url.PathEscape(lineID))
	return remote.Delete(ctx, da.client, path)
}

func (da *OrderDataAccess) Settle(ctx context.Context, req PaymentRequest) (Payment, error) {
	if da == nil || da.client == nil {
		return Payment{}, fmt.Errorf("order client not configured")
	}
	path := fmt.Sprintf("/orders/%s/payments", url.PathEscape(req.OrderID))
	return remote.Post[Payment](ctx, da.client, path, req)
}
