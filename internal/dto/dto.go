// dto.go
package dto

import "storefront-order-service/internal/model"

// ConfirmOrderRequest lo manda el storefront al volver de Stripe.
type ConfirmOrderRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

type ConfirmOrderResponse struct {
	Success       bool `json:"success"`
	Created       bool `json:"created"`
	AlreadyExists bool `json:"alreadyExists"`
}

type CheckoutItemDTO struct {
	PriceID  string `json:"priceId" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,min=1,max=99"`
}

// CheckoutRequest no lleva montos ni descuentos: los precios y los
// promotion codes los resuelve Stripe. Tampoco lleva uid: sale del token.
type CheckoutRequest struct {
	Items         []CheckoutItemDTO `json:"items" binding:"required,min=1,dive"`
	CustomerEmail string            `json:"customerEmail" binding:"omitempty,email"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type TrackingDTO struct {
	Carrier string `json:"carrier"`
	Number  string `json:"number"`
	URL     string `json:"url"`
}

type TransitionRequest struct {
	OrderID  string       `json:"orderId" binding:"required"`
	Action   string       `json:"action" binding:"required"`
	Tracking *TrackingDTO `json:"tracking"`
}

func (r TransitionRequest) ModelTracking() *model.Tracking {
	if r.Tracking == nil || (r.Tracking.Carrier == "" && r.Tracking.Number == "" && r.Tracking.URL == "") {
		return nil
	}
	return &model.Tracking{Carrier: r.Tracking.Carrier, Number: r.Tracking.Number, URL: r.Tracking.URL}
}

// OrderResponse es la orden tal como sale por la API: timestamps en ISO-8601.
type OrderResponse struct {
	ID            string           `json:"id"`
	OrderNumber   string           `json:"orderNumber"`
	Status        model.Status     `json:"status"`
	AmountTotal   int64            `json:"amountTotal"`
	ShippingTotal int64            `json:"shippingTotal"`
	TaxTotal      int64            `json:"taxTotal"`
	Currency      string           `json:"currency"`
	CustomerEmail string           `json:"customerEmail"`
	CustomerName  string           `json:"customerName"`
	CustomerUID   *string          `json:"customerUid"`
	Billing       model.Address    `json:"billing"`
	Shipping      model.Address    `json:"shipping"`
	LineItems     []model.LineItem `json:"lineItems"`
	Tracking      *model.Tracking  `json:"tracking,omitempty"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
	AcceptedAt    *string          `json:"acceptedAt"`
	ShippedAt     *string          `json:"shippedAt"`
	CanceledAt    *string          `json:"canceledAt"`
	AcceptedBy    *model.Actor     `json:"acceptedBy"`
	ShippedBy     *model.Actor     `json:"shippedBy"`
	CanceledBy    *model.Actor     `json:"canceledBy"`
}

func ToOrderResponse(o *model.Order) OrderResponse {
	created, updated := o.CreatedAt, o.UpdatedAt
	res := OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		AmountTotal:   o.AmountTotal,
		ShippingTotal: o.ShippingTotal,
		TaxTotal:      o.TaxTotal,
		Currency:      o.Currency,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		Billing:       o.Billing,
		Shipping:      o.Shipping,
		LineItems:     o.LineItems,
		Tracking:      o.Tracking,
		CreatedAt:     model.FormatInstant(&created),
		UpdatedAt:     model.FormatInstant(&updated),
		AcceptedAt:    optional(model.FormatInstant(o.AcceptedAt)),
		ShippedAt:     optional(model.FormatInstant(o.ShippedAt)),
		CanceledAt:    optional(model.FormatInstant(o.CanceledAt)),
		AcceptedBy:    o.AcceptedBy,
		ShippedBy:     o.ShippedBy,
		CanceledBy:    o.CanceledBy,
	}
	if o.CustomerUID != "" {
		uid := o.CustomerUID
		res.CustomerUID = &uid
	}
	if res.LineItems == nil {
		res.LineItems = []model.LineItem{}
	}
	return res
}

func ToOrderResponses(orders []*model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderResponse(o))
	}
	return out
}

type CustomerResponse struct {
	UID           string  `json:"uid"`
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	TotalOrders   int64   `json:"totalOrders"`
	LifetimeValue float64 `json:"lifetimeValue"`
	LastOrderAt   *string `json:"lastOrderAt"`
}

func ToCustomerResponse(p *model.UserProfile) CustomerResponse {
	return CustomerResponse{
		UID:           p.UID,
		Email:         p.Email,
		Name:          p.Name,
		TotalOrders:   p.TotalOrders,
		LifetimeValue: p.LifetimeValue,
		LastOrderAt:   optional(model.FormatInstant(p.LastOrderAt)),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
