// models.go
package model

import "time"

// Status es el estado actual de la orden.
type Status string

const (
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCanceled   Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPaid, StatusProcessing, StatusShipped, StatusCanceled:
		return true
	}
	return false
}

// Order es el snapshot persistido de una venta pagada. El _id es el id de la
// sesión de pago: una orden por sesión.
type Order struct {
	ID          string `bson:"_id" json:"id"`
	OrderNumber string `bson:"order_number" json:"orderNumber"`
	Status      Status `bson:"status" json:"status"`

	// Montos en unidades menores (centavos). Se escriben una sola vez.
	AmountTotal   int64  `bson:"amount_total" json:"amountTotal"`
	ShippingTotal int64  `bson:"shipping_total" json:"shippingTotal"`
	TaxTotal      int64  `bson:"tax_total" json:"taxTotal"`
	Currency      string `bson:"currency" json:"currency"`

	CustomerEmail string `bson:"customer_email" json:"customerEmail"`
	CustomerName  string `bson:"customer_name" json:"customerName"`
	CustomerUID   string `bson:"customer_uid,omitempty" json:"customerUid,omitempty"`

	Billing   Address    `bson:"billing" json:"billing"`
	Shipping  Address    `bson:"shipping" json:"shipping"`
	LineItems []LineItem `bson:"line_items" json:"lineItems"`
	Tracking  *Tracking  `bson:"tracking,omitempty" json:"tracking,omitempty"`

	CreatedAt  time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updatedAt"`
	AcceptedAt *time.Time `bson:"accepted_at,omitempty" json:"acceptedAt,omitempty"`
	ShippedAt  *time.Time `bson:"shipped_at,omitempty" json:"shippedAt,omitempty"`
	CanceledAt *time.Time `bson:"canceled_at,omitempty" json:"canceledAt,omitempty"`
	AcceptedBy *Actor     `bson:"accepted_by,omitempty" json:"acceptedBy,omitempty"`
	ShippedBy  *Actor     `bson:"shipped_by,omitempty" json:"shippedBy,omitempty"`
	CanceledBy *Actor     `bson:"canceled_by,omitempty" json:"canceledBy,omitempty"`
}

type Address struct {
	Name       string `bson:"name" json:"name"`
	Phone      string `bson:"phone" json:"phone"`
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2" json:"line2"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postal_code" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

type LineItem struct {
	Description    string `bson:"description" json:"description"`
	Quantity       int64  `bson:"quantity" json:"quantity"`
	AmountTotal    int64  `bson:"amount_total" json:"amountTotal"`
	AmountSubtotal int64  `bson:"amount_subtotal" json:"amountSubtotal"`
	Currency       string `bson:"currency" json:"currency"`
	PriceID        string `bson:"price_id" json:"priceId"`
	ProductID      string `bson:"product_id" json:"productId"`
}

// Actor es el snapshot del admin que hizo la transición.
type Actor struct {
	UID   string `bson:"uid" json:"uid"`
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name" json:"name"`
}

type Tracking struct {
	Carrier string `bson:"carrier" json:"carrier"`
	Number  string `bson:"number" json:"number"`
	URL     string `bson:"url" json:"url"`
}

// UserProfile es el perfil del directorio de usuarios. No lo crea este
// servicio; solo se consulta y se incrementan sus contadores.
type UserProfile struct {
	UID           string     `json:"uid"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	TotalOrders   int64      `json:"totalOrders"`
	LifetimeValue float64    `json:"lifetimeValue"`
	LastOrderAt   *time.Time `json:"lastOrderAt,omitempty"`
}
