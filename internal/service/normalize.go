package service

import (
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"

	"storefront-order-service/internal/model"
)

// Claves de metadata que pone el endpoint de checkout.
const (
	metaUID         = "uid"
	metaUserID      = "userId"
	metaOrderNumber = "orderNumber"
)

// orderFromSession copia campo por campo la sesión de Stripe al formato
// propio de la orden. Nada de los tipos de Stripe queda referenciado.
func orderFromSession(sess *stripe.CheckoutSession, items []*stripe.LineItem, uid, number string, now time.Time) *model.Order {
	o := &model.Order{
		ID:          sess.ID,
		OrderNumber: number,
		Status:      model.StatusPaid,
		AmountTotal: sess.AmountTotal,
		Currency:    strings.ToLower(string(sess.Currency)),
		CustomerUID: uid,
		LineItems:   lineItemsFrom(items),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if td := sess.TotalDetails; td != nil {
		o.ShippingTotal = td.AmountShipping
		o.TaxTotal = td.AmountTax
	}

	o.CustomerEmail = sess.CustomerEmail
	if cd := sess.CustomerDetails; cd != nil {
		if cd.Email != "" {
			o.CustomerEmail = cd.Email
		}
		o.CustomerName = cd.Name
		o.Billing = addressFrom(cd.Name, cd.Phone, cd.Address)
	}

	if sd := sess.ShippingDetails; sd != nil {
		o.Shipping = addressFrom(sd.Name, sd.Phone, sd.Address)
		if o.CustomerName == "" {
			o.CustomerName = sd.Name
		}
	}

	return o
}

func addressFrom(name, phone string, a *stripe.Address) model.Address {
	out := model.Address{Name: name, Phone: phone}
	if a == nil {
		return out
	}
	out.Line1 = a.Line1
	out.Line2 = a.Line2
	out.City = a.City
	out.State = a.State
	out.PostalCode = a.PostalCode
	out.Country = a.Country
	return out
}

func lineItemsFrom(items []*stripe.LineItem) []model.LineItem {
	out := make([]model.LineItem, 0, len(items))
	for _, li := range items {
		if li == nil {
			continue
		}
		item := model.LineItem{
			Description:    li.Description,
			Quantity:       li.Quantity,
			AmountTotal:    li.AmountTotal,
			AmountSubtotal: li.AmountSubtotal,
			Currency:       strings.ToLower(string(li.Currency)),
		}
		if li.Price != nil {
			item.PriceID = li.Price.ID
			if li.Price.Product != nil {
				item.ProductID = li.Price.Product.ID
			}
		}
		out = append(out, item)
	}
	return out
}

func metadataUID(md map[string]string) string {
	if uid := strings.TrimSpace(md[metaUID]); uid != "" {
		return uid
	}
	return strings.TrimSpace(md[metaUserID])
}
