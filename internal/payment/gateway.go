package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"
)

var ErrEmptyCart = errors.New("checkout requires at least one item")

// CheckoutItem es un precio del catálogo de Stripe y su cantidad.
type CheckoutItem struct {
	PriceID  string
	Quantity int64
}

type CheckoutRequest struct {
	Items         []CheckoutItem
	CustomerUID   string
	CustomerEmail string
}

// Gateway envuelve el cliente de Stripe con timeout y circuit breaker.
type Gateway struct {
	api           *client.API
	cb            *gobreaker.CircuitBreaker
	timeout       time.Duration
	publicURL     string
	shipCountries []string
}

func NewGateway(secretKey, publicURL string, shipCountries []string, log *zap.Logger) *Gateway {
	st := gobreaker.Settings{
		Name:        "Stripe",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}

	return &Gateway{
		api:           client.New(secretKey, nil),
		cb:            gobreaker.NewCircuitBreaker(st),
		timeout:       10 * time.Second,
		publicURL:     publicURL,
		shipCountries: shipCountries,
	}
}

// CreateSession crea la sesión de Checkout. Los descuentos los calcula Stripe
// con promotion codes; el cliente nunca manda montos.
func (g *Gateway) CreateSession(ctx context.Context, req CheckoutRequest) (*stripe.CheckoutSession, error) {
	params, err := g.sessionParams(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	params.Context = ctx

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}
	return res.(*stripe.CheckoutSession), nil
}

func (g *Gateway) sessionParams(req CheckoutRequest) (*stripe.CheckoutSessionParams, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:          stripe.String(g.publicURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(g.publicURL + "/cart"),
		AllowPromotionCodes: stripe.Bool(true),
	}
	if len(g.shipCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(g.shipCountries),
		}
	}
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(it.PriceID),
			Quantity: stripe.Int64(it.Quantity),
		})
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.CustomerUID != "" {
		params.ClientReferenceID = stripe.String(req.CustomerUID)
		params.AddMetadata("uid", req.CustomerUID)
	}
	return params, nil
}

// GetSession trae la sesión con los line items expandidos.
func (g *Gateway) GetSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.api.CheckoutSessions.Get(id, params)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching checkout session %s: %w", id, err)
	}
	return res.(*stripe.CheckoutSession), nil
}
