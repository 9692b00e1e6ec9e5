package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-order-service/internal/model"
	"storefront-order-service/internal/repository"
)

// Interfaz que debe implementar repository
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, ch repository.StatusChange) error
	Delete(ctx context.Context, orderID string) error
	FindAll(ctx context.Context) ([]*model.Order, error)
	FindByStatus(ctx context.Context, status model.Status) ([]*model.Order, error)
	FindByCustomerUID(ctx context.Context, uid string) ([]*model.Order, error)
}

type UserDirectory interface {
	FindUIDByEmail(ctx context.Context, email string) (string, error)
	IncrementOrderStats(ctx context.Context, uid string, amount float64, at time.Time) error
	GetProfile(ctx context.Context, uid string) (*model.UserProfile, error)
}

// Notifier entrega los mails de la orden. Sus errores nunca deshacen la
// escritura de la orden.
type Notifier interface {
	OrderConfirmed(ctx context.Context, o *model.Order) error
	OrderShipped(ctx context.Context, o *model.Order) error
}

// Errores de negocio exportados (los usa el controller)
var (
	ErrOrderNotFound  = repository.ErrNotFound
	ErrConflict       = repository.ErrConflict
	ErrUserNotFound   = repository.ErrUserNotFound
	ErrInvalidAction  = model.ErrInvalidAction
	ErrInvalidSession = errors.New("sesión de pago inválida")
)

// Motivos de una ingesta que no crea orden.
const (
	ReasonExists  = "exists"
	ReasonNotPaid = "not_paid"
)

type UpsertResult struct {
	Created bool   `json:"created"`
	Reason  string `json:"reason,omitempty"`
}

type OrderService struct {
	repo     OrderRepository
	users    UserDirectory
	notifier Notifier
	log      *zap.Logger

	now            func() time.Time
	newOrderNumber func() (string, error)

	// Plazo de los efectos secundarios (stats y mails), que corren
	// desacoplados de la request.
	sideEffectTimeout time.Duration
}

func NewOrderService(r OrderRepository, u UserDirectory, n Notifier, log *zap.Logger) *OrderService {
	return &OrderService{
		repo:           r,
		users:          u,
		notifier:       n,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
		newOrderNumber: newOrderNumber,

		sideEffectTimeout: 10 * time.Second,
	}
}

// detached devuelve un contexto que no se cancela con el del caller: una vez
// escrita la orden, que el cliente corte la conexión no puede perder las
// stats ni el mail. Conserva los valores del contexto original.
func (s *OrderService) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
}

// UpsertFromSession crea la orden de una sesión pagada, una sola vez por id de
// sesión. Lo llaman el webhook y la confirmación del cliente, que pueden
// competir. items puede venir pre-cargado; si es nil se usan los line items
// expandidos de la sesión.
func (s *OrderService) UpsertFromSession(ctx context.Context, sess *stripe.CheckoutSession, items []*stripe.LineItem) (UpsertResult, error) {
	if sess == nil || sess.ID == "" {
		return UpsertResult{}, ErrInvalidSession
	}
	log := s.log.With(zap.String("orderId", sess.ID))

	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.Info("session not paid yet", zap.String("paymentStatus", string(sess.PaymentStatus)))
		return UpsertResult{Reason: ReasonNotPaid}, nil
	}

	if items == nil && sess.LineItems != nil {
		items = sess.LineItems.Data
	}

	uid := s.resolveUID(ctx, sess)

	number, err := s.orderNumberFor(sess)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("generating order number: %w", err)
	}

	now := s.now()
	order := orderFromSession(sess, items, uid, number, now)

	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			log.Info("order already exists")
			return UpsertResult{Reason: ReasonExists}, nil
		}
		return UpsertResult{}, fmt.Errorf("creating order %s: %w", sess.ID, err)
	}
	log.Info("order created",
		zap.String("orderNumber", order.OrderNumber),
		zap.Int64("amountTotal", order.AmountTotal),
		zap.String("customerUid", uid))

	// Efectos secundarios: la orden ya está escrita, los errores solo se loguean.
	sctx, cancel := s.detached(ctx)
	defer cancel()

	if uid != "" {
		amount := float64(order.AmountTotal) / 100
		if err := s.users.IncrementOrderStats(sctx, uid, amount, now); err != nil {
			log.Error("incrementing user order stats", zap.String("uid", uid), zap.Error(err))
		}
	}
	if err := s.notifier.OrderConfirmed(sctx, order); err != nil {
		log.Error("sending order confirmation", zap.Error(err))
	}

	return UpsertResult{Created: true}, nil
}

// resolveUID prefiere el uid de la metadata; si no hay, busca por email.
// No encontrar usuario no es error: la orden queda como invitado.
func (s *OrderService) resolveUID(ctx context.Context, sess *stripe.CheckoutSession) string {
	if uid := metadataUID(sess.Metadata); uid != "" {
		return uid
	}

	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	if email == "" {
		return ""
	}

	uid, err := s.users.FindUIDByEmail(ctx, email)
	if err != nil {
		s.log.Warn("user lookup by email failed", zap.String("orderId", sess.ID), zap.Error(err))
		return ""
	}
	return uid
}

func (s *OrderService) orderNumberFor(sess *stripe.CheckoutSession) (string, error) {
	if n := strings.TrimSpace(sess.Metadata[metaOrderNumber]); n != "" {
		if isOrderNumber(n) {
			return n, nil
		}
		s.log.Warn("ignoring malformed order number in metadata",
			zap.String("orderId", sess.ID), zap.String("orderNumber", n))
	}
	return s.newOrderNumber()
}

// Transition aplica una acción administrativa. delete borra sin mirar el
// estado; el resto sigue la tabla de transiciones y escribe solo si el estado
// leído sigue vigente.
func (s *OrderService) Transition(ctx context.Context, orderID string, action model.Action, actor model.Actor, tracking *model.Tracking) error {
	log := s.log.With(zap.String("orderId", orderID), zap.String("action", string(action)), zap.String("actor", actor.UID))

	if action == model.ActionDelete {
		if err := s.repo.Delete(ctx, orderID); err != nil {
			return err
		}
		log.Info("order deleted")
		return nil
	}

	if _, err := model.ParseAction(string(action)); err != nil {
		return err
	}

	ord, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	st, ok := nextStep(ord.Status, action)
	if !ok {
		log.Info("transition rejected", zap.String("status", string(ord.Status)))
		return ErrConflict
	}

	ch := repository.StatusChange{
		From:  []model.Status{ord.Status},
		To:    st.to,
		Stamp: st.stamp,
		Actor: actor,
		At:    s.now(),
	}
	if st.effect == effectShipmentNotice {
		ch.Tracking = tracking
	}

	if err := s.repo.UpdateStatus(ctx, orderID, ch); err != nil {
		if errors.Is(err, ErrConflict) {
			log.Info("transition lost a race")
		}
		return err
	}
	log.Info("order status updated", zap.String("from", string(ord.Status)), zap.String("to", string(st.to)))

	if st.effect == effectShipmentNotice {
		s.notifyShipped(ctx, orderID, log)
	}
	return nil
}

// El mail de envío se arma con la orden releída después de la escritura.
func (s *OrderService) notifyShipped(ctx context.Context, orderID string, log *zap.Logger) {
	ctx, cancel := s.detached(ctx)
	defer cancel()

	fresh, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		log.Error("reloading shipped order", zap.Error(err))
		return
	}
	if err := s.notifier.OrderShipped(ctx, fresh); err != nil {
		log.Error("sending shipment notification", zap.Error(err))
	}
}

// Getters
func (s *OrderService) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

func (s *OrderService) List(ctx context.Context, status model.Status) ([]*model.Order, error) {
	if status == "" {
		return s.repo.FindAll(ctx)
	}
	return s.repo.FindByStatus(ctx, status)
}

func (s *OrderService) GetByCustomer(ctx context.Context, uid string) ([]*model.Order, error) {
	return s.repo.FindByCustomerUID(ctx, uid)
}

func (s *OrderService) GetCustomerProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	return s.users.GetProfile(ctx, uid)
}
