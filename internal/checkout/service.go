package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"

	"github.com/quickplate/ordercore/internal/cart"
	"github.com/quickplate/ordercore/internal/orders"
	"github.com/quickplate/ordercore/pkg/config"
	"github.com/quickplate/ordercore/pkg/enums"
	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
	"github.com/quickplate/ordercore/pkg/metrics"
	"github.com/quickplate/ordercore/pkg/square"
	"github.com/quickplate/ordercore/pkg/types"
)

type paymentProcessor interface {
	Tokenize(ctx context.Context, params square.TokenizeParams) (string, error)
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	CompletePayment(ctx context.Context, paymentID string) (*sq.Payment, error)
	CancelPayment(ctx context.Context, paymentID string) (*sq.Payment, error)
}

type orderCreator interface {
	Create(ctx context.Context, req orders.CreateOrderRequest) (*orders.CreateOrderResponse, error)
}

// Service executes checkout orchestration.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Receipt, error)
}

// CardDetails carries the payment form's one-time source. Raw card
// numbers never reach this service.
type CardDetails struct {
	SourceID          string `json:"source_id" validate:"required"`
	CardholderName    string `json:"cardholder_name,omitempty"`
	VerificationToken string `json:"verification_token,omitempty"`
}

// SubmitInput is everything the checkout UI supplies on submission.
type SubmitInput struct {
	DeliveryAddress     types.Address       `json:"delivery_address"`
	PaymentMethod       enums.PaymentMethod `json:"payment_method" validate:"required"`
	Card                *CardDetails        `json:"card,omitempty"`
	Tip                 decimal.Decimal     `json:"tip"`
	SpecialInstructions *string             `json:"special_instructions,omitempty"`
	CustomerName        string              `json:"customer_name" validate:"required"`
	CustomerPhone       string              `json:"customer_phone" validate:"required"`
}

// Receipt is the successful checkout result.
type Receipt struct {
	OrderID      string             `json:"order_id"`
	Status       enums.OrderStatus  `json:"status"`
	FeeBreakdown types.FeeBreakdown `json:"fee_breakdown"`
	Total        decimal.Decimal    `json:"total"`
}

type service struct {
	cartSvc   cart.Service
	processor paymentProcessor
	orderAPI  orderCreator
	store     *orders.Store
	fees      config.FeeConfig
	metrics   *metrics.CheckoutMetrics
	logger    *logger.Logger
	inFlight  atomic.Bool
}

// NewService builds the checkout orchestrator.
func NewService(
	cartSvc cart.Service,
	processor paymentProcessor,
	orderAPI orderCreator,
	store *orders.Store,
	fees config.FeeConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if orderAPI == nil {
		return nil, fmt.Errorf("order api client required")
	}
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cartSvc:   cartSvc,
		processor: processor,
		orderAPI:  orderAPI,
		store:     store,
		fees:      fees,
		metrics:   checkoutMetrics,
		logger:    logg,
	}, nil
}

// Submit runs the checkout pipeline. The cart is cleared only after
// every step succeeds; any earlier failure leaves it intact so the
// user can correct and resubmit.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*Receipt, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a checkout is already in progress")
	}
	defer s.inFlight.Store(false)

	started := time.Now()
	receipt, err := s.submit(ctx, input)
	method := input.PaymentMethod.String()
	s.metrics.ObserveDuration(method, time.Since(started))
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncFailure(method, code)
		return nil, err
	}
	s.metrics.IncSuccess(method)
	return receipt, nil
}

func (s *service) submit(ctx context.Context, input SubmitInput) (*Receipt, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	snapshot := s.cartSvc.Snapshot(ctx)
	if snapshot.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	ctx = s.logger.WithSellerID(ctx, snapshot.SellerID)

	// Totals are always recomputed from the live cart and the fee
	// schedule. A precomputed total from the UI may be stale.
	fees := s.computeFees(snapshot.Subtotal, input.Tip)
	total := fees.Total()

	var paymentToken *string
	var paymentID string
	if input.PaymentMethod.RequiresTokenization() {
		token, err := s.processor.Tokenize(ctx, square.TokenizeParams{
			SourceID:          input.Card.SourceID,
			CardholderName:    input.Card.CardholderName,
			VerificationToken: input.Card.VerificationToken,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTokenization, err, "card tokenization failed")
		}
		paymentToken = &token

		// Authorization only. The card is not charged until the order
		// API accepts the order and the payment is captured below.
		payment, err := s.processor.CreatePayment(ctx, square.PaymentCreateParams{
			AmountCents:  total.Mul(decimal.NewFromInt(100)).IntPart(),
			SourceID:     token,
			Note:         fmt.Sprintf("order for seller %s", snapshot.SellerID),
			DelayCapture: true,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTokenization, err, "payment authorization failed")
		}
		paymentID = stringValue(payment.GetID())
	}

	resp, err := s.orderAPI.Create(ctx, orders.CreateOrderRequest{
		SellerID:            snapshot.SellerID,
		Items:               snapshot.Items,
		DeliveryAddress:     input.DeliveryAddress.Normalized(),
		PaymentMethod:       input.PaymentMethod,
		PaymentToken:        paymentToken,
		SpecialInstructions: input.SpecialInstructions,
		Customer: orders.Customer{
			Name:    input.CustomerName,
			Phone:   input.CustomerPhone,
			Address: input.DeliveryAddress.Normalized(),
		},
		FeeBreakdown: fees,
		Total:        total,
	})
	if err != nil {
		s.releaseAuthorization(ctx, paymentID)
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderCreation, err, "order creation failed")
	}

	// The order exists server-side from here on. Record it so a later
	// confirmation failure leaves it discoverable, not silently lost.
	s.store.Put(resp.Order)
	ctx = s.logger.WithOrderID(ctx, resp.Order.ID)

	if input.PaymentMethod.RequiresTokenization() {
		// Capture the authorization now that the order exists. The
		// order API may hand back its own confirmation id for the
		// capture; otherwise the authorization's payment id is used.
		confirmationID := paymentID
		if resp.Payment != nil && resp.Payment.ConfirmationID != "" {
			confirmationID = resp.Payment.ConfirmationID
		}
		if _, err := s.processor.CompletePayment(ctx, confirmationID); err != nil {
			s.logger.Error(ctx, "payment confirmation failed, order pending payment", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodePaymentConfirmation, err, "payment confirmation failed").
				WithDetails(map[string]any{
					"order_id":        resp.Order.ID,
					"confirmation_id": confirmationID,
				})
		}
	}

	s.cartSvc.Clear(ctx)
	s.logger.Info(ctx, "checkout complete")

	return &Receipt{
		OrderID:      resp.Order.ID,
		Status:       resp.Order.Status,
		FeeBreakdown: fees,
		Total:        total,
	}, nil
}

// releaseAuthorization voids a delayed-capture authorization after a
// downstream step fails. Best effort: the order creation error is the
// one surfaced, and an uncancelled authorization expires on its own.
func (s *service) releaseAuthorization(ctx context.Context, paymentID string) {
	if paymentID == "" {
		return
	}
	if _, err := s.processor.CancelPayment(ctx, paymentID); err != nil {
		s.logger.Error(ctx, "failed to void payment authorization", err)
	}
}

func (s *service) validate(input SubmitInput) error {
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if input.PaymentMethod.RequiresTokenization() {
		if input.Card == nil || strings.TrimSpace(input.Card.SourceID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "card details are required for card payments")
		}
	}
	if input.Tip.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tip cannot be negative")
	}
	if strings.TrimSpace(input.CustomerName) == "" || strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone are required")
	}
	if err := input.DeliveryAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
	}
	return nil
}

func (s *service) computeFees(subtotal, tip decimal.Decimal) types.FeeBreakdown {
	return types.FeeBreakdown{
		Subtotal:    subtotal,
		Tax:         subtotal.Mul(s.fees.TaxRate).Round(2),
		DeliveryFee: s.fees.DeliveryFee,
		ServiceFee:  s.fees.ServiceFee,
		Tip:         tip,
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
