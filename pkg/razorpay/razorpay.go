// Package razorpay adapts the Razorpay SDK to the order and callback
// verification operations used by the admission flow.
package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	rzp "github.com/razorpay/razorpay-go"
	"github.com/rs/zerolog"
)

// ErrUpstream wraps failures reported by the payment provider.
var ErrUpstream = errors.New("payment gateway request failed")

// Config carries gateway credentials.
type Config struct {
	KeyID     string
	KeySecret string
}

// OrderRequest describes an order to mint with the provider.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the provider's view of a created order.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// OrderCreator is the subset of the SDK used to create orders.
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Gateway talks to Razorpay.
type Gateway struct {
	orders OrderCreator
	keyID  string
	secret string
	logger zerolog.Logger
}

// New constructs a gateway backed by the Razorpay SDK client.
func New(cfg Config, logger zerolog.Logger) (*Gateway, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("razorpay credentials must be provided")
	}

	client := rzp.NewClient(cfg.KeyID, cfg.KeySecret)
	return NewWithOrders(client.Order, cfg, logger), nil
}

// NewWithOrders builds a gateway around a custom order creator.
func NewWithOrders(orders OrderCreator, cfg Config, logger zerolog.Logger) *Gateway {
	return &Gateway{
		orders: orders,
		keyID:  cfg.KeyID,
		secret: cfg.KeySecret,
		logger: logger.With().Str("component", "razorpay").Logger(),
	}
}

// KeyID returns the public key handed to the checkout widget.
func (g *Gateway) KeyID() string {
	return g.keyID
}

// CreateOrder mints an order for the given amount. The SDK call is synchronous;
// ctx is only checked before the request is sent.
func (g *Gateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for key, value := range req.Notes {
		notes[key] = value
	}

	payload := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}

	body, err := g.orders.Create(payload, nil)
	if err != nil {
		g.logger.Error().Err(err).Str("receipt", req.Receipt).Msg("order creation failed")
		return Order{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	id, _ := body["id"].(string)
	if strings.TrimSpace(id) == "" {
		return Order{}, fmt.Errorf("%w: order id missing in response", ErrUpstream)
	}

	order := Order{ID: id, Amount: req.AmountMinor, Currency: req.Currency, Receipt: req.Receipt}
	if amount, ok := body["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok && currency != "" {
		order.Currency = currency
	}

	g.logger.Info().Str("order_id", order.ID).Str("receipt", req.Receipt).Msg("order created")
	return order, nil
}

// VerifyCallback checks the checkout signature for orderID|paymentID.
func (g *Gateway) VerifyCallback(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, g.secret)
}

// VerifySignature recomputes HMAC-SHA256(orderID|paymentID) with secret and
// compares it to the hex signature in constant time.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}

	expected := Sign(orderID, paymentID, secret)
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(expected)
	return hmac.Equal(want, provided)
}

// Sign returns the hex HMAC-SHA256 signature Razorpay issues for a payment.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
