package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/database"
	"github.com/noah-isme/risetutor-api/internal/models"
	"github.com/noah-isme/risetutor-api/pkg/razorpay"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type gatewayStub struct {
	mu      sync.Mutex
	secret  string
	orders  int
	err     error
	lastReq razorpay.OrderRequest
}

func newGatewayStub() *gatewayStub {
	return &gatewayStub{secret: "rzp_secret"}
}

func (g *gatewayStub) KeyID() string { return "rzp_test_key" }

func (g *gatewayStub) CreateOrder(ctx context.Context, req razorpay.OrderRequest) (razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return razorpay.Order{}, g.err
	}
	g.orders++
	g.lastReq = req
	return razorpay.Order{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}, nil
}

func (g *gatewayStub) VerifyCallback(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(orderID, paymentID, signature, g.secret)
}

func (g *gatewayStub) sign(orderID, paymentID string) string {
	return razorpay.Sign(orderID, paymentID, g.secret)
}

type notifierStub struct {
	mu      sync.Mutex
	codes   map[string]string
	welcome []models.Student
	err     error
}

func newNotifierStub() *notifierStub {
	return &notifierStub{codes: map[string]string{}}
}

func (n *notifierStub) SendOTP(ctx context.Context, admission models.TemporaryAdmission, code string, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[admission.ID] = code
	return n.err
}

func (n *notifierStub) SendWelcome(ctx context.Context, student models.Student, password string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome = append(n.welcome, student)
	return n.err
}

func (n *notifierStub) codeFor(id string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[id]
}

type publisherStub struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (p *publisherStub) Publish(ctx context.Context, subject string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *publisherStub) Close() error { return nil }

func (p *publisherStub) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}
