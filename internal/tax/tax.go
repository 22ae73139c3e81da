// Package tax computes checkout VAT. A remote provider (Stripe Tax) is tried
// first; when it is missing or fails the flat UAE rate is applied locally.
package tax

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/fallback"
)

// Validation errors. Handlers map all of them to 400.
var (
	ErrNoItems        = errors.New("at least one line item is required")
	ErrNegativeAmount = errors.New("amounts must not be negative")
	ErrBadQuantity    = errors.New("quantity must be at least 1")
	ErrAmountTooLarge = errors.New("order amount is too large")
)

// MaxAmount caps subtotal plus shipping, in minor units. Keeping totals far
// below MaxInt64 leaves room for VAT on top.
const MaxAmount int64 = 1_000_000_000_000_000

// LineItem is one checkout line. Amount is the unit price in minor units.
type LineItem struct {
	Amount    int64  `json:"amount"`
	Quantity  int64  `json:"quantity"`
	TaxCode   string `json:"taxCode,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Address is the customer's shipping address.
type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Request is a tax calculation input.
type Request struct {
	Items    []LineItem `json:"items"`
	Shipping int64      `json:"shipping"`
	Address  Address    `json:"address"`
}

// Subtotal is the sum of amount x quantity over all lines.
func (r Request) Subtotal() int64 {
	var s int64
	for _, it := range r.Items {
		s += it.Amount * it.Quantity
	}
	return s
}

// Validate rejects empty carts, negative amounts, non-positive quantities
// and carts whose subtotal plus shipping exceeds MaxAmount.
func (r Request) Validate() error {
	if len(r.Items) == 0 {
		return ErrNoItems
	}
	if r.Shipping < 0 {
		return ErrNegativeAmount
	}
	if r.Shipping > MaxAmount {
		return ErrAmountTooLarge
	}
	sum := r.Shipping
	for i, it := range r.Items {
		if it.Amount < 0 {
			return fmt.Errorf("item %d: %w", i, ErrNegativeAmount)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("item %d: %w", i, ErrBadQuantity)
		}
		// checked before multiplying so amount x quantity cannot wrap
		if it.Amount > (MaxAmount-sum)/it.Quantity {
			return fmt.Errorf("item %d: %w", i, ErrAmountTooLarge)
		}
		sum += it.Amount * it.Quantity
	}
	return nil
}

// Result is what checkout shows. All amounts are minor units.
type Result struct {
	Subtotal int64           `json:"subtotal"`
	Shipping int64           `json:"shipping"`
	VAT      int64           `json:"vat"`
	VATRate  float64         `json:"vatRate"`
	Total    int64           `json:"total"`
	Currency string          `json:"currency"`
	Source   fallback.Source `json:"source"`
}

// Quote is a provider's answer: the exclusive tax and the grand total.
type Quote struct {
	Tax   int64
	Total int64
}

// Provider is a remote tax engine.
type Provider interface {
	Calculate(ctx context.Context, req Request, currency string) (Quote, error)
}

// Calculator combines an optional Provider with the manual VAT fallback.
type Calculator struct {
	provider Provider
	rate     decimal.Decimal
	currency string
	log      *zap.Logger
}

// NewCalculator returns a Calculator. provider may be nil.
func NewCalculator(provider Provider, rate decimal.Decimal, currency string, log *zap.Logger) *Calculator {
	return &Calculator{provider: provider, rate: rate, currency: currency, log: log}
}

// Rate returns the VAT rate used by the fallback path.
func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// Calculate validates req and prices it. It only fails on invalid input.
func (c *Calculator) Calculate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	subtotal := req.Subtotal()
	res := Result{
		Subtotal: subtotal,
		Shipping: req.Shipping,
		VATRate:  c.rate.InexactFloat64(),
		Currency: c.currency,
	}

	if c.provider != nil {
		q, err := c.provider.Calculate(ctx, req, c.currency)
		if err == nil {
			res.VAT, res.Total, res.Source = q.Tax, q.Total, fallback.Live
			return res, nil
		}
		c.log.Warn("tax provider failed, applying manual VAT", zap.Error(err))
	}

	res.VAT = ManualVAT(subtotal, req.Shipping, c.rate)
	res.Total = subtotal + req.Shipping + res.VAT
	res.Source = fallback.Canned
	return res, nil
}

// ManualVAT is round((subtotal + shipping) x rate), halves away from zero.
func ManualVAT(subtotal, shipping int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotal + shipping).Mul(rate).Round(0).IntPart()
}

// ToMinor converts a major-unit price (e.g. 129.99 AED) to minor units.
func ToMinor(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
