package tax

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/tax/calculation"
)

// StripeProvider calculates tax with the Stripe Tax Calculations API.
type StripeProvider struct {
	client calculation.Client
}

// NewStripeProvider returns a provider using the default API backend.
func NewStripeProvider(secretKey string) *StripeProvider {
	return NewStripeProviderWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

// NewStripeProviderWithBackend lets tests point the client at a fake server.
func NewStripeProviderWithBackend(secretKey string, backend stripe.Backend) *StripeProvider {
	return &StripeProvider{client: calculation.Client{B: backend, Key: secretKey}}
}

// Calculate implements Provider.
func (p *StripeProvider) Calculate(ctx context.Context, req Request, currency string) (Quote, error) {
	params := &stripe.TaxCalculationParams{
		Currency: stripe.String(strings.ToLower(currency)),
		CustomerDetails: &stripe.TaxCalculationCustomerDetailsParams{
			Address: &stripe.AddressParams{
				Line1:      stripe.String(req.Address.Line1),
				City:       stripe.String(req.Address.City),
				State:      stripe.String(req.Address.State),
				PostalCode: stripe.String(req.Address.PostalCode),
				Country:    stripe.String(countryOrDefault(req.Address.Country)),
			},
			AddressSource: stripe.String("shipping"),
		},
		ShippingCost: &stripe.TaxCalculationShippingCostParams{
			Amount: stripe.Int64(req.Shipping),
		},
	}
	params.Context = ctx

	for _, it := range req.Items {
		line := &stripe.TaxCalculationLineItemParams{
			Amount:   stripe.Int64(it.Amount * it.Quantity),
			Quantity: stripe.Int64(it.Quantity),
		}
		if it.TaxCode != "" {
			line.TaxCode = stripe.String(it.TaxCode)
		}
		if it.Reference != "" {
			line.Reference = stripe.String(it.Reference)
		}
		params.LineItems = append(params.LineItems, line)
	}

	calc, err := p.client.New(params)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Tax: calc.TaxAmountExclusive, Total: calc.AmountTotal}, nil
}

func countryOrDefault(c string) string {
	if c == "" {
		return "AE"
	}
	return strings.ToUpper(c)
}
