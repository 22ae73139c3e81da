package tax

import "strings"

// ShippingOption is one delivery method offered at checkout.
type ShippingOption struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Amount        int64    `json:"amount"`
	EstimatedDays string   `json:"estimatedDays"`
	Free          bool     `json:"free"`
	AvailableIn   []string `json:"availableIn,omitempty"`
}

// Shipping prices in fils.
const (
	standardRate        = 2500
	expressRate         = 4000
	expressDiscountRate = 1500
	sameDayRate         = 6000
)

var sameDayCities = []string{"Dubai", "Abu Dhabi"}

// ShippingOptions lists the methods available for a cart subtotal and city.
// Same-day delivery is only offered in Dubai and Abu Dhabi; an empty city
// lists it with its restriction.
func ShippingOptions(subtotal, freeThreshold int64, city string) []ShippingOption {
	free := subtotal >= freeThreshold

	standard := ShippingOption{
		ID: "standard", Name: "Standard Shipping",
		Description: "Delivery within UAE (3-5 business days)", Amount: standardRate,
		EstimatedDays: "3-5", Free: free,
	}
	express := ShippingOption{
		ID: "express", Name: "Express Shipping",
		Description: "Fast delivery within UAE (1-2 business days)", Amount: expressRate,
		EstimatedDays: "1-2",
	}
	if free {
		standard.Amount = 0
		express.Amount = expressDiscountRate
	}

	opts := []ShippingOption{standard, express}
	if city == "" || sameDayAvailable(city) {
		opts = append(opts, ShippingOption{
			ID: "same-day", Name: "Same Day Delivery",
			Description: "Same day delivery in Dubai & Abu Dhabi", Amount: sameDayRate,
			EstimatedDays: "Same day", AvailableIn: sameDayCities,
		})
	}
	return opts
}

// FindShipping returns the option with the given id, if offered.
func FindShipping(opts []ShippingOption, id string) (ShippingOption, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return ShippingOption{}, false
}

func sameDayAvailable(city string) bool {
	for _, c := range sameDayCities {
		if strings.EqualFold(strings.TrimSpace(city), c) {
			return true
		}
	}
	return false
}
