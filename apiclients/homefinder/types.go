package homefinder

import "math"

// Listing is one for-sale property as returned by the search API.
type Listing struct {
	Address    string  `json:"address"`
	Price      float64 `json:"price"`
	LivingArea float64 `json:"livingArea"`
	Bedrooms   float64 `json:"bedrooms"`
	Bathrooms  float64 `json:"bathrooms"`
	ImageURL   string  `json:"imgSrc"`
	DetailURL  string  `json:"detailUrl"`
}

// Default mortgage terms for affordability estimates.
const (
	DefaultInterestRate = 0.065
	DefaultTermYears    = 30
)

// MonthlyPayment estimates the monthly payment for a standard amortized
// mortgage at the default rate and term. Fully covered purchases cost
// nothing monthly.
func MonthlyPayment(price, downpayment float64) float64 {
	return AmortizedPayment(price-downpayment, DefaultInterestRate, DefaultTermYears)
}

// AmortizedPayment computes the fixed monthly payment amortizing loanAmount
// over years at the given annual interest rate, rounded to cents.
func AmortizedPayment(loanAmount, annualRate float64, years int) float64 {
	if loanAmount <= 0 {
		return 0
	}
	payments := float64(years * 12)
	monthlyRate := annualRate / 12
	if monthlyRate == 0 {
		return roundCents(loanAmount / payments)
	}
	factor := math.Pow(1+monthlyRate, payments)
	return roundCents(loanAmount * (monthlyRate * factor) / (factor - 1))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
