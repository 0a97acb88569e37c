package investeasy

import "math"

// createClientRequest is the POST /clients payload. Portfolios must be
// present (and may be empty) or the API rejects the request.
type createClientRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Cash       float64  `json:"cash"`
	Portfolios []string `json:"portfolios"`
}

type createPortfolioRequest struct {
	Type          string  `json:"type"`
	InitialAmount float64 `json:"initialAmount"`
}

type simulateRequest struct {
	Months int `json:"months"`
}

// ClientRecord is an investment client as returned by the API.
type ClientRecord struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Cash  float64 `json:"cash"`
}

// Portfolio is one portfolio as returned by the API.
type Portfolio struct {
	ID            string  `json:"id"`
	ClientID      string  `json:"clientId"`
	Type          string  `json:"type"`
	InitialAmount float64 `json:"initialAmount"`
	CurrentValue  float64 `json:"currentValue"`
}

// Simulation is the result of a growth simulation run.
type Simulation struct {
	ClientID   string  `json:"clientId"`
	Months     int     `json:"months"`
	FinalValue float64 `json:"finalValue"`
	Growth     float64 `json:"growth"`
}

// riskReturns maps risk tolerance labels to expected annual returns.
var riskReturns = map[string]float64{
	"very-aggressive":   0.12,
	"aggressive":        0.10,
	"moderate":          0.08,
	"conservative":      0.06,
	"very-conservative": 0.04,
}

// defaultAnnualReturn is used for unrecognised risk tolerance labels.
const defaultAnnualReturn = 0.08

// ExpectedReturn returns the expected annual return for a risk tolerance
// label such as "moderate" or "very-aggressive".
func ExpectedReturn(riskTolerance string) float64 {
	if r, ok := riskReturns[riskTolerance]; ok {
		return r
	}
	return defaultAnnualReturn
}

// ProjectGrowth computes the future value of a fixed monthly contribution
// compounded monthly at the given annual return over months. A zero return
// degenerates to the plain sum of contributions.
func ProjectGrowth(monthlyContribution, annualReturn float64, months int) float64 {
	monthlyReturn := annualReturn / 12
	if monthlyReturn == 0 {
		return monthlyContribution * float64(months)
	}
	return monthlyContribution * ((math.Pow(1+monthlyReturn, float64(months)) - 1) / monthlyReturn)
}
