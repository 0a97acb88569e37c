package web

// The house endpoints answer "can I afford a house?" two ways: an
// affordability analysis built from the tenant's income and spending shape,
// and a listing search sized to their downpayment.

import (
	"fmt"
	"math"
	"net/http"

	"cardledger/apiclients/homefinder"
	"cardledger/apiclients/investeasy"
)

// savingsHorizonMonths is the savings projection window for the analysis.
const savingsHorizonMonths = 60

// creditCardShare is the share of monthly income assumed to service credit
// card spending when estimating disposable income.
const creditCardShare = 0.15

type houseAnalysisPayload struct {
	MonthlyIncome        float64        `json:"monthly_income"`
	MonthlyRent          float64        `json:"monthly_rent"`
	MonthlyCreditCard    float64        `json:"monthly_credit_card"`
	DisposableIncome     float64        `json:"disposable_income"`
	MonthlySavings       float64        `json:"monthly_savings"`
	SavingsHorizonMonths int            `json:"savings_horizon_months"`
	TotalContributions   float64        `json:"total_contributions"`
	ProjectedSavings     float64        `json:"projected_savings"`
	InvestmentGrowth     float64        `json:"investment_growth"`
	ExpectedAnnualReturn string         `json:"expected_annual_return"`
	RiskTolerance        string         `json:"risk_tolerance"`
	Recommendations      []string       `json:"recommendations"`
	InvestEasyAnalysis   map[string]any `json:"investeasy_analysis"`
}

// analysisRecommendations builds the guidance strings for the analysis
// response.
func analysisRecommendations(monthlySavings, projected float64) []string {
	if monthlySavings <= 0 {
		return []string{
			"Your expenses currently exceed your income; reduce rent or credit card spending before saving for a downpayment.",
		}
	}
	return []string{
		fmt.Sprintf("Saving $%.2f per month could grow to $%.2f over five years.", monthlySavings, projected),
		"Consider a tax-advantaged account for downpayment savings.",
	}
}

// handleHouseAnalysis runs the affordability analysis. When an InvestEasy
// client is configured the projection is verified against a real simulated
// portfolio, which is deleted again afterwards.
func (web *WebApp) handleHouseAnalysis() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		form := &HouseAnalysisForm{}
		if err := DecodePostForm(r, form); err != nil {
			web.clientError(w, r, err.Error(), http.StatusBadRequest)
			return
		}
		v := NewValidator()
		form.Validate(v)
		if !v.Valid() {
			web.respondJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
				"error":  "invalid analysis inputs",
				"fields": v.Errors,
			})
			return
		}

		monthlyCreditCard := form.MonthlyIncome * creditCardShare
		disposable := form.MonthlyIncome - form.MonthlyRent - monthlyCreditCard
		monthlySavings := math.Max(0, disposable)

		rate := investeasy.ExpectedReturn(form.RiskTolerance)
		projected := investeasy.ProjectGrowth(monthlySavings, rate, savingsHorizonMonths)
		contributions := monthlySavings * savingsHorizonMonths

		payload := houseAnalysisPayload{
			MonthlyIncome:        form.MonthlyIncome,
			MonthlyRent:          form.MonthlyRent,
			MonthlyCreditCard:    monthlyCreditCard,
			DisposableIncome:     disposable,
			MonthlySavings:       monthlySavings,
			SavingsHorizonMonths: savingsHorizonMonths,
			TotalContributions:   contributions,
			ProjectedSavings:     projected,
			InvestmentGrowth:     projected - contributions,
			ExpectedAnnualReturn: fmt.Sprintf("%.1f%%", rate*100),
			RiskTolerance:        form.RiskTolerance,
			Recommendations:      analysisRecommendations(monthlySavings, projected),
			InvestEasyAnalysis: map[string]any{
				"success": false,
			},
		}

		if web.investEasy != nil {
			payload.InvestEasyAnalysis = web.investEasySimulation(r, monthlySavings)
		}

		web.respondJSON(w, r, http.StatusOK, payload)
	})
}

// investEasySimulation creates a throwaway client and portfolio on the
// InvestEasy sandbox and runs its growth simulation over the savings horizon
// to cross-check the local projection, deleting the client again before
// returning. Failures are reported in the payload rather than
// failing the analysis.
func (web *WebApp) investEasySimulation(r *http.Request, monthlySavings float64) map[string]any {

	ctx := r.Context()

	userID := web.userID(r)
	record, err := web.investEasy.CreateClient(ctx, userID, userID+"@cardledger.local", monthlySavings)
	if err != nil {
		web.log.Error("investeasy client creation failed", "error", err)
		return map[string]any{"success": false, "error": "portfolio simulation unavailable"}
	}
	defer func() {
		if err := web.investEasy.DeleteClient(ctx, record.ID); err != nil {
			web.log.Error("investeasy client cleanup failed", "client_id", record.ID, "error", err)
		}
	}()

	portfolio, err := web.investEasy.CreatePortfolio(ctx, record.ID, "balanced", monthlySavings)
	if err != nil {
		web.log.Error("investeasy portfolio creation failed", "client_id", record.ID, "error", err)
		return map[string]any{"success": false, "error": "portfolio simulation unavailable"}
	}

	simulation, err := web.investEasy.SimulateClient(ctx, record.ID, savingsHorizonMonths)
	if err != nil {
		web.log.Error("investeasy simulation failed", "client_id", record.ID, "error", err)
		return map[string]any{"success": false, "error": "portfolio simulation unavailable"}
	}

	return map[string]any{
		"success":          true,
		"portfolio_id":     portfolio.ID,
		"strategy":         "balanced",
		"simulated_months": simulation.Months,
		"simulated_value":  simulation.FinalValue,
		"simulated_growth": simulation.Growth,
	}
}

type houseListingPayload struct {
	Address               string                    `json:"address"`
	Price                 float64                   `json:"price"`
	LivingArea            float64                   `json:"living_area"`
	Bedrooms              float64                   `json:"bedrooms"`
	Bathrooms             float64                   `json:"bathrooms"`
	ImageURL              string                    `json:"image_url"`
	DetailURL             string                    `json:"detail_url"`
	MonthlyPayment        float64                   `json:"monthly_payment"`
	AffordabilityAnalysis houseAffordabilityPayload `json:"affordability_analysis"`
}

type houseAffordabilityPayload struct {
	DownpaymentCoverage     float64 `json:"downpayment_coverage"`
	LoanAmount              float64 `json:"loan_amount"`
	EstimatedMonthlyPayment float64 `json:"estimated_monthly_payment"`
}

// handleHouseSearch finds listings priced around the buyer's leveraged
// downpayment and attaches a mortgage affordability estimate to each.
func (web *WebApp) handleHouseSearch() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if web.homeFinder == nil {
			web.clientError(w, r, "listing search is not configured", http.StatusServiceUnavailable)
			return
		}

		form := NewHouseSearchForm()
		if err := DecodePostForm(r, form); err != nil {
			web.clientError(w, r, err.Error(), http.StatusBadRequest)
			return
		}
		v := NewValidator()
		form.Validate(v)
		if !v.Valid() {
			web.respondJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
				"error":  "invalid search inputs",
				"fields": v.Errors,
			})
			return
		}

		listings, err := web.homeFinder.Search(r.Context(), form.Location, form.Downpayment, form.Leverage)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		payload := make([]houseListingPayload, len(listings))
		for i, l := range listings {
			loan := math.Max(0, l.Price-form.Downpayment)
			payload[i] = houseListingPayload{
				Address:        l.Address,
				Price:          l.Price,
				LivingArea:     l.LivingArea,
				Bedrooms:       l.Bedrooms,
				Bathrooms:      l.Bathrooms,
				ImageURL:       l.ImageURL,
				DetailURL:      l.DetailURL,
				MonthlyPayment: homefinder.MonthlyPayment(l.Price, form.Downpayment),
				AffordabilityAnalysis: houseAffordabilityPayload{
					DownpaymentCoverage:     math.Round(form.Downpayment/l.Price*1000) / 10,
					LoanAmount:              loan,
					EstimatedMonthlyPayment: homefinder.MonthlyPayment(l.Price, form.Downpayment),
				},
			}
		}

		web.respondJSON(w, r, http.StatusOK, map[string]any{
			"houses": payload,
			"search_criteria": map[string]any{
				"location":    form.Location,
				"downpayment": form.Downpayment,
				"leverage":    form.Leverage,
			},
			"total_found": len(payload),
		})
	})
}
