package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/schema"
)

// ------------------------------------------------------------------------------
// Helpers
// ------------------------------------------------------------------------------

// Validator holds a map of validation errors, keyed by the form field name.
type Validator struct {
	Errors map[string]string
}

// NewValidator creates a new, initialized Validator.
func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the Errors map is empty.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error message to the map for a given field if one
// doesn't already exist for that field.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check is a helper for conditional validation. If `ok` is false, it
// calls AddError with the provided key and message.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// validMuxVars checks that the required keys are in the url route variable
// parameters, such as the `id` in
//
//	"/statements/{id:[a-f0-9]{40}}"
func validMuxVars(vars map[string]string, keys ...string) (map[string]string, error) {
	for _, key := range keys {
		if _, ok := vars[key]; !ok {
			return nil, fmt.Errorf("parameter %q missing", key)
		}
	}
	return vars, nil
}

// DecodePostForm is a helper that decodes POST form values from a request
// into a destination struct (dst).
func DecodePostForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("form parsing error: %v", err)
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(dst, r.PostForm); err != nil {
		return fmt.Errorf("form decoding error: %v", err)
	}
	return nil
}

// ------------------------------------------------------------------------------
// Forms
// ------------------------------------------------------------------------------

// HouseAnalysisForm carries the inputs to the house-buying analysis.
type HouseAnalysisForm struct {
	MonthlyIncome float64 `schema:"monthly_income"`
	MonthlyRent   float64 `schema:"monthly_rent"`
	RiskTolerance string  `schema:"risk_tolerance"`
}

// Validate checks HouseAnalysisForm fields and populates Validator with any
// errors.
func (f *HouseAnalysisForm) Validate(v *Validator) {
	v.Check(f.MonthlyIncome > 0, "monthly_income", "Monthly income must be positive.")
	v.Check(f.MonthlyRent >= 0, "monthly_rent", "Monthly rent cannot be negative.")
	v.Check(f.RiskTolerance != "", "risk_tolerance", "Risk tolerance must be provided.")
}

// HouseSearchForm carries the inputs to the listing search.
type HouseSearchForm struct {
	Location    string  `schema:"location"`
	Downpayment float64 `schema:"downpayment"`
	Leverage    float64 `schema:"leverage"`
}

// NewHouseSearchForm creates a HouseSearchForm with defaults.
func NewHouseSearchForm() *HouseSearchForm {
	return &HouseSearchForm{Leverage: 5}
}

// Validate checks HouseSearchForm fields and populates Validator with any
// errors.
func (f *HouseSearchForm) Validate(v *Validator) {
	v.Check(f.Location != "", "location", "Location must be provided.")
	v.Check(f.Downpayment > 0, "downpayment", "Downpayment must be positive.")
	v.Check(f.Leverage > 0, "leverage", "Leverage must be positive.")
}
