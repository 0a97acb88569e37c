package web

// Statement upload, listing and detail endpoints.

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"cardledger/db"
	"cardledger/ingest"
)

// maxUploadBytes limits statement PDF uploads. Statements are a handful of
// pages; 20MB is generous.
const maxUploadBytes = 20 << 20

// handleStatementUpload ingests a multipart PDF upload for the session's
// tenant and returns the derived statement id. Re-uploading the same
// statement returns the same id without duplicating rows.
func (web *WebApp) handleStatementUpload() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			web.clientError(w, r, fmt.Sprintf("invalid multipart upload: %v", err), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			web.clientError(w, r, "a 'file' form field with the statement PDF is required", http.StatusBadRequest)
			return
		}
		defer func() {
			_ = file.Close()
		}()

		pdf, err := io.ReadAll(file)
		if err != nil {
			web.ServerError(w, r, fmt.Errorf("upload read error: %w", err))
			return
		}

		userID := web.userID(r)
		web.log.Info("statement upload", "filename", header.Filename, "bytes", len(pdf), "user_id", userID)

		statementID, err := web.ingestor.IngestPDF(r.Context(), pdf, userID)
		if err != nil {
			var parseErr *ingest.ParseError
			switch {
			case errors.As(err, &parseErr):
				// The extractor produced something unusable; hand the raw
				// content back for diagnostics.
				web.respondJSON(w, r, http.StatusUnprocessableEntity, map[string]string{
					"error":       "could not parse statement extraction output",
					"raw_content": parseErr.Raw,
				})
			case errors.Is(err, db.ErrStorageUnavailable):
				web.clientError(w, r, "storage unavailable, retry later", http.StatusServiceUnavailable)
			default:
				web.ServerError(w, r, err)
			}
			return
		}

		web.respondJSON(w, r, http.StatusOK, map[string]string{
			"statement_id": statementID,
		})
	})
}

// statementSummaryPayload is one row of the statement listing.
type statementSummaryPayload struct {
	StatementID      string  `json:"statement_id"`
	BankName         *string `json:"bank_name"`
	CardType         *string `json:"card_type"`
	PeriodStart      *string `json:"period_start"`
	PeriodEnd        *string `json:"period_end"`
	StatementDate    *string `json:"statement_date"`
	AccountNumber    *string `json:"account_number"`
	InsertedAt       string  `json:"inserted_at"`
	TransactionCount int     `json:"transaction_count"`
	PromotionCount   int     `json:"promotion_count"`
	DisclosureCount  int     `json:"disclosure_count"`
}

// handleStatementsList lists the session tenant's statements.
func (web *WebApp) handleStatementsList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		summaries, err := web.db.StatementsList(r.Context(), web.userID(r))
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		payload := make([]statementSummaryPayload, len(summaries))
		for i, s := range summaries {
			payload[i] = statementSummaryPayload{
				StatementID:      s.StatementID,
				BankName:         s.BankName,
				CardType:         s.CardType,
				PeriodStart:      s.PeriodStart,
				PeriodEnd:        s.PeriodEnd,
				StatementDate:    s.StatementDate,
				AccountNumber:    s.AccountNumber,
				InsertedAt:       s.InsertedAt,
				TransactionCount: s.TransactionCount,
				PromotionCount:   s.PromotionCount,
				DisclosureCount:  s.DisclosureCount,
			}
		}
		web.respondJSON(w, r, http.StatusOK, map[string]any{
			"statements": payload,
		})
	})
}

// statementDetailPayload is the full statement view: the header row plus its
// child rows.
type statementDetailPayload struct {
	StatementID     string               `json:"statement_id"`
	UserID          string               `json:"user_id"`
	BankName        *string              `json:"bank_name"`
	CardType        *string              `json:"card_type"`
	PeriodStart     *string              `json:"period_start"`
	PeriodEnd       *string              `json:"period_end"`
	StatementDate   *string              `json:"statement_date"`
	AccountNumber   *string              `json:"account_number"`
	PageCurrent     *int64               `json:"page_current"`
	PageTotal       *int64               `json:"page_total"`
	SubtotalCredits *float64             `json:"subtotal_credits"`
	SubtotalDebits  *float64             `json:"subtotal_debits"`
	InterestCharges *float64             `json:"interest_charges"`
	CashAdvances    *float64             `json:"cash_advances"`
	Purchases       *float64             `json:"purchases"`
	EndingBalance   *float64             `json:"ending_balance"`
	MinimumPayment  *float64             `json:"minimum_payment"`
	PaymentDueDate  *string              `json:"payment_due_date"`
	CustomerName    *string              `json:"customer_name"`
	InsertedAt      string               `json:"inserted_at"`
	Transactions    []transactionPayload `json:"transactions"`
	Promotions      []promotionPayload   `json:"promotions"`
	Disclosures     []string             `json:"disclosures"`
}

type transactionPayload struct {
	RefNumber       *string  `json:"ref_number"`
	TransactionDate *string  `json:"transaction_date"`
	PostDate        *string  `json:"post_date"`
	Description     *string  `json:"description"`
	Amount          *float64 `json:"amount"`
	Location        *string  `json:"location"`
}

type promotionPayload struct {
	Description   *string  `json:"description"`
	Rate          *string  `json:"rate"`
	EndingBalance *float64 `json:"ending_balance"`
	Expiry        *string  `json:"expiry"`
}

// nullableFloat converts a NullDecimal to a JSON-friendly *float64.
func nullableFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// handleStatementDetail serves one statement with its child rows.
func (web *WebApp) handleStatementDetail() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		vars, err := validMuxVars(mux.Vars(r), "id")
		if err != nil {
			web.clientError(w, r, err.Error(), http.StatusBadRequest)
			return
		}
		statementID := vars["id"]

		row, transactions, promotions, disclosures, err := web.db.StatementGet(r.Context(), statementID)
		if errors.Is(err, sql.ErrNoRows) {
			web.clientError(w, r, fmt.Sprintf("statement %q not found", statementID), http.StatusNotFound)
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		payload := statementDetailPayload{
			StatementID:     row.StatementID,
			UserID:          row.UserID,
			BankName:        row.BankName,
			CardType:        row.CardType,
			PeriodStart:     row.PeriodStart,
			PeriodEnd:       row.PeriodEnd,
			StatementDate:   row.StatementDate,
			AccountNumber:   row.AccountNumber,
			PageCurrent:     row.PageCurrent,
			PageTotal:       row.PageTotal,
			SubtotalCredits: nullableFloat(row.SubtotalCredits),
			SubtotalDebits:  nullableFloat(row.SubtotalDebits),
			InterestCharges: nullableFloat(row.InterestCharges),
			CashAdvances:    nullableFloat(row.CashAdvances),
			Purchases:       nullableFloat(row.Purchases),
			EndingBalance:   nullableFloat(row.EndingBalance),
			MinimumPayment:  nullableFloat(row.MinimumPayment),
			PaymentDueDate:  row.PaymentDueDate,
			CustomerName:    row.CustomerName,
			InsertedAt:      row.InsertedAt,
			Transactions:    make([]transactionPayload, len(transactions)),
			Promotions:      make([]promotionPayload, len(promotions)),
			Disclosures:     make([]string, len(disclosures)),
		}
		for i, t := range transactions {
			payload.Transactions[i] = transactionPayload{
				RefNumber:       t.RefNumber,
				TransactionDate: t.TransactionDate,
				PostDate:        t.PostDate,
				Description:     t.Description,
				Amount:          nullableFloat(t.Amount),
				Location:        t.Location,
			}
		}
		for i, p := range promotions {
			payload.Promotions[i] = promotionPayload{
				Description:   p.Description,
				Rate:          p.Rate,
				EndingBalance: nullableFloat(p.EndingBalance),
				Expiry:        p.Expiry,
			}
		}
		for i, d := range disclosures {
			payload.Disclosures[i] = d.Disclosure
		}

		web.respondJSON(w, r, http.StatusOK, payload)
	})
}
