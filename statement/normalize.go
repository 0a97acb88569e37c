package statement

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Header is the flattened scalar portion of a statement, one row in the
// statements table. Nullable text columns are pointers; currency columns are
// NullDecimal so absent values persist as NULL rather than zero.
type Header struct {
	StatementID        string              `db:"statement_id"`
	UserID             string              `db:"user_id"`
	BankName           *string             `db:"bank_name"`
	CardType           *string             `db:"card_type"`
	PeriodStart        *string             `db:"period_start"`
	PeriodEnd          *string             `db:"period_end"`
	StatementDate      *string             `db:"statement_date"`
	AccountNumber      *string             `db:"account_number"`
	PageCurrent        *int64              `db:"page_current"`
	PageTotal          *int64              `db:"page_total"`
	SubtotalCredits    decimal.NullDecimal `db:"subtotal_credits"`
	SubtotalDebits     decimal.NullDecimal `db:"subtotal_debits"`
	InterestCharges    decimal.NullDecimal `db:"interest_charges"`
	CashAdvances       decimal.NullDecimal `db:"cash_advances"`
	Purchases          decimal.NullDecimal `db:"purchases"`
	EndingBalance      decimal.NullDecimal `db:"ending_balance"`
	MinimumPayment     decimal.NullDecimal `db:"minimum_payment"`
	PaymentDueDate     *string             `db:"payment_due_date"`
	CustomerName       *string             `db:"customer_name"`
	CustomerAddress    *string             `db:"customer_address"`
	CustomerEmail      *string             `db:"customer_email"`
	ContactSupportJSON string              `db:"contact_support_json"`
	RawJSON            string              `db:"raw_json"`
	InsertedAt         time.Time           `db:"inserted_at"`
}

// Transaction is one purchase or credit on a statement. Transactions have no
// identity of their own beyond their parent statement and are always replaced
// as a set on re-ingestion.
type Transaction struct {
	StatementID     string              `db:"statement_id"`
	RefNumber       *string             `db:"ref_number"`
	TransactionDate *string             `db:"transaction_date"`
	PostDate        *string             `db:"post_date"`
	Description     *string             `db:"description"`
	Amount          decimal.NullDecimal `db:"amount"`
	Location        *string             `db:"location"`
}

// Promotion is a promotional balance or rate note on a statement. The rate
// and expiry are free text as extracted; no format is imposed.
type Promotion struct {
	StatementID   string              `db:"statement_id"`
	Description   *string             `db:"description"`
	Rate          *string             `db:"rate"`
	EndingBalance decimal.NullDecimal `db:"ending_balance"`
	Expiry        *string             `db:"expiry"`
}

// Disclosure is one block of statement small print.
type Disclosure struct {
	StatementID string `db:"statement_id"`
	Disclosure  string `db:"disclosure"`
}

// currency normalizes a currency value to exactly two decimal places using
// round-half-up. The extractor returns amounts as JSON numbers but sometimes
// as quoted strings; both forms are accepted. Anything unparseable becomes
// NULL rather than an error, in keeping with the default-to-null policy for
// malformed fields.
func currency(m map[string]any, key string) decimal.NullDecimal {
	if m == nil {
		return decimal.NullDecimal{}
	}
	var s string
	switch v := m[key].(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	default:
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	// Round is half away from zero, the conventional rounding for currency.
	return decimal.NullDecimal{Decimal: d.Round(2), Valid: true}
}

// Normalize flattens a statement document into a header row and the three
// ordered child row sets for the given tenant and derived statement id.
// Normalization is a pure transformation: absent fields become NULL and no
// validation is applied to pass-through fields such as dates.
func Normalize(doc Document, userID, statementID string, now time.Time) (Header, []Transaction, []Promotion, []Disclosure) {
	md := doc.metadata()
	period := getMap(md, "statement_period")
	page := getMap(md, "page")
	cust := doc.customerInfo()
	totals := doc.totals()

	contactSupport, err := json.Marshal(getMap(doc, "contact_support_info"))
	if err != nil {
		contactSupport = []byte("{}")
	}

	header := Header{
		StatementID:        statementID,
		UserID:             userID,
		BankName:           getString(md, "bank_name"),
		CardType:           getString(md, "card_type"),
		PeriodStart:        getString(period, "start"),
		PeriodEnd:          getString(period, "end"),
		StatementDate:      getString(md, "statement_date"),
		AccountNumber:      getString(md, "account_number"),
		PageCurrent:        getInt(page, "current"),
		PageTotal:          getInt(page, "total"),
		SubtotalCredits:    currency(totals, "subtotal_credits"),
		SubtotalDebits:     currency(totals, "subtotal_debits"),
		InterestCharges:    currency(totals, "interest_charges"),
		CashAdvances:       currency(totals, "cash_advances"),
		Purchases:          currency(totals, "purchases"),
		EndingBalance:      currency(totals, "ending_balance"),
		MinimumPayment:     currency(totals, "minimum_payment"),
		PaymentDueDate:     getString(totals, "payment_due_date"),
		CustomerName:       getString(cust, "name"),
		CustomerAddress:    getString(cust, "address"),
		CustomerEmail:      getString(cust, "email"),
		ContactSupportJSON: string(contactSupport),
		RawJSON:            doc.RawJSON(),
		InsertedAt:         now,
	}

	var transactions []Transaction
	for _, item := range getList(doc, "transactions") {
		tx, ok := item.(map[string]any)
		if !ok {
			continue
		}
		transactions = append(transactions, Transaction{
			StatementID:     statementID,
			RefNumber:       getString(tx, "ref_number"),
			TransactionDate: getString(tx, "transaction_date"),
			PostDate:        getString(tx, "post_date"),
			Description:     getString(tx, "description"),
			Amount:          currency(tx, "amount"),
			Location:        getString(tx, "location"),
		})
	}

	var promotions []Promotion
	for _, item := range getList(doc, "promotions") {
		promo, ok := item.(map[string]any)
		if !ok {
			continue
		}
		promotions = append(promotions, Promotion{
			StatementID:   statementID,
			Description:   getString(promo, "description"),
			Rate:          getString(promo, "rate"),
			EndingBalance: currency(promo, "ending_balance"),
			Expiry:        getString(promo, "expiry"),
		})
	}

	// Disclosures are plain strings in the source document.
	var disclosures []Disclosure
	for _, item := range getList(doc, "disclosures") {
		if s, ok := item.(string); ok {
			disclosures = append(disclosures, Disclosure{
				StatementID: statementID,
				Disclosure:  s,
			})
		}
	}

	return header, transactions, promotions, disclosures
}
