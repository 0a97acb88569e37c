package statement

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// identityDelimiter joins the identity key fields. The delimiter is part of
// the hashed input and must never change, or re-ingested statements would
// duplicate under new identifiers.
const identityDelimiter = "|"

// DeriveID computes the deterministic statement identifier for a document and
// tenant. The identifier is the SHA-1 hex digest (40 characters) of the
// tenant id, account number, statement period start and end, and statement
// date, joined by "|", with absent fields contributing empty strings.
//
// Only these five fields participate: two extractions of the same statement
// that differ in transaction content or totals still map to the same id,
// which is what makes re-ingestion idempotent. A document missing all key
// fields still derives deterministically (the hash of the delimiters alone),
// although such input almost certainly indicates a failed extraction.
func DeriveID(doc Document, userID string) string {
	md := doc.metadata()
	period := getMap(md, "statement_period")
	key := strings.Join([]string{
		userID,
		stringOrEmpty(md, "account_number"),
		stringOrEmpty(period, "start"),
		stringOrEmpty(period, "end"),
		stringOrEmpty(md, "statement_date"),
	}, identityDelimiter)
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
