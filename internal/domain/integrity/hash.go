// Package integrity maintains the tamper-evident SHA-256 hash chain over
// posted journal entries, one chain per (journal, sequence prefix).
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tally/internal/core/types"
	"tally/internal/domain/entry"
)

// CurrentHashVersion is the algorithm used for newly written hashes.
// Versions 1-3 are retained to verify historical chains.
const CurrentHashVersion = 4

// StripVersionTag removes a "$<version>$" prefix from a stored hash. The
// tag is metadata: the next chain link is computed over the bare digest.
func StripVersionTag(stored string) string {
	_, digest := ParseVersion(stored)
	return digest
}

// ParseVersion splits a stored hash into its version and bare digest.
// Hashes written before version 4 are stored bare and report version 0;
// callers verifying them try the legacy versions in order.
func ParseVersion(stored string) (version int, digest string) {
	if !strings.HasPrefix(stored, "$") {
		return 0, stored
	}
	rest := stored[1:]
	sep := strings.IndexByte(rest, '$')
	if sep < 0 {
		return 0, stored
	}
	v, err := strconv.Atoi(rest[:sep])
	if err != nil {
		return 0, stored
	}
	return v, rest[sep+1:]
}

// monetary renders an amount for hashing. Versions 3+ pin the currency's
// decimal places; earlier versions used the minimal decimal form.
func monetary(m types.Money, version, decimalPlaces int) string {
	if version >= 3 {
		return types.FloatRepr(m, decimalPlaces)
	}
	return m.String()
}

// canonical builds the deterministic byte representation of an entry for
// the given hash version: one flat JSON object with sorted keys, compact
// separators and ASCII-escaped strings. Entry fields are name (version 2+),
// date, journal_id, company_id; each line contributes its protected fields
// keyed "line_<id>_<field>", references as integer ids.
func canonical(e *entry.JournalEntry, version, decimalPlaces int) ([]byte, error) {
	doc := map[string]any{
		"date":       e.Date.Format("2006-01-02"),
		"journal_id": e.JournalID,
		"company_id": e.CompanyID,
	}
	if version >= 2 {
		doc["name"] = e.Name
	}
	for _, l := range e.Lines {
		key := fmt.Sprintf("line_%d_", l.ID)
		doc[key+"account_id"] = l.AccountID
		var partner int64
		if l.PartnerID != nil {
			partner = *l.PartnerID
		}
		doc[key+"partner_id"] = partner
		doc[key+"debit"] = monetary(l.Debit, version, decimalPlaces)
		doc[key+"credit"] = monetary(l.Credit, version, decimalPlaces)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("canonicalize entry %d: %w", e.ID, err)
	}
	return asciiEscape(b), nil
}

// asciiEscape rewrites non-ASCII runes as \uXXXX escapes so the canonical
// form is byte-stable regardless of how strings were normalized upstream.
func asciiEscape(b []byte) []byte {
	ascii := true
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return b
	}

	out := make([]byte, 0, len(b)+16)
	for _, r := range string(b) {
		switch {
		case r < 0x80:
			out = append(out, byte(r))
		case r > 0xFFFF:
			hi, lo := utf16Split(r)
			out = append(out, fmt.Sprintf(`\u%04x\u%04x`, hi, lo)...)
		default:
			out = append(out, fmt.Sprintf(`\u%04x`, r)...)
		}
	}
	return out
}

func utf16Split(r rune) (rune, rune) {
	r -= 0x10000
	return 0xD800 + (r >> 10), 0xDC00 + (r & 0x3FF)
}

// HashEntry computes one chain link: SHA256 over the previous bare digest
// followed by the entry's canonical form. The returned string is the stored
// form: "$<version>$<hex>" for version 4+, bare hex before that.
func HashEntry(previous string, e *entry.JournalEntry, version, decimalPlaces int) (string, error) {
	payload, err := canonical(e, version, decimalPlaces)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(previous), payload...))
	digest := hex.EncodeToString(sum[:])
	if version >= 4 {
		return fmt.Sprintf("$%d$%s", version, digest), nil
	}
	return digest, nil
}
