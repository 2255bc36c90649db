package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "github.com/Kamar-Folarin/listing-sync/internal/errors"
)

// EuroLabel is the label of the EUR row in the official rates feed.
const EuroLabel = "Euro"

// ParseEurRate extracts the EUR rate from the feed. ok is false when the
// feed has no EUR row.
func ParseEurRate(r io.Reader) (rate decimal.Decimal, ok bool, err error) {
	return ParseRate(r, EuroLabel)
}

// ParseRate scans semicolon-delimited rows for the first one whose first
// field equals label and parses its last field, which uses a comma as the
// decimal separator.
func ParseRate(r io.Reader, label string) (decimal.Decimal, bool, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return decimal.Decimal{}, false, nil
		}
		if err != nil {
			return decimal.Decimal{}, false, apperrors.NewMalformedResponseError("rate feed", "unreadable row", err)
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) != label {
			continue
		}

		raw := strings.TrimSpace(row[len(row)-1])
		value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return decimal.Decimal{}, false, apperrors.NewMalformedResponseError("rate feed", fmt.Sprintf("invalid %s rate %q", label, raw), err)
		}
		return value, true, nil
	}
}
