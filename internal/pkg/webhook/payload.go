package webhook

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

// orderCodePattern matches business order codes embedded in free-text
// transfer memos: a known alphabetic tier prefix followed by at least four
// alphanumerics. Banks uppercase, strip or pad memo text unpredictably, so
// matching is case-insensitive and extraction is best-effort.
var orderCodePattern = regexp.MustCompile(`(?i)\b(GH|SH|KM|QT|CTV)[A-Z0-9]{4,}\b`)

// BankTransferPayload is the loosely structured notification a bank-transfer
// gateway posts on an inbound credit. Only a subset of fields is reliable;
// everything else is kept verbatim in the receipt's raw payload.
type BankTransferPayload struct {
	ID              int64          `json:"id"`
	Gateway         string         `json:"gateway"`
	TransactionDate string         `json:"transactionDate"`
	AccountNumber   string         `json:"accountNumber"`
	SubAccount      string         `json:"subAccount"`
	TransferType    string         `json:"transferType"`
	TransferAmount  FlexibleAmount `json:"transferAmount"`
	Content         string         `json:"content"`
	ReferenceCode   string         `json:"referenceCode"`
	Description     string         `json:"description"`
}

// FlexibleAmount normalizes a money field that arrives as a JSON number or
// as a formatted string ("1,500,000" or "1500000.00") to whole units.
type FlexibleAmount int64

func (a *FlexibleAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	if s[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
		if s == "" {
			*a = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*a = FlexibleAmount(int64(math.Round(f)))
	return nil
}

func (a FlexibleAmount) Int64() int64 {
	return int64(a)
}

// ExtractOrderCode scans free text for the first order-code-shaped token and
// returns it uppercased, or "" when none is present.
func ExtractOrderCode(text string) string {
	match := orderCodePattern.FindString(text)
	if match == "" {
		return ""
	}
	return strings.ToUpper(match)
}

// ParsePayload decodes the raw body. Any JSON-level failure maps to
// ErrMalformedPayload so the handler can answer 400 uniformly.
func ParsePayload(raw []byte) (*BankTransferPayload, error) {
	var payload BankTransferPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrMalformedPayload
	}
	return &payload, nil
}
