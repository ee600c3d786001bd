package credit

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jmehdipour/credit-registry/internal/model"
)

const (
	MaxAmount       = 10_000_000
	MaxInterestRate = 100
	MinTermMonths   = 1
	MaxTermMonths   = 360
)

// Payload is an undecoded request body: field name to raw JSON value
// (json.Number, string, bool, nil, []any or map[string]any).
type Payload map[string]any

// ParsePayload decodes a JSON object body. An empty body or a JSON null
// yields an empty payload; emptiness is reported by the validators.
func ParsePayload(body []byte) (Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errMalformed
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errMalformed
	}

	switch doc := v.(type) {
	case nil:
		return Payload{}, nil
	case map[string]any:
		return Payload(doc), nil
	default:
		return nil, errNotObject
	}
}

// Draft is a credit that passed validation. Only ValidateCreate and
// ValidateUpdate build one, so a Draft is always safe to persist.
type Draft struct {
	c model.Credit
}

// Credit returns the normalized record. ID is zero for creates.
func (d Draft) Credit() model.Credit { return d.c }

// ValidateCreate checks a create payload: every field required, numbers
// parsed, then ranges checked in order amount, interest rate, term.
func ValidateCreate(p Payload) (Draft, error) {
	if len(p) == 0 {
		return Draft{}, errEmptyPayload
	}
	for _, f := range requiredFields {
		if isFalsy(p[f]) {
			return Draft{}, errRequired(f)
		}
	}

	var c model.Credit
	if err := apply(&c, p); err != nil {
		return Draft{}, err
	}
	return Draft{c: c}, nil
}

// ValidateUpdate checks only the fields present in p with the create rules and
// merges them over existing. On error nothing from p is applied.
func ValidateUpdate(existing model.Credit, p Payload) (Draft, error) {
	if len(p) == 0 {
		return Draft{}, errEmptyPayload
	}
	for _, f := range requiredFields {
		if v, ok := p[f]; ok && isFalsy(v) {
			return Draft{}, errRequired(f)
		}
	}

	c := existing
	if err := apply(&c, p); err != nil {
		return Draft{}, err
	}
	return Draft{c: c}, nil
}

// apply parses and range-checks the fields present in p into c. It works on a
// copy the caller discards on error.
func apply(c *model.Credit, p Payload) error {
	var (
		amount, rate float64
		term         int
		err          error
	)

	_, hasAmount := p[FieldAmount]
	_, hasRate := p[FieldInterestRate]
	_, hasTerm := p[FieldTermMonths]

	if hasAmount {
		if amount, err = parseFloat(FieldAmount, p[FieldAmount]); err != nil {
			return err
		}
	}
	if hasRate {
		if rate, err = parseFloat(FieldInterestRate, p[FieldInterestRate]); err != nil {
			return err
		}
	}
	if hasTerm {
		if term, err = parseInt(FieldTermMonths, p[FieldTermMonths]); err != nil {
			return err
		}
	}

	if hasAmount && (amount <= 0 || amount > MaxAmount) {
		return invalid(FieldAmount, "Monto debe ser mayor que 0 y no superar 10,000,000")
	}
	if hasRate && (rate < 0 || rate > MaxInterestRate) {
		return invalid(FieldInterestRate, "Tasa de interés debe estar entre 0% y 100%")
	}
	if hasTerm && (term < MinTermMonths || term > MaxTermMonths) {
		return invalid(FieldTermMonths, "Plazo debe estar entre 1 y 360 meses")
	}

	if v, ok := p[FieldClient]; ok {
		s, isText := v.(string)
		if !isText {
			return errNotText(FieldClient)
		}
		c.ClientName = strings.TrimSpace(s)
	}
	if v, ok := p[FieldGrantDate]; ok {
		s, isText := v.(string)
		if !isText {
			return errNotText(FieldGrantDate)
		}
		c.GrantDate = s
	}

	if hasAmount {
		c.Amount = amount
	}
	if hasRate {
		c.InterestRate = rate
	}
	if hasTerm {
		c.TermMonths = term
	}
	return nil
}

// isFalsy reports values treated as "not provided". Numeric zero is a value:
// a 0% interest rate is valid and a zero amount fails its range check.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

func parseFloat(field string, v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, errNumeric(field)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNumeric(field)
	}
	return f, nil
}

// parseInt accepts integer strings and integral JSON numbers (12 or 12.0).
// Integers too large for any term collapse to a value that fails the range check.
func parseInt(field string, v any) (int, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return clampTerm(n), nil
		}
		f, err := x.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, errNumeric(field)
		}
		if math.IsNaN(f) || f != math.Trunc(f) {
			return 0, errNumeric(field)
		}
		if f > MaxTermMonths {
			return MaxTermMonths + 1, nil
		}
		if f < MinTermMonths {
			return MinTermMonths - 1, nil
		}
		return int(f), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(strings.TrimSpace(x), "-") {
				return MinTermMonths - 1, nil
			}
			return MaxTermMonths + 1, nil
		}
		if err != nil {
			return 0, errNumeric(field)
		}
		return clampTerm(n), nil
	default:
		return 0, errNumeric(field)
	}
}

func clampTerm(n int64) int {
	switch {
	case n > MaxTermMonths:
		return MaxTermMonths + 1
	case n < MinTermMonths:
		return MinTermMonths - 1
	default:
		return int(n)
	}
}
