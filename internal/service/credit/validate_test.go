package credit

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmehdipour/credit-registry/internal/model"
)

func mustPayload(t *testing.T, body string) Payload {
	t.Helper()
	p, err := ParsePayload([]byte(body))
	if err != nil {
		t.Fatalf("ParsePayload(%s): %v", body, err)
	}
	return p
}

func validationErr(t *testing.T, err error) *ValidationError {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	return ve
}

const validBody = `{"cliente":"Ana ","monto":1000,"tasa_interes":5,"plazo":12,"fecha_otorgamiento":"2024-01-01"}`

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLen int
		wantErr string
	}{
		{name: "empty body", body: "", wantLen: 0},
		{name: "whitespace body", body: "  \n", wantLen: 0},
		{name: "null", body: "null", wantLen: 0},
		{name: "object", body: `{"monto": 1}`, wantLen: 1},
		{name: "malformed", body: `{"monto": `, wantErr: "JSON inválido"},
		{name: "trailing data", body: `{} {}`, wantErr: "JSON inválido"},
		{name: "array", body: `[1,2]`, wantErr: "El cuerpo debe ser un objeto JSON"},
		{name: "string", body: `"x"`, wantErr: "El cuerpo debe ser un objeto JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePayload([]byte(tt.body))
			if tt.wantErr != "" {
				if ve := validationErr(t, err); ve.Reason != tt.wantErr {
					t.Fatalf("reason = %q, want %q", ve.Reason, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(p) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(p), tt.wantLen)
			}
		})
	}
}

func TestValidateCreateNormalizes(t *testing.T) {
	d, err := ValidateCreate(mustPayload(t, validBody))
	if err != nil {
		t.Fatalf("ValidateCreate: %v", err)
	}
	want := model.Credit{
		ClientName:   "Ana",
		Amount:       1000,
		InterestRate: 5,
		TermMonths:   12,
		GrantDate:    "2024-01-01",
	}
	if got := d.Credit(); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestValidateCreateAcceptsNumericStrings(t *testing.T) {
	d, err := ValidateCreate(mustPayload(t,
		`{"cliente":"Bob","monto":"2500.75","tasa_interes":" 7.5 ","plazo":"24","fecha_otorgamiento":"ayer"}`))
	if err != nil {
		t.Fatalf("ValidateCreate: %v", err)
	}
	c := d.Credit()
	if c.Amount != 2500.75 || c.InterestRate != 7.5 || c.TermMonths != 24 || c.GrantDate != "ayer" {
		t.Fatalf("unexpected credit: %+v", c)
	}
}

func TestValidateCreateRequired(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing cliente", `{"monto":1,"tasa_interes":1,"plazo":1,"fecha_otorgamiento":"x"}`, FieldClient},
		{"blank cliente", `{"cliente":"   ","monto":1,"tasa_interes":1,"plazo":1,"fecha_otorgamiento":"x"}`, FieldClient},
		{"null monto", `{"cliente":"a","monto":null,"tasa_interes":1,"plazo":1,"fecha_otorgamiento":"x"}`, FieldAmount},
		{"empty monto", `{"cliente":"a","monto":"","tasa_interes":1,"plazo":1,"fecha_otorgamiento":"x"}`, FieldAmount},
		{"missing tasa", `{"cliente":"a","monto":1,"plazo":1,"fecha_otorgamiento":"x"}`, FieldInterestRate},
		{"false plazo", `{"cliente":"a","monto":1,"tasa_interes":1,"plazo":false,"fecha_otorgamiento":"x"}`, FieldTermMonths},
		{"missing fecha", `{"cliente":"a","monto":1,"tasa_interes":1,"plazo":1}`, FieldGrantDate},
		{"first missing wins", `{"fecha_otorgamiento":"x"}`, FieldClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateCreate(mustPayload(t, tt.body))
			ve := validationErr(t, err)
			if ve.Field != tt.field {
				t.Fatalf("field = %q, want %q", ve.Field, tt.field)
			}
			if want := "El campo '" + tt.field + "' es requerido"; ve.Reason != want {
				t.Fatalf("reason = %q, want %q", ve.Reason, want)
			}
		})
	}
}

func TestValidateCreateEmptyPayload(t *testing.T) {
	for _, body := range []string{"", "{}", "null"} {
		_, err := ValidateCreate(mustPayload(t, body))
		if ve := validationErr(t, err); ve.Reason != "No se enviaron datos" {
			t.Fatalf("body %q: reason = %q", body, ve.Reason)
		}
	}
}

func TestValidateCreateInvalidNumbers(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"text amount", `{"cliente":"a","monto":"mucho","tasa_interes":1,"plazo":1,"fecha_otorgamiento":"x"}`},
		{"bool rate", `{"cliente":"a","monto":1,"tasa_interes":true,"plazo":1,"fecha_otorgamiento":"x"}`},
		{"nan rate", `{"cliente":"a","monto":1,"tasa_interes":"NaN","plazo":1,"fecha_otorgamiento":"x"}`},
		{"fractional term rejected instead of truncated", `{"cliente":"a","monto":1,"tasa_interes":1,"plazo":12.5,"fecha_otorgamiento":"x"}`},
		{"decimal string term", `{"cliente":"a","monto":1,"tasa_interes":1,"plazo":"12.0","fecha_otorgamiento":"x"}`},
		{"object term", `{"cliente":"a","monto":1,"tasa_interes":1,"plazo":{"n":1},"fecha_otorgamiento":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateCreate(mustPayload(t, tt.body))
			if ve := validationErr(t, err); ve.Reason != "Datos numéricos inválidos" {
				t.Fatalf("reason = %q", ve.Reason)
			}
		})
	}
}

func TestValidateCreateIntegralFloatTerm(t *testing.T) {
	d, err := ValidateCreate(mustPayload(t,
		`{"cliente":"a","monto":1,"tasa_interes":1,"plazo":12.0,"fecha_otorgamiento":"x"}`))
	if err != nil {
		t.Fatalf("ValidateCreate: %v", err)
	}
	if d.Credit().TermMonths != 12 {
		t.Fatalf("term = %d, want 12", d.Credit().TermMonths)
	}
}

func createWith(field, raw string) Payload {
	p := Payload{
		FieldClient:       "a",
		FieldAmount:       "1000",
		FieldInterestRate: "5",
		FieldTermMonths:   "12",
		FieldGrantDate:    "2024-01-01",
	}
	p[field] = raw
	return p
}

func TestAmountRange(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
	}{
		{"0", false},
		{"-5", false},
		{"0.01", true},
		{"10000000", true},
		{"10000000.000001", false},
		{"1e8", false},
	}
	for _, tt := range tests {
		_, err := ValidateCreate(createWith(FieldAmount, tt.raw))
		if tt.valid && err != nil {
			t.Errorf("monto %s: unexpected error %v", tt.raw, err)
		}
		if !tt.valid {
			ve := validationErr(t, err)
			if ve.Field != FieldAmount || !strings.Contains(ve.Reason, "Monto") {
				t.Errorf("monto %s: got %+v", tt.raw, ve)
			}
		}
	}
}

func TestInterestRateRange(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
	}{
		{"-0.0001", false},
		{"0", true},
		{"55.5", true},
		{"100", true},
		{"100.01", false},
	}
	for _, tt := range tests {
		_, err := ValidateCreate(createWith(FieldInterestRate, tt.raw))
		if tt.valid && err != nil {
			t.Errorf("tasa %s: unexpected error %v", tt.raw, err)
		}
		if !tt.valid {
			if ve := validationErr(t, err); ve.Field != FieldInterestRate {
				t.Errorf("tasa %s: got %+v", tt.raw, ve)
			}
		}
	}
}

func TestZeroInterestRateJSONNumberIsNotMissing(t *testing.T) {
	_, err := ValidateCreate(mustPayload(t,
		`{"cliente":"a","monto":1,"tasa_interes":0,"plazo":1,"fecha_otorgamiento":"x"}`))
	if err != nil {
		t.Fatalf("0%% interest must be accepted, got %v", err)
	}
}

func TestTermRange(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
	}{
		{"0", false},
		{"1", true},
		{"360", true},
		{"361", false},
		{"-1", false},
		{"99999999999999999999999", false},
	}
	for _, tt := range tests {
		_, err := ValidateCreate(createWith(FieldTermMonths, tt.raw))
		if tt.valid && err != nil {
			t.Errorf("plazo %s: unexpected error %v", tt.raw, err)
		}
		if !tt.valid {
			ve := validationErr(t, err)
			if ve.Field != FieldTermMonths || !strings.Contains(ve.Reason, "Plazo") {
				t.Errorf("plazo %s: got %+v", tt.raw, ve)
			}
		}
	}
}

func TestRangeCheckOrder(t *testing.T) {
	p := createWith(FieldAmount, "0")
	p[FieldInterestRate] = "500"
	p[FieldTermMonths] = "0"

	_, err := ValidateCreate(p)
	if ve := validationErr(t, err); ve.Field != FieldAmount {
		t.Fatalf("amount must be reported first, got %q", ve.Field)
	}
}

func TestTextFieldsMustBeStrings(t *testing.T) {
	p := createWith(FieldClient, "a")
	p[FieldClient] = 42.0

	_, err := ValidateCreate(p)
	if ve := validationErr(t, err); ve.Field != FieldClient {
		t.Fatalf("field = %q", ve.Field)
	}
}

func existingCredit() model.Credit {
	return model.Credit{
		ID:           7,
		ClientName:   "Ana",
		Amount:       1000,
		InterestRate: 5,
		TermMonths:   12,
		GrantDate:    "2024-01-01",
	}
}

func TestValidateUpdatePartial(t *testing.T) {
	d, err := ValidateUpdate(existingCredit(), mustPayload(t, `{"monto": 2500}`))
	if err != nil {
		t.Fatalf("ValidateUpdate: %v", err)
	}
	want := existingCredit()
	want.Amount = 2500
	if got := d.Credit(); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestValidateUpdateTrimsClient(t *testing.T) {
	d, err := ValidateUpdate(existingCredit(), mustPayload(t, `{"cliente": "  Bea  ", "fecha_otorgamiento": "2025-02-02"}`))
	if err != nil {
		t.Fatalf("ValidateUpdate: %v", err)
	}
	if c := d.Credit(); c.ClientName != "Bea" || c.GrantDate != "2025-02-02" || c.Amount != 1000 {
		t.Fatalf("unexpected credit: %+v", c)
	}
}

func TestValidateUpdateAllOrNothing(t *testing.T) {
	existing := existingCredit()

	// valid cliente and tasa alongside an invalid plazo: nothing may be applied
	d, err := ValidateUpdate(existing, mustPayload(t, `{"cliente":"Zoe","tasa_interes":9,"plazo":0}`))
	if ve := validationErr(t, err); ve.Field != FieldTermMonths {
		t.Fatalf("field = %q", ve.Field)
	}
	if d != (Draft{}) {
		t.Fatalf("expected zero draft on error, got %+v", d)
	}
	if existing != existingCredit() {
		t.Fatalf("existing record mutated: %+v", existing)
	}
}

func TestValidateUpdateRejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"empty", `{}`, "No se enviaron datos"},
		{"blank client", `{"cliente":"  "}`, "El campo 'cliente' es requerido"},
		{"bad number", `{"monto":"abc"}`, "Datos numéricos inválidos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateUpdate(existingCredit(), mustPayload(t, tt.body))
			if ve := validationErr(t, err); ve.Reason != tt.reason {
				t.Fatalf("reason = %q, want %q", ve.Reason, tt.reason)
			}
		})
	}
}

func TestValidateUpdateIgnoresUnknownKeys(t *testing.T) {
	d, err := ValidateUpdate(existingCredit(), mustPayload(t, `{"id": 99, "otro": true}`))
	if err != nil {
		t.Fatalf("ValidateUpdate: %v", err)
	}
	if d.Credit() != existingCredit() {
		t.Fatalf("unknown keys changed the record: %+v", d.Credit())
	}
}
