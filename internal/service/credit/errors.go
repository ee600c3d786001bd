package credit

// Field names as they appear in request payloads.
const (
	FieldClient       = "cliente"
	FieldAmount       = "monto"
	FieldInterestRate = "tasa_interes"
	FieldTermMonths   = "plazo"
	FieldGrantDate    = "fecha_otorgamiento"
)

// requiredFields lists create-time fields in the order they are checked.
var requiredFields = []string{FieldClient, FieldAmount, FieldInterestRate, FieldTermMonths, FieldGrantDate}

// ValidationError reports rejected input. Field is empty when the problem is
// the payload as a whole. Reason is safe to return to API clients.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

var (
	errEmptyPayload = invalid("", "No se enviaron datos")
	errMalformed    = invalid("", "JSON inválido")
	errNotObject    = invalid("", "El cuerpo debe ser un objeto JSON")
)

func errRequired(field string) *ValidationError {
	return invalid(field, "El campo '"+field+"' es requerido")
}

func errNotText(field string) *ValidationError {
	return invalid(field, "El campo '"+field+"' debe ser texto")
}

func errNumeric(field string) *ValidationError {
	return invalid(field, "Datos numéricos inválidos")
}
