package model

// Credit is the DB entity persisted in the creditos table.
type Credit struct {
	ID           int64   `db:"id"                 json:"id"`
	ClientName   string  `db:"cliente"            json:"cliente"`
	Amount       float64 `db:"monto"              json:"monto"`
	InterestRate float64 `db:"tasa_interes"       json:"tasa_interes"`
	TermMonths   int     `db:"plazo"              json:"plazo"`
	GrantDate    string  `db:"fecha_otorgamiento" json:"fecha_otorgamiento"` // opaque, stored verbatim
}
