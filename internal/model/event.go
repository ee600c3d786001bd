package model

import "time"

type CreditEventType string

const (
	CreditCreated CreditEventType = "created"
	CreditUpdated CreditEventType = "updated"
	CreditDeleted CreditEventType = "deleted"
)

func (t CreditEventType) String() string { return string(t) }

func (t CreditEventType) Valid() bool {
	return t == CreditCreated || t == CreditUpdated || t == CreditDeleted
}

// CreditEvent is the change-feed payload written to the outbox and published to Kafka
// (via Debezium outbox SMT). For deletes Credit holds the last stored state.
type CreditEvent struct {
	ID         string          `json:"id"` // ULID
	Type       CreditEventType `json:"type"`
	CreditID   int64           `json:"credit_id"`
	Credit     Credit          `json:"credit"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// CreditEventRow is the flattened change-feed row stored in ClickHouse.
type CreditEventRow struct {
	EventID      string    `db:"event_id"           json:"event_id"`
	Type         string    `db:"type"               json:"tipo"`
	CreditID     int64     `db:"credit_id"          json:"credito_id"`
	ClientName   string    `db:"cliente"            json:"cliente"`
	Amount       float64   `db:"monto"              json:"monto"`
	InterestRate float64   `db:"tasa_interes"       json:"tasa_interes"`
	TermMonths   int32     `db:"plazo"              json:"plazo"`
	GrantDate    string    `db:"fecha_otorgamiento" json:"fecha_otorgamiento"`
	OccurredAt   time.Time `db:"occurred_at"        json:"ocurrido_en"`
}

// Row flattens the event for the analytics store.
func (e CreditEvent) Row() CreditEventRow {
	return CreditEventRow{
		EventID:      e.ID,
		Type:         e.Type.String(),
		CreditID:     e.CreditID,
		ClientName:   e.Credit.ClientName,
		Amount:       e.Credit.Amount,
		InterestRate: e.Credit.InterestRate,
		TermMonths:   int32(e.Credit.TermMonths),
		GrantDate:    e.Credit.GrantDate,
		OccurredAt:   e.OccurredAt,
	}
}
