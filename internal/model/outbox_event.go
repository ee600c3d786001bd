package model

type OutboxEvent struct {
	ID          int64  `db:"id"`
	Aggregate   string `db:"aggregate"`    // e.g. "credito"
	AggregateID string `db:"aggregate_id"` // credit id
	Topic       string `db:"topic"`
	Payload     []byte `db:"payload"`
}
