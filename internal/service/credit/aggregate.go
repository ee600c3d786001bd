package credit

import (
	"sort"

	"github.com/jmehdipour/credit-registry/internal/model"
	"github.com/shopspring/decimal"
)

// Amount range boundaries. Buckets are (-inf, LowMax], (LowMax, MidMax], (MidMax, +inf).
// The mid bucket starts right above LowMax rather than at 5001, as its label
// reads, so fractional amounts such as 5000.5 still land in exactly one bucket.
const (
	LowMax = 5000
	MidMax = 15000
)

type ClientTotal struct {
	Client string  `json:"cliente"`
	Total  float64 `json:"total"`
}

type AmountBuckets struct {
	Low  int `json:"0 - 5000"`
	Mid  int `json:"5001 - 15000"`
	High int `json:"15001+"`
}

type Summary struct {
	Count         int     `json:"total_creditos"`
	TotalAmount   float64 `json:"monto_total"`
	UniqueClients int     `json:"clientes_unicos"`
	AverageAmount float64 `json:"monto_promedio"`
}

// Total sums amounts; zero for no records.
func Total(records []model.Credit) float64 {
	return sum(records).InexactFloat64()
}

// TotalsByClient sums amounts per exact client_name value, sorted by name.
// "Ana" and "ana" are different clients.
func TotalsByClient(records []model.Credit) []ClientTotal {
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		sums[r.ClientName] = sums[r.ClientName].Add(decimal.NewFromFloat(r.Amount))
	}

	out := make([]ClientTotal, 0, len(sums))
	for client, total := range sums {
		out = append(out, ClientTotal{Client: client, Total: total.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

// AmountRanges counts records per amount bucket. Every record lands in exactly one.
func AmountRanges(records []model.Credit) AmountBuckets {
	var b AmountBuckets
	for _, r := range records {
		switch {
		case r.Amount <= LowMax:
			b.Low++
		case r.Amount <= MidMax:
			b.Mid++
		default:
			b.High++
		}
	}
	return b
}

// Summarize returns count, sum, distinct clients and average amount.
// The average of no records is 0.
func Summarize(records []model.Credit) Summary {
	clients := make(map[string]struct{}, len(records))
	for _, r := range records {
		clients[r.ClientName] = struct{}{}
	}

	total := sum(records)
	s := Summary{
		Count:         len(records),
		TotalAmount:   total.InexactFloat64(),
		UniqueClients: len(clients),
	}
	if len(records) > 0 {
		s.AverageAmount = total.Div(decimal.NewFromInt(int64(len(records)))).InexactFloat64()
	}
	return s
}

func sum(records []model.Credit) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Amount))
	}
	return total
}
