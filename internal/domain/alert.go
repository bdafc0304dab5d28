package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

type AlertKind string

const (
	AlertOrder AlertKind = "order"
	AlertStock AlertKind = "stock"
	// AlertNotice is a short confirmation, such as sound being enabled.
	AlertNotice AlertKind = "notice"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityCritical Severity = "critical"
)

// Alert lives only in the alert engine's memory.
type Alert struct {
	Kind     AlertKind `json:"kind"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	RaisedAt time.Time `json:"raisedAt"`
}

// NewOrderMessage formats the order-arrival banner.
func NewOrderMessage(total float64, currency string) string {
	return fmt.Sprintf("NEW ORDER: %s %s", FormatAmount(total), currency)
}

// StockMessage formats the low-stock banner. Two different critical sets with the same size
// produce the same text.
func StockMessage(critical int) string {
	return fmt.Sprintf("STOCK ALERT: %d item(s) out of stock or below threshold!", critical)
}

// FormatAmount renders whole amounts without decimals and groups thousands with spaces.
func FormatAmount(v float64) string {
	neg := v < 0
	cents := int64(math.Round(math.Abs(v) * 100))
	whole, frac := cents/100, cents%100

	digits := strconv.FormatInt(whole, 10)
	var grouped []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ' ')
		}
		grouped = append(grouped, digits[i])
	}

	out := string(grouped)
	if frac != 0 {
		out += fmt.Sprintf(".%02d", frac)
	}
	if neg && cents != 0 {
		out = "-" + out
	}
	return out
}
