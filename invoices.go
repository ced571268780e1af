package invoicer

// Currency the only currency invoices are issued in.
const Currency = "GBP"

// Invoice statuses reported by the processor.
// The processor owns the state machine, the list is not exhaustive.
const (
	DRAFT              = "DRAFT"
	SENT               = "SENT"
	SCHEDULED          = "SCHEDULED"
	PAID               = "PAID"
	MARKED_AS_PAID     = "MARKED_AS_PAID"
	CANCELLED          = "CANCELLED"
	REFUNDED           = "REFUNDED"
	PARTIALLY_PAID     = "PARTIALLY_PAID"
	PARTIALLY_REFUNDED = "PARTIALLY_REFUNDED"
	MARKED_AS_REFUNDED = "MARKED_AS_REFUNDED"
	UNPAID             = "UNPAID"
	PAYMENT_PENDING    = "PAYMENT_PENDING"
)

// IsFinal reports whether no further transitions are expected for status.
func IsFinal(status string) bool {
	switch status {
	case PAID, MARKED_AS_PAID, CANCELLED, REFUNDED, MARKED_AS_REFUNDED:
		return true
	}
	return false
}
