package provider

// Provider name of the payment processor.
type Provider string

const (
	UNKNOWN_PROVIDER Provider = ""
	PAYPAL           Provider = "paypal"
)
