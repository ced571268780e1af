package paypal

import "encoding/json"

// Invoice representation of the invoice used both for creation and as
// returned by the processor. ID and Status are set by the processor.
type Invoice struct {
	ID                string          `json:"id,omitempty"`
	Status            string          `json:"status,omitempty"`
	Detail            InvoiceDetail   `json:"detail"`
	Invoicer          InvoicerInfo    `json:"invoicer"`
	PrimaryRecipients []RecipientInfo `json:"primary_recipients"`
	Items             []Item          `json:"items"`

	// Raw body as returned by the processor.
	Raw json.RawMessage `json:"-"`
}

// PayLink page where the recipient pays the invoice.
func (i *Invoice) PayLink() string {
	if i.Detail.Metadata == nil {
		return ""
	}
	return i.Detail.Metadata.RecipientViewURL
}

type InvoiceDetail struct {
	InvoiceNumber string       `json:"invoice_number,omitempty"`
	InvoiceDate   string       `json:"invoice_date,omitempty"`
	CurrencyCode  string       `json:"currency_code"`
	PaymentTerm   *PaymentTerm `json:"payment_term,omitempty"`
	Metadata      *Metadata    `json:"metadata,omitempty"`
}

type PaymentTerm struct {
	DueDate string `json:"due_date"`
}

type Metadata struct {
	RecipientViewURL string `json:"recipient_view_url,omitempty"`
	InvoicerViewURL  string `json:"invoicer_view_url,omitempty"`
}

type InvoicerInfo struct {
	EmailAddress string `json:"email_address"`
}

type RecipientInfo struct {
	BillingInfo BillingInfo `json:"billing_info"`
}

type BillingInfo struct {
	EmailAddress string `json:"email_address"`
}

type Item struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Quantity      string `json:"quantity"`
	UnitAmount    Money  `json:"unit_amount"`
	UnitOfMeasure string `json:"unit_of_measure"`
}

type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

const (
	UnitQuantity = "QUANTITY"
)

type nextInvoiceNumberResponse struct {
	InvoiceNumber string `json:"invoice_number"`
}

// LinkDescription locator of the created resource.
type LinkDescription struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type sendRequest struct {
	SendToInvoicer bool `json:"send_to_invoicer"`
}
