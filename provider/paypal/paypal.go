// Package paypal is a client of the PayPal invoicing API: it logs in with
// client credentials, builds invoices from the product catalog, sends them
// and reads their status back.
package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/gebv/invoicer"
	"github.com/gebv/invoicer/provider"
)

const (
	PAYPAL provider.Provider = provider.PAYPAL

	DefaultEntrypointURL = "https://api-m.sandbox.paypal.com"
	DefaultTimeout       = 30 * time.Second

	DateFormat = "2006-01-02"
)

type Config struct {
	EntrypointURL string
	// Timeout of a single HTTP round trip, DefaultTimeout when zero.
	Timeout time.Duration
	// Transport base transport, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// CatalogLoader source of the product catalog, read on every new invoice.
type CatalogLoader interface {
	LoadProductCatalog() (invoicer.ProductCatalog, error)
}

// CatalogFunc adapts a function to CatalogLoader.
type CatalogFunc func() (invoicer.ProductCatalog, error)

func (f CatalogFunc) LoadProductCatalog() (invoicer.ProductCatalog, error) {
	return f()
}

func NewProvider(cfg Config, creds invoicer.ClientCredentials, catalog CatalogLoader) *Provider {
	if cfg.EntrypointURL == "" {
		cfg.EntrypointURL = DefaultEntrypointURL
	}
	cfg.EntrypointURL = strings.TrimRight(cfg.EntrypointURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	m := newMetrics()
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: m.transport(cfg.Transport),
	}
	session := NewSession(cfg.EntrypointURL+tokenPath, httpClient)
	return &Provider{
		cfg:     cfg,
		creds:   creds,
		catalog: catalog,
		session: session,
		c:       newClient(httpClient, session),
		m:       m,
		now:     time.Now,
		l:       zap.L().Named("paypal_provider"),
	}
}

type Provider struct {
	cfg     Config
	creds   invoicer.ClientCredentials
	catalog CatalogLoader
	session *Session
	c       *client
	m       *metrics
	now     func() time.Time
	l       *zap.Logger
}

// Session auth session shared by all calls of the provider.
func (p *Provider) Session() *Session {
	return p.session
}

// Login obtains a new bearer token with the configured credentials.
func (p *Provider) Login(ctx context.Context) error {
	_, err := p.session.Login(ctx, p.creds)
	return err
}

// NextInvoiceNumber asks PayPal for the next number in the invoice sequence.
func (p *Provider) NextInvoiceNumber(ctx context.Context) (string, error) {
	link := p.cfg.EntrypointURL + "/v2/invoicing/generate-next-invoice-number"
	out := &nextInvoiceNumberResponse{}
	_, err := p.c.POSTAndUnmarshalJson(ctx, endpointNextInvoiceNumber, link, nil, out)
	if err != nil {
		p.l.Warn(
			"generate next invoice number",
			zap.String("url", link),
			zap.Error(err),
		)
		return "", errors.Wrap(err, "Failed generate next invoice number")
	}
	if out.InvoiceNumber == "" {
		return "", errors.Wrap(invoicer.ErrAPI, "response missing invoice_number")
	}
	return out.InvoiceNumber, nil
}

// NewInvoice builds the draft invoice of one product for the recipient email.
// The invoice is dated today and due tomorrow.
func (p *Provider) NewInvoice(number, email string, product invoicer.Product) *Invoice {
	today := p.now()
	return &Invoice{
		Detail: InvoiceDetail{
			InvoiceNumber: "#" + number,
			InvoiceDate:   today.Format(DateFormat),
			CurrencyCode:  invoicer.Currency,
			PaymentTerm: &PaymentTerm{
				DueDate: today.AddDate(0, 0, 1).Format(DateFormat),
			},
		},
		Invoicer: InvoicerInfo{
			EmailAddress: p.creds.SenderEmail,
		},
		PrimaryRecipients: []RecipientInfo{
			{BillingInfo: BillingInfo{EmailAddress: email}},
		},
		Items: []Item{
			{
				Name:        product.Name,
				Description: product.Description,
				Quantity:    "1",
				UnitAmount: Money{
					CurrencyCode: invoicer.Currency,
					Value:        product.Cost,
				},
				UnitOfMeasure: UnitQuantity,
			},
		},
	}
}

// CreateInvoice creates a draft invoice of the product for the recipient.
// Returns the raw response and the id of the created invoice.
func (p *Provider) CreateInvoice(ctx context.Context, email, productID string) (json.RawMessage, string, error) {
	catalog, err := p.catalog.LoadProductCatalog()
	if err != nil {
		return nil, "", errors.Wrap(err, "Failed load product catalog")
	}
	product, ok := catalog.Lookup(productID)
	if !ok {
		return nil, "", errors.Wrapf(invoicer.ErrNotFound, "unknown product %q", productID)
	}

	number, err := p.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, "", err
	}

	link := p.cfg.EntrypointURL + "/v2/invoicing/invoices"
	in := p.NewInvoice(number, email, product)
	out := &LinkDescription{}
	raw, err := p.c.POSTAndUnmarshalJson(ctx, endpointCreateInvoice, link, in, out)
	if err != nil {
		p.l.Warn(
			"create invoice",
			zap.String("url", link),
			zap.Any("in", in),
			zap.Error(err),
		)
		return nil, "", errors.Wrap(err, "Failed http post request")
	}

	invoiceID, err := InvoiceIDFromHref(out.Href)
	if err != nil {
		p.l.Warn(
			"create invoice: extract invoice id",
			zap.String("href", out.Href),
			zap.ByteString("body", raw),
			zap.Error(err),
		)
		return raw, "", err
	}
	p.l.Info("Invoice created.",
		zap.String("invoice_id", invoiceID),
		zap.String("invoice_number", in.Detail.InvoiceNumber),
		zap.String("product_id", productID),
	)
	return raw, invoiceID, nil
}

// Send sends the invoice to the recipient and a copy to the invoicer.
// Returns the response as is, it is empty when PayPal answers 202.
func (p *Provider) Send(ctx context.Context, invoiceID string) (json.RawMessage, error) {
	link := p.invoiceURL(invoiceID) + "/send"
	raw, err := p.c.POSTAndUnmarshalJson(ctx, endpointSendInvoice, link, &sendRequest{SendToInvoicer: true}, nil)
	if err != nil {
		p.l.Warn(
			"send invoice",
			zap.String("url", link),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "Failed send invoice")
	}
	return raw, nil
}

// Check returns the current representation of the invoice.
func (p *Provider) Check(ctx context.Context, invoiceID string) (*Invoice, error) {
	link := p.invoiceURL(invoiceID)
	out := &Invoice{}
	raw, err := p.c.GETAndUnmarshalJson(ctx, endpointGetInvoice, link, out)
	if err != nil {
		p.l.Warn(
			"get invoice",
			zap.String("url", link),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "Failed get invoice")
	}
	if out.Status == "" {
		return nil, errors.Wrapf(invoicer.ErrAPI, "invoice %s: response missing status", invoiceID)
	}
	out.Raw = raw
	return out, nil
}

func (p *Provider) invoiceURL(invoiceID string) string {
	return p.cfg.EntrypointURL + "/v2/invoicing/invoices/" + url.PathEscape(invoiceID)
}

// InvoiceIDFromHref returns the last path segment of the resource locator.
func InvoiceIDFromHref(href string) (string, error) {
	i := strings.LastIndex(href, "/")
	if i < 0 {
		return "", errors.Wrapf(invoicer.ErrParse, "no invoice id in href %q", href)
	}
	id := href[i+1:]
	if id == "" {
		return "", errors.Wrapf(invoicer.ErrParse, "no invoice id in href %q", href)
	}
	return id, nil
}

func (p *Provider) Describe(ch chan<- *prometheus.Desc) {
	p.m.Describe(ch)
}

func (p *Provider) Collect(ch chan<- prometheus.Metric) {
	p.m.Collect(ch)
}

// check interfaces
var (
	_ prometheus.Collector = (*Provider)(nil)
)
