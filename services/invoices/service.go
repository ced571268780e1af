package invoices

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gebv/invoicer"
	"github.com/gebv/invoicer/provider"
	"github.com/gebv/invoicer/provider/paypal"
)

const (
	CREATED_SUBJECT = "invoice.created"
	SENT_SUBJECT    = "invoice.sent"
	CHECKED_SUBJECT = "invoice.checked"
)

var (
	ErrBadRequest = errors.New("bad request")
)

// Processor the invoicing operations of the payment processor.
type Processor interface {
	CreateInvoice(ctx context.Context, email, productID string) (json.RawMessage, string, error)
	Send(ctx context.Context, invoiceID string) (json.RawMessage, error)
	Check(ctx context.Context, invoiceID string) (*paypal.Invoice, error)
}

// Publisher publishes invoice events, *nats.EncodedConn fits.
type Publisher interface {
	Publish(subject string, v interface{}) error
}

// InvoiceEvent message published on every step of the invoice.
type InvoiceEvent struct {
	Provider  provider.Provider `json:"provider"`
	InvoiceID string            `json:"invoice_id"`
	Status    string            `json:"status,omitempty"`
	Email     string            `json:"email,omitempty"`
	ProductID string            `json:"product_id,omitempty"`
	At        time.Time         `json:"at"`
}

// Issued result of a created, sent and checked invoice.
type Issued struct {
	InvoiceID string
	Email     string
	ProductID string
	Status    string
	PayLink   string
}

// SendError the invoice was created but could not be sent.
// The created invoice stays as a draft at the processor.
type SendError struct {
	InvoiceID string
	Err       error
}

func (e *SendError) Error() string {
	return "invoice " + e.InvoiceID + " created but not sent: " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func NewService(p Processor, nc Publisher) *Service {
	return &Service{
		p:  p,
		nc: nc,
		l:  zap.L().Named("invoices"),
	}
}

// Service issues invoices: create, send, then read back the pay link.
// Steps are not retried and a failed step is not compensated.
type Service struct {
	p  Processor
	nc Publisher
	l  *zap.Logger
}

func (s *Service) Issue(ctx context.Context, email, productID string) (*Issued, error) {
	email = strings.TrimSpace(email)
	productID = strings.TrimSpace(productID)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.Wrapf(ErrBadRequest, "bad email %q", email)
	}
	if productID == "" {
		return nil, errors.Wrap(ErrBadRequest, "empty product id")
	}

	_, invoiceID, err := s.p.CreateInvoice(ctx, email, productID)
	if err != nil {
		return nil, err
	}
	s.publish(CREATED_SUBJECT, InvoiceEvent{InvoiceID: invoiceID, Status: invoicer.DRAFT, Email: email, ProductID: productID})

	if _, err := s.p.Send(ctx, invoiceID); err != nil {
		s.l.Warn("Invoice created but not sent",
			zap.String("invoice_id", invoiceID),
			zap.Error(err),
		)
		return nil, &SendError{InvoiceID: invoiceID, Err: err}
	}
	s.publish(SENT_SUBJECT, InvoiceEvent{InvoiceID: invoiceID, Status: invoicer.SENT, Email: email, ProductID: productID})

	inv, err := s.Status(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	s.l.Info("Invoice issued.",
		zap.String("invoice_id", invoiceID),
		zap.String("email", email),
		zap.String("product_id", productID),
		zap.String("status", inv.Status),
	)
	return &Issued{
		InvoiceID: invoiceID,
		Email:     email,
		ProductID: productID,
		Status:    inv.Status,
		PayLink:   inv.PayLink(),
	}, nil
}

// Resend sends an already created invoice again.
func (s *Service) Resend(ctx context.Context, invoiceID string) (json.RawMessage, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, errors.Wrap(ErrBadRequest, "empty invoice id")
	}
	raw, err := s.p.Send(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	s.publish(SENT_SUBJECT, InvoiceEvent{InvoiceID: invoiceID, Status: invoicer.SENT})
	return raw, nil
}

// Status reads the invoice from the processor.
func (s *Service) Status(ctx context.Context, invoiceID string) (*paypal.Invoice, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, errors.Wrap(ErrBadRequest, "empty invoice id")
	}
	inv, err := s.p.Check(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	s.publish(CHECKED_SUBJECT, InvoiceEvent{InvoiceID: invoiceID, Status: inv.Status})
	return inv, nil
}

func (s *Service) publish(subject string, ev InvoiceEvent) {
	if s.nc == nil {
		return
	}
	ev.Provider = paypal.PAYPAL
	ev.At = time.Now()
	if err := s.nc.Publish(subject, &ev); err != nil {
		s.l.Warn("Failed publish invoice event",
			zap.String("subject", subject),
			zap.String("invoice_id", ev.InvoiceID),
			zap.Error(err),
		)
	}
}
