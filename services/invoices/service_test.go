package invoices

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/gebv/invoicer"
	"github.com/gebv/invoicer/provider/paypal"
	"github.com/gebv/invoicer/provider/paypal/paypaltest"
)

type published struct {
	subject string
	ev      InvoiceEvent
}

type recordPublisher struct {
	mu  sync.Mutex
	msg []published
	err error
}

func (p *recordPublisher) Publish(subject string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msg = append(p.msg, published{subject: subject, ev: *v.(*InvoiceEvent)})
	return p.err
}

func (p *recordPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var res []string
	for _, m := range p.msg {
		res = append(res, m.subject)
	}
	return res
}

func newTestService(t *testing.T, srv *paypaltest.Server, nc Publisher) *Service {
	t.Helper()
	p := paypal.NewProvider(
		paypal.Config{EntrypointURL: srv.URL, Timeout: 5 * time.Second},
		invoicer.ClientCredentials{
			ClientID:     paypaltest.ClientID,
			ClientSecret: paypaltest.ClientSecret,
			SenderEmail:  "shop@example.com",
		},
		paypal.CatalogFunc(func() (invoicer.ProductCatalog, error) {
			return invoicer.ProductCatalog{
				"widget": {Name: "Widget", Description: "A widget", Cost: "10.00"},
			}, nil
		}),
	)
	require.NoError(t, p.Login(context.Background()))
	return NewService(p, nc)
}

func TestService_Issue(t *testing.T) {
	srv := paypaltest.NewServer()
	defer srv.Close()
	nc := &recordPublisher{}
	s := newTestService(t, srv, nc)

	res, err := s.Issue(context.Background(), " buyer@example.com ", "widget")
	require.NoError(t, err)
	require.Equal(t, &Issued{
		InvoiceID: paypaltest.InvoiceID,
		Email:     "buyer@example.com",
		ProductID: "widget",
		Status:    invoicer.SENT,
		PayLink:   paypaltest.PayLink(paypaltest.InvoiceID),
	}, res)

	require.Equal(t, []string{CREATED_SUBJECT, SENT_SUBJECT, CHECKED_SUBJECT}, nc.subjects())
	for _, m := range nc.msg {
		require.Equal(t, paypaltest.InvoiceID, m.ev.InvoiceID)
		require.Equal(t, paypal.PAYPAL, m.ev.Provider)
		require.False(t, m.ev.At.IsZero())
	}
	require.Equal(t, invoicer.SENT, nc.msg[2].ev.Status)
}

func TestService_Issue_SendFailed(t *testing.T) {
	srv := paypaltest.NewServer()
	defer srv.Close()
	srv.Fail("send", paypaltest.Failure{StatusCode: http.StatusUnprocessableEntity, Body: `{"name":"UNPROCESSABLE_ENTITY"}`})
	nc := &recordPublisher{}
	s := newTestService(t, srv, nc)

	_, err := s.Issue(context.Background(), "buyer@example.com", "widget")
	require.Error(t, err)

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	require.Equal(t, paypaltest.InvoiceID, sendErr.InvoiceID)
	require.True(t, errors.Is(err, invoicer.ErrAPI))

	// the draft is left as is and never checked
	require.Equal(t, []string{CREATED_SUBJECT}, nc.subjects())
	require.Zero(t, srv.CallsTo("GET", "/v2/invoicing/invoices/"))
}

func TestService_Issue_UnknownProduct(t *testing.T) {
	srv := paypaltest.NewServer()
	defer srv.Close()
	nc := &recordPublisher{}
	s := newTestService(t, srv, nc)

	_, err := s.Issue(context.Background(), "buyer@example.com", "nope")
	require.True(t, errors.Is(err, invoicer.ErrNotFound))
	require.Empty(t, nc.subjects())
}

func TestService_Issue_BadRequest(t *testing.T) {
	srv := paypaltest.NewServer()
	defer srv.Close()
	s := newTestService(t, srv, nil)

	_, err := s.Issue(context.Background(), "not-an-email", "widget")
	require.True(t, errors.Is(err, ErrBadRequest))
	_, err = s.Issue(context.Background(), "buyer@example.com", " ")
	require.True(t, errors.Is(err, ErrBadRequest))
	_, err = s.Status(context.Background(), "")
	require.True(t, errors.Is(err, ErrBadRequest))
	_, err = s.Resend(context.Background(), "")
	require.True(t, errors.Is(err, ErrBadRequest))

	require.Equal(t, 1, len(srv.Calls()))
}

func TestService_Status(t *testing.T) {
	srv := paypaltest.NewServer()
	defer srv.Close()
	srv.SetStatus("INV2-PAID", invoicer.PAID)
	s := newTestService(t, srv, nil)

	inv, err := s.Status(context.Background(), "INV2-PAID")
	require.NoError(t, err)
	require.Equal(t, invoicer.PAID, inv.Status)
	require.True(t, invoicer.IsFinal(inv.Status))
}

func TestService_PublishFailureIgnored(t *testing.T) {
	srv := paypaltest.NewServer()
	defer srv.Close()
	nc := &recordPublisher{err: errors.New("nats: connection closed")}
	s := newTestService(t, srv, nc)

	res, err := s.Issue(context.Background(), "buyer@example.com", "widget")
	require.NoError(t, err)
	require.Equal(t, invoicer.SENT, res.Status)
	require.Len(t, nc.subjects(), 3)
}

func TestService_Resend(t *testing.T) {
	srv := paypaltest.NewServer()
	defer srv.Close()
	srv.SetStatus("INV2-DRAFT", invoicer.DRAFT)
	nc := &recordPublisher{}
	s := newTestService(t, srv, nc)

	_, err := s.Resend(context.Background(), "INV2-DRAFT")
	require.NoError(t, err)
	require.Equal(t, []string{SENT_SUBJECT}, nc.subjects())

	inv, err := s.Status(context.Background(), "INV2-DRAFT")
	require.NoError(t, err)
	require.Equal(t, invoicer.SENT, inv.Status)
}
