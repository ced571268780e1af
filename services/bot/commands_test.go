package bot

import (
	"context"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gebv/invoicer"
	"github.com/gebv/invoicer/provider/paypal"
	"github.com/gebv/invoicer/services/invoices"
)

type fakeInvoicer struct {
	issued   *invoices.Issued
	invoice  *paypal.Invoice
	err      error
	gotEmail string
	gotID    string
}

func (f *fakeInvoicer) Issue(ctx context.Context, email, productID string) (*invoices.Issued, error) {
	f.gotEmail, f.gotID = email, productID
	return f.issued, f.err
}

func (f *fakeInvoicer) Status(ctx context.Context, invoiceID string) (*paypal.Invoice, error) {
	f.gotID = invoiceID
	return f.invoice, f.err
}

func testBot(inv Invoicer) *Bot {
	return &Bot{inv: inv, l: zap.NewNop()}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func TestBot_Create(t *testing.T) {
	inv := &fakeInvoicer{issued: &invoices.Issued{
		InvoiceID: "INV2-AAAA",
		Email:     "buyer@example.com",
		ProductID: "widget",
		Status:    invoicer.SENT,
		PayLink:   "https://www.sandbox.paypal.com/invoice/p/#INV2-AAAA",
	}}
	r := testBot(inv).handle(context.Background(), discordgo.ApplicationCommandInteractionData{
		Name: CREATE_COMMAND,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			stringOpt("email", "buyer@example.com"),
			stringOpt("product", "widget"),
		},
	})
	require.Equal(t, "buyer@example.com", inv.gotEmail)
	require.Equal(t, "widget", inv.gotID)

	require.Len(t, r.Embeds, 1)
	e := r.Embeds[0]
	require.Equal(t, "PayPal Invoice Generated", e.Title)
	require.Equal(t, 0xFFD700, e.Color)
	require.Len(t, e.Fields, 1)
	require.Equal(t, "Information", e.Fields[0].Name)
	require.Equal(t, "Invoiced To: buyer@example.com\nProduct: widget\nDue By: 24 Hours", e.Fields[0].Value)
	require.Equal(t, "INV2-AAAA", e.Footer.Text)

	require.Len(t, r.Components, 1)
	row, ok := r.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 1)
	btn, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	require.Equal(t, discordgo.LinkButton, btn.Style)
	require.Equal(t, "https://www.sandbox.paypal.com/invoice/p/#INV2-AAAA", btn.URL)
	require.Contains(t, btn.Label, "Open Pay Page")
}

func TestBot_Create_NoPayLink(t *testing.T) {
	inv := &fakeInvoicer{issued: &invoices.Issued{InvoiceID: "INV2-AAAA", Email: "buyer@example.com", ProductID: "widget"}}
	r := testBot(inv).create(context.Background(), "buyer@example.com", "widget")
	require.Empty(t, r.Components)
	require.Contains(t, r.Content, "/check INV2-AAAA")
}

func TestBot_Check(t *testing.T) {
	inv := &fakeInvoicer{invoice: &paypal.Invoice{ID: "INV2-AAAA", Status: invoicer.PAID}}
	r := testBot(inv).handle(context.Background(), discordgo.ApplicationCommandInteractionData{
		Name:    CHECK_COMMAND,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{stringOpt("invoice_id", "INV2-AAAA")},
	})
	require.Equal(t, "INV2-AAAA", inv.gotID)
	require.Len(t, r.Embeds, 1)
	require.Equal(t, "INV2-AAAA", r.Embeds[0].Title)
	require.Equal(t, finalColor, r.Embeds[0].Color)
	require.Equal(t, "Status", r.Embeds[0].Fields[0].Name)
	require.Equal(t, invoicer.PAID, r.Embeds[0].Fields[0].Value)
}

func TestBot_UnknownCommand(t *testing.T) {
	r := testBot(&fakeInvoicer{}).handle(context.Background(), discordgo.ApplicationCommandInteractionData{Name: "refund"})
	require.Contains(t, r.Content, "Unknown command")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", errors.Wrap(invoicer.ErrNotFound, `unknown product "x"`), "Unknown product, check the product id."},
		{"bad request", errors.Wrap(invoices.ErrBadRequest, "empty invoice id"), "Check the command arguments (empty invoice id: bad request)."},
		{"send", &invoices.SendError{InvoiceID: "INV2-A", Err: &invoicer.APIError{Endpoint: "send_invoice", StatusCode: 422}}, "Invoice INV2-A was created but could not be sent."},
		{"auth", errors.Wrap(invoicer.ErrAuth, "not logged in"), "The bot is not logged in to PayPal."},
		{"expired", errors.Wrap(&invoicer.APIError{Endpoint: "get_invoice", StatusCode: http.StatusUnauthorized}, "Failed get invoice"), "PayPal rejected the bot session, the bot must be restarted."},
		{"parse", errors.Wrap(invoicer.ErrParse, "no href"), "PayPal returned an unexpected response."},
		{"api", &invoicer.APIError{Endpoint: "get_invoice", StatusCode: 500}, "PayPal request failed."},
		{"config", errors.Wrap(invoicer.ErrConfig, "products.json"), "The bot is misconfigured."},
		{"other", errors.New("boom"), "Something went wrong."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, userMessage(tt.err))
		})
	}
}

func TestBot_Create_Error(t *testing.T) {
	inv := &fakeInvoicer{err: errors.Wrap(invoicer.ErrNotFound, "unknown product")}
	r := testBot(inv).create(context.Background(), "buyer@example.com", "nope")
	require.Len(t, r.Embeds, 1)
	require.Equal(t, errorColor, r.Embeds[0].Color)
	require.Equal(t, "Unknown product, check the product id.", r.Embeds[0].Description)
}

func TestCommands(t *testing.T) {
	names := map[string][]string{}
	for _, c := range commands {
		for _, o := range c.Options {
			require.True(t, o.Required)
			names[c.Name] = append(names[c.Name], o.Name)
		}
	}
	require.Equal(t, map[string][]string{
		CREATE_COMMAND: {"email", "product"},
		CHECK_COMMAND:  {"invoice_id"},
	}, names)
}
