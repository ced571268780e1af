package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/gebv/invoicer"
	"github.com/gebv/invoicer/services/invoices"
)

const (
	CREATE_COMMAND = "create"
	CHECK_COMMAND  = "check"
	SYNC_COMMAND   = ".sync"

	embedColor = 0xFFD700
	errorColor = 0xE74C3C
	finalColor = 0x2ECC71
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        CREATE_COMMAND,
		Description: "Create a PayPal invoice and send it",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "email",
				Description: "PayPal email to send invoice to",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "product",
				Description: "Product id name",
				Required:    true,
			},
		},
	},
	{
		Name:        CHECK_COMMAND,
		Description: "Check the status of a PayPal invoice",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "invoice_id",
				Description: "Invoice to check",
				Required:    true,
			},
		},
	},
}

type reply struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

func (b *Bot) handle(ctx context.Context, data discordgo.ApplicationCommandInteractionData) reply {
	opts := make(map[string]string, len(data.Options))
	for _, o := range data.Options {
		if o.Type == discordgo.ApplicationCommandOptionString {
			opts[o.Name] = o.StringValue()
		}
	}
	switch data.Name {
	case CREATE_COMMAND:
		return b.create(ctx, opts["email"], opts["product"])
	case CHECK_COMMAND:
		return b.check(ctx, opts["invoice_id"])
	}
	return reply{Content: fmt.Sprintf("Unknown command %q.", data.Name)}
}

func (b *Bot) create(ctx context.Context, email, productID string) reply {
	res, err := b.inv.Issue(ctx, email, productID)
	if err != nil {
		return errorReply(err)
	}
	r := reply{Embeds: []*discordgo.MessageEmbed{issuedEmbed(res)}}
	if res.PayLink == "" {
		r.Content = "Pay link is not available yet, use /check " + res.InvoiceID + " later."
		return r
	}
	r.Components = []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: "🔗 Open Pay Page",
					Style: discordgo.LinkButton,
					URL:   res.PayLink,
				},
			},
		},
	}
	return r
}

func (b *Bot) check(ctx context.Context, invoiceID string) reply {
	inv, err := b.inv.Status(ctx, invoiceID)
	if err != nil {
		return errorReply(err)
	}
	color := embedColor
	if invoicer.IsFinal(inv.Status) {
		color = finalColor
	}
	return reply{Embeds: []*discordgo.MessageEmbed{{
		Title: invoiceID,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: inv.Status},
		},
	}}}
}

func issuedEmbed(res *invoices.Issued) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "PayPal Invoice Generated",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Information",
				Value: fmt.Sprintf("Invoiced To: %s\nProduct: %s\nDue By: 24 Hours",
					res.Email, res.ProductID),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: res.InvoiceID},
	}
}
