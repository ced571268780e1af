package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/gebv/invoicer"
	"github.com/gebv/invoicer/services/invoices"
)

// userMessage text shown to the chat user for a failed command.
func userMessage(err error) string {
	var sendErr *invoices.SendError
	var apiErr *invoicer.APIError
	switch {
	case errors.Is(err, invoices.ErrBadRequest):
		return "Check the command arguments (" + err.Error() + ")."
	case errors.Is(err, invoicer.ErrNotFound):
		return "Unknown product, check the product id."
	case errors.As(err, &sendErr):
		return "Invoice " + sendErr.InvoiceID + " was created but could not be sent."
	case errors.Is(err, invoicer.ErrAuth):
		return "The bot is not logged in to PayPal."
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		return "PayPal rejected the bot session, the bot must be restarted."
	case errors.Is(err, invoicer.ErrParse):
		return "PayPal returned an unexpected response."
	case errors.Is(err, invoicer.ErrConfig):
		return "The bot is misconfigured."
	case errors.Is(err, invoicer.ErrAPI):
		return "PayPal request failed."
	}
	return "Something went wrong."
}

func errorReply(err error) reply {
	return reply{Embeds: []*discordgo.MessageEmbed{{
		Title:       "Failed",
		Description: userMessage(err),
		Color:       errorColor,
	}}}
}
