// Package bot is the Discord front end: slash commands to issue and check
// invoices.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gebv/invoicer"
	"github.com/gebv/invoicer/provider/paypal"
	"github.com/gebv/invoicer/services/invoices"
)

// Invoicer operations behind the chat commands.
type Invoicer interface {
	Issue(ctx context.Context, email, productID string) (*invoices.Issued, error)
	Status(ctx context.Context, invoiceID string) (*paypal.Invoice, error)
}

type Config struct {
	invoicer.BotConfig
	// SyncOnReady registers guild commands on connect, otherwise only the
	// .sync message does it.
	SyncOnReady bool
	// CommandTimeout limit of a single command, one minute when zero.
	CommandTimeout time.Duration
}

func New(cfg Config, inv Invoicer) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "Failed new discord session")
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = time.Minute
	}
	b := &Bot{
		s:   s,
		cfg: cfg,
		inv: inv,
		ctx: context.Background(),
		l:   zap.L().Named("bot"),
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	s.AddHandler(b.onMessage)
	return b, nil
}

type Bot struct {
	s   *discordgo.Session
	cfg Config
	inv Invoicer
	ctx context.Context
	l   *zap.Logger
}

// Run connects to Discord and serves commands until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	if err := b.s.Open(); err != nil {
		return errors.Wrap(err, "Failed open discord session")
	}
	b.l.Info("Started.", zap.String("guild_id", b.cfg.GuildID))
	<-ctx.Done()
	if err := b.s.Close(); err != nil {
		b.l.Warn("Failed close discord session", zap.Error(err))
	}
	b.l.Info("Stopped.")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.l.Info("Logged in as " + r.User.String())
	if !b.cfg.SyncOnReady {
		return
	}
	if _, err := b.sync(s); err != nil {
		b.l.Warn("Failed sync commands", zap.Error(err))
	}
}

func (b *Bot) sync(s *discordgo.Session) (int, error) {
	synced, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, b.cfg.GuildID, commands)
	if err != nil {
		return 0, errors.Wrap(err, "Failed overwrite guild commands")
	}
	b.l.Info("Commands synced.", zap.Int("count", len(synced)))
	return len(synced), nil
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID != b.cfg.GuildID {
		return
	}
	if strings.TrimSpace(m.Content) != SYNC_COMMAND {
		return
	}
	text := ""
	n, err := b.sync(s)
	if err != nil {
		b.l.Warn("Failed sync commands", zap.Error(err))
		text = "Failed sync commands."
	} else {
		text = fmt.Sprintf("Synced %d commands", n)
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, text); err != nil {
		b.l.Warn("Failed reply to sync", zap.Error(err))
	}
}

// onInteraction defers the answer first: processor calls may take longer
// than Discord waits for an interaction response.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	l := b.l.With(zap.String("command", data.Name), zap.String("interaction_id", i.ID))

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		l.Warn("Failed defer interaction", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, b.cfg.CommandTimeout)
	defer cancel()
	r := b.handle(ctx, data)

	edit := &discordgo.WebhookEdit{Content: &r.Content}
	if len(r.Embeds) > 0 {
		edit.Embeds = &r.Embeds
	}
	if len(r.Components) > 0 {
		edit.Components = &r.Components
	}
	_, err = s.InteractionResponseEdit(i.Interaction, edit)
	if err != nil {
		l.Warn("Failed answer interaction", zap.Error(err))
		return
	}
	l.Debug("Interaction answered.")
}
