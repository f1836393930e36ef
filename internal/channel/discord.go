package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"replybot/internal/domain"

	"github.com/bwmarrin/discordgo"
)

const (
	discordMaxHistory = 100
	discordMaxMsgLen  = 2000
)

// Discord implements domain.ChatClient over the Discord REST API.
// No gateway connection is opened.
type Discord struct {
	session *discordgo.Session
	logger  *slog.Logger
}

// DiscordConfig configures the Discord client.
type DiscordConfig struct {
	// Token is sent as-is in the Authorization header. Bot tokens carry
	// their own "Bot " prefix.
	Token string
	// APIBase redirects REST calls away from discord.com, e.g. to a proxy.
	APIBase string
	Retries int
	Client  *http.Client
	Logger  *slog.Logger
}

// NewDiscord creates a REST-only Discord client.
func NewDiscord(cfg DiscordConfig) (*Discord, error) {
	session, err := discordgo.New(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.ShouldRetryOnRateLimit = false
	session.StateEnabled = false
	session.MaxRestRetries = cfg.Retries
	if cfg.Client != nil {
		session.Client = cfg.Client
	}
	if cfg.APIBase != "" {
		c, err := rebase(session.Client, discordgo.EndpointAPI, cfg.APIBase)
		if err != nil {
			return nil, err
		}
		session.Client = c
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Discord{
		session: session,
		logger:  cfg.Logger.With("platform", "discord"),
	}, nil
}

func (d *Discord) Name() string { return "discord" }

// History returns up to limit recent messages of a channel, newest first.
func (d *Discord) History(ctx context.Context, channelID string, limit int) ([]domain.ChannelMessage, error) {
	limit = clampLimit(limit, discordMaxHistory)

	msgs, err := d.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord history %s: %w", channelID, err)
	}

	out := make([]domain.ChannelMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		cm := domain.ChannelMessage{
			ID:        m.ID,
			ChannelID: m.ChannelID,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
		if cm.ChannelID == "" {
			cm.ChannelID = channelID
		}
		if m.Author != nil {
			cm.AuthorID = m.Author.ID
			cm.AuthorName = m.Author.Username
			cm.Bot = m.Author.Bot
		}
		out = append(out, cm)
	}
	d.logger.Debug("history fetched", "channel_id", channelID, "count", len(out))
	return out, nil
}

// Post sends a plain text message and returns its id.
func (d *Discord) Post(ctx context.Context, channelID, content string) (string, error) {
	content = truncateRunes(content, discordMaxMsgLen)
	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		TTS:     false,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord post %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// Self returns the id of the account the token belongs to.
func (d *Discord) Self(ctx context.Context) (string, error) {
	u, err := d.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord users/@me: %w", err)
	}
	return u.ID, nil
}
