package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"replybot/internal/domain"

	"github.com/slack-go/slack"
)

const (
	slackMaxHistory = 1000
	slackMaxMsgLen  = 4000
)

// Slack implements domain.ChatClient over the Slack Web API.
type Slack struct {
	client *slack.Client
	logger *slog.Logger
}

// SlackConfig configures the Slack client.
type SlackConfig struct {
	Token string
	// APIBase overrides https://slack.com/api/, mainly for tests.
	APIBase string
	Client  *http.Client
	Logger  *slog.Logger
}

// NewSlack creates a Slack Web API client.
func NewSlack(cfg SlackConfig) *Slack {
	var opts []slack.Option
	if cfg.APIBase != "" {
		opts = append(opts, slack.OptionAPIURL(strings.TrimRight(cfg.APIBase, "/")+"/"))
	}
	if cfg.Client != nil {
		opts = append(opts, slack.OptionHTTPClient(cfg.Client))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Slack{
		client: slack.New(cfg.Token, opts...),
		logger: cfg.Logger.With("platform", "slack"),
	}
}

func (s *Slack) Name() string { return "slack" }

// History returns up to limit recent messages of a conversation, newest first.
func (s *Slack) History(ctx context.Context, channelID string, limit int) ([]domain.ChannelMessage, error) {
	limit = clampLimit(limit, slackMaxHistory)

	resp, err := s.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("slack history %s: %w", channelID, err)
	}

	out := make([]domain.ChannelMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		author := m.User
		if author == "" {
			author = m.BotID
		}
		out = append(out, domain.ChannelMessage{
			ID:         m.Timestamp,
			ChannelID:  channelID,
			AuthorID:   author,
			AuthorName: m.Username,
			Bot:        m.BotID != "" || m.SubType == slack.MsgSubTypeBotMessage,
			Content:    m.Text,
			Timestamp:  parseSlackTS(m.Timestamp),
		})
	}
	s.logger.Debug("history fetched", "channel_id", channelID, "count", len(out))
	return out, nil
}

// Post sends a plain text message. The returned id is the message timestamp.
func (s *Slack) Post(ctx context.Context, channelID, content string) (string, error) {
	_, ts, err := s.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(truncateRunes(content, slackMaxMsgLen), false),
	)
	if err != nil {
		return "", fmt.Errorf("slack post %s: %w", channelID, err)
	}
	return ts, nil
}

// Self returns the user id of the token via auth.test.
func (s *Slack) Self(ctx context.Context) (string, error) {
	resp, err := s.client.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("slack auth.test: %w", err)
	}
	return resp.UserID, nil
}

// parseSlackTS converts "1700000000.000100" into a time.
func parseSlackTS(ts string) time.Time {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var ns int64
	if frac != "" {
		frac = (frac + "000000000")[:9]
		ns, _ = strconv.ParseInt(frac, 10, 64)
	}
	return time.Unix(s, ns).UTC()
}
