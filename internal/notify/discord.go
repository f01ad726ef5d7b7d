package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// discordMessageLimit is the longest message body Discord accepts.
const discordMessageLimit = 2000

// Discord posts messages to one channel as a bot user.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscord opens a bot session with token. The session is closed by Close.
func NewDiscord(token, channelID string) (*Discord, error) {
	token = strings.TrimSpace(token)
	channelID = strings.TrimSpace(channelID)
	if token == "" {
		return nil, errors.New("discord bot token is required")
	}
	if channelID == "" {
		return nil, errors.New("discord channel id is required")
	}
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	s, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	if _, err := s.Channel(channelID); err != nil {
		s.Close()
		return nil, fmt.Errorf("discord channel %s not found: %w", channelID, err)
	}
	return &Discord{session: s, channelID: channelID}, nil
}

// Send posts text, trimming it to Discord's size limit.
func (d *Discord) Send(ctx context.Context, text string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, truncate(text, discordMessageLimit), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// Close ends the bot session
func (d *Discord) Close() error {
	return d.session.Close()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
