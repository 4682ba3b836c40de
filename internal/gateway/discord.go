package gateway

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/arjun/wayfarer/internal/state"
)

// DiscordGateway asks the configured channel for input when a planning run
// suspends, and posts finished-plan notifications there.
type DiscordGateway struct {
	Session   *discordgo.Session
	ChannelID string
}

func NewDiscordGateway(token, channelID string) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	if err := session.Open(); err != nil {
		return nil, err
	}
	return &DiscordGateway{Session: session, ChannelID: channelID}, nil
}

func (dg *DiscordGateway) Close() error {
	return dg.Session.Close()
}

func (dg *DiscordGateway) Ask(ctx context.Context, req state.HumanRequest) (state.HumanInput, error) {
	if _, err := dg.Session.ChannelMessageSend(dg.ChannelID, "❓ "+req.Prompt); err != nil {
		return state.HumanInput{}, err
	}

	answers := make(chan string, 1)
	remove := dg.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author.ID == s.State.User.ID || m.ChannelID != dg.ChannelID {
			return
		}
		select {
		case answers <- m.Content:
		default:
		}
	})
	defer remove()

	select {
	case <-ctx.Done():
		return state.HumanInput{}, ctx.Err()
	case answer := <-answers:
		return state.HumanInput{Field: req.Field, Value: answer}, nil
	}
}

func (dg *DiscordGateway) Notify(text string) error {
	_, err := dg.Session.ChannelMessageSend(dg.ChannelID, text)
	return err
}
