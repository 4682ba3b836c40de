package gateway

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arjun/wayfarer/internal/state"
)

// TelegramGateway asks the configured chat for input when a planning run
// suspends, and posts finished-plan notifications there.
type TelegramGateway struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewTelegramGateway(token string, chatID int64) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{Bot: bot, ChatID: chatID}, nil
}

func (tg *TelegramGateway) Ask(ctx context.Context, req state.HumanRequest) (state.HumanInput, error) {
	msg := tgbotapi.NewMessage(tg.ChatID, "❓ "+req.Prompt)
	if _, err := tg.Bot.Send(msg); err != nil {
		return state.HumanInput{}, err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := tg.Bot.GetUpdatesChan(u)
	defer tg.Bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return state.HumanInput{}, ctx.Err()
		case update := <-updates:
			if update.Message == nil || update.Message.Chat.ID != tg.ChatID {
				continue
			}
			log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)
			return state.HumanInput{Field: req.Field, Value: update.Message.Text}, nil
		}
	}
}

func (tg *TelegramGateway) Notify(text string) error {
	_, err := tg.Bot.Send(tgbotapi.NewMessage(tg.ChatID, text))
	return err
}
