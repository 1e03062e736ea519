package services

import (
	"time"

	tele "gopkg.in/telebot.v3"
)

// Bot delivers ops alerts (dead-lettered events, replay hints) to the admin
// chat. Disabled when no token is configured.
type Bot struct {
	token  string
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	return &Bot{token, chatID}, nil
}

func (bot *Bot) SendAlert(text string) error {
	if bot.token == "" || bot.chatID == 0 {
		return nil
	}

	pref := tele.Settings{
		Token:  bot.token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}

	_, err = b.Send(&tele.User{ID: bot.chatID}, text, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
	})
	return err
}
