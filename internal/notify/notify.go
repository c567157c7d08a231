package notify

import (
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Notifier pushes triage alerts to a Telegram chat. A nil Notifier is
// valid and does nothing, so alerting stays optional.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	msgs   *Messages
}

func New(token string, chatID int64, msgs *Messages) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "creating telegram bot")
	}
	return &Notifier{bot: bot, chatID: chatID, msgs: msgs}, nil
}

func (n *Notifier) ReportStatusChanged(reportID int, estado string) {
	if n == nil {
		return
	}
	n.send(msgReportStatusChanged, map[string]string{
		"id":     strconv.Itoa(reportID),
		"estado": estado,
	})
}

func (n *Notifier) ForcedLogout() {
	if n == nil {
		return
	}
	n.send(msgForcedLogout, nil)
}

func (n *Notifier) send(id string, args map[string]string) {
	text, err := n.msgs.Render(id, args)
	if err != nil {
		log.Println(errors.Wrapf(err, "rendering message %s", id))
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		log.Println(errors.Wrap(err, "sending telegram notification"))
	}
}
