package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gopkg.in/gomail.v2"

	"turcrm/internal/models"
)

// MailSender: *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// TelegramSender: *tgbotapi.BotAPI.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NotificationService оповещает менеджеров о заявках с сайта: письмо и,
// если настроен бот, сообщение в чат отдела продаж. Ошибки только логируются.
type NotificationService struct {
	mailer  MailSender
	from    string
	manager string

	bot    TelegramSender
	chatID int64
}

func NewNotificationService(mailer MailSender, from, managerEmail string, bot TelegramSender, chatID int64) *NotificationService {
	return &NotificationService{mailer: mailer, from: from, manager: managerEmail, bot: bot, chatID: chatID}
}

// NewMailDialer: SMTP-клиент для NewNotificationService.
func NewMailDialer(host string, port int, user, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, user, password)
}

func leadSummaryLines(form *models.Form, lead *models.Lead) []string {
	lines := []string{
		fmt.Sprintf("Заявка #%d с формы «%s»", lead.ID, form.Name),
	}
	if name := lead.FullName(); name != "" {
		lines = append(lines, "Имя: "+name)
	}
	if lead.Phone != "" {
		lines = append(lines, "Телефон: "+lead.Phone)
	}
	if lead.Email != "" {
		lines = append(lines, "Email: "+lead.Email)
	}
	if lead.Comment != "" {
		lines = append(lines, lead.Comment)
	}
	return lines
}

func (s *NotificationService) NotifyNewLead(ctx context.Context, form *models.Form, lead *models.Lead) {
	lines := leadSummaryLines(form, lead)

	if s.mailer != nil && s.manager != "" {
		m := gomail.NewMessage()
		m.SetHeader("From", s.from)
		m.SetHeader("To", s.manager)
		m.SetHeader("Subject", fmt.Sprintf("Новая заявка #%d", lead.ID))

		escaped := make([]string, len(lines))
		for i, l := range lines {
			escaped[i] = html.EscapeString(l)
		}
		m.SetBody("text/html", "<p>"+strings.Join(escaped, "<br>")+"</p>")

		if err := s.mailer.DialAndSend(m); err != nil {
			log.Printf("[notify][email][err] lead=%d: %v", lead.ID, err)
		} else {
			log.Printf("[notify][email] lead=%d to=%s", lead.ID, s.manager)
		}
	}

	if s.bot != nil && s.chatID != 0 {
		msg := tgbotapi.NewMessage(s.chatID, strings.Join(lines, "\n"))
		msg.DisableWebPagePreview = true
		if _, err := s.bot.Send(msg); err != nil {
			log.Printf("[notify][tg][err] lead=%d chatID=%d: %v", lead.ID, s.chatID, err)
		} else {
			log.Printf("[notify][tg] lead=%d chatID=%d", lead.ID, s.chatID)
		}
	}
}
