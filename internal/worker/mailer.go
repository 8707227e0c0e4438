// internal/worker/mailer.go
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.uber.org/zap"
)

// Sender delivers an outbound message to a recipient address or phone
// number. The default implementation just logs; SMTP or SMS backends
// plug in here.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes outbound mail to the log. Used in development and as
// the fallback when no mail backend is configured.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Log.Info("outbound message",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// Mailer turns otp.requested and team.invitation events into outbound
// messages.
type Mailer struct {
	sender Sender
	log    *zap.Logger
}

func NewMailer(sender Sender, log *zap.Logger) *Mailer {
	return &Mailer{sender: sender, log: log}
}

// MailerQueue is the durable queue the mailer consumes.
const MailerQueue = "mailer_queue"

// Topics returns the bindings for the mailer queue.
func (m *Mailer) Topics() []string {
	return []string{models.TopicOTPRequested, models.TopicTeamInvitation}
}

// Handle processes one delivery.
func (m *Mailer) Handle(ctx context.Context, topic string, body []byte) error {
	switch topic {
	case models.TopicOTPRequested:
		return m.sendOTP(ctx, body)
	case models.TopicTeamInvitation:
		return m.sendInvitation(ctx, body)
	default:
		m.log.Warn("unexpected topic on mailer queue", zap.String("topic", topic))
		return nil
	}
}

func (m *Mailer) sendOTP(ctx context.Context, body []byte) error {
	var msg struct {
		Code  string `json:"code"`
		Email string `json:"email"`
		Phone string `json:"phone"`
		TTL   int    `json:"ttl_seconds"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode otp.requested: %w", err)
	}

	to := msg.Email
	if to == "" {
		to = msg.Phone
	}
	if to == "" || msg.Code == "" {
		return fmt.Errorf("otp.requested missing recipient or code")
	}

	text := fmt.Sprintf("Your login code is %s. It expires in %d minutes.", msg.Code, msg.TTL/60)
	return m.sender.Send(ctx, to, "Your login code", text)
}

func (m *Mailer) sendInvitation(ctx context.Context, body []byte) error {
	var msg struct {
		TeamName string `json:"team_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode team.invitation: %w", err)
	}

	to := msg.Email
	if to == "" {
		to = msg.Phone
	}
	if to == "" {
		return fmt.Errorf("team.invitation missing recipient")
	}

	text := fmt.Sprintf("You have been invited to join the team %q. Sign in to accept or decline.", msg.TeamName)
	return m.sender.Send(ctx, to, "Team invitation", text)
}
