package email

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/campusware/gatepass/internal/config"
	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/pkg/logger"
)

// Service sends account notices over SMTP. When SMTP is disabled in
// config every send is a logged no-op, so the credential service can
// hold a non-nil notifier in all environments.
type Service struct {
	cfg  config.SMTPConfig
	log  *logger.Logger
	send func(m ...*gomail.Message) error
}

func NewService(cfg config.SMTPConfig, log *logger.Logger) *Service {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	return &Service{
		cfg:  cfg,
		log:  log.WithComponent("email"),
		send: dialer.DialAndSend,
	}
}

func (s *Service) NotifyLockout(ctx context.Context, admin *model.Admin, until time.Time) error {
	subject := "Account temporarily locked"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour account %q has been locked after too many failed sign-in attempts.\n"+
			"It will unlock automatically at %s. If this was not you, contact the system administrator.\n",
		admin.RealName, admin.LoginName, until.Format("2006-01-02 15:04:05 MST"))
	return s.deliver(admin, subject, body)
}

func (s *Service) NotifyExpiryWarning(ctx context.Context, admin *model.Admin, remainingDays int64) error {
	subject := "Password expiring soon"
	body := fmt.Sprintf(
		"Hello %s,\n\nThe password for account %q expires in %d day(s).\n"+
			"Please change it before it expires to avoid interruption.\n",
		admin.RealName, admin.LoginName, remainingDays)
	return s.deliver(admin, subject, body)
}

func (s *Service) deliver(admin *model.Admin, subject, body string) error {
	if !s.cfg.Enabled {
		s.log.Debug("smtp disabled, skipping notice", "subject", subject, "admin_id", admin.ID)
		return nil
	}
	if admin.Email == "" {
		s.log.Warn("admin has no email address, skipping notice", "admin_id", admin.ID)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", admin.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send notice to admin %d: %w", admin.ID, err)
	}
	s.log.Info("notice sent", "subject", subject, "admin_id", admin.ID)
	return nil
}
