package smtpmail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"loan-default-dashboard/internal/ports/notifier"
)

var (
	ErrNotConfigured = errors.New("smtp mailer not configured")
	ErrClientSetup   = errors.New("smtp client setup failed")
)

const defaultTimeout = 30 * time.Second

// Config del relay SMTP. Normalmente viene de config.MailConfig.
type Config struct {
	Host string
	Port int

	Username  string
	Password  string
	Recipient string

	Timeout time.Duration
}

// Mailer implementa notifier.Notifier enviando por SMTP con TLS implícito (puerto 465).
type Mailer struct {
	cfg  Config
	send func(ctx context.Context, msg *mail.Msg) error
}

func New(cfg Config) (*Mailer, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Recipient = strings.TrimSpace(cfg.Recipient)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "host")
	}
	if cfg.Port <= 0 {
		missing = append(missing, "port")
	}
	if cfg.Username == "" {
		missing = append(missing, "username")
	}
	if cfg.Password == "" {
		missing = append(missing, "password")
	}
	if cfg.Recipient == "" {
		missing = append(missing, "recipient")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}

	m := &Mailer{cfg: cfg}
	m.send = m.dialAndSend
	return m, nil
}

// Notify nunca devuelve error: cualquier fallo queda clasificado en el Result.
func (m *Mailer) Notify(ctx context.Context, in notifier.Message) notifier.Result {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Username); err != nil {
		return notifier.Failed(notifier.KindConfig, fmt.Errorf("invalid sender %q: %w", m.cfg.Username, err))
	}
	if err := msg.To(m.cfg.Recipient); err != nil {
		return notifier.Failed(notifier.KindMalformedRecipient, fmt.Errorf("invalid recipient %q: %w", m.cfg.Recipient, err))
	}
	msg.Subject(in.Subject)
	msg.SetDate()
	if in.ID != "" {
		msg.SetGenHeader(mail.HeaderMessageID, fmt.Sprintf("<%s@%s>", in.ID, m.cfg.Host))
	}
	msg.SetBodyString(mail.TypeTextPlain, in.Body)

	if err := m.send(ctx, msg); err != nil {
		return notifier.Failed(Classify(err), err)
	}
	return notifier.Sent()
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClientSetup, err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// Classify traduce errores de go-mail / textproto / net a un notifier.Kind.
func Classify(err error) notifier.Kind {
	if err == nil {
		return notifier.KindSent
	}
	if errors.Is(err, ErrClientSetup) || errors.Is(err, ErrNotConfigured) {
		return notifier.KindConfig
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		switch sendErr.Reason {
		case mail.ErrGetRcpts, mail.ErrSMTPRcptTo:
			return notifier.KindMalformedRecipient
		case mail.ErrConnCheck:
			return notifier.KindNetwork
		}
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535, 538:
			return notifier.KindAuth
		case 501, 550, 553:
			return notifier.KindMalformedRecipient
		case 421, 450, 451, 452:
			return notifier.KindNetwork
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return notifier.KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return notifier.KindNetwork
	}

	// go-mail no siempre envuelve con %w; último recurso por texto.
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "auth"):
		return notifier.KindAuth
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "i/o timeout"),
		strings.Contains(lower, "network is unreachable"),
		strings.Contains(lower, "dial tcp"):
		return notifier.KindNetwork
	}
	return notifier.KindUnknown
}
