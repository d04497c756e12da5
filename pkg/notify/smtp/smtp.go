package smtp

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/wneessen/go-mail"

	"github.com/williamokano/s3transfer/pkg/auth"
	"github.com/williamokano/s3transfer/pkg/notify"
)

const (
	// DefaultPort is used for unauthenticated relays
	DefaultPort = 25
	// SubmissionPort is used when SMTP credentials are configured
	SubmissionPort = 587
)

// Mailer sends notifications through an SMTP server. With a key pair it
// authenticates (SES SMTP credentials, for example); without one it relays
// unauthenticated.
type Mailer struct {
	client *mail.Client
	from   string
	to     []string
	cc     []string
}

func init() {
	notify.RegisterTransport("smtp", func(ctx context.Context, s notify.Settings) (notify.Notifier, error) {
		return New(s)
	})
}

// ClientOptions returns the go-mail options for the given settings
func ClientOptions(s notify.Settings) (string, []mail.Option, error) {
	host, port, err := splitServer(s.SMTPServer, s.Credentials.Mode() == auth.ModeStaticKeys)
	if err != nil {
		return "", nil, err
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}

	if s.Credentials.Mode() == auth.ModeStaticKeys {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Credentials.Keys.AccessKey),
			mail.WithPassword(s.Credentials.Keys.SecretKey),
		)
	}

	return host, opts, nil
}

// New creates a new SMTP mailer
func New(s notify.Settings) (*Mailer, error) {
	host, opts, err := ClientOptions(s)
	if err != nil {
		return nil, err
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Mailer{
		client: client,
		from:   s.From,
		to:     s.To,
		cc:     s.Cc,
	}, nil
}

// Send delivers one plain-text message
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	msg, err := buildMessage(m.from, m.to, m.cc, subject, body)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func buildMessage(from string, to, cc []string, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			return nil, fmt.Errorf("invalid cc address: %w", err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

func splitServer(server string, authenticated bool) (string, int, error) {
	if server == "" {
		return "", 0, fmt.Errorf("missing smtp server")
	}

	host, portStr, err := net.SplitHostPort(server)
	if err != nil {
		if authenticated {
			return server, SubmissionPort, nil
		}
		return server, DefaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid smtp port %q", portStr)
	}
	return host, port, nil
}
