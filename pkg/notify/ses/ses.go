package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/williamokano/s3transfer/pkg/auth"
	"github.com/williamokano/s3transfer/pkg/notify"
)

const charset = "UTF-8"

// sendEmailAPI is the subset of the SES v2 client used here
type sendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer sends notifications through the SES v2 API
type Mailer struct {
	client sendEmailAPI
	from   string
	to     []string
	cc     []string
}

func init() {
	notify.RegisterTransport("ses", func(ctx context.Context, s notify.Settings) (notify.Notifier, error) {
		return New(ctx, s)
	})
}

// New creates an SES mailer. Static keys are used when both are present,
// otherwise the default AWS credential chain.
func New(ctx context.Context, s notify.Settings) (*Mailer, error) {
	creds := auth.Credentials{Keys: s.Credentials.Keys}

	awsCfg, err := config.LoadDefaultConfig(ctx, auth.AWSLoadOptions(s.Region, creds)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newWithClient(sesv2.NewFromConfig(awsCfg), s), nil
}

func newWithClient(client sendEmailAPI, s notify.Settings) *Mailer {
	return &Mailer{
		client: client,
		from:   s.From,
		to:     s.To,
		cc:     s.Cc,
	}
}

// Send delivers one plain-text message
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses: m.to,
			CcAddresses: m.cc,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String(charset)},
				},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send mail via SES: %w", err)
	}
	return nil
}
