package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client the mailer uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Mailer sends plain text mail through SES from a fixed sender.
type Mailer struct {
	client SESAPI
	sender string
}

func NewMailer(cfg aws.Config, sender string) *Mailer {
	return &Mailer{client: ses.NewFromConfig(cfg), sender: sender}
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return errors.New("ses: recipient is required")
	}
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(m.sender),
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}
