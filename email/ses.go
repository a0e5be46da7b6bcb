package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/gskelton/gatehouse/auth"
)

// SESSender delivers mail through Amazon SES.
type SESSender struct {
	client *sesv2.Client
	sender string
}

var _ Sender = (*SESSender)(nil)

// NewSESSender creates a Sender that sends from the given verified
// sender address.
func NewSESSender(client *sesv2.Client, sender string) *SESSender {
	return &SESSender{client: client, sender: sender}
}

func (s *SESSender) Send(ctx context.Context, to auth.Email, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to.String()},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sending email via ses: %w", err)
	}
	return nil
}
