// README: FCM push delivery with invalid-token reporting.
package notification

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// Sender delivers one push to a set of device tokens and reports which tokens
// the provider rejected as dead so the caller can prune them.
type Sender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (invalid []string, err error)
}

type fcmSender struct {
	client *messaging.Client
}

func NewFCMSender(client *messaging.Client) Sender {
	return &fcmSender{client: client}
}

func (s *fcmSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return nil, err
	}

	var invalid []string
	for i, r := range resp.Responses {
		if r.Success {
			continue
		}
		if messaging.IsRegistrationTokenNotRegistered(r.Error) {
			invalid = append(invalid, tokens[i])
		}
	}
	return invalid, nil
}
