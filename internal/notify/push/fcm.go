package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// FCMMaxBatchSize is the most tokens one multicast call accepts.
const FCMMaxBatchSize = 500

type multicastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender sends multicast notifications through Firebase Cloud Messaging.
type FCMSender struct {
	client    multicastClient
	batchSize int
}

func NewFCMSender(ctx context.Context, app *firebase.App, batchSize int) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Messaging client: %w", err)
	}
	return newFCMSender(client, batchSize), nil
}

func newFCMSender(client multicastClient, batchSize int) *FCMSender {
	if batchSize <= 0 || batchSize > FCMMaxBatchSize {
		batchSize = FCMMaxBatchSize
	}
	return &FCMSender{client: client, batchSize: batchSize}
}

func (s *FCMSender) MaxBatchSize() int {
	return s.batchSize
}

func (s *FCMSender) SendBatch(ctx context.Context, tokens []string, msg Message) (*BatchResult, error) {
	if len(tokens) == 0 {
		return &BatchResult{}, nil
	}
	if len(tokens) > s.batchSize {
		return nil, fmt.Errorf("batch of %d tokens exceeds limit %d", len(tokens), s.batchSize)
	}

	resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   msg.Data,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	res := &BatchResult{}
	for i, r := range resp.Responses {
		if i >= len(tokens) {
			break
		}
		if r.Success {
			res.Sent = append(res.Sent, tokens[i])
			continue
		}
		res.Failed = append(res.Failed, Failure{
			Token:        tokens[i],
			Err:          r.Error,
			Unregistered: messaging.IsUnregistered(r.Error),
		})
	}
	return res, nil
}
