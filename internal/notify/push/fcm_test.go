package push

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMulticast struct {
	got  *messaging.MulticastMessage
	resp *messaging.BatchResponse
	err  error
}

func (f *fakeMulticast) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.got = m
	return f.resp, f.err
}

func TestFCMSender_SendBatch(t *testing.T) {
	client := &fakeMulticast{resp: &messaging.BatchResponse{
		SuccessCount: 1,
		FailureCount: 1,
		Responses: []*messaging.SendResponse{
			{Success: true, MessageID: "m1"},
			{Success: false, Error: errors.New("internal")},
		},
	}}
	s := newFCMSender(client, 500)

	res, err := s.SendBatch(context.Background(), []string{"a", "b"}, Message{
		Title: "Ann needs help",
		Body:  "Ann has triggered an SOS.",
		Data:  map[string]string{"type": "sos"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Sent)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "b", res.Failed[0].Token)
	assert.False(t, res.Failed[0].Unregistered)

	require.NotNil(t, client.got)
	assert.Equal(t, []string{"a", "b"}, client.got.Tokens)
	assert.Equal(t, "Ann needs help", client.got.Notification.Title)
	assert.Equal(t, "high", client.got.Android.Priority)
	assert.Equal(t, "default", client.got.APNS.Payload.Aps.Sound)
	assert.Equal(t, "sos", client.got.Data["type"])
}

func TestFCMSender_Errors(t *testing.T) {
	s := newFCMSender(&fakeMulticast{err: errors.New("unavailable")}, 2)

	_, err := s.SendBatch(context.Background(), []string{"a"}, Message{})
	assert.ErrorContains(t, err, "fcm multicast")

	_, err = s.SendBatch(context.Background(), []string{"a", "b", "c"}, Message{})
	assert.ErrorContains(t, err, "exceeds limit")

	res, err := s.SendBatch(context.Background(), nil, Message{})
	require.NoError(t, err)
	assert.Empty(t, res.Sent)
}

func TestNewFCMSender_ClampsBatchSize(t *testing.T) {
	assert.Equal(t, FCMMaxBatchSize, newFCMSender(&fakeMulticast{}, 0).MaxBatchSize())
	assert.Equal(t, FCMMaxBatchSize, newFCMSender(&fakeMulticast{}, 900).MaxBatchSize())
	assert.Equal(t, 100, newFCMSender(&fakeMulticast{}, 100).MaxBatchSize())
}
