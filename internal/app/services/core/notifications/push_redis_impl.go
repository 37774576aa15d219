package notifications

import (
	"context"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/pkg/exceptions"
	"sync"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const pushChannelPrefix = "push:"

// pushMessage is consumed by the realtime gateway subscribed to the
// recipient's channel.
type pushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type redisPushSender struct {
	Client *redis.Client
}

var (
	pushSenderInstance contracts.PushSender
	oncePushSender     sync.Once
)

func NewRedisPushSender(client *redis.Client) contracts.PushSender {
	oncePushSender.Do(func() {
		pushSenderInstance = &redisPushSender{Client: client}
	})
	return pushSenderInstance
}

func (s *redisPushSender) SendPush(ctx context.Context, recipientID, title, body string) error {
	payload, err := json.Marshal(pushMessage{Title: title, Body: body})
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}
	if err := s.Client.Publish(ctx, pushChannelPrefix+recipientID, payload).Err(); err != nil {
		return exceptions.ErrRedisSet(err)
	}
	return nil
}
