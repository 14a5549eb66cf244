// internal/fcm/fcm.go
package fcm

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"

	"diabeater-console/utils"
)

// sender is the slice of messaging.Client used here.
type sender interface {
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

type FCMClient struct {
	client sender
}

func NewFCMClient(ctx context.Context, app *firebase.App) (*FCMClient, error) {
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client init failed: %w", err)
	}
	return &FCMClient{client: messagingClient}, nil
}

// convertDataToStringMap converts map[string]interface{} to the string map FCM requires.
func convertDataToStringMap(data map[string]interface{}) map[string]string {
	result := make(map[string]string, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			result[k] = val
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			result[k] = fmt.Sprintf("%d", val)
		case float32:
			result[k] = strconv.FormatFloat(float64(val), 'f', -1, 32)
		case float64:
			result[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			result[k] = strconv.FormatBool(val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

func buildMessage(token, title, body string, data map[string]string) *messaging.Message {
	badge := 1
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: &badge,
				},
			},
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
			Priority: "high",
		},
	}
}

// SendToTokens pushes one notification to every device token. It returns the
// tokens FCM reported as unregistered so callers can prune them.
func (f *FCMClient) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	stringData := convertDataToStringMap(data)
	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, buildMessage(token, title, body, stringData))
	}

	var stale []string
	// SendEach accepts at most 500 messages per call.
	const batchSize = 500
	for i := 0; i < len(messages); i += batchSize {
		end := i + batchSize
		if end > len(messages) {
			end = len(messages)
		}

		resp, err := f.client.SendEach(ctx, messages[i:end])
		if err != nil {
			return stale, fmt.Errorf("FCM batch[%d:%d] failed: %w", i, end, err)
		}

		for j, r := range resp.Responses {
			if r.Success {
				continue
			}
			token := tokens[i+j]
			if messaging.IsUnregistered(r.Error) {
				stale = append(stale, token)
			}
			utils.Log.WithFields(logrus.Fields{
				"token": utils.MaskToken(token),
				"index": i + j,
			}).WithError(r.Error).Warn("⚠️ [FCM] token delivery failed")
		}
		utils.Log.Debugf("✅ [FCM] batch[%d:%d] sent, %d succeeded", i, end, resp.SuccessCount)
	}
	return stale, nil
}
