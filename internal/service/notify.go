package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"diabeater-console/internal/repository"
	"diabeater-console/internal/sse"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"
)

// EventNotification is the SSE event type carrying a models.Notification.
const EventNotification = "notification"

const channelPrefix = "user_notifications:"

// Pusher sends a push message to device tokens and reports the stale ones.
type Pusher interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]string, error)
}

type NotifyService struct {
	notifications *repository.NotificationRepository
	users         *repository.UserRepository
	broker        *sse.Broker
	redis         *redis.Client
	push          Pusher
}

// NewNotifyService wires delivery. rdb and push may be nil. With Redis the
// SSE fan-out goes through pub/sub (see Relay) so every instance sees it.
func NewNotifyService(repos *repository.Repositories, broker *sse.Broker, rdb *redis.Client, push Pusher) *NotifyService {
	return &NotifyService{
		notifications: repos.Notifications,
		users:         repos.Users,
		broker:        broker,
		redis:         rdb,
		push:          push,
	}
}

// Deliver stores n and fans it out. Only the store write can fail the call.
func (s *NotifyService) Deliver(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if strings.TrimSpace(n.RecipientID) == "" {
		return nil, apperror.Validation("notification recipient is required")
	}
	if n.Type == "" {
		n.Type = models.NotificationGeneral
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	created, err := s.notifications.Create(ctx, n)
	if err != nil {
		return nil, err
	}

	utils.Log.WithFields(logrus.Fields{"id": created.ID, "user": created.RecipientID, "type": created.Type}).
		Info("🔔 [NOTIFY] notification stored")

	s.fanOut(ctx, *created)
	return created, nil
}

func (s *NotifyService) fanOut(ctx context.Context, n models.Notification) {
	log := utils.Log.WithFields(logrus.Fields{"id": n.ID, "user": n.RecipientID})

	if s.redis != nil {
		payload, err := json.Marshal(n)
		if err == nil {
			err = s.redis.Publish(ctx, channelPrefix+n.RecipientID, payload).Err()
		}
		if err != nil {
			log.WithError(err).Warn("⚠️ [NOTIFY] redis publish failed, delivering locally")
			s.broadcast(n)
		}
	} else {
		s.broadcast(n)
	}

	if s.push == nil {
		return
	}
	user, err := s.users.Get(ctx, n.RecipientID)
	if err != nil {
		log.WithError(err).Debug("[NOTIFY] no account for push")
		return
	}
	if len(user.FCMTokens) == 0 {
		return
	}
	data := map[string]interface{}{"notificationId": n.ID, "type": string(n.Type)}
	if n.MealPlanID != "" {
		data["mealPlanId"] = n.MealPlanID
	}
	stale, err := s.push.SendToTokens(ctx, user.FCMTokens, pushTitle(n.Type), n.Message, data)
	if err != nil {
		log.WithError(err).Warn("⚠️ [NOTIFY] push failed")
	}
	if len(stale) > 0 {
		if err := s.users.RemoveDeviceTokens(ctx, user.ID, stale); err != nil {
			log.WithError(err).Warn("⚠️ [NOTIFY] could not prune stale device tokens")
		}
	}
}

func (s *NotifyService) broadcast(n models.Notification) {
	if s.broker == nil {
		return
	}
	s.broker.Broadcast(sse.Event{Type: EventNotification, Data: n, UserID: n.RecipientID})
}

func pushTitle(t models.NotificationType) string {
	switch t {
	case models.NotificationMealPlanStatusUpdate:
		return "Meal plan reviewed"
	case models.NotificationApplicationUpdate:
		return "Application update"
	}
	return "DiaBeater"
}

// Relay forwards notifications published on Redis to this instance's SSE
// broker until ctx is cancelled. It is a no-op without Redis.
func (s *NotifyService) Relay(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	pubsub := s.redis.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return apperror.Transient("subscribe "+channelPrefix+"*", err)
	}
	utils.Log.Info("✅ [NOTIFY] relaying redis notifications to SSE")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n models.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				utils.Log.WithError(err).WithField("channel", msg.Channel).Warn("⚠️ [NOTIFY] bad relay payload")
				continue
			}
			s.broadcast(n)
		}
	}
}

// ListForUser returns uid's notifications, newest first.
func (s *NotifyService) ListForUser(ctx context.Context, uid string, unreadOnly bool) ([]models.Notification, error) {
	list, err := s.notifications.ListForUser(ctx, uid, unreadOnly)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.After(list[j].Timestamp)
	})
	return list, nil
}

// MarkRead marks one notification read. Only its recipient may do so.
func (s *NotifyService) MarkRead(ctx context.Context, uid, id string) error {
	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != uid {
		return apperror.Forbidden("notifications can only be marked read by their recipient")
	}
	if n.Read {
		return nil
	}
	return s.notifications.MarkRead(ctx, id)
}

// MarkAllRead marks every unread notification of uid and returns how many
// were changed.
func (s *NotifyService) MarkAllRead(ctx context.Context, uid string) (int, error) {
	unread, err := s.notifications.ListForUser(ctx, uid, true)
	if err != nil {
		return 0, err
	}
	for i, n := range unread {
		if err := s.notifications.MarkRead(ctx, n.ID); err != nil {
			return i, err
		}
	}
	return len(unread), nil
}

func (s *NotifyService) UnreadCount(ctx context.Context, uid string) (int, error) {
	unread, err := s.notifications.ListForUser(ctx, uid, true)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// RegisterDevice stores a push token on the user's account.
func (s *NotifyService) RegisterDevice(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperror.Validation("device token is required")
	}
	if err := s.users.AddDeviceToken(ctx, uid, token); err != nil {
		return err
	}
	utils.Log.WithFields(logrus.Fields{"user": uid, "token": utils.MaskToken(token)}).Info("📱 [NOTIFY] device registered")
	return nil
}
