package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"diabeater-console/internal/service"
	"diabeater-console/internal/sse"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"
)

const (
	heartbeatInterval = 30 * time.Second
	streamBuffer      = 16
)

// ListNotifications returns the caller's notifications, newest first.
// ?unread=true limits the list to unread ones.
func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	p := principal(c)
	list, err := h.svc.Notify.ListForUser(c.UserContext(), p.UID, c.QueryBool("unread"))
	if err != nil {
		return fail(c, err)
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	return c.JSON(fiber.Map{"notifications": list, "unread": unread})
}

// UnreadCount backs the bell badge.
func (h *Handler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.svc.Notify.UnreadCount(c.UserContext(), principal(c).UID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"unread": n})
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	err := h.svc.Notify.MarkRead(c.UserContext(), principal(c).UID, c.Params("id"))
	return respond(c, fiber.StatusOK, "", nil, err)
}

func (h *Handler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	count, err := h.svc.Notify.MarkAllRead(c.UserContext(), principal(c).UID)
	return respond(c, fiber.StatusOK, "updated", count, err)
}

type deviceRequest struct {
	Token string `json:"token"`
}

func (h *Handler) RegisterDevice(c *fiber.Ctx) error {
	var req deviceRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	err := h.svc.Notify.RegisterDevice(c.UserContext(), principal(c).UID, req.Token)
	return respond(c, fiber.StatusCreated, "", nil, err)
}

// StreamNotifications is the live notification feed. It sends the unread
// backlog, a "ready" event, then every delivered notification, with a
// comment heartbeat to keep proxies from closing the connection.
func (h *Handler) StreamNotifications(c *fiber.Ctx) error {
	uid := principal(c).UID

	backlog, err := h.svc.Notify.ListForUser(c.UserContext(), uid, true)
	if err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	events, unsubscribe := h.svc.Broker.Subscribe(uid, streamBuffer)
	done := c.Context().Done()
	started := time.Now()
	log := utils.Log.WithField("uid", uid)
	log.Info("✅ [SSE] 🟢 stream opened")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			unsubscribe()
			log.WithField("duration", time.Since(started).Round(time.Second).String()).Info("🔌 [SSE] 🔴 stream closed")
		}()

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()
		if err := streamEvents(w, uid, backlog, events, heartbeat.C, done); err != nil {
			log.WithError(err).Debug("⚠️ [SSE] client went away")
		}
	}))
	return nil
}

// streamEvents writes the backlog oldest first, the ready event, and then
// relays events until the channel closes, done fires or a write fails.
func streamEvents(w *bufio.Writer, uid string, backlog []models.Notification, events <-chan sse.Event, heartbeat <-chan time.Time, done <-chan struct{}) error {
	for i := len(backlog) - 1; i >= 0; i-- {
		if err := writeEvent(w, service.EventNotification, backlog[i]); err != nil {
			return err
		}
	}
	ready := fiber.Map{
		"status":  "ready",
		"at":      time.Now().UTC().Format(time.RFC3339Nano),
		"user_id": uid,
	}
	if err := writeEvent(w, "ready", ready); err != nil {
		return err
	}

	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Data == nil {
				continue
			}
			if err := writeEvent(w, ev.Type, ev.Data); err != nil {
				return err
			}
			utils.Log.WithFields(logrus.Fields{"uid": uid, "event": ev.Type}).Debug("📡 [SSE] event sent")
		case <-heartbeat:
			if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

func writeEvent(w *bufio.Writer, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		utils.Log.WithError(err).WithField("event", event).Warn("⚠️ [SSE] could not marshal event")
		return nil
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}
