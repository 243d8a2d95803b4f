package controller

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"nexus/notify"
	"nexus/session"
)

// NotificationController exposes the feed of the current session
type NotificationController struct {
	Logger *logrus.Entry
}

func NewNotificationController(logger *logrus.Entry) *NotificationController {
	return &NotificationController{Logger: logger}
}

type feedPayload struct {
	Items       []notify.Item `json:"items"`
	UnreadCount int           `json:"unread_count"`
}

func buildFeed(ctx context.Context, s *session.Session) (*feedPayload, error) {
	items, err := s.Feed.Items(ctx)
	if err != nil {
		return nil, err
	}
	unread := 0
	for _, it := range items {
		if !it.Read {
			unread++
		}
	}
	return &feedPayload{Items: items, UnreadCount: unread}, nil
}

func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	feed, err := buildFeed(c.UserContext(), currentSession(c))
	if err != nil {
		return respondError(c, nc.Logger, err)
	}
	if c.Query("unread") == "true" {
		unread := make([]notify.Item, 0, feed.UnreadCount)
		for _, it := range feed.Items {
			if !it.Read {
				unread = append(unread, it)
			}
		}
		feed.Items = unread
	}
	return c.JSON(feed)
}

// OpenNotification marks the event read and tells the client where to go
func (nc *NotificationController) OpenNotification(c *fiber.Ctx) error {
	s := currentSession(c)
	ev, target, err := s.Feed.Open(c.UserContext(), c.Params("id"))
	if errors.Is(err, notify.ErrUnknownEvent) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}
	if err != nil {
		return respondError(c, nc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"notification": ev,
		"target":       target,
	})
}

func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	s := currentSession(c)
	if err := s.Feed.MarkAllRead(c.UserContext()); err != nil {
		return respondError(c, nc.Logger, err)
	}
	return c.JSON(fiber.Map{
		"message":      "All notifications marked as read",
		"unread_count": 0,
	})
}

// Stream pushes the feed over a websocket whenever it changes. The stream
// ends when the client disconnects or the session is closed.
func (nc *NotificationController) Stream(conn *websocket.Conn) {
	defer conn.Close()

	s, ok := conn.Locals("session").(*session.Session)
	if !ok {
		return
	}
	log := nc.Logger.WithField("session_id", s.ID)

	changes, stop := s.Feed.Watch()
	defer stop()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() bool {
		feed, err := buildFeed(context.Background(), s)
		if err != nil {
			log.WithError(err).Warn("Failed to build notification feed")
			return true
		}
		if err := conn.WriteJSON(feed); err != nil {
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-s.Done():
			conn.WriteJSON(fiber.Map{"event": "session_closed"})
			return
		case <-changes:
			if !send() {
				return
			}
		}
	}
}
