package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopease/storefront/internal/domain"
	"github.com/shopease/storefront/internal/platform/httpx"
	"github.com/shopease/storefront/internal/services"
)

// NotificationHandlers exposes the active toast queue.
type NotificationHandlers struct {
	center *services.NotificationCenter
}

// NewNotificationHandlers constructs the notification endpoint handlers.
func NewNotificationHandlers(center *services.NotificationCenter) *NotificationHandlers {
	return &NotificationHandlers{center: center}
}

// Routes wires the /notifications endpoints onto the provided router.
func (h *NotificationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/notifications", func(nr chi.Router) {
		nr.Get("/", h.listNotifications)
		nr.Delete("/{notificationID}", h.dismiss)
	})
}

func (h *NotificationHandlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	active := h.center.Active()
	payload := notificationListPayload{
		Notifications: make([]notificationPayload, 0, len(active)),
		Count:         len(active),
	}
	for _, notification := range active {
		payload.Notifications = append(payload.Notifications, buildNotificationPayload(notification))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *NotificationHandlers) dismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimSpace(routeParam(r, "notificationID"))

	if id == "" || !h.center.Dismiss(id) {
		httpx.WriteError(ctx, w, httpx.NewError("notification_not_found", "no active notification with that id", http.StatusNotFound))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func buildNotificationPayload(notification domain.Notification) notificationPayload {
	return notificationPayload{
		ID:        notification.ID,
		Message:   notification.Message,
		CreatedAt: notification.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type notificationPayload struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

type notificationListPayload struct {
	Notifications []notificationPayload `json:"notifications"`
	Count         int                   `json:"count"`
}
