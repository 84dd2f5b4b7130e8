package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loanease/internal/usecase/notification"
)

type NotificationHandler struct{ uc *notification.Usecase }

func NewNotificationHandler(uc *notification.Usecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) List(c echo.Context) error {
	rt, err := notification.ParseRecipient(c.QueryParam("recipient_type"))
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.List(c.Request().Context(), rt)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) ListForApplicant(c echo.Context) error {
	list, err := h.uc.ListForApplicant(c.Request().Context(), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	if err := h.uc.MarkRead(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	rt, err := notification.ParseRecipient(c.QueryParam("recipient_type"))
	if err != nil {
		return writeError(c, err)
	}
	n, err := h.uc.UnreadCount(c.Request().Context(), rt)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": n})
}
