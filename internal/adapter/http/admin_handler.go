package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loanease/internal/adapter/middleware"
	"loanease/internal/usecase/admin"
)

type AdminHandler struct{ uc *admin.Usecase }

func NewAdminHandler(uc *admin.Usecase) *AdminHandler { return &AdminHandler{uc: uc} }

type loginReq struct {
	Password string `json:"password" validate:"required"`
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	s, err := h.uc.Login(c.Request().Context(), req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHandler) Logout(c echo.Context) error {
	if err := h.uc.Logout(c.Request().Context(), middleware.Claims(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
