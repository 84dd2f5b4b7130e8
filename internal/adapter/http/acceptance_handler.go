package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	appDomain "loanease/internal/domain/application"
	"loanease/internal/usecase/acceptance"
)

type AcceptanceHandler struct{ uc *acceptance.Usecase }

func NewAcceptanceHandler(uc *acceptance.Usecase) *AcceptanceHandler {
	return &AcceptanceHandler{uc: uc}
}

// offerView is what the accept-loan page needs to render the offer.
type offerView struct {
	ID                  string  `json:"id"`
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	Email               string  `json:"email"`
	LoanAmountRequested float64 `json:"loan_amount_requested"`
	Status              string  `json:"status"`
}

func newOfferView(a *appDomain.Application) offerView {
	return offerView{
		ID:                  a.PublicID,
		FirstName:           a.FirstName,
		LastName:            a.LastName,
		Email:               a.Email,
		LoanAmountRequested: a.LoanAmountRequested,
		Status:              string(a.Status),
	}
}

type acceptLoanReq struct {
	ApplicationID  string `json:"application_id" validate:"required"`
	Token          string `json:"token" validate:"required"`
	AccountNumber  string `json:"account_number" validate:"required,digits=8-17"`
	RoutingNumber  string `json:"routing_number" validate:"required,digits=9"`
	CardNumber     string `json:"card_number" validate:"required,digits=15-16"`
	CardCVV        string `json:"card_cvv" validate:"required,digits=3-4"`
	CardExpiration string `json:"card_expiration" validate:"required,cardexp"`
	AgreeToTerms   bool   `json:"agree_to_terms" validate:"required"`
}

func (h *AcceptanceHandler) Verify(c echo.Context) error {
	a, err := h.uc.Verify(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newOfferView(a))
}

func (h *AcceptanceHandler) Accept(c echo.Context) error {
	var req acceptLoanReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	if _, err := h.uc.Accept(c.Request().Context(), acceptance.AcceptInput(req)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":        "Loan accepted successfully",
		"application_id": req.ApplicationID,
	})
}

func (h *AcceptanceHandler) BankingInfo(c echo.Context) error {
	info, err := h.uc.BankingInfo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}
