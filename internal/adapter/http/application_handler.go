package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	appDomain "loanease/internal/domain/application"
	"loanease/internal/usecase/application"
)

type ApplicationHandler struct{ uc *application.Usecase }

func NewApplicationHandler(uc *application.Usecase) *ApplicationHandler {
	return &ApplicationHandler{uc: uc}
}

type createApplicationReq struct {
	FirstName           string  `json:"first_name" validate:"notblank,max=50"`
	LastName            string  `json:"last_name" validate:"notblank,max=50"`
	Email               string  `json:"email" validate:"required,emailaddr"`
	Phone               string  `json:"phone" validate:"required,phone"`
	DateOfBirth         string  `json:"date_of_birth" validate:"required,isodate"`
	StreetAddress       string  `json:"street_address" validate:"notblank,max=200"`
	City                string  `json:"city" validate:"notblank,max=100"`
	State               string  `json:"state" validate:"required,usstate"`
	ZipCode             string  `json:"zip_code" validate:"required,zip"`
	AnnualIncome        float64 `json:"annual_income" validate:"gt=0"`
	EmploymentStatus    string  `json:"employment_status" validate:"required,employment"`
	LoanAmountRequested float64 `json:"loan_amount_requested" validate:"gt=0"`
	SSNLastFour         string  `json:"ssn_last_four" validate:"required,ssn4"`
}

type updateStatusReq struct {
	Status  string `json:"status" validate:"required"`
	Message string `json:"document_request_message" validate:"max=2000"`
}

func (h *ApplicationHandler) Create(c echo.Context) error {
	var req createApplicationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	a, err := h.uc.Create(c.Request().Context(), application.CreateInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *ApplicationHandler) List(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	a, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *ApplicationHandler) ListByEmail(c echo.Context) error {
	list, err := h.uc.ListByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]applicantApplication, 0, len(list))
	for i := range list {
		out = append(out, newApplicantApplication(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// applicantApplication is the public, email-keyed view of an application.
// It carries what the status tracker acts on and leaves out identity,
// address, income and SSN fields.
type applicantApplication struct {
	ID                     string     `json:"id"`
	Email                  string     `json:"email"`
	Status                 string     `json:"status"`
	StatusUpdatedAt        time.Time  `json:"status_updated_at"`
	LoanAmountRequested    float64    `json:"loan_amount_requested"`
	ApprovalToken          *string    `json:"approval_token,omitempty"`
	ApprovalTokenExpiresAt *time.Time `json:"approval_token_expires_at,omitempty"`
	BankingInfoSubmitted   bool       `json:"banking_info_submitted"`
	DocumentRequestMessage *string    `json:"document_request_message,omitempty"`
	DocumentUploadToken    *string    `json:"document_upload_token,omitempty"`
	UploadTokenExpiresAt   *time.Time `json:"upload_token_expires_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func newApplicantApplication(a *appDomain.Application) applicantApplication {
	return applicantApplication{
		ID:                     a.PublicID,
		Email:                  a.Email,
		Status:                 string(a.Status),
		StatusUpdatedAt:        a.StatusUpdatedAt,
		LoanAmountRequested:    a.LoanAmountRequested,
		ApprovalToken:          a.ApprovalToken,
		ApprovalTokenExpiresAt: a.ApprovalTokenExpiresAt,
		BankingInfoSubmitted:   a.BankingInfoSubmitted,
		DocumentRequestMessage: a.DocumentRequestMessage,
		DocumentUploadToken:    a.DocumentUploadToken,
		UploadTokenExpiresAt:   a.UploadTokenExpiresAt,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
}

func (h *ApplicationHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	a, err := h.uc.UpdateStatus(c.Request().Context(), c.Param("id"), application.UpdateStatusInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *ApplicationHandler) Stats(c echo.Context) error {
	s, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
