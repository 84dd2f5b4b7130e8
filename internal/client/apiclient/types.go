package apiclient

import "time"

// Application statuses as sent by the service.
const (
	StatusPending           = "pending"
	StatusUnderReview       = "under_review"
	StatusDocumentsRequired = "documents_required"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
)

// Statuses in lifecycle order.
var Statuses = []string{
	StatusPending, StatusUnderReview, StatusDocumentsRequired, StatusApproved, StatusRejected,
}

type CreateApplicationRequest struct {
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	Email               string  `json:"email"`
	Phone               string  `json:"phone"`
	DateOfBirth         string  `json:"date_of_birth"`
	StreetAddress       string  `json:"street_address"`
	City                string  `json:"city"`
	State               string  `json:"state"`
	ZipCode             string  `json:"zip_code"`
	AnnualIncome        float64 `json:"annual_income"`
	EmploymentStatus    string  `json:"employment_status"`
	LoanAmountRequested float64 `json:"loan_amount_requested"`
	SSNLastFour         string  `json:"ssn_last_four"`
}

type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type Application struct {
	ID                  string  `json:"id"`
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	Email               string  `json:"email"`
	Phone               string  `json:"phone"`
	DateOfBirth         string  `json:"date_of_birth"`
	StreetAddress       string  `json:"street_address"`
	City                string  `json:"city"`
	State               string  `json:"state"`
	ZipCode             string  `json:"zip_code"`
	AnnualIncome        float64 `json:"annual_income"`
	EmploymentStatus    string  `json:"employment_status"`
	LoanAmountRequested float64 `json:"loan_amount_requested"`
	SSNLastFour         string  `json:"ssn_last_four"`

	Status                 string     `json:"status"`
	ApprovalToken          string     `json:"approval_token,omitempty"`
	BankingInfoSubmitted   bool       `json:"banking_info_submitted"`
	DocumentRequestMessage string     `json:"document_request_message,omitempty"`
	DocumentUploadToken    string     `json:"document_upload_token,omitempty"`
	Documents              []Document `json:"documents"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (a Application) FullName() string { return a.FirstName + " " + a.LastName }

type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Message string `json:"document_request_message,omitempty"`
}

// Offer is the approved application behind an approval token.
type Offer struct {
	ID                  string  `json:"id"`
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	Email               string  `json:"email"`
	LoanAmountRequested float64 `json:"loan_amount_requested"`
	Status              string  `json:"status"`
}

type AcceptLoanRequest struct {
	ApplicationID  string `json:"application_id"`
	Token          string `json:"token"`
	AccountNumber  string `json:"account_number"`
	RoutingNumber  string `json:"routing_number"`
	CardNumber     string `json:"card_number"`
	CardCVV        string `json:"card_cvv"`
	CardExpiration string `json:"card_expiration"`
	AgreeToTerms   bool   `json:"agree_to_terms"`
}

type BankingInfo struct {
	AccountLastFour string    `json:"account_last_four"`
	RoutingLastFour string    `json:"routing_last_four"`
	CardLastFour    string    `json:"card_last_four"`
	CardExpiration  string    `json:"card_expiration"`
	AcceptedAt      time.Time `json:"accepted_at"`
}

// UploadGrant is the application behind a document upload token.
type UploadGrant struct {
	ApplicationID          string `json:"application_id"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	DocumentRequestMessage string `json:"document_request_message"`
}

type Notification struct {
	ID             string    `json:"id"`
	ApplicationID  string    `json:"application_id"`
	Subject        string    `json:"subject"`
	Message        string    `json:"message"`
	RecipientType  string    `json:"recipient_type"`
	RecipientEmail string    `json:"recipient_email,omitempty"`
	Status         string    `json:"status,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

type Stats struct {
	TotalApplications    int64     `json:"total_applications"`
	Pending              int64     `json:"pending"`
	UnderReview          int64     `json:"under_review"`
	DocumentsRequired    int64     `json:"documents_required"`
	Approved             int64     `json:"approved"`
	Rejected             int64     `json:"rejected"`
	TotalRequestedAmount float64   `json:"total_requested_amount"`
	ApprovedAmount       float64   `json:"approved_amount"`
	GeneratedAt          time.Time `json:"generated_at"`
}

type Session struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Quote struct {
	LoanAmount     float64 `json:"loan_amount"`
	InterestRate   float64 `json:"interest_rate"`
	LoanTermMonths int     `json:"loan_term_months"`
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalPayment   float64 `json:"total_payment"`
	TotalInterest  float64 `json:"total_interest"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}
