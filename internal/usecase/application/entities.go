package application

import "time"

type CreateInput struct {
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	DateOfBirth         string // YYYY-MM-DD
	StreetAddress       string
	City                string
	State               string
	ZipCode             string
	AnnualIncome        float64
	EmploymentStatus    string
	LoanAmountRequested float64
	SSNLastFour         string
}

type UpdateStatusInput struct {
	Status string
	// only used for documents_required
	Message string
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
