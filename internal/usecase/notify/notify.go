// Package notify builds the notification records and emails written when an
// application changes state.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appDomain "loanease/internal/domain/application"
	notifDomain "loanease/internal/domain/notification"
	"loanease/internal/infrastructure/mailer"
	"loanease/pkg/id"
)

const DefaultDocumentRequest = "Please upload additional supporting documents so we can continue reviewing your application."

type Message struct {
	Subject string
	Body    string
}

// Received is sent to the applicant right after submission.
func Received(a *appDomain.Application) Message {
	return Message{
		Subject: "Application Received",
		Body: fmt.Sprintf("Hi %s, we received your application for %s. We will email you as soon as it has been reviewed.",
			a.FirstName, USD(a.LoanAmountRequested)),
	}
}

// NewApplication is the admin copy of a submission.
func NewApplication(a *appDomain.Application) Message {
	return Message{
		Subject: "New Application",
		Body:    fmt.Sprintf("%s submitted an application for %s.", a.FullName(), USD(a.LoanAmountRequested)),
	}
}

// ForStatus is the applicant message for the status a has just entered.
func ForStatus(a *appDomain.Application, baseURL string) Message {
	switch a.Status {
	case appDomain.StatusUnderReview:
		return Message{
			Subject: "Application Under Review",
			Body:    fmt.Sprintf("Hi %s, your application is now under review by our team.", a.FirstName),
		}
	case appDomain.StatusDocumentsRequired:
		msg := DefaultDocumentRequest
		if a.DocumentRequestMessage != nil && *a.DocumentRequestMessage != "" {
			msg = *a.DocumentRequestMessage
		}
		body := fmt.Sprintf("Hi %s, we need more information: %s", a.FirstName, msg)
		if a.DocumentUploadToken != nil {
			body += fmt.Sprintf(" Upload your documents at %s/upload-documents/%s", strings.TrimRight(baseURL, "/"), *a.DocumentUploadToken)
		}
		return Message{Subject: "Documents Required", Body: body}
	case appDomain.StatusApproved:
		body := fmt.Sprintf("Congratulations %s! Your loan of %s has been approved.", a.FirstName, USD(a.LoanAmountRequested))
		if a.ApprovalToken != nil {
			body += " Complete your loan at " + AcceptURL(baseURL, *a.ApprovalToken)
		}
		return Message{Subject: "Application Approved!", Body: body}
	case appDomain.StatusRejected:
		return Message{
			Subject: "Application Rejected",
			Body:    fmt.Sprintf("Hi %s, unfortunately we are unable to approve your application at this time.", a.FirstName),
		}
	default:
		return Received(a)
	}
}

// LoanAccepted returns the applicant and admin messages for an accepted offer.
func LoanAccepted(a *appDomain.Application) (applicant, admin Message) {
	applicant = Message{
		Subject: "Loan Accepted",
		Body:    fmt.Sprintf("Thank you %s, your banking details were received. Funds will be disbursed to your account shortly.", a.FirstName),
	}
	admin = Message{
		Subject: "Loan Accepted",
		Body:    fmt.Sprintf("%s accepted the loan offer for %s and submitted banking details.", a.FullName(), USD(a.LoanAmountRequested)),
	}
	return applicant, admin
}

func DocumentUploaded(a *appDomain.Application, filename string) Message {
	return Message{
		Subject: "Document Uploaded",
		Body:    fmt.Sprintf("%s uploaded %s.", a.FullName(), filename),
	}
}

func AcceptURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/accept-loan/" + token
}

// ToApplicant builds the applicant copy, tagged with the application status.
func ToApplicant(a *appDomain.Application, m Message) *notifDomain.Notification {
	return &notifDomain.Notification{
		PublicID:       id.NewPublicID(),
		ApplicationID:  a.PublicID,
		Subject:        m.Subject,
		Message:        m.Body,
		RecipientType:  notifDomain.RecipientApplicant,
		RecipientEmail: a.Email,
		Status:         string(a.Status),
	}
}

func ToAdmin(a *appDomain.Application, m Message) *notifDomain.Notification {
	return &notifDomain.Notification{
		PublicID:      id.NewPublicID(),
		ApplicationID: a.PublicID,
		Subject:       m.Subject,
		Message:       m.Body,
		RecipientType: notifDomain.RecipientAdmin,
		Status:        string(a.Status),
	}
}

// USD formats an amount as $1,234.56.
func USD(amount float64) string {
	s := decimal.NewFromFloat(amount).Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + "$" + b.String() + frac
}

// Emailer delivers applicant emails after commit; failures are logged only.
type Emailer struct {
	mail mailer.Mailer
	log  *zap.Logger
}

func NewEmailer(m mailer.Mailer, log *zap.Logger) *Emailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emailer{mail: m, log: log}
}

func (e *Emailer) Send(ctx context.Context, n *notifDomain.Notification) {
	if e == nil || e.mail == nil || n == nil || n.RecipientEmail == "" {
		return
	}
	if err := e.mail.Send(ctx, n.RecipientEmail, n.Subject, n.Message); err != nil {
		e.log.Warn("notification email failed",
			zap.String("application_id", n.ApplicationID),
			zap.String("subject", n.Subject),
			zap.Error(err))
	}
}
