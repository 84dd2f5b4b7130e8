package acceptance

import (
	"context"
	"errors"
	"testing"
	"time"

	appDomain "loanease/internal/domain/application"
	bankDomain "loanease/internal/domain/banking"
	notifDomain "loanease/internal/domain/notification"
	"loanease/internal/domain/uow"
	"loanease/internal/testutil/applicationmock"
	"loanease/internal/testutil/bankingmock"
	"loanease/internal/testutil/notificationmock"
	"loanease/internal/testutil/uowmock"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const token = "0123456789abcdef0123456789abcdef"

func approvedApp() *appDomain.Application {
	tok := token
	exp := fixedNow.Add(24 * time.Hour)
	return &appDomain.Application{
		ID: 3, PublicID: "app-1", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
		LoanAmountRequested: 5000, Status: appDomain.StatusApproved,
		ApprovalToken: &tok, ApprovalTokenExpiresAt: &exp,
	}
}

func validAccept() AcceptInput {
	return AcceptInput{
		ApplicationID:  "app-1",
		Token:          token,
		AccountNumber:  "123456789012",
		RoutingNumber:  "021000021",
		CardNumber:     "4111 1111 1111 1111",
		CardCVV:        "123",
		CardExpiration: "12/27",
		AgreeToTerms:   true,
	}
}

type fixture struct {
	apps    *applicationmock.Repo
	banking *bankingmock.Repo
	notifs  *notificationmock.Repo
	uc      *Usecase
}

func newFixture(a *appDomain.Application) *fixture {
	f := &fixture{
		apps: &applicationmock.Repo{
			GetByPublicIDForUpdateFn: func(_ context.Context, id string) (*appDomain.Application, error) {
				if a == nil || id != a.PublicID {
					return nil, appDomain.ErrNotFound
				}
				return a, nil
			},
			GetByApprovalTokenFn: func(_ context.Context, tok string) (*appDomain.Application, error) {
				if a == nil || a.ApprovalToken == nil || *a.ApprovalToken != tok {
					return nil, appDomain.ErrNotFound
				}
				return a, nil
			},
		},
		banking: &bankingmock.Repo{},
		notifs:  &notificationmock.Repo{},
	}
	tx := uowmock.Passthrough(uow.Repos{Applications: f.apps, Notifications: f.notifs, Banking: f.banking})
	f.uc = NewUsecase(f.apps, f.banking, tx, WithClock(func() time.Time { return fixedNow }))
	return f
}

func TestVerify(t *testing.T) {
	expired := approvedApp()
	past := fixedNow.Add(-time.Minute)
	expired.ApprovalTokenExpiresAt = &past

	accepted := approvedApp()
	accepted.BankingInfoSubmitted = true

	rejected := approvedApp()
	rejected.Status = appDomain.StatusRejected

	tests := []struct {
		name    string
		app     *appDomain.Application
		token   string
		wantErr error
	}{
		{"valid", approvedApp(), token, nil},
		{"unknown token", approvedApp(), "ffffffffffffffffffffffffffffffff", appDomain.ErrInvalidToken},
		{"blank token", approvedApp(), " ", appDomain.ErrInvalidToken},
		{"expired", expired, token, appDomain.ErrTokenExpired},
		{"already accepted", accepted, token, bankDomain.ErrAlreadyAccepted},
		{"not approved", rejected, token, appDomain.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newFixture(tt.app).uc.Verify(context.Background(), tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && a.PublicID != "app-1" {
				t.Fatalf("unexpected application %+v", a)
			}
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	f := newFixture(nil)
	errs := f.uc.Validate(AcceptInput{
		AccountNumber:  "1234",
		RoutingNumber:  "12345678",
		CardNumber:     "4111",
		CardCVV:        "12",
		CardExpiration: "01/20",
	})
	want := map[string]string{
		"account_number":  "Valid account number required (8-17 digits)",
		"routing_number":  "Routing number must be 9 digits",
		"card_number":     "Valid card number required",
		"card_cvv":        "Valid CVV required",
		"card_expiration": "Valid expiration required (MM/YY)",
		"agree_to_terms":  "You must agree to the loan terms",
	}
	for k, msg := range want {
		if errs[k] != msg {
			t.Fatalf("errs[%s] = %q, want %q", k, errs[k], msg)
		}
	}
	if len(f.uc.Validate(validAccept())) != 0 {
		t.Fatalf("valid input rejected: %v", f.uc.Validate(validAccept()))
	}
}

func TestAccept_Success(t *testing.T) {
	a := approvedApp()
	f := newFixture(a)
	var stored *bankDomain.Info
	f.banking.CreateFn = func(_ context.Context, i *bankDomain.Info) error {
		stored = i
		return nil
	}

	info, err := f.uc.Accept(context.Background(), validAccept())
	if err != nil {
		t.Fatalf("Accept err: %v", err)
	}
	if stored != info || info.ApplicationID != 3 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.AccountLastFour != "9012" || info.RoutingLastFour != "0021" || info.CardLastFour != "1111" {
		t.Fatalf("last four not masked: %+v", info)
	}
	if !a.BankingInfoSubmitted {
		t.Fatal("banking_info_submitted not set")
	}
	if got := f.notifs.Subjects(notifDomain.RecipientAdmin); len(got) != 1 || got[0] != "Loan Accepted" {
		t.Fatalf("admin notifications = %v", got)
	}
	if got := f.notifs.Subjects(notifDomain.RecipientApplicant); len(got) != 1 {
		t.Fatalf("applicant notifications = %v", got)
	}
}

func TestAccept_Rejections(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		in := validAccept()
		in.AgreeToTerms = false
		_, err := newFixture(approvedApp()).uc.Accept(context.Background(), in)
		var fe FieldErrors
		if !errors.As(err, &fe) || fe["agree_to_terms"] == "" {
			t.Fatalf("err = %v, want FieldErrors", err)
		}
	})
	t.Run("token mismatch", func(t *testing.T) {
		in := validAccept()
		in.Token = "ffffffffffffffffffffffffffffffff"
		_, err := newFixture(approvedApp()).uc.Accept(context.Background(), in)
		if !errors.Is(err, appDomain.ErrInvalidToken) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("unknown application", func(t *testing.T) {
		in := validAccept()
		in.ApplicationID = "other"
		_, err := newFixture(approvedApp()).uc.Accept(context.Background(), in)
		if !errors.Is(err, appDomain.ErrInvalidToken) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("second acceptance", func(t *testing.T) {
		a := approvedApp()
		f := newFixture(a)
		if _, err := f.uc.Accept(context.Background(), validAccept()); err != nil {
			t.Fatalf("first accept: %v", err)
		}
		_, err := f.uc.Accept(context.Background(), validAccept())
		if !errors.Is(err, bankDomain.ErrAlreadyAccepted) {
			t.Fatalf("err = %v, want ErrAlreadyAccepted", err)
		}
	})
	t.Run("duplicate row", func(t *testing.T) {
		a := approvedApp()
		f := newFixture(a)
		f.banking.CreateFn = func(context.Context, *bankDomain.Info) error { return bankDomain.ErrAlreadyAccepted }
		_, err := f.uc.Accept(context.Background(), validAccept())
		if !errors.Is(err, bankDomain.ErrAlreadyAccepted) {
			t.Fatalf("err = %v", err)
		}
		if a.BankingInfoSubmitted {
			t.Fatal("flag must not be set when the insert fails")
		}
	})
}

func TestBankingInfo(t *testing.T) {
	f := newFixture(nil)
	f.apps.GetByPublicIDFn = func(context.Context, string) (*appDomain.Application, error) {
		return &appDomain.Application{ID: 9}, nil
	}
	f.banking.GetByApplicationIDFn = func(_ context.Context, id uint64) (*bankDomain.Info, error) {
		if id != 9 {
			return nil, bankDomain.ErrNotFound
		}
		return &bankDomain.Info{CardLastFour: "1111"}, nil
	}
	info, err := f.uc.BankingInfo(context.Background(), "app-9")
	if err != nil || info.CardLastFour != "1111" {
		t.Fatalf("info=%+v err=%v", info, err)
	}

	f.banking.GetByApplicationIDFn = func(context.Context, uint64) (*bankDomain.Info, error) { return nil, bankDomain.ErrNotFound }
	if _, err := f.uc.BankingInfo(context.Background(), "app-9"); !errors.Is(err, bankDomain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
