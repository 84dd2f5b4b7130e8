package mysql

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	appDomain "loanease/internal/domain/application"
	"loanease/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB creates a throwaway sqlite file and migrates the domain models.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loanease_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func makeApplication(email string) *appDomain.Application {
	return &appDomain.Application{
		PublicID:            id.NewPublicID(),
		FirstName:           "Jane",
		LastName:            "Doe",
		Email:               email,
		Phone:               "5551234567",
		DateOfBirth:         "1990-04-12",
		StreetAddress:       "1 Main St",
		City:                "Springfield",
		State:               "IL",
		ZipCode:             "62701",
		AnnualIncome:        85_000,
		EmploymentStatus:    "employed",
		LoanAmountRequested: 12_500,
		SSNLastFour:         "1234",
		Status:              appDomain.StatusPending,
		StatusUpdatedAt:     time.Now().UTC(),
	}
}

func strPtr(s string) *string { return &s }
