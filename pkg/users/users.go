// Package users creates and looks up the identity anchor rows.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vint/models"
	"vint/pkg/apperr"
	"vint/pkg/store"
)

// NewUser is an explicit registration.
type NewUser struct {
	Email         string
	Phone         *string
	MonthlyBudget decimal.Decimal
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. Email and phone must both be unused.
func Register(ctx context.Context, db *gorm.DB, in NewUser) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	var phone *string
	if in.Phone != nil {
		if p := strings.TrimSpace(*in.Phone); p != "" {
			phone = &p
		}
	}

	tx := db.WithContext(ctx)
	var n int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, apperr.Internal(err, "check email")
	}
	if n > 0 {
		return nil, apperr.Conflict("email already registered")
	}
	if phone != nil {
		if err := tx.Model(&models.User{}).Where("phone = ?", *phone).Count(&n).Error; err != nil {
			return nil, apperr.Internal(err, "check phone")
		}
		if n > 0 {
			return nil, apperr.Conflict("phone already registered")
		}
	}

	user := &models.User{Email: email, Phone: phone, MonthlyBudget: in.MonthlyBudget.Round(2)}
	if err := tx.Create(user).Error; err != nil {
		// registered concurrently after the checks above
		if store.IsUniqueViolation(err) {
			return nil, apperr.Conflict("email or phone already registered")
		}
		return nil, apperr.Internal(err, "create user")
	}
	return user, nil
}

// FindOrCreate returns the user with the given verified email, creating it on first sign-in.
func FindOrCreate(ctx context.Context, db *gorm.DB, email string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, apperr.Validation("email is required")
	}
	user, err := ByEmail(ctx, db, email)
	if err == nil {
		return user, false, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, false, err
	}

	user = &models.User{Email: email}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		if store.IsUniqueViolation(err) {
			user, err := ByEmail(ctx, db, email)
			return user, false, err
		}
		return nil, false, apperr.Internal(err, "create user")
	}
	return user, true, nil
}

func ByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load user")
	}
	return &user, nil
}

func ByID(ctx context.Context, db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load user")
	}
	return &user, nil
}

// SetMonthlyBudget updates the user's budget and returns the stored value.
func SetMonthlyBudget(ctx context.Context, db *gorm.DB, id uint, budget decimal.Decimal) (decimal.Decimal, error) {
	budget = budget.Round(2)
	res := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("monthly_budget", budget)
	if res.Error != nil {
		return decimal.Zero, apperr.Internal(res.Error, "update budget")
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, apperr.NotFound("user not found")
	}
	return budget, nil
}
