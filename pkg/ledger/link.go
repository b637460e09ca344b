package ledger

import (
	"context"
	"strconv"
	"strings"

	"vint/models"
	"vint/pkg/apperr"
)

// LinkToken starts the provider link flow for the user.
func (s *Service) LinkToken(ctx context.Context, userID uint) (string, error) {
	ctx, cancel := s.providerContext(ctx)
	defer cancel()

	token, err := s.provider.CreateLinkToken(ctx, strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		return "", apperr.Upstream(err, "ledger provider")
	}
	return token, nil
}

// Link exchanges a public token from the link flow for an access credential and
// stores it on the user, replacing any earlier link.
func (s *Service) Link(ctx context.Context, userID uint, publicToken string) error {
	publicToken = strings.TrimSpace(publicToken)
	if publicToken == "" {
		return apperr.Validation("public_token is required")
	}

	pctx, cancel := s.providerContext(ctx)
	access, err := s.provider.ExchangePublicToken(pctx, publicToken)
	cancel()
	if err != nil {
		return apperr.Upstream(err, "ledger provider")
	}

	sealed, err := s.box.Seal(access)
	if err != nil {
		return apperr.Internal(err, "seal ledger credential")
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("ledger_access_token", sealed)
	if res.Error != nil {
		return apperr.Internal(res.Error, "store ledger credential")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	s.log.WithField("user_id", userID).Info("ledger account linked")
	return nil
}
