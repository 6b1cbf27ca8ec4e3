package invitations

import (
	"hub-backend/internal/domain"
	"hub-backend/internal/pkg/apperr"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ValidateInviteCreation rejects addresses that are already invited or registered.
func ValidateInviteCreation(tx *gorm.DB, email string) error {
	var n int64
	if err := tx.Model(&domain.Invitation{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return errors.Wrap(err, "check invitation")
	}
	if n > 0 {
		return apperr.Existsf("An invitation already exists for this email")
	}
	if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return errors.Wrap(err, "check user")
	}
	if n > 0 {
		return apperr.Existsf("A user already exists with this email")
	}
	return nil
}
