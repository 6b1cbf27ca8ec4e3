package billing

import (
	"context"
	"encoding/json"

	"hub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordDivergence notes a provider change whose local commit failed.
// It writes outside any transaction; failures are only logged.
func RecordDivergence(ctx context.Context, db *gorm.DB, userID uuid.UUID, operation, externalID string, commitErr error) {
	details, _ := json.Marshal(map[string]string{"commit_error": commitErr.Error()})
	log.Error().
		Err(commitErr).
		Str("user_id", userID.String()).
		Str("operation", operation).
		Str("external_id", externalID).
		Msg("Billing provider applied a change that was not committed locally")

	row := &domain.ProviderDivergence{
		UserID:     userID,
		Operation:  operation,
		ExternalID: externalID,
		Details:    datatypes.JSON(details),
	}
	if err := db.WithContext(context.WithoutCancel(ctx)).Create(row).Error; err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to record provider divergence")
	}
}
