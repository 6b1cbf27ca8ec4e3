package billing

import (
	"context"
	"errors"
	"testing"

	"hub-backend/internal/domain"
	"hub-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_RecordsCalls(t *testing.T) {
	p := &LocalProvider{}
	sub := &domain.UserSubscription{ExternalID: "sub_1"}

	require.NoError(t, p.Cancel(context.Background(), sub))
	require.NoError(t, p.Migrate(context.Background(), sub, &domain.Product{ExternalPlanID: "price_small"}))

	calls := p.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "cancel", calls[0].Operation)
	assert.Equal(t, "price_small", calls[1].PlanID)
}

func TestLocalProvider_Failure(t *testing.T) {
	p := &LocalProvider{}
	p.SetErr(errors.New("provider down"))

	err := p.Cancel(context.Background(), &domain.UserSubscription{ExternalID: "sub_1"})
	assert.EqualError(t, err, "provider down")
	assert.Len(t, p.Calls(), 1)
}

func TestRecordDivergence(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	uid := uuid.New()
	RecordDivergence(context.Background(), db, uid, "cancel", "sub_1", errors.New("commit failed"))

	var rows []domain.ProviderDivergence
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, uid, rows[0].UserID)
	assert.Contains(t, string(rows[0].Details), "commit failed")
}
