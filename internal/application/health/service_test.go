package health

import (
	"context"
	"testing"

	"hub-backend/internal/domain"
	"hub-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectHealth_WithNilDeps(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil, 5)
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["redis"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
}

func TestCollectHealth_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	result := CollectHealth(ctx, rdb, nil, 5)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, "100", result.Traffic.SuccessRate)

	require.NoError(t, rdb.Set(ctx, KeyReqTotal, "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, KeyReqErrors, "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, KeyResTime, "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, KeyResCount, "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, KeyStartTime, "1000000", 0).Err())

	result2 := CollectHealth(ctx, rdb, nil, 5)
	assert.Equal(t, 10, result2.Traffic.TotalRequests)
	assert.Equal(t, 2, result2.Traffic.FailedCount)
	assert.Equal(t, 8, result2.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result2.Traffic.SuccessRate)
	assert.Equal(t, "15.05", result2.Traffic.AvgResponseTime)
}

func TestCollectHealth_MailBacklog(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, db.Create(&domain.MailOutbox{Kind: "invitation", To: "a@example.com", Body: "k"}).Error)
	require.NoError(t, db.Create(&domain.MailOutbox{Kind: "invitation", To: "b@example.com", Body: "k", Attempts: 5}).Error)

	result := CollectHealth(context.Background(), rdb, db, 5)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, int64(1), result.Mail.Pending)
	assert.Equal(t, int64(1), result.Mail.Failed)
	assert.Equal(t, int64(0), result.Mail.Divergences)
}
