package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
)

func TestNotificationRepository_ReadFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Notification{
			UserID: "u1", Type: domain.NotificationContentApproved, Title: "Approved",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: "u2", Type: domain.NotificationContentRejected}))

	count, err := repo.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	items, total, err := repo.GetList(ctx, "u1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))

	require.NoError(t, repo.MarkAsRead(ctx, items[0].ID))
	count, _ = repo.GetUnreadCount(ctx, "u1")
	assert.Equal(t, int64(2), count)

	n, err := repo.MarkAllAsRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, _ = repo.GetUnreadCount(ctx, "u2")
	assert.Equal(t, int64(1), count)
}
