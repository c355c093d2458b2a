package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "tenant1", "u1")

	repo := NewActivityRepository(db)
	user := "u1"
	entry1 := &activity.ActivityEntry{
		ProjectID:    "p1",
		UserID:       &user,
		ActivityType: activity.TypeProjectCreated,
		Summary:      "Created project",
		Version:      0,
	}
	entry2 := &activity.ActivityEntry{
		ProjectID:    "p1",
		UserID:       &user,
		ActivityType: activity.TypePagesChanged,
		Summary:      "Added a page pair",
		Details:      `{"pages":6}`,
		Version:      1,
	}

	require.NoError(t, repo.Log(ctx, "tenant1", entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, "tenant1", entry2))
	require.NotZero(t, entry2.ID)

	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Equal(t, "u1", *entries[0].UserID)
	require.Nil(t, entries[0].VersionID)
	require.Equal(t, int64(1), entries[0].Version)
}

func TestActivityRepository_FiltersAndTenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "tenant1", "u1")
	insertProject(t, db, "p2", "tenant2", "u1")

	repo := NewActivityRepository(db)
	user := "u1"
	versionID := "v1"
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		ProjectID:    "p1",
		UserID:       &user,
		VersionID:    &versionID,
		ActivityType: activity.TypeVersionCreated,
		Summary:      "Version 1",
		Version:      3,
	}))
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		ProjectID:    "p1",
		ActivityType: activity.TypeProjectUpdated,
		Summary:      "Project updated",
	}))

	activityType := activity.TypeVersionCreated
	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{
		ProjectID:    "p1",
		UserID:       &user,
		VersionID:    &versionID,
		ActivityType: &activityType,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "v1", *entries[0].VersionID)

	entries, err = repo.List(ctx, "tenant1", activity.ListActivityOptions{ProjectID: "p1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = repo.List(ctx, "tenant2", activity.ListActivityOptions{ProjectID: "p2"})
	require.NoError(t, err)
	require.Len(t, entries, 0)
}

func TestActivityRepository_Since(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "tenant1", "u1")
	repo := NewActivityRepository(db)

	now := time.Now()
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		ProjectID:    "p1",
		ActivityType: activity.TypeProjectCreated,
		Summary:      "old",
		CreatedAt:    now.Add(-2 * time.Hour),
	}))
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		ProjectID:    "p1",
		ActivityType: activity.TypeProjectUpdated,
		Summary:      "recent",
		CreatedAt:    now,
	}))

	since := now.Add(-time.Hour)
	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{ProjectID: "p1", Since: &since})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "recent", entries[0].Summary)

	entries, err = repo.List(ctx, "tenant1", activity.ListActivityOptions{ProjectID: "p1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "old", entries[0].Summary)
}
