package version_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/photobook/internal/domain/version"
	"github.com/stretchr/testify/require"
)

func TestSelectExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-60 * 24 * time.Hour)
	recent := now.Add(-24 * time.Hour)

	var records []version.Record
	for i := 1; i <= 10; i++ {
		created := old
		if i >= 9 {
			created = recent
		}
		records = append(records, version.Record{
			ID:            fmt.Sprintf("v%d", i),
			VersionNumber: int64(i),
			CreatedAt:     created,
			IsProduction:  i == 2,
		})
	}

	expired := version.SelectExpired(records, now, version.DefaultPolicy)
	require.ElementsMatch(t, []string{"v1", "v3", "v4", "v5"}, expired)
}

func TestSelectExpired_KeepsLatestRegardlessOfAge(t *testing.T) {
	now := time.Now()
	ancient := now.Add(-365 * 24 * time.Hour)
	records := []version.Record{
		{ID: "a", VersionNumber: 3, CreatedAt: ancient},
		{ID: "b", VersionNumber: 1, CreatedAt: ancient},
		{ID: "c", VersionNumber: 2, CreatedAt: ancient},
	}
	require.Empty(t, version.SelectExpired(records, now, version.DefaultPolicy))

	expired := version.SelectExpired(records, now, version.Policy{KeepLatest: 1, MaxAge: time.Hour})
	require.ElementsMatch(t, []string{"b", "c"}, expired)
}
