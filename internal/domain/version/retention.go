package version

import (
	"sort"
	"time"
)

// SelectExpired returns the ids of records the retention policy drops. The
// newest KeepLatest records are always kept, and production records are
// never dropped.
func SelectExpired(records []Record, now time.Time, policy Policy) []string {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].VersionNumber > sorted[j].VersionNumber
	})

	var expired []string
	for i, rec := range sorted {
		if i < policy.KeepLatest || rec.IsProduction {
			continue
		}
		if now.Sub(rec.CreatedAt) > policy.MaxAge {
			expired = append(expired, rec.ID)
		}
	}
	return expired
}
