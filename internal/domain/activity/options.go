package activity

import "time"

// ListActivityOptions filters an activity listing. Zero values don't filter.
type ListActivityOptions struct {
	ProjectID    string
	UserID       *string
	VersionID    *string
	ActivityType *ActivityType
	// Since keeps entries created at or after this instant.
	Since  *time.Time
	Limit  int
	Offset int
}
