package models

import (
	"time"

	"github.com/lib/pq"
)

// Resolution states for a Report. Empty means the report is still open.
const (
	ResolutionOpen       = ""
	ResolutionRestricted = "restricted"
	// ResolutionExpired marks a report that aged out of the retention window
	// before the player was restricted. Distinct from a true restriction so
	// statistics can tell the two outcomes apart.
	ResolutionExpired = "n/a"
)

// Report is one accepted cheating report. At most one open report per player
// inside the retention window; the lifecycle enforces this before insertion,
// not the database.
type Report struct {
	SubmissionID    string `gorm:"primaryKey"`
	SubjectID       string `gorm:"index"` // osu! user id of the reported player
	ReportedAt      time.Time
	RestrictedAt    *time.Time // set only on a true restriction
	Resolution      string
	OffenseCategory string
	OffenseTokens   pq.StringArray `gorm:"type:text[]"` // raw offense words from the title
	Blatant         bool
	Reporter        string // forum username of whoever filed the report
}

// Open reports are the ones the sheriff still re-checks.
func (r *Report) Open() bool {
	return r.Resolution == ResolutionOpen
}

// Age of the report at the given instant.
func (r *Report) Age(now time.Time) time.Duration {
	return now.Sub(r.ReportedAt)
}
