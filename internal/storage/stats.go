package storage

import (
	"time"

	"osureporter/bot/internal/models"
)

// Stats is the aggregation behind the --stats one-shot and the /stats
// endpoint. "Restrictions" count only true restrictions; expired reports
// carry the n/a sentinel and are excluded on purpose.
type Stats struct {
	TotalReports        int `json:"total_reports"`
	BlatantReports      int `json:"blatant_reports"`
	NormalReports       int `json:"normal_reports"`
	TotalRestrictions   int `json:"total_restrictions"`
	BlatantRestrictions int `json:"blatant_restrictions"`
	NormalRestrictions  int `json:"normal_restrictions"`

	TopReporters []ReporterStats `json:"top_reporters"`

	// Average time from report to restriction, over restricted reports only.
	AvgRestrictionHours float64 `json:"avg_restriction_hours"`
}

type ReporterStats struct {
	Reporter   string `json:"reporter"`
	Reports    int    `json:"reports"`
	Blatant    int    `json:"blatant"`
	Restricted int    `json:"restricted"`
}

func (s *Service) Stats(since time.Time) (*Stats, error) {
	stats := &Stats{}

	// Resolution values are inlined: gorm's Select treats string args as
	// extra column names, not bind parameters.
	restricted := "'" + models.ResolutionRestricted + "'"

	row := s.DB.Model(&models.Report{}).
		Select(
			"COUNT(*)",
			"COUNT(*) FILTER (WHERE blatant)",
			"COUNT(*) FILTER (WHERE NOT blatant)",
			"COUNT(*) FILTER (WHERE resolution = "+restricted+")",
			"COUNT(*) FILTER (WHERE blatant AND resolution = "+restricted+")",
			"COUNT(*) FILTER (WHERE NOT blatant AND resolution = "+restricted+")",
		).
		Where("reported_at > ?", since).
		Row()
	if err := row.Scan(
		&stats.TotalReports, &stats.BlatantReports, &stats.NormalReports,
		&stats.TotalRestrictions, &stats.BlatantRestrictions, &stats.NormalRestrictions,
	); err != nil {
		return nil, err
	}

	err := s.DB.Model(&models.Report{}).
		Select(
			"reporter",
			"COUNT(*) AS reports",
			"COUNT(*) FILTER (WHERE blatant) AS blatant",
			"COUNT(*) FILTER (WHERE resolution = "+restricted+") AS restricted",
		).
		Where("reported_at > ?", since).
		Group("reporter").
		Order("reports DESC").
		Limit(5).
		Scan(&stats.TopReporters).Error
	if err != nil {
		return nil, err
	}

	var avgSeconds *float64
	err = s.DB.Model(&models.Report{}).
		Select("AVG(EXTRACT(EPOCH FROM (restricted_at - reported_at)))").
		Where("reported_at > ?", since).
		Where("resolution = ?", models.ResolutionRestricted).
		Row().Scan(&avgSeconds)
	if err != nil {
		return nil, err
	}
	if avgSeconds != nil {
		stats.AvgRestrictionHours = *avgSeconds / 3600
	}

	return stats, nil
}
