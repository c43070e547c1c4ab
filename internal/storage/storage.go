package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"osureporter/bot/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is everything the lifecycle and the sheriff need from persistence.
type Storage interface {
	SubmissionExists(id string) (bool, error)
	AddSubmission(id string) error
	RejectSubmission(id, reason string) error
	RestrictSubmission(id string) error

	AddReport(report *models.Report) error
	RestrictReport(submissionID string, at time.Time) error
	ExpireReport(submissionID string) error
	VacateReport(submissionID string) error

	ActiveReportForSubject(subjectID string, window time.Duration) (*models.Report, error)
	OpenReports(window time.Duration) ([]models.Report, error)
	ReportsForSubject(subjectID string) ([]models.Report, error)

	Stats(since time.Time) (*Stats, error)
}

// seenTTL bounds the Redis fast-path entries for SubmissionExists. The stream
// only ever redelivers the latest ~100 posts, so a month is plenty.
const seenTTL = 30 * 24 * time.Hour

// Service implements Storage over PostgreSQL, with an optional Redis fast
// path for the seen-submission check. Redis may be nil; everything falls
// through to the database.
//
// ReadOnly suppresses writes that create new state (reports, rejections) but
// not restriction writes, so a dry run can still prove out resolution logic.
// Submission rows are still written even in read-only mode: without them the
// stream consumer would reprocess every redelivered post.
type Service struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Ctx      context.Context
	ReadOnly bool
}

func NewStorageService(db *gorm.DB, rdb *redis.Client, readOnly bool) *Service {
	return &Service{
		DB:       db,
		Redis:    rdb,
		Ctx:      context.Background(),
		ReadOnly: readOnly,
	}
}

// SubmissionExists checks the Redis seen-cache first and falls back to the
// database. Cache misses that hit in the database repopulate the cache.
func (s *Service) SubmissionExists(id string) (bool, error) {
	if s.Redis != nil {
		_, err := s.Redis.Get(s.Ctx, "seen:"+id).Result()
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, redis.Nil) {
			slog.Warn("redis seen-cache read failed, falling back to db", "id", id, "error", err)
		}
	}

	var count int64
	if err := s.DB.Model(&models.Submission{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		s.cacheSeen(id)
	}
	return count > 0, nil
}

// AddSubmission records that a post has been observed. Idempotent, and always
// written regardless of read-only mode.
func (s *Service) AddSubmission(id string) error {
	sub := models.Submission{ID: id}
	if err := s.DB.Where("id = ?", id).FirstOrCreate(&sub).Error; err != nil {
		return err
	}
	s.cacheSeen(id)
	return nil
}

func (s *Service) RejectSubmission(id, reason string) error {
	if s.ReadOnly {
		slog.Debug("read-only mode, not recording rejection", "id", id, "reason", reason)
		return nil
	}
	return s.DB.Model(&models.Submission{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"rejected":      true,
			"reject_reason": reason,
		}).Error
}

// RestrictSubmission marks the post's player as confirmed restricted. This
// write goes through even in read-only mode.
func (s *Service) RestrictSubmission(id string) error {
	return s.DB.Model(&models.Submission{}).Where("id = ?", id).
		Update("restricted", true).Error
}

func (s *Service) AddReport(report *models.Report) error {
	if s.ReadOnly {
		slog.Debug("read-only mode, not recording report", "submission", report.SubmissionID)
		return nil
	}
	return s.DB.Create(report).Error
}

// RestrictReport closes a report with a true restriction outcome. Goes
// through even in read-only mode.
func (s *Service) RestrictReport(submissionID string, at time.Time) error {
	return s.DB.Model(&models.Report{}).Where("submission_id = ?", submissionID).
		Updates(map[string]interface{}{
			"restricted_at": at,
			"resolution":    models.ResolutionRestricted,
		}).Error
}

// ExpireReport closes a report that aged out without a restriction. The
// sentinel resolution keeps it distinguishable from a true restriction in
// every aggregation.
func (s *Service) ExpireReport(submissionID string) error {
	return s.DB.Model(&models.Report{}).Where("submission_id = ?", submissionID).
		Update("resolution", models.ResolutionExpired).Error
}

// VacateReport removes a report whose thread body was withdrawn by its
// author, freeing the player to be re-reported.
func (s *Service) VacateReport(submissionID string) error {
	return s.DB.Where("submission_id = ?", submissionID).Delete(&models.Report{}).Error
}

// ActiveReportForSubject returns the most recent open report for the player
// inside the retention window, or nil when there is none.
func (s *Service) ActiveReportForSubject(subjectID string, window time.Duration) (*models.Report, error) {
	var report models.Report
	err := s.DB.Where("subject_id = ?", subjectID).
		Where("resolution = ?", models.ResolutionOpen).
		Where("reported_at > ?", time.Now().Add(-window)).
		Order("reported_at DESC").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// OpenReports returns every unresolved report inside the given window, oldest
// first. The sheriff calls this with the retention window on normal passes
// and the wider check window on widened ones.
func (s *Service) OpenReports(window time.Duration) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.Where("resolution = ?", models.ResolutionOpen).
		Where("reported_at > ?", time.Now().Add(-window)).
		Order("reported_at ASC").
		Find(&reports).Error
	return reports, err
}

// ReportsForSubject returns the player's full report history, oldest first,
// regardless of age or resolution.
func (s *Service) ReportsForSubject(subjectID string) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.Where("subject_id = ?", subjectID).
		Order("reported_at ASC").
		Find(&reports).Error
	return reports, err
}

func (s *Service) cacheSeen(id string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Set(s.Ctx, "seen:"+id, "1", seenTTL).Err(); err != nil {
		slog.Warn("redis seen-cache write failed", "id", id, "error", err)
	}
}
