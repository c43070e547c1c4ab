package sheriff_test

import (
	"context"
	"time"

	"osureporter/bot/internal/forum"
	"osureporter/bot/internal/models"
	"osureporter/bot/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SubmissionExists(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) AddSubmission(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStorage) RejectSubmission(id, reason string) error {
	args := m.Called(id, reason)
	return args.Error(0)
}

func (m *MockStorage) RestrictSubmission(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStorage) AddReport(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockStorage) RestrictReport(submissionID string, at time.Time) error {
	args := m.Called(submissionID, at)
	return args.Error(0)
}

func (m *MockStorage) ExpireReport(submissionID string) error {
	args := m.Called(submissionID)
	return args.Error(0)
}

func (m *MockStorage) VacateReport(submissionID string) error {
	args := m.Called(submissionID)
	return args.Error(0)
}

func (m *MockStorage) ActiveReportForSubject(subjectID string, window time.Duration) (*models.Report, error) {
	args := m.Called(subjectID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockStorage) OpenReports(window time.Duration) ([]models.Report, error) {
	args := m.Called(window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockStorage) ReportsForSubject(subjectID string) ([]models.Report, error) {
	args := m.Called(subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockStorage) Stats(since time.Time) (*storage.Stats, error) {
	args := m.Called(since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Stats), args.Error(1)
}

type MockForum struct {
	mock.Mock
}

func (m *MockForum) StreamNew(ctx context.Context) <-chan forum.Submission {
	args := m.Called(ctx)
	return args.Get(0).(<-chan forum.Submission)
}

func (m *MockForum) ListNew(ctx context.Context, limit int) ([]forum.Submission, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]forum.Submission), args.Error(1)
}

func (m *MockForum) Submission(ctx context.Context, id string) (*forum.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*forum.Submission), args.Error(1)
}

func (m *MockForum) Reply(ctx context.Context, submissionID, body string) error {
	args := m.Called(ctx, submissionID, body)
	return args.Error(0)
}

func (m *MockForum) SetFlair(ctx context.Context, submissionID, text, cssClass string) error {
	args := m.Called(ctx, submissionID, text, cssClass)
	return args.Error(0)
}

func (m *MockForum) Remove(ctx context.Context, submissionID string) error {
	args := m.Called(ctx, submissionID)
	return args.Error(0)
}

func (m *MockForum) Approve(ctx context.Context, submissionID string) error {
	args := m.Called(ctx, submissionID)
	return args.Error(0)
}

func (m *MockForum) UnreadMessages(ctx context.Context) ([]forum.Message, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]forum.Message), args.Error(1)
}

func (m *MockForum) SendMessage(ctx context.Context, recipient, subject, body string) error {
	args := m.Called(ctx, recipient, subject, body)
	return args.Error(0)
}

func (m *MockForum) MarkRead(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MockForum) SpamListings(ctx context.Context) ([]forum.Submission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]forum.Submission), args.Error(1)
}

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) Send(text string) {
	m.Called(text)
}
