// Package report implements the per-submission decision pipeline: every new
// post ends up rejected (with a reason), accepted and awaiting restriction,
// or left untouched for a later retry after a transport fault.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"osureporter/bot/internal/format"
	"osureporter/bot/internal/forum"
	"osureporter/bot/internal/models"
	"osureporter/bot/internal/osuapi"
	"osureporter/bot/internal/parser"
	"osureporter/bot/internal/storage"
)

// ignoreKeywords blacklist meta threads from processing. Matched against the
// lowercased title; blacklisted posts are rejected silently.
var ignoreKeywords = []string{"discussion", "meta", "megathread"}

// resolvedFlair is the terminal flair. It is never overwritten.
const resolvedFlair = "Resolved"

// Lookup is the slice of the osu! API the lifecycle needs.
type Lookup interface {
	Lookup(ctx context.Context, identifier, variant, kind string) (*osuapi.Profile, error)
}

// Options are the operator toggles from the CLI.
type Options struct {
	Comment bool // leave comments on submissions
	Flair   bool // modify submission flairs
	Remove  bool // remove malformatted / already-restricted submissions

	RetentionDays     int
	DefaultToCheating bool
}

// Service drives the lifecycle. It holds no state across submissions beyond
// what it reads from the store within a single call.
type Service struct {
	Store storage.Storage
	Forum forum.Connector
	Osu   Lookup
	Opts  Options
}

func NewService(store storage.Storage, conn forum.Connector, osu Lookup, opts Options) *Service {
	return &Service{Store: store, Forum: conn, Osu: osu, Opts: opts}
}

// Process runs a submission through the gates, in fixed order, first matching
// exit wins. A non-nil error means a soft remote fault: the submission stays
// tracked but unrejected, and nothing user-visible happened for it.
func (s *Service) Process(ctx context.Context, sub forum.Submission) error {
	slog.Info("processing submission", "id", sub.ID, "link", sub.ShortLink())

	// Mark seen first. A fault later in the pipeline means this submission is
	// never revisited; that is the accepted tradeoff, not a bug.
	if err := s.Store.AddSubmission(sub.ID); err != nil {
		return fmt.Errorf("mark submission %s seen: %w", sub.ID, err)
	}

	if s.blacklisted(sub.Title) {
		slog.Info("rejecting blacklisted submission", "id", sub.ID)
		return s.Store.RejectSubmission(sub.ID, models.RejectBlacklisted)
	}

	parsed, ok := parser.Parse(sub.Title, s.Opts.DefaultToCheating)
	if !ok {
		slog.Info("rejecting malformatted title", "id", sub.ID, "title", sub.Title)
		s.reply(ctx, sub.ID, format.Malformatted())
		s.remove(ctx, sub.ID)
		return s.Store.RejectSubmission(sub.ID, models.RejectMalformat)
	}

	s.applyTitleFlair(ctx, sub, parsed)

	profile, err := s.Osu.Lookup(ctx, parsed.Subject, parsed.Variant, osuapi.IdentifierName)
	if err != nil {
		// inconclusive: abort this submission only, leave it unrejected
		return fmt.Errorf("profile lookup for %q: %w", parsed.Subject, err)
	}
	if profile == nil {
		slog.Info("reported player absent or already restricted", "id", sub.ID, "subject", parsed.Subject)
		s.reply(ctx, sub.ID, format.AlreadyRestricted(osuapi.ProfileURL+parsed.Subject))
		s.remove(ctx, sub.ID)
		return s.Store.RejectSubmission(sub.ID, models.RejectRestricted)
	}

	proceed, err := s.duplicateGate(ctx, sub, profile)
	if err != nil || !proceed {
		return err
	}

	return s.accept(ctx, sub, parsed, profile)
}

func (s *Service) blacklisted(title string) bool {
	title = strings.ToLower(title)
	for _, word := range ignoreKeywords {
		if strings.Contains(title, word) {
			return true
		}
	}
	return false
}

// applyTitleFlair sets the flair derived from the title, unless the post
// already carries the terminal Resolved flair.
func (s *Service) applyTitleFlair(ctx context.Context, sub forum.Submission, parsed *parser.Parsed) {
	if sub.FlairText == resolvedFlair || !parsed.HasFlair {
		return
	}
	if !s.Opts.Flair {
		slog.Debug("flag set, not flairing submission", "id", sub.ID, "flair", parsed.FlairCSS)
		return
	}
	if err := s.Forum.SetFlair(ctx, sub.ID, parsed.FlairDisplay, parsed.FlairCSS); err != nil {
		slog.Warn("failed to flair submission", "id", sub.ID, "error", err)
	}
}

// duplicateGate rejects the submission when the player already has an active
// report with an intact thread. A withdrawn prior thread is vacated instead,
// and processing continues as if no duplicate existed.
func (s *Service) duplicateGate(ctx context.Context, sub forum.Submission, profile *osuapi.Profile) (proceed bool, err error) {
	prior, err := s.Store.ActiveReportForSubject(profile.UserID, s.retention())
	if err != nil {
		return false, fmt.Errorf("duplicate check for subject %s: %w", profile.UserID, err)
	}
	if prior == nil {
		return true, nil
	}

	priorSub, err := s.Forum.Submission(ctx, prior.SubmissionID)
	if err != nil {
		return false, fmt.Errorf("fetch prior submission %s: %w", prior.SubmissionID, err)
	}

	if priorSub.Withdrawn() {
		slog.Info("prior report thread withdrawn, vacating",
			"id", sub.ID, "prior", prior.SubmissionID, "subject", profile.UserID)
		if err := s.Store.VacateReport(prior.SubmissionID); err != nil {
			return false, fmt.Errorf("vacate report %s: %w", prior.SubmissionID, err)
		}
		return true, nil
	}

	slog.Info("player already reported within retention window",
		"id", sub.ID, "prior", prior.SubmissionID, "subject", profile.UserID)
	links, _ := s.previousLinks(profile.UserID)
	s.reply(ctx, sub.ID, format.AlreadyReported(
		osuapi.ProfileURL+profile.UserID,
		priorSub.ShortLink(),
		links,
		s.Opts.RetentionDays,
	))
	return false, s.Store.RejectSubmission(sub.ID, models.RejectReported)
}

// accept replies with the player's statistics, records the report, and flairs
// the post by standing tier and report history.
func (s *Service) accept(ctx context.Context, sub forum.Submission, parsed *parser.Parsed, profile *osuapi.Profile) error {
	links, priorCount := s.previousLinks(profile.UserID)
	s.reply(ctx, sub.ID, format.ProfileReply(profile, parsed.Variant, links))

	err := s.Store.AddReport(&models.Report{
		SubmissionID:    sub.ID,
		SubjectID:       profile.UserID,
		ReportedAt:      sub.Created,
		OffenseCategory: parsed.OffenseCategory,
		OffenseTokens:   parsed.OffenseTokens,
		Blatant:         parsed.Blatant,
		Reporter:        sub.Author,
	})
	if err != nil {
		return fmt.Errorf("record report for %s: %w", sub.ID, err)
	}

	flair := AcceptFlair(profile.PPRank, priorCount)
	if s.Opts.Flair {
		if err := s.Forum.SetFlair(ctx, sub.ID, flair, flair); err != nil {
			slog.Warn("failed to flair accepted report", "id", sub.ID, "flair", flair, "error", err)
		}
	}
	slog.Info("report accepted", "id", sub.ID, "subject", profile.UserID, "flair", flair)
	return nil
}

// previousLinks builds the prior-report links line and returns the prior
// report count for the accept flair.
func (s *Service) previousLinks(subjectID string) (string, int) {
	history, err := s.Store.ReportsForSubject(subjectID)
	if err != nil {
		slog.Warn("failed to load report history", "subject", subjectID, "error", err)
		return "", 0
	}
	ids := make([]string, 0, len(history))
	for _, r := range history {
		ids = append(ids, r.SubmissionID)
	}
	return format.PreviousLinks(ids), len(history)
}

func (s *Service) reply(ctx context.Context, submissionID, body string) {
	if !s.Opts.Comment {
		slog.Debug("flag set, not leaving reply", "id", submissionID)
		return
	}
	if err := s.Forum.Reply(ctx, submissionID, body); err != nil {
		slog.Warn("failed to reply", "id", submissionID, "error", err)
	}
}

func (s *Service) remove(ctx context.Context, submissionID string) {
	if !s.Opts.Remove {
		return
	}
	slog.Info("removing submission", "id", submissionID)
	if err := s.Forum.Remove(ctx, submissionID); err != nil {
		slog.Warn("failed to remove submission", "id", submissionID, "error", err)
	}
}

func (s *Service) retention() time.Duration {
	return time.Duration(s.Opts.RetentionDays) * 24 * time.Hour
}
