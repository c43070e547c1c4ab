// Package sheriff periodically re-checks open reports against the osu! API
// and closes out the threads of players who have since been restricted.
package sheriff

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"osureporter/bot/internal/forum"
	"osureporter/bot/internal/models"
	"osureporter/bot/internal/storage"
)

// Lookup is the slice of the osu! API the sweep needs: existence only.
type Lookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Alerter mirrors operator-bound messages to an out-of-band channel. May be
// nil.
type Alerter interface {
	Send(text string)
}

type Options struct {
	Flair bool // apply the Resolved flair when closing threads

	Interval      time.Duration
	RetentionDays int
	// CheckWindowDays bounds the widened pass; every WidenEvery-th sweep
	// re-checks this older range too.
	CheckWindowDays int
	WidenEvery      int

	// Operator receives forwarded inbox messages. Their own messages are not
	// forwarded back to them.
	Operator string
}

// Service runs the sweep. Sweeps hold no state between passes beyond the pass
// counter driving the widened re-check.
type Service struct {
	Store  storage.Storage
	Forum  forum.Connector
	Osu    Lookup
	Alert  Alerter
	Opts   Options
	passes int
}

func NewService(store storage.Storage, conn forum.Connector, osu Lookup, alert Alerter, opts Options) *Service {
	return &Service{Store: store, Forum: conn, Osu: osu, Alert: alert, Opts: opts}
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	slog.Info("sheriff started", "interval", s.Opts.Interval)
	s.Sweep(ctx)

	ticker := time.NewTicker(s.Opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			slog.Info("sheriff stopped")
			return
		}
	}
}

// Sweep performs one full pass: restriction checks over open reports, then
// the inbox and spam-queue side tasks. Faults are contained per record; a
// sweep never takes the process down.
func (s *Service) Sweep(ctx context.Context) {
	run := uuid.NewString()[:8]
	log := slog.With("sweep", run)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during sweep", "panic", r)
		}
	}()

	s.passes++
	window := time.Duration(s.Opts.RetentionDays) * 24 * time.Hour
	if s.Opts.WidenEvery > 0 && s.passes%s.Opts.WidenEvery == 0 {
		window = time.Duration(s.Opts.CheckWindowDays) * 24 * time.Hour
		log.Debug("widened pass, re-checking older reports")
	}

	reports, err := s.Store.OpenReports(window)
	if err != nil {
		log.Error("failed to load open reports", "error", err)
		return
	}
	log.Debug("checking reports for restrictions", "count", len(reports))

	for _, rep := range reports {
		if ctx.Err() != nil {
			return
		}
		if err := s.check(ctx, log, rep); err != nil {
			// inconclusive this cycle, the next sweep will retry
			log.Warn("skipping report this cycle", "submission", rep.SubmissionID, "error", err)
		}
	}

	if err := s.forwardInbox(ctx, log); err != nil {
		log.Warn("inbox forwarding failed", "error", err)
	}
	if err := s.approveSpamFiltered(ctx, log); err != nil {
		log.Warn("spam queue pass failed", "error", err)
	}
	log.Debug("sweep done")
}

func (s *Service) check(ctx context.Context, log *slog.Logger, rep models.Report) error {
	exists, err := s.Osu.Exists(ctx, rep.SubjectID)
	if err != nil {
		return fmt.Errorf("existence check for subject %s: %w", rep.SubjectID, err)
	}

	if !exists {
		// One sanction closes every thread about this player, not just the
		// record that happened to be checked.
		log.Info("subject restricted, resolving", "subject", rep.SubjectID, "submission", rep.SubmissionID)
		s.resolve(ctx, log, rep.SubmissionID)

		all, err := s.Store.ReportsForSubject(rep.SubjectID)
		if err != nil {
			return fmt.Errorf("cascade lookup for subject %s: %w", rep.SubjectID, err)
		}
		for _, other := range all {
			if other.SubmissionID == rep.SubmissionID || other.Resolution == models.ResolutionRestricted {
				continue
			}
			log.Info("cascade-resolving linked report", "subject", rep.SubjectID, "submission", other.SubmissionID)
			s.resolve(ctx, log, other.SubmissionID)
		}
		return nil
	}

	retention := time.Duration(s.Opts.RetentionDays) * 24 * time.Hour
	if rep.Age(time.Now()) > retention {
		// Aged out with the player still active. Record-keeping only: the
		// sentinel resolution, no flair, no comment.
		log.Info("report expired without restriction", "subject", rep.SubjectID, "submission", rep.SubmissionID)
		if err := s.Store.ExpireReport(rep.SubmissionID); err != nil {
			return fmt.Errorf("expire report %s: %w", rep.SubmissionID, err)
		}
	}
	return nil
}

// resolve flairs the thread Resolved and marks both records restricted. Store
// writes go through even in read-only mode.
func (s *Service) resolve(ctx context.Context, log *slog.Logger, submissionID string) {
	if s.Opts.Flair {
		if err := s.Forum.SetFlair(ctx, submissionID, "Resolved", "resolved"); err != nil {
			log.Warn("failed to flair resolved thread", "submission", submissionID, "error", err)
		}
	}
	if err := s.Store.RestrictReport(submissionID, time.Now()); err != nil {
		log.Error("failed to mark report restricted", "submission", submissionID, "error", err)
	}
	if err := s.Store.RestrictSubmission(submissionID); err != nil {
		log.Error("failed to mark submission restricted", "submission", submissionID, "error", err)
	}
}

// forwardInbox relays unread messages to the operator, mirroring each to the
// alert channel when one is configured.
func (s *Service) forwardInbox(ctx context.Context, log *slog.Logger) error {
	msgs, err := s.Forum.UnreadMessages(ctx)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if msg.Author == s.Opts.Operator {
			log.Debug("not forwarding operator's own message", "id", msg.ID)
			if err := s.Forum.MarkRead(ctx, msg.ID); err != nil {
				log.Warn("failed to mark message read", "id", msg.ID, "error", err)
			}
			continue
		}

		kind := "PM"
		body := msg.Body
		if msg.IsCommentReply {
			kind = "reply"
			body = fmt.Sprintf("[%s](https://reddit.com%s)", msg.Body, msg.Context)
		}
		log.Info("forwarding message to operator", "kind", kind, "from", msg.Author)

		subject := fmt.Sprintf("Forwarding %s from u/%s", kind, msg.Author)
		if err := s.Forum.SendMessage(ctx, s.Opts.Operator, subject, body); err != nil {
			log.Warn("failed to forward message", "id", msg.ID, "error", err)
			continue
		}
		if s.Alert != nil {
			s.Alert.Send(subject + "\n\n" + msg.Body)
		}
		if err := s.Forum.MarkRead(ctx, msg.ID); err != nil {
			log.Warn("failed to mark message read", "id", msg.ID, "error", err)
		}
	}
	return nil
}

// approveSpamFiltered re-approves submissions the spam filter caught, unless
// a moderator removed them on purpose.
func (s *Service) approveSpamFiltered(ctx context.Context, log *slog.Logger) error {
	subs, err := s.Forum.SpamListings(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if sub.RemovedBy != "" {
			continue
		}
		log.Info("approving spam-filtered submission", "id", sub.ID)
		if err := s.Forum.Approve(ctx, sub.ID); err != nil {
			log.Warn("failed to approve submission", "id", sub.ID, "error", err)
		}
	}
	return nil
}
