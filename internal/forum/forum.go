// Package forum abstracts the platform the reports are posted on. The rest of
// the bot only sees this interface; reddit.go is the one real implementation.
package forum

import (
	"context"
	"time"
)

// Submission is a forum post as far as the bot cares about it.
type Submission struct {
	ID        string
	Title     string
	Body      string // self text; becomes a withdrawn sentinel after deletion
	Author    string
	FlairText string
	Permalink string
	RemovedBy string // moderator who removed it, empty for spam-filter removals
	Created   time.Time
}

// ShortLink is the canonical short URL for a submission.
func (s Submission) ShortLink() string {
	return "https://redd.it/" + s.ID
}

// Withdrawn reports whether the submission's body was deleted by its author.
// A withdrawn prior report no longer blocks a new one.
func (s Submission) Withdrawn() bool {
	return s.Body == "[deleted]" || s.Body == "[removed]"
}

// Message is a private message or comment reply in the bot's inbox.
type Message struct {
	ID             string // fullname, e.g. "t4_abc"
	Author         string
	Subject        string
	Body           string
	Context        string // permalink for comment replies
	IsCommentReply bool
}

// Connector is the full surface the bot needs from the forum platform.
//
// StreamNew is an infinite stream of new submissions. It is resumable across
// transient faults and may redeliver already-seen posts; consumers dedup
// through the store. The channel closes only when ctx is cancelled.
type Connector interface {
	StreamNew(ctx context.Context) <-chan Submission
	ListNew(ctx context.Context, limit int) ([]Submission, error)
	Submission(ctx context.Context, id string) (*Submission, error)

	Reply(ctx context.Context, submissionID, body string) error
	SetFlair(ctx context.Context, submissionID, text, cssClass string) error
	Remove(ctx context.Context, submissionID string) error
	Approve(ctx context.Context, submissionID string) error

	UnreadMessages(ctx context.Context) ([]Message, error)
	SendMessage(ctx context.Context, recipient, subject, body string) error
	MarkRead(ctx context.Context, messageID string) error

	SpamListings(ctx context.Context) ([]Submission, error)
}
