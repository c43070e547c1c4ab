package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	tokenURL   = "https://www.reddit.com/api/v1/access_token"
	apiBase    = "https://oauth.reddit.com"
	minGap     = time.Second // reddit allows ~60 requests/minute on OAuth
	pollPeriod = 20 * time.Second
)

// RedditCredentials is the script-app (password grant) credential set.
type RedditCredentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Reddit implements Connector over the reddit OAuth API.
type Reddit struct {
	Subreddit string

	creds RedditCredentials
	http  *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	lastRequest time.Time
}

func NewReddit(creds RedditCredentials, subreddit string) *Reddit {
	return &Reddit{
		Subreddit: subreddit,
		creds:     creds,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// StreamNew polls /new and pushes everything it sees, oldest first. Redelivery
// is expected; the consumer dedups. Transport faults pause the poll loop with
// exponential backoff and resume, they never close the stream.
func (r *Reddit) StreamNew(ctx context.Context) <-chan Submission {
	out := make(chan Submission)
	go func() {
		defer close(out)
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = 0 // retry forever, the process lifetime is the bound
		for {
			subs, err := r.ListNew(ctx, 100)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				wait := bo.NextBackOff()
				slog.Warn("submission stream fault, pausing", "error", err, "wait", wait)
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return
				}
				continue
			}
			bo.Reset()

			for i := len(subs) - 1; i >= 0; i-- {
				select {
				case out <- subs[i]:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-time.After(pollPeriod):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (r *Reddit) ListNew(ctx context.Context, limit int) ([]Submission, error) {
	raw, err := r.api(ctx, http.MethodGet, fmt.Sprintf("/r/%s/new?limit=%d&raw_json=1", r.Subreddit, limit), nil)
	if err != nil {
		return nil, err
	}
	return parseSubmissionListing(raw)
}

func (r *Reddit) Submission(ctx context.Context, id string) (*Submission, error) {
	raw, err := r.api(ctx, http.MethodGet, "/api/info?id=t3_"+id+"&raw_json=1", nil)
	if err != nil {
		return nil, err
	}
	subs, err := parseSubmissionListing(raw)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("submission %s not found", id)
	}
	return &subs[0], nil
}

// Reply comments on a submission, then distinguishes and stickies the comment
// so it stays at the top of the thread.
func (r *Reddit) Reply(ctx context.Context, submissionID, body string) error {
	raw, err := r.api(ctx, http.MethodPost, "/api/comment", url.Values{
		"api_type": {"json"},
		"thing_id": {"t3_" + submissionID},
		"text":     {body},
	})
	if err != nil {
		return err
	}

	var resp struct {
		JSON struct {
			Data struct {
				Things []struct {
					Data struct {
						Name string `json:"name"`
					} `json:"data"`
				} `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode comment response: %w", err)
	}
	if len(resp.JSON.Data.Things) == 0 {
		return fmt.Errorf("comment on %s: no comment in response", submissionID)
	}

	_, err = r.api(ctx, http.MethodPost, "/api/distinguish", url.Values{
		"api_type": {"json"},
		"id":       {resp.JSON.Data.Things[0].Data.Name},
		"how":      {"yes"},
		"sticky":   {"true"},
	})
	return err
}

func (r *Reddit) SetFlair(ctx context.Context, submissionID, text, cssClass string) error {
	_, err := r.api(ctx, http.MethodPost, fmt.Sprintf("/r/%s/api/flair", r.Subreddit), url.Values{
		"api_type":  {"json"},
		"link":      {"t3_" + submissionID},
		"text":      {text},
		"css_class": {cssClass},
	})
	return err
}

func (r *Reddit) Remove(ctx context.Context, submissionID string) error {
	_, err := r.api(ctx, http.MethodPost, "/api/remove", url.Values{
		"id":   {"t3_" + submissionID},
		"spam": {"false"},
	})
	return err
}

func (r *Reddit) Approve(ctx context.Context, submissionID string) error {
	_, err := r.api(ctx, http.MethodPost, "/api/approve", url.Values{
		"id": {"t3_" + submissionID},
	})
	return err
}

func (r *Reddit) UnreadMessages(ctx context.Context) ([]Message, error) {
	raw, err := r.api(ctx, http.MethodGet, "/message/unread?raw_json=1", nil)
	if err != nil {
		return nil, err
	}

	var listing struct {
		Data struct {
			Children []struct {
				Kind string `json:"kind"`
				Data struct {
					Name    string `json:"name"`
					Author  string `json:"author"`
					Subject string `json:"subject"`
					Body    string `json:"body"`
					Context string `json:"context"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("decode unread listing: %w", err)
	}

	var msgs []Message
	for _, child := range listing.Data.Children {
		msgs = append(msgs, Message{
			ID:             child.Data.Name,
			Author:         child.Data.Author,
			Subject:        child.Data.Subject,
			Body:           child.Data.Body,
			Context:        child.Data.Context,
			IsCommentReply: child.Kind == "t1",
		})
	}
	return msgs, nil
}

func (r *Reddit) SendMessage(ctx context.Context, recipient, subject, body string) error {
	_, err := r.api(ctx, http.MethodPost, "/api/compose", url.Values{
		"api_type": {"json"},
		"to":       {recipient},
		"subject":  {subject},
		"text":     {body},
	})
	return err
}

func (r *Reddit) MarkRead(ctx context.Context, messageID string) error {
	_, err := r.api(ctx, http.MethodPost, "/api/read_message", url.Values{
		"id": {messageID},
	})
	return err
}

func (r *Reddit) SpamListings(ctx context.Context) ([]Submission, error) {
	raw, err := r.api(ctx, http.MethodGet, fmt.Sprintf("/r/%s/about/spam?only=links&raw_json=1", r.Subreddit), nil)
	if err != nil {
		return nil, err
	}
	return parseSubmissionListing(raw)
}

// api performs one authenticated call, spacing requests at least minGap apart.
func (r *Reddit) api(ctx context.Context, method, path string, form url.Values) (json.RawMessage, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	r.throttle()

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", r.creds.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// force a token refresh on the next call
		r.mu.Lock()
		r.tokenExpiry = time.Time{}
		r.mu.Unlock()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (r *Reddit) accessToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return r.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {r.creds.Username},
		"password":   {r.creds.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(r.creds.ClientID, r.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.creds.UserAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch access token: status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode access token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("fetch access token: empty token")
	}

	r.token = tok.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return r.token, nil
}

func (r *Reddit) throttle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wait := minGap - time.Since(r.lastRequest); wait > 0 {
		time.Sleep(wait)
	}
	r.lastRequest = time.Now()
}

func parseSubmissionListing(raw json.RawMessage) ([]Submission, error) {
	var listing struct {
		Data struct {
			Children []struct {
				Data struct {
					ID            string  `json:"id"`
					Title         string  `json:"title"`
					Selftext      string  `json:"selftext"`
					Author        string  `json:"author"`
					LinkFlairText string  `json:"link_flair_text"`
					Permalink     string  `json:"permalink"`
					RemovedBy     string  `json:"removed_by"`
					CreatedUTC    float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("decode submission listing: %w", err)
	}

	var subs []Submission
	for _, child := range listing.Data.Children {
		subs = append(subs, Submission{
			ID:        child.Data.ID,
			Title:     child.Data.Title,
			Body:      child.Data.Selftext,
			Author:    child.Data.Author,
			FlairText: child.Data.LinkFlairText,
			Permalink: child.Data.Permalink,
			RemovedBy: child.Data.RemovedBy,
			Created:   time.Unix(int64(child.Data.CreatedUTC), 0).UTC(),
		})
	}
	return subs, nil
}
