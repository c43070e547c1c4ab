// Package osuapi wraps the osu! legacy v1 API. The bot only needs profile
// summaries and recent top plays, so the surface here is deliberately small.
package osuapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	// IdentifierName queries by display name, IdentifierID by numeric user id.
	// These are the literal values of the v1 "type" parameter.
	IdentifierName = "string"
	IdentifierID   = "id"

	defaultBaseURL = "https://osu.ppy.sh/api"
	// ProfileURL prefixes public profile links in replies.
	ProfileURL = "https://osu.ppy.sh/users/"
)

// Play is one entry from get_user_best, joined with the beatmap title.
type Play struct {
	BeatmapID string
	Title     string
	Mods      int
	PP        float64
	Rank      string
	Date      string
	Count50   int
	Count100  int
	Count300  int
	CountMiss int
	CountKatu int
	CountGeki int
}

// Profile combines the two sequential v1 calls into one value.
type Profile struct {
	UserID    string
	Username  string
	PPRank    int
	PPRaw     float64
	Playcount int
	TopPlays  []Play
}

// Client talks to the osu! v1 API. A nil-safe beatmap-title cache keeps the
// per-play get_beatmaps calls from repeating across submissions.
type Client struct {
	BaseURL string
	Key     string

	http *http.Client

	mu     sync.Mutex
	titles map[string]string
}

func NewClient(key string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		Key:     key,
		http:    &http.Client{Timeout: 15 * time.Second},
		titles:  make(map[string]string),
	}
}

// Lookup fetches a player's profile and top plays. A (nil, nil) return means
// the player is absent: nonexistent, or already restricted. Any transport or
// decode fault comes back as an error; callers treat it as inconclusive.
func (c *Client) Lookup(ctx context.Context, identifier, variant, kind string) (*Profile, error) {
	users, err := c.get(ctx, "get_user", url.Values{
		"u":    {identifier},
		"m":    {variant},
		"type": {kind},
	})
	if err != nil {
		return nil, fmt.Errorf("get_user %s: %w", identifier, err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	u := users[0]
	profile := &Profile{
		UserID:    u["user_id"],
		Username:  u["username"],
		PPRank:    atoi(u["pp_rank"]),
		PPRaw:     atof(u["pp_raw"]),
		Playcount: atoi(u["playcount"]),
	}

	best, err := c.get(ctx, "get_user_best", url.Values{
		"u":    {identifier},
		"m":    {variant},
		"type": {kind},
	})
	if err != nil {
		return nil, fmt.Errorf("get_user_best %s: %w", identifier, err)
	}

	for _, b := range best {
		play := Play{
			BeatmapID: b["beatmap_id"],
			Mods:      atoi(b["enabled_mods"]),
			PP:        atof(b["pp"]),
			Rank:      b["rank"],
			Date:      b["date"],
			Count50:   atoi(b["count50"]),
			Count100:  atoi(b["count100"]),
			Count300:  atoi(b["count300"]),
			CountMiss: atoi(b["countmiss"]),
			CountKatu: atoi(b["countkatu"]),
			CountGeki: atoi(b["countgeki"]),
		}
		title, err := c.beatmapTitle(ctx, play.BeatmapID)
		if err != nil {
			return nil, err
		}
		play.Title = title
		profile.TopPlays = append(profile.TopPlays, play)
	}
	return profile, nil
}

// Exists is the sheriff's cheap existence probe: no top plays, no beatmap
// titles, just whether get_user comes back non-empty.
func (c *Client) Exists(ctx context.Context, userID string) (bool, error) {
	users, err := c.get(ctx, "get_user", url.Values{
		"u":    {userID},
		"m":    {"0"}, // variant is irrelevant for an existence check
		"type": {IdentifierID},
	})
	if err != nil {
		return false, fmt.Errorf("get_user %s: %w", userID, err)
	}
	return len(users) > 0, nil
}

func (c *Client) beatmapTitle(ctx context.Context, beatmapID string) (string, error) {
	c.mu.Lock()
	title, ok := c.titles[beatmapID]
	c.mu.Unlock()
	if ok {
		return title, nil
	}

	maps, err := c.get(ctx, "get_beatmaps", url.Values{"b": {beatmapID}})
	if err != nil {
		return "", fmt.Errorf("get_beatmaps %s: %w", beatmapID, err)
	}
	if len(maps) == 0 {
		return "", fmt.Errorf("get_beatmaps %s: empty response", beatmapID)
	}
	title = maps[0]["title"]

	c.mu.Lock()
	c.titles[beatmapID] = title
	c.mu.Unlock()
	return title, nil
}

// get performs one v1 call. Every v1 endpoint returns a JSON array of
// string-valued objects, so a generic decode covers all of them.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]map[string]string, error) {
	params.Set("k", c.Key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out []map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// The v1 API serializes every number as a string, sometimes null or empty.
// Zero is the sane default for all of them.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
