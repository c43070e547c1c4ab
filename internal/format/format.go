// Package format builds every user-visible piece of text the bot posts:
// comment replies, profile tables, and the statistics report.
package format

import (
	"fmt"
	"math"
	"strings"

	"osureporter/bot/internal/osuapi"
)

// footer is appended to every comment the bot leaves.
const footer = "\n\n***\n\n" +
	"[Source](https://github.com/osureporter/bot) | Reply to this comment to leave feedback"

// Malformatted is the reply for titles that fail the grammar.
func Malformatted() string {
	return "Your title was misformatted. Please make sure you follow the " +
		"[formatting rules](https://www.reddit.com/r/osureport/comments/5kftu7/changes_to_osureport/), " +
		"and repost with a correctly formatted title." + footer
}

// AlreadyRestricted is the reply when the reported player's profile comes back
// empty at report time.
func AlreadyRestricted(profileLink string) string {
	return fmt.Sprintf("The user you [reported](%s) is already restricted, or doesn't exist!", profileLink) + footer
}

// AlreadyReported is the reply for a duplicate report inside the retention
// window, linking back to the prior thread.
func AlreadyReported(profileLink, priorLink, previousLinks string, limitDays int) string {
	body := fmt.Sprintf("The user you [reported](%s) was already [reported](%s) in the past %d days.",
		profileLink, priorLink, limitDays)
	if previousLinks != "" {
		body += "\n\n" + previousLinks
	}
	return body + footer
}

// PreviousLinks renders the "All previous reports" line from prior submission
// ids, oldest first. Empty when there is no history.
func PreviousLinks(submissionIDs []string) string {
	if len(submissionIDs) == 0 {
		return ""
	}
	var parts []string
	for i, id := range submissionIDs {
		parts = append(parts, fmt.Sprintf("[[%d]](https://redd.it/%s)", i+1, id))
	}
	return "All previous reports: " + strings.Join(parts, " | ")
}

// ProfileReply is the full statistics comment for an accepted report: profile
// link, a summary table, and a top-plays table.
func ProfileReply(p *osuapi.Profile, variant, previousLinks string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s's profile: %s%s\n\n", p.Username, osuapi.ProfileURL, p.UserID)
	b.WriteString("| Rank | PP | Playcount |\n:-:|:-:|:-:\n")
	fmt.Fprintf(&b, "| #%s | %s | %s |\n\n", comma(p.PPRank), comma(int(math.Round(p.PPRaw))), comma(p.Playcount))

	if len(p.TopPlays) > 0 {
		b.WriteString("| Top Plays | Mods | Accuracy | Rank | PP | Date |\n:-:|:-:|:-:|:-:|:-:|:-:\n")
		for _, play := range p.TopPlays {
			fmt.Fprintf(&b, "| %s | %s | %.2f%% | %s | %s | %s |\n",
				play.Title,
				Mods(play.Mods),
				Accuracy(play, variant),
				Grade(play.Rank),
				comma(int(math.Round(play.PP))),
				playDate(play.Date),
			)
		}
		b.WriteString("\n")
	}

	if previousLinks != "" {
		b.WriteString(previousLinks)
	}
	return strings.TrimRight(b.String(), "\n") + footer
}

// playDate turns the API's "2019-07-01 12:00:00" into "2019/07/01".
func playDate(date string) string {
	day, _, _ := strings.Cut(date, " ")
	return strings.ReplaceAll(day, "-", "/")
}
