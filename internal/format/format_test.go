package format_test

import (
	"strings"
	"testing"
	"time"

	"osureporter/bot/internal/format"
	"osureporter/bot/internal/osuapi"
	"osureporter/bot/internal/parser"
	"osureporter/bot/internal/storage"

	"github.com/stretchr/testify/assert"
)

func TestModsSingleBit(t *testing.T) {
	assert.Equal(t, "+TD", format.Mods(4))
}

func TestModsNomod(t *testing.T) {
	assert.Equal(t, "Nomod", format.Mods(0))
}

func TestModsCombined(t *testing.T) {
	assert.Equal(t, "+DTRX", format.Mods(192))
}

// TestModsImplicitBitSuppression - a mod whose bit pattern always includes a
// base mod's bit must not print both abbreviations.
func TestModsImplicitBitSuppression(t *testing.T) {
	// NC is reported as 512|64, and must swallow DT
	assert.Equal(t, "+NC", format.Mods(512|64))
	// PF is reported as 16384|32, and must swallow SD
	assert.Equal(t, "+PF", format.Mods(16384|32))
	assert.Equal(t, "+HDNC", format.Mods(8|512|64))
}

func TestModsPrintOrder(t *testing.T) {
	// HD before HR before FL, whatever order the bits arrive in
	assert.Equal(t, "+HDHRFL", format.Mods(1024|16|8))
}

func TestGrade(t *testing.T) {
	assert.Equal(t, "SS", format.Grade("X"))
	assert.Equal(t, "SS", format.Grade("XH"))
	assert.Equal(t, "S", format.Grade("SH"))
	assert.Equal(t, "A", format.Grade("A"))
}

func TestAccuracyStandard(t *testing.T) {
	play := osuapi.Play{Count300: 680, Count100: 22, Count50: 0, CountMiss: 0}
	acc := format.Accuracy(play, parser.VariantStandard)
	assert.InDelta(t, 97.91, acc, 0.01)
}

func TestAccuracyTaiko(t *testing.T) {
	play := osuapi.Play{Count300: 90, Count100: 10, CountMiss: 0}
	acc := format.Accuracy(play, parser.VariantTaiko)
	assert.InDelta(t, 95.0, acc, 0.01)
}

func TestPreviousLinks(t *testing.T) {
	assert.Empty(t, format.PreviousLinks(nil))

	links := format.PreviousLinks([]string{"aaa111", "bbb222"})
	assert.Equal(t, "All previous reports: [[1]](https://redd.it/aaa111) | [[2]](https://redd.it/bbb222)", links)
}

func TestProfileReply(t *testing.T) {
	p := &osuapi.Profile{
		UserID:    "124493",
		Username:  "tybug2",
		PPRank:    43012,
		PPRaw:     4523.6,
		Playcount: 20412,
		TopPlays: []osuapi.Play{
			{Title: "FREEDOM DiVE", Mods: 72, PP: 312.5, Rank: "SH", Date: "2019-07-01 12:00:00", Count300: 680, Count100: 22},
		},
	}

	reply := format.ProfileReply(p, parser.VariantStandard, "All previous reports: [[1]](https://redd.it/x)")

	assert.Contains(t, reply, "tybug2's profile: https://osu.ppy.sh/users/124493")
	assert.Contains(t, reply, "| #43,012 | 4,524 | 20,412 |")
	assert.Contains(t, reply, "| FREEDOM DiVE | +HDDT |")
	assert.Contains(t, reply, "| S |")
	assert.Contains(t, reply, "2019/07/01")
	assert.Contains(t, reply, "All previous reports:")
	// every comment carries the footer
	assert.Contains(t, reply, "***")
}

func TestRepliesCarryFooter(t *testing.T) {
	for _, body := range []string{
		format.Malformatted(),
		format.AlreadyRestricted("https://osu.ppy.sh/users/1"),
		format.AlreadyReported("https://osu.ppy.sh/users/1", "https://redd.it/abc", "", 30),
	} {
		assert.Contains(t, body, "***")
	}
}

func TestAlreadyReportedMentionsWindow(t *testing.T) {
	body := format.AlreadyReported("profile", "prior", "All previous reports: x", 30)
	assert.Contains(t, body, "past 30 days")
	assert.Contains(t, body, "All previous reports: x")
}

func TestStatsReport(t *testing.T) {
	s := &storage.Stats{
		TotalReports:        200,
		BlatantReports:      50,
		NormalReports:       150,
		TotalRestrictions:   40,
		BlatantRestrictions: 25,
		NormalRestrictions:  15,
		TopReporters: []storage.ReporterStats{
			{Reporter: "tybug2", Reports: 12, Blatant: 3, Restricted: 6},
		},
		AvgRestrictionHours: 52.3,
	}

	from := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	body := format.StatsReport(s, from, to)

	assert.Contains(t, body, "04/01/2023 to 05/01/2023")
	assert.Contains(t, body, "| 200 | 40 | 20.0% |")
	assert.Contains(t, body, "| u/tybug2 | 12 | 3 | 6 | 50.0% |")
	assert.Contains(t, body, "52.3 hours")
	// zero denominators must not divide by zero
	empty := format.StatsReport(&storage.Stats{}, from, to)
	assert.True(t, strings.Contains(empty, "0.0%"))
}
