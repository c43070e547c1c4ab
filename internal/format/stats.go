package format

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"osureporter/bot/internal/storage"
)

var statsIntros = []string{
	"Another month, another round of reports. Here's your statistics for this period, from",
	"We're back with your statistics report. Enjoy the sweet taste of data, from",
	"Gather 'round all, here come the stats. This set covers from",
	"You know the drill, statistics here for the 10 people that actually care. Covering from",
	"Not much to say, just here to drop off the latest set of statistics, fresh off the sql query. Extending from",
}

// StatsReport renders the periodic statistics markdown from an aggregation.
func StatsReport(s *storage.Stats, from, to time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s to %s.\n\n",
		statsIntros[rand.Intn(len(statsIntros))],
		from.Format("01/02/2006"), to.Format("01/02/2006"))

	b.WriteString("# All Posts\n\n")
	writeRateTable(&b, "Total", s.TotalReports, s.TotalRestrictions)
	writeRateTable(&b, "Normal", s.NormalReports, s.NormalRestrictions)
	writeRateTable(&b, "Blatant", s.BlatantReports, s.BlatantRestrictions)

	if len(s.TopReporters) > 0 {
		b.WriteString("# Top 5 users by report count\n\n")
		b.WriteString("| User | Total Reports | Blatant Reports | Restricted | Restriction Rate |\n:-:|:-:|:-:|:-:|:-:\n")
		for _, r := range s.TopReporters {
			fmt.Fprintf(&b, "| u/%s | %s | %s | %s | %.1f%% |\n",
				r.Reporter, comma(r.Reports), comma(r.Blatant), comma(r.Restricted), rate(r.Restricted, r.Reports))
		}
		b.WriteString("\n")
	}

	b.WriteString("# Average Restriction Time\n\n")
	fmt.Fprintf(&b, "| Time |\n:-:\n%.1f hours\n", s.AvgRestrictionHours)
	return b.String()
}

func writeRateTable(b *strings.Builder, kind string, reports, restrictions int) {
	fmt.Fprintf(b, "| %s Reports | %s Restrictions | Restriction Rate |\n:-:|:-:|:-:\n", kind, kind)
	fmt.Fprintf(b, "| %s | %s | %.1f%% |\n\n", comma(reports), comma(restrictions), rate(restrictions, reports))
}

func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
