package report

import "strconv"

// StandingTier buckets a global rank into the flair tier whose name is the
// bucket's upper bound. Rank zero means no ranked activity at all, which the
// API reports for brand-new and inactive accounts; those go to infinity with
// the 100k+ crowd rather than being flaired as top-100.
func StandingTier(rank int) string {
	switch {
	case rank == 0:
		return "infinity"
	case rank < 100:
		return "100"
	case rank < 1000:
		return "1k"
	case rank < 10000:
		return "10k"
	case rank < 50000:
		return "50k"
	case rank < 100000:
		return "100k"
	default:
		return "infinity"
	}
}

// AcceptFlair is the compound flair applied to an accepted report: standing
// tier plus the player's prior report count, capped at a "4-plus" bucket.
func AcceptFlair(rank, priorReports int) string {
	count := strconv.Itoa(priorReports)
	if priorReports > 4 {
		count = "4-plus"
	}
	return StandingTier(rank) + "-" + count
}
