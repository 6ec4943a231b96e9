// Package ranking orders leaderboard entries and assigns overall and per-class ranks.
package ranking

import (
	"sort"

	"github.com/tahcohcat/questagram/internal/models"
)

// Assign returns a copy of entries sorted by TotalXP descending, with Rank
// set to the 1-based position overall and ClassRank to the 1-based position
// among entries of the same class. Equal TotalXP is broken by lower UserID
// first, so the ordering does not depend on how the input was loaded.
func Assign(entries []models.LeaderboardEntry) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, len(entries))
	copy(out, entries)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalXP != out[j].TotalXP {
			return out[i].TotalXP > out[j].TotalXP
		}
		return out[i].UserID < out[j].UserID
	})

	perClass := make(map[models.Class]int, len(models.Classes))
	for i := range out {
		out[i].Rank = i + 1
		perClass[out[i].Class]++
		out[i].ClassRank = perClass[out[i].Class]
	}
	return out
}

// Top returns at most limit entries from a ranked slice.
func Top(ranked []models.LeaderboardEntry, limit int) []models.LeaderboardEntry {
	if limit < 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	return ranked[:limit]
}

// ByClass filters a ranked slice to one class, keeping rank order.
func ByClass(ranked []models.LeaderboardEntry, class models.Class) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, 0)
	for _, e := range ranked {
		if e.Class == class {
			out = append(out, e)
		}
	}
	return out
}

// TopByClass is ByClass followed by Top.
func TopByClass(ranked []models.LeaderboardEntry, class models.Class, limit int) []models.LeaderboardEntry {
	return Top(ByClass(ranked, class), limit)
}

// Change records a user whose rank moved during an Assign.
type Change struct {
	UserID       int `json:"user_id"`
	OldRank      int `json:"old_rank"`
	NewRank      int `json:"new_rank"`
	OldClassRank int `json:"old_class_rank"`
	NewClassRank int `json:"new_class_rank"`
}

// Diff lists the entries whose Rank or ClassRank differs between before and
// after, keyed by UserID. Users absent from before are reported with zero
// old ranks.
func Diff(before, after []models.LeaderboardEntry) []Change {
	prev := make(map[int]models.LeaderboardEntry, len(before))
	for _, e := range before {
		prev[e.UserID] = e
	}

	var changes []Change
	for _, e := range after {
		old := prev[e.UserID]
		if old.Rank == e.Rank && old.ClassRank == e.ClassRank {
			continue
		}
		changes = append(changes, Change{
			UserID:       e.UserID,
			OldRank:      old.Rank,
			NewRank:      e.Rank,
			OldClassRank: old.ClassRank,
			NewClassRank: e.ClassRank,
		})
	}
	return changes
}
