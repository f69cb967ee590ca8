package ranking

import (
	"sort"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

// RankedList is a comparison set ordered by normalized ROI, best first.
type RankedList struct {
	entries []domain.RankedEntry
}

// Rank sorts a copy of the input by normalized ROI descending. Equal ROI
// falls back to ascending business id; exact duplicates keep input order.
func Rank(items []domain.NormalizedAggregate) RankedList {
	sorted := make([]domain.NormalizedAggregate, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].NormalizedROI != sorted[j].NormalizedROI {
			return sorted[i].NormalizedROI > sorted[j].NormalizedROI
		}
		return sorted[i].BusinessID < sorted[j].BusinessID
	})

	entries := make([]domain.RankedEntry, len(sorted))
	for i, item := range sorted {
		entries[i] = domain.RankedEntry{Rank: i + 1, NormalizedAggregate: item}
	}
	return RankedList{entries: entries}
}

// Entries returns a copy of the ranked entries.
func (l RankedList) Entries() []domain.RankedEntry {
	out := make([]domain.RankedEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l RankedList) Len() int {
	return len(l.entries)
}

// RankOf returns the 1-based rank of a business, false when it is not in the set.
func (l RankedList) RankOf(businessID int64) (int, bool) {
	entry, ok := l.Find(businessID)
	if !ok {
		return 0, false
	}
	return entry.Rank, true
}

// Find returns the entry for a business.
func (l RankedList) Find(businessID int64) (domain.RankedEntry, bool) {
	for _, e := range l.entries {
		if e.BusinessID == businessID {
			return e, true
		}
	}
	return domain.RankedEntry{}, false
}

// TopPerformer returns the first entry, false on an empty set.
func (l RankedList) TopPerformer() (domain.RankedEntry, bool) {
	if len(l.entries) == 0 {
		return domain.RankedEntry{}, false
	}
	return l.entries[0], true
}
