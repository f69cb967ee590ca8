package ranking

import (
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

// Params selects the time basis, the subject business and an optional
// explicit comparison business for one run.
type Params struct {
	TimeBasis           domain.TimeBasis
	Normalize           bool
	TargetBusinessID    int64
	CompareToBusinessID int64
	AsOf                time.Time
	IncludeCampaigns    bool
}

// Run executes aggregate, normalize, rank and compare over an already
// filtered campaign list.
func Run(campaigns []domain.CampaignRecord, directory map[int64]domain.Business, p Params) domain.RankingResult {
	aggregates := Aggregate(campaigns, directory, p.AsOf, p.IncludeCampaigns)
	list := Rank(NormalizeAll(aggregates, p.TimeBasis, p.Normalize))

	result := domain.RankingResult{
		TimeBasis:         p.TimeBasis,
		Normalize:         p.Normalize,
		AsOf:              p.AsOf,
		ComparisonSetSize: list.Len(),
		Entries:           list.Entries(),
		TargetBusinessID:  p.TargetBusinessID,
		Insights:          []domain.ComparisonInsight{},
	}

	if top, ok := list.TopPerformer(); ok {
		result.TopPerformer = &top
	}

	subject, ok := list.Find(p.TargetBusinessID)
	if !ok {
		return result
	}
	rank := subject.Rank
	result.TargetRank = &rank

	reference, ok := chooseReference(list, subject, p.CompareToBusinessID)
	if !ok {
		return result
	}
	result.Reference = &reference
	result.Insights = Compare(subject.NormalizedAggregate, reference.NormalizedAggregate)

	return result
}

// the explicit comparison business when present, else the top performer,
// else the runner-up when the subject is itself the top performer
func chooseReference(list RankedList, subject domain.RankedEntry, compareTo int64) (domain.RankedEntry, bool) {
	if compareTo != 0 {
		return list.Find(compareTo)
	}

	top, ok := list.TopPerformer()
	if !ok {
		return domain.RankedEntry{}, false
	}
	if top.BusinessID != subject.BusinessID {
		return top, true
	}
	if list.Len() < 2 {
		return domain.RankedEntry{}, false
	}
	return list.entries[1], true
}

// Directory indexes businesses by id.
func Directory(businesses []domain.Business) map[int64]domain.Business {
	dir := make(map[int64]domain.Business, len(businesses))
	for _, b := range businesses {
		dir[b.ID] = b
	}
	return dir
}
