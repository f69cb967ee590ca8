package ranking

import (
	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

// Normalize rescales an aggregate's ROI and ROAS to a common cadence.
// The model is linear: accumulated return divided by advertising-days,
// multiplied by the days in one basis unit.
func Normalize(agg domain.BusinessAggregate, basis domain.TimeBasis, normalize bool) domain.NormalizedAggregate {
	out := domain.NormalizedAggregate{
		BusinessAggregate: agg,
		TimeBasis:         basis,
		NormalizedROI:     agg.ROI,
		NormalizedROAS:    agg.ROAS,
	}

	if !normalize || basis == domain.TimeBasisAll || basis.Days() == 0 {
		return out
	}

	var dailyROI, dailyROAS float64
	if agg.TotalDurationDays > 0 {
		dailyROI = agg.ROI / float64(agg.TotalDurationDays)
		dailyROAS = agg.ROAS / float64(agg.TotalDurationDays)
	}

	scale := float64(basis.Days())
	out.Normalized = true
	out.NormalizedROI = dailyROI * scale
	out.NormalizedROAS = dailyROAS * scale
	return out
}

// NormalizeAll applies Normalize to every aggregate, preserving order.
func NormalizeAll(aggs []domain.BusinessAggregate, basis domain.TimeBasis, normalize bool) []domain.NormalizedAggregate {
	out := make([]domain.NormalizedAggregate, len(aggs))
	for i, agg := range aggs {
		out[i] = Normalize(agg, basis, normalize)
	}
	return out
}
