package ranking

import (
	"fmt"
	"math"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

// thresholds on percent difference, shared by every metric
const (
	strongGapThreshold = -20.0
	parityThreshold    = 0.0
)

type recommendationTable struct {
	strong   string
	mild     string
	positive string
}

var recommendations = map[domain.Metric]recommendationTable{
	domain.MetricROI: {
		strong:   "Your ROI is significantly lower than the reference business (%.1f%%). Review your campaign strategy and ad method mix.",
		mild:     "Your ROI is slightly below the reference business (%.1f%%). Look for optimization opportunities in targeting and creative.",
		positive: "Your ROI is competitive with the reference business (%+.1f%%). Keep monitoring performance to maintain your position.",
	},
	domain.MetricSpend: {
		strong:   "You are spending significantly more than the reference business (%.1f%%). Review budget allocation across campaigns.",
		mild:     "You are spending slightly more than the reference business (%.1f%%). Look for optimization in bidding and scheduling.",
		positive: "Your spend is efficient compared to the reference business (%+.1f%%). Keep monitoring cost per result as you scale.",
	},
	domain.MetricRevenue: {
		strong:   "Your revenue is significantly lower than the reference business (%.1f%%). Review offers, landing pages and conversion tracking.",
		mild:     "Your revenue is slightly below the reference business (%.1f%%). Look for optimization in follow-up and upsell.",
		positive: "Your revenue is competitive with the reference business (%+.1f%%). Keep monitoring to sustain growth.",
	},
}

// PercentDifference compares subject against reference. ROI and revenue use
// (subject - reference) / |reference|, so a better subject is positive even
// against a loss-making reference. Spend is inverted to express how much
// less the subject spent: (reference - subject) / subject. A zero denominator yields 0.
func PercentDifference(metric domain.Metric, subject, reference float64) float64 {
	if metric == domain.MetricSpend {
		if subject == 0 {
			return 0
		}
		return ((reference - subject) / subject) * 100
	}

	if reference == 0 {
		return 0
	}
	return ((subject - reference) / math.Abs(reference)) * 100
}

// IsFavorable is true when the subject is at least as good as the reference:
// higher for ROI and revenue, lower for spend.
func IsFavorable(metric domain.Metric, subject, reference float64) bool {
	if metric == domain.MetricSpend {
		return subject <= reference
	}
	return subject >= reference
}

// Recommendation picks the wording for a percent difference.
func Recommendation(metric domain.Metric, percentDifference float64) string {
	table, ok := recommendations[metric]
	if !ok {
		return ""
	}

	switch {
	case percentDifference < strongGapThreshold:
		return fmt.Sprintf(table.strong, percentDifference)
	case percentDifference < parityThreshold:
		return fmt.Sprintf(table.mild, percentDifference)
	default:
		return fmt.Sprintf(table.positive, percentDifference)
	}
}

// Insight derives the comparison for one metric.
func Insight(metric domain.Metric, subject, reference float64) domain.ComparisonInsight {
	pd := PercentDifference(metric, subject, reference)
	return domain.ComparisonInsight{
		Metric:            metric,
		SubjectValue:      subject,
		ReferenceValue:    reference,
		PercentDifference: pd,
		IsFavorable:       IsFavorable(metric, subject, reference),
		Recommendation:    Recommendation(metric, pd),
	}
}

// Compare derives ROI, spend and revenue insights for subject against reference.
// ROI uses the normalized value so both sides share a time basis.
func Compare(subject, reference domain.NormalizedAggregate) []domain.ComparisonInsight {
	return []domain.ComparisonInsight{
		Insight(domain.MetricROI, subject.NormalizedROI, reference.NormalizedROI),
		Insight(domain.MetricSpend, subject.TotalSpent.InexactFloat64(), reference.TotalSpent.InexactFloat64()),
		Insight(domain.MetricRevenue, subject.TotalRevenue.InexactFloat64(), reference.TotalRevenue.InexactFloat64()),
	}
}
