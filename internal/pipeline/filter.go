package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/model"
)

// MinEstimatedValue is the floor under which a record is considered noise
// (tax placeholders, data errors, unbuildable lots).
const MinEstimatedValue = 25000

// QualityFilter rejects records that are unusable as leads and re-applies
// criteria the provider's server-side filtering does not reliably honor.
type QualityFilter struct {
	criteria model.SearchCriteria
}

// NewQualityFilter creates a filter for one request's criteria.
func NewQualityFilter(criteria model.SearchCriteria) *QualityFilter {
	return &QualityFilter{criteria: criteria}
}

// Accept reports whether a normalized property clears the minimum bar and
// the request's backup filters. The returned reason names the first failed
// check; rejected records are counted, never errored.
func (f *QualityFilter) Accept(p *model.CanonicalProperty) (bool, string) {
	if p.Address == "" {
		return false, "missing address"
	}
	if p.City == "" {
		return false, "missing city"
	}
	if p.State == "" {
		return false, "missing state"
	}
	if p.EstimatedValue == nil || *p.EstimatedValue <= MinEstimatedValue {
		return false, "implausible value"
	}

	// Backup bedroom filter. The provider claims to apply beds_min server
	// side but routinely returns smaller homes anyway. Unknown bedroom
	// counts pass: absence of data is not failure of a positive constraint.
	if f.criteria.MinBedrooms != nil {
		if p.Bedrooms == nil {
			zap.L().Warn("bedrooms unknown, passing bedroom filter",
				zap.String("address", p.Address),
				zap.Int("min_bedrooms", *f.criteria.MinBedrooms),
			)
		} else if *p.Bedrooms < *f.criteria.MinBedrooms {
			return false, "below bedroom minimum"
		}
	}

	// Backup price ceiling.
	if f.criteria.MaxPrice != nil && *p.EstimatedValue > *f.criteria.MaxPrice {
		return false, "above price ceiling"
	}

	return true, ""
}
