package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/pkg/propdata"
)

func rawAustinRecord() propdata.RawRecord {
	return propdata.RawRecord{
		"id": "rec-001",
		"propertyInfo": map[string]any{
			"address": map[string]any{
				"label": "123 Main St",
				"city":  "Austin",
				"state": "TX",
				"zip":   "78701",
			},
		},
		"building": map[string]any{
			"bedroomCount":  float64(3),
			"bathroomCount": float64(2),
			"squareFeet":    float64(1800),
			"yearBuilt":     float64(1985),
		},
		"valuation": map[string]any{
			"estimatedValue": float64(300000),
			"equityPercent":  float64(45),
		},
		"owner": map[string]any{
			"fullName":       "JOHN SMITH",
			"mailingAddress": map[string]any{"label": "PO Box 9, Austin, TX"},
		},
	}
}

func TestNormalize_HappyPath(t *testing.T) {
	t.Parallel()

	p := NewNormalizer().Normalize(rawAustinRecord())

	assert.Equal(t, "123 Main St", p.Address)
	assert.Equal(t, "Austin", p.City)
	assert.Equal(t, "TX", p.State)
	assert.Equal(t, "78701", p.ZipCode)
	require.NotNil(t, p.Bedrooms)
	assert.Equal(t, 3, *p.Bedrooms)
	require.NotNil(t, p.EstimatedValue)
	assert.Equal(t, float64(300000), *p.EstimatedValue)
	require.NotNil(t, p.MaxOffer)
	assert.Equal(t, math.Floor(300000*0.70), *p.MaxOffer)
	assert.Equal(t, "rec-001", p.VendorRecordID)
	assert.Equal(t, "John Smith", p.OwnerName)
	assert.Equal(t, "PO Box 9, Austin, TX", p.OwnerMailingAddress)
}

func TestNormalize_PathFallbackOrder(t *testing.T) {
	t.Parallel()

	// bedroomCount missing: falls back to building.bedrooms, then taxAssessor.
	p := NewNormalizer().Normalize(propdata.RawRecord{
		"building":    map[string]any{"bedrooms": float64(4)},
		"taxAssessor": map[string]any{"bedrooms": float64(2)},
	})
	require.NotNil(t, p.Bedrooms)
	assert.Equal(t, 4, *p.Bedrooms)

	p = NewNormalizer().Normalize(propdata.RawRecord{
		"taxAssessor": map[string]any{"bedrooms": float64(2)},
	})
	require.NotNil(t, p.Bedrooms)
	assert.Equal(t, 2, *p.Bedrooms)
}

func TestNormalize_MissingFieldsStayNil(t *testing.T) {
	t.Parallel()

	p := NewNormalizer().Normalize(propdata.RawRecord{
		"address": map[string]any{"street": "9 Elm St", "city": "Waco", "state": "TX"},
	})

	assert.Nil(t, p.Bedrooms)
	assert.Nil(t, p.Bathrooms)
	assert.Nil(t, p.EstimatedValue)
	assert.Nil(t, p.MaxOffer, "no offer without a value")
	assert.Nil(t, p.EquityPercent)
	assert.Equal(t, "", p.ZipCode)
	assert.False(t, p.DescriptiveDefaultsApplied)
}

func TestNormalize_NumericStringsParsed(t *testing.T) {
	t.Parallel()

	p := NewNormalizer().Normalize(propdata.RawRecord{
		"valuation": map[string]any{"estimatedValue": "250000"},
		"building":  map[string]any{"bedroomCount": "3"},
	})

	require.NotNil(t, p.EstimatedValue)
	assert.Equal(t, float64(250000), *p.EstimatedValue)
	require.NotNil(t, p.Bedrooms)
	assert.Equal(t, 3, *p.Bedrooms)
}

func TestNormalize_MaxOfferIsFloored(t *testing.T) {
	t.Parallel()

	v := 123457.0 // 0.70 * v = 86419.9
	p := NewNormalizer().Normalize(propdata.RawRecord{
		"valuation": map[string]any{"estimatedValue": v},
	})

	require.NotNil(t, p.MaxOffer)
	assert.Equal(t, float64(86419), *p.MaxOffer)
	assert.Equal(t, math.Floor(v*0.70), *p.MaxOffer)
}

func TestClassifyLead_PriorityChain(t *testing.T) {
	t.Parallel()

	eq80 := 80.0
	eq55 := 55.0
	eq10 := 10.0

	tests := []struct {
		name   string
		flags  quicklistFlags
		equity *float64
		want   model.LeadType
	}{
		{"preforeclosure beats high equity", quicklistFlags{Preforeclosure: true, HighEquity: true}, &eq80, model.LeadPreforeclosure},
		{"preforeclosure beats everything", quicklistFlags{Preforeclosure: true, AbsenteeOwner: true, Vacant: true, MotivatedSeller: true}, &eq80, model.LeadPreforeclosure},
		{"equity >= 70 is high equity", quicklistFlags{}, &eq80, model.LeadHighEquity},
		{"high equity flag without number", quicklistFlags{HighEquity: true}, nil, model.LeadHighEquity},
		{"high equity beats absentee", quicklistFlags{HighEquity: true, AbsenteeOwner: true}, nil, model.LeadHighEquity},
		{"absentee beats vacant", quicklistFlags{AbsenteeOwner: true, Vacant: true}, nil, model.LeadAbsenteeOwner},
		{"vacant beats motivated", quicklistFlags{Vacant: true, MotivatedSeller: true}, nil, model.LeadVacant},
		{"equity >= 50 is motivated", quicklistFlags{}, &eq55, model.LeadMotivatedSeller},
		{"no flags low equity is standard", quicklistFlags{}, &eq10, model.LeadStandard},
		{"nothing known is standard", quicklistFlags{}, nil, model.LeadStandard},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyLead(tc.flags, tc.equity))
		})
	}
}

func TestNormalize_FlagPathVariants(t *testing.T) {
	t.Parallel()

	// Top-level bool, nested quicklist, and string-encoded forms all count.
	for _, raw := range []propdata.RawRecord{
		{"preForeclosure": true},
		{"quickLists": map[string]any{"preforeclosure": true}},
		{"foreclosureInfo": map[string]any{"active": "Y"}},
	} {
		p := NewNormalizer().Normalize(raw)
		assert.Equal(t, model.LeadPreforeclosure, p.LeadType)
		assert.Equal(t, model.DistressSevere, p.Distress)
	}
}

func TestNormalize_ConfidenceBounds(t *testing.T) {
	t.Parallel()

	empty := NewNormalizer().Normalize(propdata.RawRecord{})
	assert.GreaterOrEqual(t, empty.ConfidenceScore, 0)
	assert.LessOrEqual(t, empty.ConfidenceScore, 100)
	assert.Equal(t, 0, empty.ConfidenceScore)

	full := NewNormalizer().Normalize(rawAustinRecord())
	assert.GreaterOrEqual(t, full.ConfidenceScore, 0)
	assert.LessOrEqual(t, full.ConfidenceScore, 100)
	assert.Greater(t, full.ConfidenceScore, empty.ConfidenceScore)
}

func TestNormalize_DescriptiveFallbacks(t *testing.T) {
	t.Parallel()

	raw := propdata.RawRecord{
		"address":   map[string]any{"street": "9 Elm St", "city": "Waco", "state": "TX", "zip": "76701"},
		"valuation": map[string]any{"estimatedValue": float64(200000)},
	}

	// Default: off.
	p := NewNormalizer().Normalize(raw)
	assert.Nil(t, p.Bedrooms)
	assert.False(t, p.DescriptiveDefaultsApplied)

	// Enabled: value-band defaults, clearly flagged.
	p = NewNormalizer(WithDescriptiveFallbacks()).Normalize(raw)
	require.NotNil(t, p.Bedrooms)
	assert.Equal(t, 3, *p.Bedrooms)
	require.NotNil(t, p.Bathrooms)
	assert.Equal(t, 2, *p.Bathrooms)
	require.NotNil(t, p.YearBuilt)
	assert.Equal(t, 1975, *p.YearBuilt)
	assert.True(t, p.DescriptiveDefaultsApplied)

	// Financial fields are never defaulted, even with fallbacks on.
	p = NewNormalizer(WithDescriptiveFallbacks()).Normalize(propdata.RawRecord{
		"address": map[string]any{"street": "9 Elm St"},
	})
	assert.Nil(t, p.EstimatedValue)
	assert.Nil(t, p.EquityPercent)
	assert.Nil(t, p.Bedrooms, "no value band without a value")
}

func TestNormalize_ProviderDataNotOverriddenByFallbacks(t *testing.T) {
	t.Parallel()

	raw := rawAustinRecord()
	p := NewNormalizer(WithDescriptiveFallbacks()).Normalize(raw)

	require.NotNil(t, p.Bedrooms)
	assert.Equal(t, 3, *p.Bedrooms, "provider value wins over fallback")
	assert.False(t, p.DescriptiveDefaultsApplied)
}
