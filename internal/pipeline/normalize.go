package pipeline

import (
	_ "embed"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/pkg/propdata"
)

//go:embed fieldpaths.yaml
var fieldPathsYAML []byte

// pathTable declares, per canonical field, the ordered candidate paths to
// probe in a raw provider record. Provider API revisions have moved the same
// semantic value between nesting depths; the table absorbs that drift.
type pathTable struct {
	Fields map[string][]string `yaml:"fields"`
	Flags  map[string][]string `yaml:"flags"`
}

var fieldPaths = mustLoadPathTable()

func mustLoadPathTable() pathTable {
	var t pathTable
	if err := yaml.Unmarshal(fieldPathsYAML, &t); err != nil {
		panic("pipeline: invalid embedded fieldpaths.yaml: " + err.Error())
	}
	return t
}

// quicklistFlags are the provider's boolean category labels after resolution.
type quicklistFlags struct {
	Preforeclosure  bool
	HighEquity      bool
	AbsenteeOwner   bool
	Vacant          bool
	MotivatedSeller bool
}

// Normalizer converts raw provider records into canonical lead records.
type Normalizer struct {
	descriptiveFallbacks bool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithDescriptiveFallbacks fills missing beds/baths/year-built from estimated
// value bands. Only descriptive fields are ever defaulted; financial fields
// stay null when the provider omits them.
func WithDescriptiveFallbacks() NormalizerOption {
	return func(n *Normalizer) {
		n.descriptiveFallbacks = true
	}
}

// NewNormalizer creates a Normalizer. Default behavior leaves unknown fields
// null.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps one raw provider record to a canonical property. For each
// field the declared candidate paths are probed in order and the first
// non-null value wins; when all candidates are missing the field stays nil.
func (n *Normalizer) Normalize(raw propdata.RawRecord) *model.CanonicalProperty {
	p := &model.CanonicalProperty{
		Address:             firstString(raw, fieldPaths.Fields["address"]),
		City:                firstString(raw, fieldPaths.Fields["city"]),
		State:               firstString(raw, fieldPaths.Fields["state"]),
		ZipCode:             firstString(raw, fieldPaths.Fields["zip"]),
		OwnerName:           CanonicalOwnerName(firstString(raw, fieldPaths.Fields["owner_name"])),
		OwnerMailingAddress: firstString(raw, fieldPaths.Fields["owner_mailing_address"]),
		VendorRecordID:      firstString(raw, fieldPaths.Fields["vendor_record_id"]),
		Bedrooms:            firstInt(raw, fieldPaths.Fields["bedrooms"]),
		Bathrooms:           firstInt(raw, fieldPaths.Fields["bathrooms"]),
		SquareFeet:          firstInt(raw, fieldPaths.Fields["square_feet"]),
		YearBuilt:           firstInt(raw, fieldPaths.Fields["year_built"]),
		EstimatedValue:      firstFloat(raw, fieldPaths.Fields["estimated_value"]),
		EquityPercent:       firstFloat(raw, fieldPaths.Fields["equity_percent"]),
	}

	if p.EstimatedValue != nil {
		offer := model.ComputeMaxOffer(*p.EstimatedValue)
		p.MaxOffer = &offer
	}

	flags := resolveFlags(raw)
	p.LeadType = classifyLead(flags, p.EquityPercent)
	p.Distress = classifyDistress(flags)
	p.ConfidenceScore = confidenceScore(p)

	if n.descriptiveFallbacks {
		applyDescriptiveDefaults(p)
	}

	return p
}

func resolveFlags(raw propdata.RawRecord) quicklistFlags {
	return quicklistFlags{
		Preforeclosure:  firstBool(raw, fieldPaths.Flags["preforeclosure"]),
		HighEquity:      firstBool(raw, fieldPaths.Flags["high_equity"]),
		AbsenteeOwner:   firstBool(raw, fieldPaths.Flags["absentee_owner"]),
		Vacant:          firstBool(raw, fieldPaths.Flags["vacant"]),
		MotivatedSeller: firstBool(raw, fieldPaths.Flags["motivated_seller"]),
	}
}

// classifyLead applies the fixed priority chain over quicklist flags.
// First match wins, in exactly this order, regardless of how many flags are
// simultaneously true.
func classifyLead(f quicklistFlags, equity *float64) model.LeadType {
	switch {
	case f.Preforeclosure:
		return model.LeadPreforeclosure
	case f.HighEquity || (equity != nil && *equity >= 70):
		return model.LeadHighEquity
	case f.AbsenteeOwner:
		return model.LeadAbsenteeOwner
	case f.Vacant:
		return model.LeadVacant
	case f.MotivatedSeller || (equity != nil && *equity >= 50):
		return model.LeadMotivatedSeller
	default:
		return model.LeadStandard
	}
}

func classifyDistress(f quicklistFlags) model.DistressLevel {
	switch {
	case f.Preforeclosure:
		return model.DistressSevere
	case f.Vacant:
		return model.DistressModerate
	default:
		return model.DistressNone
	}
}

// confidenceScore weights field completeness into [0,100]. Location and
// valuation dominate because everything downstream depends on them.
func confidenceScore(p *model.CanonicalProperty) int {
	score := 0
	if p.Address != "" {
		score += 10
	}
	if p.City != "" {
		score += 10
	}
	if p.State != "" {
		score += 10
	}
	if p.ZipCode != "" {
		score += 10
	}
	if p.EstimatedValue != nil {
		score += 20
	}
	if p.Bedrooms != nil {
		score += 10
	}
	if p.Bathrooms != nil {
		score += 5
	}
	if p.SquareFeet != nil {
		score += 5
	}
	if p.YearBuilt != nil {
		score += 5
	}
	if p.OwnerName != "" {
		score += 10
	}
	if p.EquityPercent != nil {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// applyDescriptiveDefaults fills missing beds/baths/year from estimated value
// bands. Requires a known value; a property with no valuation gets nothing.
func applyDescriptiveDefaults(p *model.CanonicalProperty) {
	if p.EstimatedValue == nil {
		return
	}

	var beds, baths, year int
	switch v := *p.EstimatedValue; {
	case v < 150000:
		beds, baths, year = 2, 1, 1950
	case v < 350000:
		beds, baths, year = 3, 2, 1975
	case v < 750000:
		beds, baths, year = 4, 2, 1995
	default:
		beds, baths, year = 5, 3, 2005
	}

	applied := false
	if p.Bedrooms == nil {
		p.Bedrooms = &beds
		applied = true
	}
	if p.Bathrooms == nil {
		p.Bathrooms = &baths
		applied = true
	}
	if p.YearBuilt == nil {
		p.YearBuilt = &year
		applied = true
	}
	p.DescriptiveDefaultsApplied = applied
}

// lookup walks a dotted path through nested maps, returning nil when any
// segment is absent or null.
func lookup(raw map[string]any, path string) any {
	var cur any = raw
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok || cur == nil {
			return nil
		}
	}
	return cur
}

func firstString(raw map[string]any, paths []string) string {
	for _, p := range paths {
		switch v := lookup(raw, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func firstFloat(raw map[string]any, paths []string) *float64 {
	for _, p := range paths {
		switch v := lookup(raw, p).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			// Some provider revisions serialize numerics as strings.
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func firstInt(raw map[string]any, paths []string) *int {
	if f := firstFloat(raw, paths); f != nil {
		i := int(*f)
		return &i
	}
	return nil
}

func firstBool(raw map[string]any, paths []string) bool {
	for _, p := range paths {
		switch v := lookup(raw, p).(type) {
		case bool:
			if v {
				return true
			}
		case string:
			s := strings.ToLower(strings.TrimSpace(v))
			if s == "true" || s == "y" || s == "yes" || s == "1" {
				return true
			}
		case float64:
			if v != 0 {
				return true
			}
		}
	}
	return false
}
