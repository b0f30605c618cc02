package model

import (
	"math"
	"time"
)

// LeadType classifies why a property is worth pursuing. Exactly one type is
// assigned per property by a fixed priority chain over the provider's
// quicklist flags (see pipeline.ClassifyLead).
type LeadType string

const (
	LeadPreforeclosure  LeadType = "preforeclosure"
	LeadHighEquity      LeadType = "high_equity"
	LeadAbsenteeOwner   LeadType = "absentee_owner"
	LeadVacant          LeadType = "vacant"
	LeadMotivatedSeller LeadType = "motivated_seller"
	LeadStandard        LeadType = "standard"
)

// DistressLevel indicates how distressed a property appears from provider
// flags. Severe means an active preforeclosure filing; moderate covers
// vacancy; none is everything else.
type DistressLevel string

const (
	DistressSevere   DistressLevel = "severe"
	DistressModerate DistressLevel = "moderate"
	DistressNone     DistressLevel = "none"
)

// PhoneType classifies an owner phone number.
type PhoneType string

const (
	PhoneMobile   PhoneType = "mobile"
	PhoneLandline PhoneType = "landline"
	PhoneUnknown  PhoneType = "unknown"
)

// Contact is one reachable channel for a property owner. A property carries
// zero or more contacts; at most one phone entry and one email entry have
// Best set.
type Contact struct {
	Phone     string    `json:"phone,omitempty"`
	PhoneType PhoneType `json:"phone_type,omitempty"`
	DNC       bool      `json:"dnc"`
	Email     string    `json:"email,omitempty"`
	Best      bool      `json:"best"`
}

// MaxOfferRatio is the fraction of estimated value offered on a wholesale
// deal. MaxOffer is always floor(estimatedValue * MaxOfferRatio).
const MaxOfferRatio = 0.70

// CanonicalProperty is the normalized lead record produced from one raw
// provider record. Optional fields stay nil when the provider omitted them;
// normalization never invents values for fields that feed offer math.
type CanonicalProperty struct {
	Address             string        `json:"address"`
	City                string        `json:"city"`
	State               string        `json:"state"`
	ZipCode             string        `json:"zip_code"`
	Bedrooms            *int          `json:"bedrooms,omitempty"`
	Bathrooms           *int          `json:"bathrooms,omitempty"`
	SquareFeet          *int          `json:"square_feet,omitempty"`
	YearBuilt           *int          `json:"year_built,omitempty"`
	EstimatedValue      *float64      `json:"estimated_value,omitempty"`
	MaxOffer            *float64      `json:"max_offer,omitempty"`
	OwnerName           string        `json:"owner_name,omitempty"`
	OwnerMailingAddress string        `json:"owner_mailing_address,omitempty"`
	EquityPercent       *float64      `json:"equity_percent,omitempty"`
	LeadType            LeadType      `json:"lead_type"`
	Distress            DistressLevel `json:"distress"`
	ConfidenceScore     int           `json:"confidence_score"`
	VendorRecordID      string        `json:"vendor_record_id,omitempty"`
	Contacts            []Contact     `json:"contacts,omitempty"`
	// DescriptiveDefaultsApplied flags that beds/baths/year were filled from
	// value-band heuristics rather than provider data.
	DescriptiveDefaultsApplied bool `json:"descriptive_defaults_applied,omitempty"`
}

// ComputeMaxOffer returns the wholesale ceiling offer for a value.
func ComputeMaxOffer(estimatedValue float64) float64 {
	return math.Floor(estimatedValue * MaxOfferRatio)
}

// LeadDelivery records that a property fingerprint was shown to a user.
// The (UserID, Fingerprint) pair is unique; re-recording it is a no-op.
type LeadDelivery struct {
	UserID      string    `json:"user_id"`
	Fingerprint string    `json:"fingerprint"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// SkipCursor tracks how far into the provider's result set a saved search has
// consumed, per (user, canonical criteria key). Position only ever grows,
// except through an explicit operator reset.
type SkipCursor struct {
	UserID      string    `json:"user_id"`
	CriteriaKey string    `json:"criteria_key"`
	Position    int       `json:"position"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Owner is the deduplicated owner entity persisted alongside properties.
type Owner struct {
	Name           string `json:"name"`
	MailingAddress string `json:"mailing_address"`
}
