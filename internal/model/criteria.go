package model

import (
	"fmt"
	"strings"
)

// SearchCriteria holds the user-facing search parameters for one acquisition
// request. It is constructed per call and never mutated afterward.
type SearchCriteria struct {
	Location         string   `json:"location"`
	SellerType       string   `json:"seller_type,omitempty"`
	PropertyType     string   `json:"property_type,omitempty"`
	MinBedrooms      *int     `json:"min_bedrooms,omitempty"`
	MaxPrice         *float64 `json:"max_price,omitempty"`
	MinEquityPercent *float64 `json:"min_equity_percent,omitempty"`
}

// Key returns the canonical serialized form of the criteria, used to key
// skip-cursor rows. Two criteria that differ only in label case or incidental
// whitespace produce the same key, so a re-run of the same saved search resumes
// its cursor instead of starting a new one.
func (c SearchCriteria) Key() string {
	parts := []string{"loc=" + canonToken(c.Location)}
	if c.SellerType != "" {
		parts = append(parts, "seller="+canonToken(c.SellerType))
	}
	if c.PropertyType != "" {
		parts = append(parts, "ptype="+canonToken(c.PropertyType))
	}
	if c.MinBedrooms != nil {
		parts = append(parts, fmt.Sprintf("beds=%d", *c.MinBedrooms))
	}
	if c.MaxPrice != nil {
		parts = append(parts, fmt.Sprintf("maxprice=%.0f", *c.MaxPrice))
	}
	if c.MinEquityPercent != nil {
		parts = append(parts, fmt.Sprintf("equity=%.0f", *c.MinEquityPercent))
	}
	return strings.Join(parts, "|")
}

// canonToken lowercases and collapses internal whitespace so formatting
// differences never split cursor state across rows.
func canonToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
