package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/pkg/propdata"
)

// sellerTypeQuicklists maps user-facing seller-type labels to the provider's
// canonical quicklist vocabulary. Labels already in provider form map to
// themselves so saved searches created against either vocabulary behave the
// same.
var sellerTypeQuicklists = map[string]string{
	"distressed":     "preforeclosure",
	"preforeclosure": "preforeclosure",
	"absentee":       "out-of-state-absentee-owner",
	"absentee-owner": "out-of-state-absentee-owner",
	"high-equity":    "high-equity",
	"equity":         "high-equity",
	"vacant":         "vacant",
	"motivated":      "motivated-seller",
	"tired-landlord": "tired-landlord",
	"inherited":      "inherited",
}

// BuildFilters translates user-facing criteria into the provider filter
// object. Unknown seller-type labels pass through unchanged with a warning;
// the provider ignores tags it does not recognize, which beats failing the
// whole search. Absent numeric filters stay nil so they are omitted from the
// wire request.
func BuildFilters(c model.SearchCriteria) propdata.Filters {
	f := propdata.Filters{
		Location:         strings.TrimSpace(c.Location),
		PropertyType:     c.PropertyType,
		MinBedrooms:      c.MinBedrooms,
		MaxPrice:         c.MaxPrice,
		MinEquityPercent: c.MinEquityPercent,
	}

	if c.SellerType != "" {
		label := strings.ToLower(strings.TrimSpace(c.SellerType))
		tag, ok := sellerTypeQuicklists[label]
		if !ok {
			zap.L().Warn("unknown seller type label, passing through",
				zap.String("seller_type", c.SellerType),
			)
			tag = label
		}
		f.Quicklists = append(f.Quicklists, tag)
	}

	return f
}
