package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/pipeline"
)

var (
	acquireUser  string
	acquireCount int

	critLocation     string
	critSellerType   string
	critPropertyType string
	critMinBedrooms  int
	critMaxPrice     float64
	critMinEquity    float64
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Fetch, normalize, and deliver new leads for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Orchestrator.Acquire(cmd.Context(), pipeline.AcquireRequest{
			UserID:   acquireUser,
			Criteria: criteriaFromFlags(cmd),
			Count:    acquireCount,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// criteriaFromFlags builds search criteria from the shared criteria flag set.
// Numeric filters stay nil unless the flag was actually passed, so they are
// omitted from the provider request rather than sent as zeroes.
func criteriaFromFlags(cmd *cobra.Command) model.SearchCriteria {
	c := model.SearchCriteria{
		Location:     critLocation,
		SellerType:   critSellerType,
		PropertyType: critPropertyType,
	}
	if cmd.Flags().Changed("min-bedrooms") {
		v := critMinBedrooms
		c.MinBedrooms = &v
	}
	if cmd.Flags().Changed("max-price") {
		v := critMaxPrice
		c.MaxPrice = &v
	}
	if cmd.Flags().Changed("min-equity") {
		v := critMinEquity
		c.MinEquityPercent = &v
	}
	return c
}

func addCriteriaFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&critLocation, "location", "", "search location, e.g. \"Austin, TX\" (required)")
	cmd.Flags().StringVar(&critSellerType, "seller-type", "", "seller type label (distressed, absentee, high-equity, vacant, motivated, ...)")
	cmd.Flags().StringVar(&critPropertyType, "property-type", "", "property type (single-family, multi-family, ...)")
	cmd.Flags().IntVar(&critMinBedrooms, "min-bedrooms", 0, "minimum bedroom count")
	cmd.Flags().Float64Var(&critMaxPrice, "max-price", 0, "maximum estimated value")
	cmd.Flags().Float64Var(&critMinEquity, "min-equity", 0, "minimum equity percent")
	_ = cmd.MarkFlagRequired("location")
}

func init() {
	acquireCmd.Flags().StringVar(&acquireUser, "user", "", "user ID to deliver leads to (required)")
	acquireCmd.Flags().IntVar(&acquireCount, "count", 10, "number of leads to deliver")
	_ = acquireCmd.MarkFlagRequired("user")
	addCriteriaFlags(acquireCmd)
	rootCmd.AddCommand(acquireCmd)
}
