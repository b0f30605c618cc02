package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriteriaKey(t *testing.T) {
	t.Parallel()

	beds := 3
	maxPrice := 400000.0
	c := SearchCriteria{
		Location:    "Austin, TX",
		SellerType:  "distressed",
		MinBedrooms: &beds,
		MaxPrice:    &maxPrice,
	}
	assert.Equal(t, "loc=austin, tx|seller=distressed|beds=3|maxprice=400000", c.Key())
}

func TestCriteriaKeyIgnoresFormatting(t *testing.T) {
	t.Parallel()

	a := SearchCriteria{Location: "Austin,  TX", SellerType: "Distressed"}
	b := SearchCriteria{Location: "  austin, tx", SellerType: "distressed "}
	assert.Equal(t, a.Key(), b.Key(),
		"case and whitespace differences must not split cursor state")
}

func TestCriteriaKeyOmitsAbsentFilters(t *testing.T) {
	t.Parallel()

	c := SearchCriteria{Location: "Dallas, TX"}
	assert.Equal(t, "loc=dallas, tx", c.Key())
}

func TestCriteriaKeyDistinguishesFilters(t *testing.T) {
	t.Parallel()

	three, four := 3, 4
	a := SearchCriteria{Location: "Austin, TX", MinBedrooms: &three}
	b := SearchCriteria{Location: "Austin, TX", MinBedrooms: &four}
	assert.NotEqual(t, a.Key(), b.Key())
}
