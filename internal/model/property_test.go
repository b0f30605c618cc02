package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeMaxOffer(t *testing.T) {
	t.Parallel()

	// 70% of value, floored to a whole dollar.
	assert.Equal(t, 210000.0, ComputeMaxOffer(300000))
	assert.Equal(t, 175000.0, ComputeMaxOffer(250000))
	assert.Equal(t, 69999.0, ComputeMaxOffer(99999))
	assert.Equal(t, 0.0, ComputeMaxOffer(0))
}
