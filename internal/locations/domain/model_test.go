package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(0, 0))
	assert.NoError(t, ValidateCoordinates(-90, 180))
	assert.NoError(t, ValidateCoordinates(6.9271, 79.8612))

	assert.ErrorIs(t, ValidateCoordinates(90.1, 0), ErrInvalidLatitude)
	assert.ErrorIs(t, ValidateCoordinates(math.NaN(), 0), ErrInvalidLatitude)
	assert.ErrorIs(t, ValidateCoordinates(0, -181), ErrInvalidLongitude)
	assert.ErrorIs(t, ValidateCoordinates(0, math.NaN()), ErrInvalidLongitude)
}
