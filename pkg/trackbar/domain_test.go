package trackbar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	testCases := map[string]struct {
		given       string
		expected    Mode
		expectedErr error
	}{
		"empty-defaults-to-discrete": {given: "", expected: ModeDiscrete},
		"discrete":                   {given: "discrete", expected: ModeDiscrete},
		"continuous":                 {given: "continuous", expected: ModeContinuous},
		"mixed-case":                 {given: " Continuous ", expected: ModeContinuous},
		"unknown":                    {given: "logarithmic", expectedErr: ErrUnknownMode},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			mode, err := ParseMode(testCase.given)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, mode)
		})
	}
}

func TestParseValueMapping(t *testing.T) {
	vm, err := ParseValueMapping("")
	require.NoError(t, err)
	assert.Equal(t, ValueMappingLegacy, vm)

	vm, err = ParseValueMapping("offset")
	require.NoError(t, err)
	assert.Equal(t, ValueMappingOffset, vm)

	_, err = ParseValueMapping("inverse")
	assert.ErrorIs(t, err, ErrUnknownValueMapping)
}

func TestNewDomain_Validation(t *testing.T) {
	testCases := map[string]struct {
		min, max    float64
		steps       int
		mode        Mode
		expectedErr error
	}{
		"valid-discrete":            {min: 2, max: 10, steps: 8, mode: ModeDiscrete},
		"valid-continuous-no-steps": {min: -10, max: 10, steps: 0, mode: ModeContinuous},
		"max-equals-min":            {min: 5, max: 5, steps: 1, mode: ModeDiscrete, expectedErr: ErrInvalidDomain},
		"max-below-min":             {min: 5, max: 1, steps: 1, mode: ModeContinuous, expectedErr: ErrInvalidDomain},
		"discrete-without-steps":    {min: 0, max: 1, steps: 0, mode: ModeDiscrete, expectedErr: ErrInvalidDomain},
		"continuous-negative-steps": {min: 0, max: 1, steps: -1, mode: ModeContinuous, expectedErr: ErrInvalidDomain},
		"unknown-mode":              {min: 0, max: 1, steps: 1, mode: Mode(7), expectedErr: ErrUnknownMode},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			_, err := NewDomain(testCase.min, testCase.max, testCase.steps, testCase.mode, ValueMappingLegacy)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDomain_Conversions(t *testing.T) {
	d, err := NewDomain(2, 10, 8, ModeDiscrete, ValueMappingLegacy)
	require.NoError(t, err)

	assert.Equal(t, 1.0, d.StepSize())
	assert.Equal(t, 0.5, d.PositionToPercentage(4))
	assert.Equal(t, 4, d.PercentageToPosition(0.5))
	assert.Equal(t, 6.0, d.PositionToValue(4))
	assert.Equal(t, 6.0, d.PercentageToValue(0.5))
	assert.Equal(t, 10.0, d.PositionToValue(8))
}

func TestDomain_PositionRoundTrip(t *testing.T) {
	for _, steps := range []int{1, 3, 7, 8, 20, 100, 1023} {
		d, err := NewDomain(-15.3, 15.6, steps, ModeDiscrete, ValueMappingLegacy)
		require.NoError(t, err)

		for k := 0; k <= steps; k++ {
			assert.Equal(t, k, d.PercentageToPosition(d.PositionToPercentage(k)), "steps=%d k=%d", steps, k)
		}
	}
}

func TestDomain_PercentageToPositionRoundsHalfAwayFromZero(t *testing.T) {
	d, err := NewDomain(0, 1, 4, ModeDiscrete, ValueMappingLegacy)
	require.NoError(t, err)

	// 0.125 * 4 == 0.5 exactly, 0.375 * 4 == 1.5 exactly
	assert.Equal(t, 1, d.PercentageToPosition(0.125))
	assert.Equal(t, 2, d.PercentageToPosition(0.375))
	assert.Equal(t, 0, d.PercentageToPosition(0.12))
}

func TestDomain_ValueRoundTrip(t *testing.T) {
	offset, err := NewDomain(-15.3, 15.6, 100, ModeContinuous, ValueMappingOffset)
	require.NoError(t, err)

	// legacy mapping is only an inverse when min is 0
	legacy, err := NewDomain(0, 40, 100, ModeContinuous, ValueMappingLegacy)
	require.NoError(t, err)

	for i := 0; i <= 100; i++ {
		p := float64(i) / 100

		assert.InDelta(t, p, offset.ValueToPercentage(offset.PercentageToValue(p)), 1e-9)
		assert.InDelta(t, p, legacy.ValueToPercentage(legacy.PercentageToValue(p)), 1e-9)
	}
}

func TestDomain_ValueToPercentageMappings(t *testing.T) {
	legacy, err := NewDomain(-10, 10, 20, ModeContinuous, ValueMappingLegacy)
	require.NoError(t, err)

	offset, err := NewDomain(-10, 10, 20, ModeContinuous, ValueMappingOffset)
	require.NoError(t, err)

	assert.Equal(t, 0.0, legacy.ValueToPercentage(0))
	assert.Equal(t, 0.5, offset.ValueToPercentage(0))

	assert.Equal(t, 0.25, legacy.ValueToPercentage(5))
	assert.Equal(t, 0.75, offset.ValueToPercentage(5))

	// both clamp
	assert.Equal(t, 0.0, legacy.ValueToPercentage(-10))
	assert.Equal(t, 1.0, offset.ValueToPercentage(50))
}
