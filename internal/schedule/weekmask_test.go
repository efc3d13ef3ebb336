package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestalisvirginis/filehole/internal/validation"
)

func TestParseWeekdayMask_ValidStrings(t *testing.T) {
	// every 7 character 0/1 string is a valid mask
	for n := 0; n < 1<<7; n++ {
		raw := make([]byte, 7)
		for i := 0; i < 7; i++ {
			if n&(1<<i) != 0 {
				raw[i] = '1'
			} else {
				raw[i] = '0'
			}
		}
		mask, err := ParseWeekdayMask(string(raw))
		require.NoError(t, err, "mask %s", raw)
		assert.Equal(t, string(raw), mask.String())
	}
}

func TestParseWeekdayMask_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		kind validation.Kind
	}{
		{"too short", "111100", validation.InvalidWeekmask},
		{"too long", "11111100", validation.InvalidWeekmask},
		{"typo", "1121100", validation.InvalidWeekmask},
		{"empty", "", validation.InvalidWeekmask},
		{"day names", "Mon Tue", validation.InvalidWeekmask},
		{"short bool slice", []bool{true, true}, validation.InvalidWeekmask},
		{"non boolean flag", []any{true, true, true, true, true, false, 0}, validation.InvalidWeekmask},
		{"integer", 1111100, validation.WrongType},
		{"float", 1111100.0, validation.WrongType},
		{"nil", nil, validation.WrongType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWeekdayMask(tt.raw)
			require.Error(t, err)
			assert.True(t, validation.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestParseWeekdayMask_Slices(t *testing.T) {
	mask, err := ParseWeekdayMask([]bool{true, false, true, false, true, false, false})
	require.NoError(t, err)
	assert.Equal(t, "1010100", mask.String())

	mask, err = ParseWeekdayMask([]any{false, false, false, false, false, true, true})
	require.NoError(t, err)
	assert.Equal(t, "0000011", mask.String())

	mask, err = ParseWeekdayMask(MondayToFriday)
	require.NoError(t, err)
	assert.Equal(t, MondayToFriday, mask)
}

func TestWeekdayMask_Accessors(t *testing.T) {
	mask, err := ParseWeekdayMask("1010100")
	require.NoError(t, err)

	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, mask.Weekdays())
	assert.True(t, mask.IsCandidate(0))
	assert.False(t, mask.IsCandidate(1))
	assert.False(t, mask.IsCandidate(7))
	assert.False(t, mask.IsCandidate(-1))
	assert.False(t, mask.IsEmpty())

	sunday, err := ParseWeekdayMask("0000001")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday}, sunday.Weekdays())

	var empty WeekdayMask
	assert.True(t, empty.IsEmpty())
}
