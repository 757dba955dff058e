package nepali

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	d := Date{2082, 1, 1}

	tests := []struct {
		style Style
		want  string
	}{
		{StyleShort, "2082/01/01"},
		{StyleFullEn, "Baisakh 1, 2082"},
		{StyleFullNe, "बैशाख १, २०८२"},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			got, err := d.Format(tt.style)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_UnknownStyle(t *testing.T) {
	_, err := Date{2082, 1, 1}.Format(Style("long"))
	assert.ErrorIs(t, err, ErrUnknownFormatStyle)
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleShort, s)

	s, err = ParseStyle("full_ne")
	require.NoError(t, err)
	assert.Equal(t, StyleFullNe, s)

	_, err = ParseStyle("FULL_EN")
	assert.ErrorIs(t, err, ErrUnknownFormatStyle)
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "Baisakh", MonthName(1))
	assert.Equal(t, "Chaitra", MonthName(12))
	assert.Equal(t, "", MonthName(0))
	assert.Equal(t, "कात्तिक", MonthNameNe(7))
	assert.Equal(t, "", MonthNameNe(13))
}
