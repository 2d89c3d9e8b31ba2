package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"subject", KindSubject},
		{"subjects", KindSubject},
		{"Place", KindPlace},
		{"EVENTS", KindEvent},
		{"group", KindGroup},
		{" tag ", KindTag},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("dragon")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestFindLinkPair(t *testing.T) {
	pair, swapped, err := FindLinkPair(KindEvent, KindTag)
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Equal(t, "mapping_events_tags", pair.Table())

	pair, swapped, err = FindLinkPair(KindGroup, KindPlace)
	require.NoError(t, err)
	assert.True(t, swapped)
	assert.Equal(t, LinkPair{KindPlace, KindGroup}, pair)

	pair, swapped, err = FindLinkPair(KindSubject, KindSubject)
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Equal(t, "mapping_subjects_subjects", pair.Table())

	_, _, err = FindLinkPair(KindTag, KindSubject)
	assert.ErrorIs(t, err, ErrNoLinkTable)
}

func TestFileExistsError(t *testing.T) {
	var err error = &FileExistsError{Path: "/tmp/campaign.db"}
	assert.ErrorIs(t, err, ErrFileExists)
	assert.Contains(t, err.Error(), "/tmp/campaign.db")
}
