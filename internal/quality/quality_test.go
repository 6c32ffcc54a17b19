package quality

import (
	"testing"

	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankNumericLabels(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"1080p", 1080},
		{"720", 720},
		{"480P", 480},
		{"full-2160-uhd", 2160},
		{"Quality: 360 (low)", 360},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, Rank(tc.label))
		})
	}
}

func TestRankNamedLabels(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"HD", 720},
		{"hd", 720},
		{"FHD", 1080},
		{"fhd", 1080},
		{"QHD", 1440},
		{"UHD", 2160},
		{"SD", 480},
		{"LD", 360},
		{"mystery", 0},
		{"", 0},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, Rank(tc.label))
		})
	}
}

func TestRankNumberBeatsName(t *testing.T) {
	// A digit run wins even when a named tier is also present. That
	// makes "4k" rank 4, not 2160: the digit is found before the table
	// is ever consulted.
	assert.Equal(t, 1080, Rank("HD 1080"))
	assert.Equal(t, 4, Rank("4k"))
	assert.Equal(t, 4, Rank("4K"))
}

func TestSortLabelsIsDeterministic(t *testing.T) {
	qualities := map[string]string{
		"480p":  "c",
		"1080p": "a",
		"720p":  "b",
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"1080p", "720p", "480p"}, SortLabels(qualities))
	}
}

func TestBestReturnsHighestRank(t *testing.T) {
	label, url, err := Best(map[string]string{
		"480p":  "low",
		"1080p": "high",
		"720p":  "mid",
	})
	require.NoError(t, err)
	assert.Equal(t, "1080p", label)
	assert.Equal(t, "high", url)
}

func TestBestTieResolvesToFirstInOrder(t *testing.T) {
	// Both labels carry the same digit run, so they rank equally; the
	// deterministic order breaks the tie by label.
	label, _, err := Best(map[string]string{
		"1080x": "b",
		"1080p": "a",
	})
	require.NoError(t, err)
	assert.Equal(t, "1080p", label)
}

func TestBestEmptyMapFails(t *testing.T) {
	_, _, err := Best(map[string]string{})
	var infoErr *errs.VideoInfoError
	require.ErrorAs(t, err, &infoErr)
}

func TestSelectExactMatch(t *testing.T) {
	label, url, err := Select(map[string]string{
		"720p":  "a",
		"1080p": "b",
	}, "720p")
	require.NoError(t, err)
	assert.Equal(t, "720p", label)
	assert.Equal(t, "a", url)
}

func TestSelectSubstringMatch(t *testing.T) {
	label, url, err := Select(map[string]string{
		"720p":  "a",
		"1080p": "b",
	}, "720")
	require.NoError(t, err)
	assert.Equal(t, "720p", label)
	assert.Equal(t, "a", url)
}

func TestSelectFallsBackToBest(t *testing.T) {
	label, _, err := Select(map[string]string{
		"480p":  "a",
		"1080p": "b",
	}, "4096")
	require.NoError(t, err)
	assert.Equal(t, "1080p", label)
}

func TestSelectWithoutPreference(t *testing.T) {
	label, _, err := Select(map[string]string{
		"480p": "a",
		"720p": "b",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "720p", label)
}

func TestSelectEmptyMapFails(t *testing.T) {
	_, _, err := Select(map[string]string{}, "720")
	var infoErr *errs.VideoInfoError
	require.ErrorAs(t, err, &infoErr)
}
