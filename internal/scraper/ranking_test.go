package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryanm101/romscraper/internal/platform"
)

func names(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.DisplayName
	}
	return out
}

func TestRank_Ordering(t *testing.T) {
	cands := []Candidate{
		{ID: "1", DisplayName: "Mario Paint", RankScore: 90},
		{ID: "2", DisplayName: "Super Mario World 2: Yoshi's Island", RankScore: 50},
		{ID: "3", DisplayName: "super mario world", RankScore: 1},
		{ID: "4", DisplayName: "Super Mario World (Arcade)", RankScore: 10, Platform: "snes"},
	}

	ranked := Rank(cands, "Super Mario World", platform.Known("snes"))

	assert.Equal(t, []string{
		"super mario world",
		"Super Mario World (Arcade)",
		"Super Mario World 2: Yoshi's Island",
		"Mario Paint",
	}, names(ranked))
}

func TestRank_ScoreBreaksTies(t *testing.T) {
	cands := []Candidate{
		{ID: "a", DisplayName: "Alpha", RankScore: 1},
		{ID: "b", DisplayName: "Beta", RankScore: 5},
	}
	ranked := Rank(cands, "Gamma", platform.Unknown())
	assert.Equal(t, []string{"Beta", "Alpha"}, names(ranked))
}

func TestRank_StableAndNonMutating(t *testing.T) {
	cands := []Candidate{
		{ID: "a", DisplayName: "Sonic"},
		{ID: "b", DisplayName: "Sonic"},
		{ID: "c", DisplayName: "Sonic"},
	}
	ranked := Rank(cands, "Sonic", platform.Unknown())

	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
	assert.Equal(t, "c", ranked[2].ID)

	// same input gives same output
	assert.Equal(t, ranked, Rank(cands, "Sonic", platform.Unknown()))
	assert.Equal(t, "a", cands[0].ID)
}

func TestRank_UnknownPlatformIgnoresPlatformField(t *testing.T) {
	cands := []Candidate{
		{ID: "a", DisplayName: "Tetris", RankScore: 2},
		{ID: "b", DisplayName: "Tetris", RankScore: 1, Platform: ""},
	}
	ranked := Rank(cands, "Tetris", platform.Unknown())
	assert.Equal(t, "a", ranked[0].ID)
}

func TestRank_ExactTitleBeatsSuffixedDisplayName(t *testing.T) {
	cands := []Candidate{
		{ID: "2", Title: "Sonic the Hedgehog 2", DisplayName: "Sonic the Hedgehog 2 (Genesis)", RankScore: 100},
		{ID: "9", Title: "Sonic Spinball", DisplayName: "Sonic Spinball (Genesis)", RankScore: 80},
		{ID: "1", Title: "Sonic the Hedgehog", DisplayName: "Sonic the Hedgehog (Genesis)", RankScore: -50},
	}
	ranked := Rank(cands, "Sonic the Hedgehog", platform.Unknown())
	assert.Equal(t, "1", ranked[0].ID)
	assert.Equal(t, "2", ranked[1].ID)
}
