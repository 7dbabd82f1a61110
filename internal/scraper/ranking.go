package scraper

import (
	"sort"

	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/romname"
)

type rankKey struct {
	exact     bool
	substring bool
	platform  bool
	score     int
}

func (a rankKey) less(b rankKey) bool {
	if a.exact != b.exact {
		return !a.exact
	}
	if a.substring != b.substring {
		return !a.substring
	}
	if a.platform != b.platform {
		return !a.platform
	}
	return a.score < b.score
}

// rankTitle is the name matched against the search term. Sources that leave
// Title empty are ranked on the display name.
func rankTitle(c Candidate) string {
	if c.Title != "" {
		return c.Title
	}
	return c.DisplayName
}

func keyFor(c Candidate, term string, code platform.Code) rankKey {
	title := rankTitle(c)
	return rankKey{
		exact:     romname.EqualFold(title, term),
		substring: romname.ContainsFold(title, term),
		platform:  code.Known && c.Platform != "" && c.Platform == code.Value,
		score:     c.RankScore,
	}
}

// Rank orders candidates best first by exact title match, then substring
// match, then platform match, then the source's own score. The sort is
// stable, so equal candidates keep source order. The input is not modified.
func Rank(candidates []Candidate, term string, code platform.Code) []Candidate {
	type ranked struct {
		c   Candidate
		key rankKey
	}
	rows := make([]ranked, len(candidates))
	for i, c := range candidates {
		rows[i] = ranked{c: c, key: keyFor(c, term, code)}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[j].key.less(rows[i].key)
	})

	out := make([]Candidate, len(rows))
	for i, r := range rows {
		out[i] = r.c
	}
	return out
}
