package router

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

type similarityScore struct {
	groups      int
	dice        float64
	levenshtein float64
}

func (s similarityScore) greater(o similarityScore) bool {
	if s.groups != o.groups {
		return s.groups > o.groups
	}
	if s.dice != o.dice {
		return s.dice > o.dice
	}
	return s.levenshtein > o.levenshtein
}

// mostSimilar breaks a tie between templates with the same number of captures. The literal
// segments of the longest candidate are the groupings: a candidate scores a point for every
// grouping it shares with the request path. Equal group scores are compared by the string
// similarity of the candidate skeleton and the path. Candidates are sorted so the first one
// wins a full tie.
func mostSimilar(candidates []*pathTemplate, path string) *pathTemplate {

	longest := candidates[0]
	for _, c := range candidates[1:] {
		if len(c.raw) > len(longest.raw) {
			longest = c
		}
	}

	pathSegments := segmentSet(path)

	var groupings []string
	for _, g := range longest.literals {
		if _, ok := pathSegments[strings.ToLower(g)]; ok {
			groupings = append(groupings, strings.ToLower(g))
		}
	}

	dice := metrics.NewSorensenDice()
	dice.CaseSensitive = false

	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false

	var best *pathTemplate
	var bestScore similarityScore

	for _, c := range candidates {
		own := segmentSet(c.raw)

		score := similarityScore{
			dice:        strutil.Similarity(c.skeleton, path, dice),
			levenshtein: strutil.Similarity(c.skeleton, path, lev),
		}
		for _, g := range groupings {
			if _, ok := own[g]; ok {
				score.groups++
			}
		}

		if best == nil || score.greater(bestScore) {
			best = c
			bestScore = score
		}
	}

	return best
}

func segmentSet(path string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			set[strings.ToLower(s)] = struct{}{}
		}
	}
	return set
}
