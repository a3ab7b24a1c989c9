// Package search implements fuzzy matching of a query against lesson
// transcript segments. An exact case-insensitive substring match scores
// 100; otherwise a sliding token-window similarity allows approximate
// matches (misspellings, small word-order differences).
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pierre-chaville/lessons/internal/domain"
)

const (
	// DefaultThreshold is the minimum score (0 to 100) for a segment
	// to count as a match.
	DefaultThreshold = 72.0
	// DefaultMaxMatches caps the number of returned matches.
	DefaultMaxMatches = 50
)

// Match is one segment that scored at or above the threshold.
type Match struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Exact bool    `json:"exact"`
}

// Options tunes FindSegments. Zero values fall back to the defaults.
type Options struct {
	Threshold  float64
	MaxMatches int
}

// FindSegments scores every segment against query and returns the
// matches sorted by descending score, ties broken by start time.
func FindSegments(segments []domain.Segment, query string, opts Options) []Match {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = DefaultMaxMatches
	}

	q := strings.TrimSpace(query)
	if q == "" || len(segments) == 0 {
		return nil
	}

	var matches []Match
	for _, seg := range segments {
		score, exact := Score(q, seg.Text)
		if score >= opts.Threshold {
			matches = append(matches, Match{
				Start: seg.Start,
				End:   seg.End,
				Text:  seg.Text,
				Score: score,
				Exact: exact,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Start < matches[j].Start
	})
	if len(matches) > opts.MaxMatches {
		matches = matches[:opts.MaxMatches]
	}
	return matches
}

// Score returns the similarity of query to segmentText on a 0 to 100
// scale, and whether the match was an exact case-insensitive substring
// of the raw segment text.
func Score(query, segmentText string) (float64, bool) {
	q := strings.TrimSpace(query)
	if q == "" || strings.TrimSpace(segmentText) == "" {
		return 0, false
	}

	if strings.Contains(strings.ToLower(segmentText), strings.ToLower(q)) {
		return 100, true
	}

	qTokens := tokens(q)
	sTokens := tokens(segmentText)
	if len(qTokens) == 0 || len(sTokens) == 0 {
		return 0, false
	}

	normQuery := strings.Join(qTokens, " ")
	qLen := len(qTokens)

	// Window sizes close to the query length, nearest first.
	var windowSizes []int
	for _, delta := range []int{0, 1, -1, 2, -2, 3} {
		if size := qLen + delta; size >= 1 {
			windowSizes = append(windowSizes, size)
		}
	}

	best := 0.0
	for _, windowSize := range windowSizes {
		if windowSize > len(sTokens) {
			continue
		}
		for i := 0; i+windowSize <= len(sTokens); i++ {
			window := strings.Join(sTokens[i:i+windowSize], " ")
			if r := ratio(normQuery, window); r > best {
				best = r
			}
			if best >= 95 {
				return best, false
			}
		}
	}

	// Fall back to the whole segment.
	if r := ratio(normQuery, strings.Join(sTokens, " ")); r > best {
		best = r
	}
	return best, false
}

// tokens splits text into lowercase word tokens (letters, digits and
// underscore), dropping punctuation.
func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// ratio computes the Ratcliff/Obershelp similarity of two strings on a
// 0 to 100 scale: twice the number of matching characters over the
// total length of both strings.
func ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	m := newMatcher([]rune(a), []rune(b))
	matched := m.matchTotal(0, len(m.a), 0, len(m.b))
	return 200 * float64(matched) / float64(len(m.a)+len(m.b))
}

type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	return &matcher{a: a, b: b, b2j: b2j}
}

// matchTotal counts the characters covered by recursively taking the
// longest matching block and matching to its left and right.
func (m *matcher) matchTotal(alo, ahi, blo, bhi int) int {
	i, j, k := m.longestMatch(alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	return k + m.matchTotal(alo, i, blo, j) + m.matchTotal(i+k, ahi, j+k, bhi)
}

// longestMatch finds the longest matching block of a[alo:ahi] and
// b[blo:bhi], preferring the earliest block on ties.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}
	return besti, bestj, bestsize
}
