package catalog

import (
	"sort"
	"strings"

	"golang.org/x/exp/slices"
)

var difficultyOrder = map[string]int{
	"入门":    0,
	"基础":    1,
	"中级":    2,
	"困难":    3,
	"UNKNOWN": 4,
}

func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return a.Day - b.Day
	})
}

// SortByDifficulty orders entries from easiest to hardest, keeping day order
// within a difficulty. Unknown difficulties sort last.
func SortByDifficulty(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if diff := CompareDifficulty(a.Difficulty, b.Difficulty); diff != 0 {
			return diff < 0
		}
		return a.Day < b.Day
	})
}

func CompareDifficulty(a, b string) int {
	ai, aok := difficultyOrder[strings.TrimSpace(a)]
	bi, bok := difficultyOrder[strings.TrimSpace(b)]
	if !aok {
		ai = difficultyOrder["UNKNOWN"]
	}
	if !bok {
		bi = difficultyOrder["UNKNOWN"]
	}
	if ai == bi {
		return 0
	}
	if ai < bi {
		return -1
	}
	return 1
}
