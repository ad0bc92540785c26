package survey

import (
	"unicode/utf16"

	"github.com/mcdev12/gdsync/go/internal/models"
)

// Question order is shuffled per participant so rank bias spreads across
// the group without any server-side coordination: the seed is derived
// deterministically from (user, session), so the same participant always
// sees the same order and different participants see different ones.

const (
	seedModulus = 1000000
	lcgMul      = 9301
	lcgInc      = 49297
	lcgMod      = 233280
)

// Seed derives the numeric shuffle seed from a user and session id. The
// hash runs over UTF-16 code units, so ids with characters outside the
// BMP contribute one term per surrogate half.
func Seed(userID, sessionID string) int64 {
	key := userID + "-" + sessionID
	var seed int64
	for _, u := range utf16.Encode([]rune(key)) {
		seed = (seed*31 + int64(u)) % seedModulus
	}
	return seed
}

// lcg is the fixed linear-congruential generator behind the shuffle. The
// recurrence is part of the contract; changing it changes every
// participant's question order.
type lcg struct {
	seed int64
}

// newLCG normalizes the seed into [0, lcgMod). Reducing first leaves the
// recurrence unchanged for non-negative seeds and keeps next() in [0, 1)
// for negative ones.
func newLCG(seed int64) *lcg {
	seed %= lcgMod
	if seed < 0 {
		seed += lcgMod
	}
	return &lcg{seed: seed}
}

func (g *lcg) next() float64 {
	g.seed = (g.seed*lcgMul + lcgInc) % lcgMod
	return float64(g.seed) / lcgMod
}

// Shuffle returns a seeded Fisher-Yates permutation of the questions.
// The input slice is not modified.
func Shuffle(questions []models.Question, seed int64) []models.Question {
	shuffled := append([]models.Question(nil), questions...)
	g := newLCG(seed)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(g.next() * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
