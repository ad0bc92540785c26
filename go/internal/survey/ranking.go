package survey

import (
	"errors"
	"fmt"
)

// MaxRank is how many peers a participant ranks per question.
const MaxRank = 3

var (
	// ErrInvalidRank is returned for ranks outside 1..MaxRank.
	ErrInvalidRank = errors.New("rank out of range")

	// ErrEmptyMember is returned when assigning a blank member id.
	ErrEmptyMember = errors.New("member id is required")
)

// Ranking is one question's rank-to-member assignment. Each rank holds at
// most one member and each member holds at most one rank: assigning a
// member already ranked elsewhere moves them, and assigning to an occupied
// rank replaces the previous holder.
type Ranking struct {
	selections map[int]string
}

func NewRanking() *Ranking {
	return &Ranking{selections: make(map[int]string)}
}

func (r *Ranking) Assign(rank int, memberID string) error {
	if rank < 1 || rank > MaxRank {
		return fmt.Errorf("%w: %d", ErrInvalidRank, rank)
	}
	if memberID == "" {
		return ErrEmptyMember
	}

	for existingRank, id := range r.selections {
		if id == memberID {
			delete(r.selections, existingRank)
			break
		}
	}
	r.selections[rank] = memberID
	return nil
}

// Remove clears one rank.
func (r *Ranking) Remove(rank int) {
	delete(r.selections, rank)
}

func (r *Ranking) MemberAt(rank int) (string, bool) {
	id, ok := r.selections[rank]
	return id, ok
}

func (r *Ranking) RankOf(memberID string) (int, bool) {
	for rank, id := range r.selections {
		if id == memberID {
			return rank, true
		}
	}
	return 0, false
}

func (r *Ranking) Empty() bool {
	return len(r.selections) == 0
}

// Selections returns a copy of the rank-to-member map.
func (r *Ranking) Selections() map[int]string {
	out := make(map[int]string, len(r.selections))
	for rank, id := range r.selections {
		out[rank] = id
	}
	return out
}
