package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingAssign(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Assign(1, "alice"))
	require.NoError(t, r.Assign(2, "bob"))

	member, ok := r.MemberAt(1)
	require.True(t, ok)
	assert.Equal(t, "alice", member)

	rank, ok := r.RankOf("bob")
	require.True(t, ok)
	assert.Equal(t, 2, rank)
	assert.False(t, r.Empty())
}

func TestRankingAssignMovesMember(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Assign(1, "alice"))
	require.NoError(t, r.Assign(3, "alice"))

	_, ok := r.MemberAt(1)
	assert.False(t, ok, "old rank should be vacated")
	rank, ok := r.RankOf("alice")
	require.True(t, ok)
	assert.Equal(t, 3, rank)
}

func TestRankingAssignReplacesHolder(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Assign(2, "alice"))
	require.NoError(t, r.Assign(2, "bob"))

	member, ok := r.MemberAt(2)
	require.True(t, ok)
	assert.Equal(t, "bob", member)
	_, ok = r.RankOf("alice")
	assert.False(t, ok, "displaced member should be unranked")
}

func TestRankingAssignValidation(t *testing.T) {
	r := NewRanking()
	assert.ErrorIs(t, r.Assign(0, "alice"), ErrInvalidRank)
	assert.ErrorIs(t, r.Assign(MaxRank+1, "alice"), ErrInvalidRank)
	assert.ErrorIs(t, r.Assign(1, ""), ErrEmptyMember)
	assert.True(t, r.Empty())
}

func TestRankingRemove(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Assign(1, "alice"))
	r.Remove(1)
	assert.True(t, r.Empty())

	// Removing a vacant rank is a no-op.
	r.Remove(2)
}

func TestRankingSelectionsIsCopy(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Assign(1, "alice"))

	selections := r.Selections()
	selections[1] = "mallory"

	member, _ := r.MemberAt(1)
	assert.Equal(t, "alice", member)
}
