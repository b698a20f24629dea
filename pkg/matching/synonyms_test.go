package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynonymSymmetry(t *testing.T) {
	pairs := [][2]string{{"golang", "go"}, {"javascript", "js"}, {"typescript", "ts"}}
	for _, p := range pairs {
		assert.True(t, AddSynonyms(NewTokenSet(p[0])).Has(p[1]), "%s -> %s", p[0], p[1])
		assert.True(t, AddSynonyms(NewTokenSet(p[1])).Has(p[0]), "%s -> %s", p[1], p[0])
	}
}

func TestAddSynonymsDoesNotMutateInput(t *testing.T) {
	in := NewTokenSet("js", "react")
	out := AddSynonyms(in)

	assert.Equal(t, 2, in.Len())
	assert.Equal(t, []string{"javascript", "js", "react"}, out.Sorted())
}

func TestSynonymsReturnsCopy(t *testing.T) {
	syns := Synonyms("go")
	syns[0] = "changed"
	assert.Equal(t, []string{"golang"}, Synonyms("go"))
	assert.Empty(t, Synonyms("react"))
}

func TestMatchesGoal(t *testing.T) {
	goals := []string{"Golang", "Machine Learning"}

	assert.True(t, MatchesGoal(goals, "go"))
	assert.True(t, MatchesGoal(goals, "GoLang"))
	assert.True(t, MatchesGoal(goals, "machine-learning"))
	assert.False(t, MatchesGoal(goals, "rust"))
	assert.True(t, MatchesGoal(goals, ""))
	assert.False(t, MatchesGoal(nil, "go"))
}
