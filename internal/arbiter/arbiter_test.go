package arbiter

import (
	"math/rand/v2"
	"testing"

	"github.com/abelbrown/animalbase/internal/entity"
	"github.com/abelbrown/animalbase/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func animal(id int, category string) entity.Record {
	return entity.Record{ID: id, Name: "animal", Type: category, Age: entity.IntPtr(1)}
}

func newArbiter(t *testing.T, records ...entity.Record) (*Arbiter, *store.Store) {
	t.Helper()
	st, err := store.New()
	require.NoError(t, err)
	summary, err := st.Load(records)
	require.NoError(t, err)
	require.Zero(t, summary.Skipped)
	return New(st, nil), st
}

func winnerIDs(st *store.Store) []int {
	var out []int
	for _, w := range st.Winners() {
		out = append(out, w.ID)
	}
	return out
}

func checkInvariant(t *testing.T, st *store.Store) {
	t.Helper()
	winners := st.Winners()
	require.LessOrEqual(t, len(winners), MaxWinners)
	seen := make(map[string]bool)
	for _, w := range winners {
		require.False(t, seen[w.Category], "two winners in category %s", w.Category)
		seen[w.Category] = true
	}
}

func TestPromoteDirectly(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "dog"))

	out, err := a.RequestWinner(1)
	require.NoError(t, err)
	assert.Equal(t, OutcomePromoted, out)
	assert.Equal(t, Idle, a.State())
	assert.Equal(t, []int{1}, winnerIDs(st))
}

func TestDemotionIsUnconditional(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "dog"), animal(3, "cow"))
	require.NoError(t, st.SetWinner(1, true))
	require.NoError(t, st.SetWinner(2, true))

	out, err := a.RequestWinner(2)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDemoted, out)
	assert.Equal(t, Idle, a.State())
	assert.Equal(t, []int{1}, winnerIDs(st))
}

func TestCapacityScenario(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "dog"), animal(3, "cat"), animal(4, "cat"))

	out, err := a.RequestWinner(1)
	require.NoError(t, err)
	assert.Equal(t, OutcomePromoted, out)

	out, err = a.RequestWinner(2)
	require.NoError(t, err)
	assert.Equal(t, OutcomePromoted, out)

	// 3 shares a category with winner 1, which takes precedence.
	out, err = a.RequestWinner(3)
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, out)
	assert.Equal(t, AwaitingCategoryConflict, a.State())

	require.NoError(t, a.Cancel())
	assert.Equal(t, []int{1, 2}, winnerIDs(st))
}

func TestCapacityConflictResolve(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "dog"), animal(3, "horse"))
	_, err := a.RequestWinner(1)
	require.NoError(t, err)
	_, err = a.RequestWinner(2)
	require.NoError(t, err)

	out, err := a.RequestWinner(3)
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, out)
	assert.Equal(t, AwaitingCapacityConflict, a.State())

	c, ok := a.Pending()
	require.True(t, ok)
	assert.Equal(t, 3, c.Candidate.ID)
	require.Len(t, c.Incumbents, 2)
	assert.Equal(t, 1, c.Incumbents[0].ID)
	assert.Equal(t, 2, c.Incumbents[1].ID)
	assert.Equal(t, []int{1, 2}, winnerIDs(st), "pending conflict must not mutate")

	require.NoError(t, a.ResolveCapacityConflict(1))
	assert.Equal(t, Idle, a.State())
	assert.Equal(t, []int{2, 3}, winnerIDs(st))
}

func TestCategoryConflictDeclined(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "dog"), animal(3, "cat"), animal(4, "cat"))
	require.NoError(t, st.SetWinner(2, true))
	require.NoError(t, st.SetWinner(3, true))

	out, err := a.RequestWinner(4)
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, out)

	c, ok := a.Pending()
	require.True(t, ok)
	assert.Equal(t, AwaitingCategoryConflict, c.State)
	assert.Equal(t, 4, c.Candidate.ID)
	require.Len(t, c.Incumbents, 1)
	assert.Equal(t, 3, c.Incumbents[0].ID)

	require.NoError(t, a.ResolveCategoryConflict(false))
	assert.Equal(t, Idle, a.State())
	assert.Equal(t, []int{2, 3}, winnerIDs(st))
}

func TestCategoryConflictAccepted(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "cat"))
	require.NoError(t, st.SetWinner(1, true))

	_, err := a.RequestWinner(2)
	require.NoError(t, err)
	require.NoError(t, a.ResolveCategoryConflict(true))

	assert.Equal(t, Idle, a.State())
	assert.Equal(t, []int{2}, winnerIDs(st))
}

func TestCategoryConflictPicksLowestIncumbent(t *testing.T) {
	a, st := newArbiter(t, animal(1, "dog"), animal(5, "cat"), animal(3, "cat"), animal(9, "cat"))
	// Force a state the arbiter never produces itself.
	require.NoError(t, st.SetWinner(5, true))
	require.NoError(t, st.SetWinner(3, true))

	_, err := a.RequestWinner(9)
	require.NoError(t, err)
	c, ok := a.Pending()
	require.True(t, ok)
	assert.Equal(t, 3, c.Incumbents[0].ID)
}

func TestInvalidChoiceKeepsConflict(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "dog"), animal(3, "cow"))
	require.NoError(t, st.SetWinner(1, true))
	require.NoError(t, st.SetWinner(2, true))
	_, err := a.RequestWinner(3)
	require.NoError(t, err)

	err = a.ResolveCapacityConflict(3)
	assert.ErrorIs(t, err, ErrInvalidChoice)
	assert.Equal(t, AwaitingCapacityConflict, a.State())
	assert.Equal(t, []int{1, 2}, winnerIDs(st))
}

func TestWrongResolution(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "cat"), animal(3, "dog"), animal(4, "cow"))

	assert.ErrorIs(t, a.ResolveCategoryConflict(true), ErrInvalidState)
	assert.ErrorIs(t, a.ResolveCapacityConflict(1), ErrInvalidState)
	assert.ErrorIs(t, a.Cancel(), ErrInvalidState)

	require.NoError(t, st.SetWinner(1, true))
	_, err := a.RequestWinner(2)
	require.NoError(t, err)
	assert.ErrorIs(t, a.ResolveCapacityConflict(1), ErrInvalidState)
	assert.Equal(t, AwaitingCategoryConflict, a.State())
	require.NoError(t, a.Cancel())

	require.NoError(t, st.SetWinner(3, true))
	_, err = a.RequestWinner(4)
	require.NoError(t, err)
	assert.ErrorIs(t, a.ResolveCategoryConflict(true), ErrInvalidState)
	assert.Equal(t, AwaitingCapacityConflict, a.State())
}

func TestRequestWhilePending(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "cat"), animal(3, "dog"))
	require.NoError(t, st.SetWinner(1, true))
	_, err := a.RequestWinner(2)
	require.NoError(t, err)

	_, err = a.RequestWinner(3)
	assert.ErrorIs(t, err, ErrConflictPending)
	// Demotion is rejected too while a conflict is open.
	_, err = a.RequestWinner(1)
	assert.ErrorIs(t, err, ErrConflictPending)
	assert.Equal(t, []int{1}, winnerIDs(st))

	c, _ := a.Pending()
	assert.Equal(t, 2, c.Candidate.ID)
}

func TestRequestUnknownID(t *testing.T) {
	a, _ := newArbiter(t, animal(1, "cat"))
	_, err := a.RequestWinner(42)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, Idle, a.State())
}

func TestCancelDoesNotMutate(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "cat"), animal(3, "dog"), animal(4, "cow"))
	require.NoError(t, st.SetWinner(1, true))

	_, err := a.RequestWinner(2)
	require.NoError(t, err)
	before := st.All()
	require.NoError(t, a.Cancel())
	assert.Equal(t, before, st.All())
	assert.Equal(t, Idle, a.State())

	require.NoError(t, st.SetWinner(3, true))
	_, err = a.RequestWinner(4)
	require.NoError(t, err)
	before = st.All()
	require.NoError(t, a.Cancel())
	assert.Equal(t, before, st.All())
	assert.Equal(t, Idle, a.State())
}

func TestReset(t *testing.T) {
	a, st := newArbiter(t, animal(1, "cat"), animal(2, "cat"))
	require.NoError(t, st.SetWinner(1, true))
	_, err := a.RequestWinner(2)
	require.NoError(t, err)

	a.Reset()
	assert.Equal(t, Idle, a.State())
	_, ok := a.Pending()
	assert.False(t, ok)
}

func TestInvariantUnderRandomSequences(t *testing.T) {
	categories := []string{"cat", "dog", "cow"}
	var records []entity.Record
	for i := 1; i <= 9; i++ {
		records = append(records, animal(i, categories[i%len(categories)]))
	}

	r := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 30; round++ {
		a, st := newArbiter(t, records...)
		for step := 0; step < 200; step++ {
			switch a.State() {
			case Idle:
				_, err := a.RequestWinner(r.IntN(9) + 1)
				require.NoError(t, err)
			case AwaitingCategoryConflict:
				if r.IntN(3) == 0 {
					require.NoError(t, a.Cancel())
				} else {
					require.NoError(t, a.ResolveCategoryConflict(r.IntN(2) == 0))
				}
			case AwaitingCapacityConflict:
				c, _ := a.Pending()
				switch r.IntN(3) {
				case 0:
					require.NoError(t, a.Cancel())
				case 1:
					assert.ErrorIs(t, a.ResolveCapacityConflict(c.Candidate.ID), ErrInvalidChoice)
				default:
					pick := c.Incumbents[r.IntN(len(c.Incumbents))].ID
					require.NoError(t, a.ResolveCapacityConflict(pick))
				}
			}
			checkInvariant(t, st)
		}
	}
}
