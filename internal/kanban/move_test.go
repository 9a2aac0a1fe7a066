package kanban

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/apperr"
	"kanban/internal/events"
	"kanban/internal/models"
	"kanban/internal/storage"
)

func TestMove_CrossBoardReindexesBothSides(t *testing.T) {
	f := newFixture(t, true)
	a := f.board("To Do")
	b := f.board("In Progress")
	f.card(a.ID, "a0")
	a1 := f.card(a.ID, "a1")
	f.card(a.ID, "a2")
	f.card(b.ID, "b0")
	f.card(b.ID, "b1")

	res := f.move(a1.ID, b.ID, 1)
	assert.True(t, res.Moved)
	assert.Equal(t, b.ID, res.Card.BoardID)
	assert.Equal(t, 1, res.Card.Position)

	if diff := cmp.Diff([]string{"a0", "a2"}, f.layout(a.ID)); diff != "" {
		t.Errorf("source layout (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b0", "a1", "b1"}, f.layout(b.ID)); diff != "" {
		t.Errorf("target layout (-want +got):\n%s", diff)
	}
	f.requireDense(a.ID)
	f.requireDense(b.ID)
}

func TestMove_WithinBoard(t *testing.T) {
	f := newFixture(t, true)
	a := f.board("To Do")
	c0 := f.card(a.ID, "c0")
	f.card(a.ID, "c1")
	f.card(a.ID, "c2")
	c3 := f.card(a.ID, "c3")

	f.move(c0.ID, a.ID, 2)
	assert.Equal(t, []string{"c1", "c2", "c0", "c3"}, f.layout(a.ID))
	f.requireDense(a.ID)

	f.move(c3.ID, a.ID, 0)
	assert.Equal(t, []string{"c3", "c1", "c2", "c0"}, f.layout(a.ID))
	f.requireDense(a.ID)

	// Positions past the end clamp to the last slot.
	f.move(c3.ID, a.ID, 99)
	assert.Equal(t, []string{"c1", "c2", "c0", "c3"}, f.layout(a.ID))
	f.requireDense(a.ID)
}

func TestMove_ToEmptyBoardClamps(t *testing.T) {
	f := newFixture(t, true)
	a := f.board("To Do")
	b := f.board("In Progress")
	c := f.card(a.ID, "c")

	res := f.move(c.ID, b.ID, 5)
	assert.Equal(t, 0, res.Card.Position)
	assert.Empty(t, f.layout(a.ID))
	assert.Equal(t, []string{"c"}, f.layout(b.ID))
}

func TestMove_SamePlaceIsNoop(t *testing.T) {
	f := newFixture(t, true)
	a := f.board("To Do")
	f.card(a.ID, "c0")
	c1 := f.card(a.ID, "c1")
	before := f.board("To Do")
	published := len(f.events.types())

	res := f.move(c1.ID, a.ID, 1)
	assert.False(t, res.Moved)
	assert.Equal(t, 1, res.Card.Position)
	assert.Equal(t, []string{"c0", "c1"}, f.layout(a.ID))
	assert.Equal(t, before.Version, f.board("To Do").Version, "no-op must not bump the board version")
	assert.Len(t, f.events.types(), published)
}

func TestMove_SamePlaceIsNoop_LegacyGap(t *testing.T) {
	f := newFixture(t, false)
	todo := f.board("To Do")
	a := f.card(todo.ID, "a")
	b := f.card(todo.ID, "b")
	f.card(todo.ID, "c")
	require.NoError(t, f.svc.DeleteCard(f.ctx, f.member.ID, f.project.ID, a.ID))
	require.Equal(t, []int{1, 2}, f.positions(todo.ID))

	before := f.board("To Do")
	published := len(f.events.types())

	res := f.move(b.ID, todo.ID, b.Position)
	assert.False(t, res.Moved)
	assert.Equal(t, 1, res.Card.Position)
	assert.Equal(t, []string{"b", "c"}, f.layout(todo.ID))
	assert.Equal(t, []int{1, 2}, f.positions(todo.ID))
	assert.Equal(t, before.Version, f.board("To Do").Version)
	assert.Len(t, f.events.types(), published)
}

func TestMove_CompletionInference(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	done := f.board("Done")
	c := f.card(todo.ID, "task")
	require.Nil(t, c.CompletedAt)

	first := f.clock.Now()
	res := f.move(c.ID, done.ID, 0)
	require.NotNil(t, res.Card.CompletedAt)
	assert.True(t, res.Card.CompletedAt.Equal(first))

	// Reordering inside a completed board keeps the stamp.
	f.card(done.ID, "other")
	f.clock.Advance(time.Hour)
	res = f.move(c.ID, done.ID, 1)
	require.True(t, res.Moved)
	require.NotNil(t, res.Card.CompletedAt)
	assert.True(t, res.Card.CompletedAt.Equal(first))

	res = f.move(c.ID, todo.ID, 0)
	assert.Nil(t, res.Card.CompletedAt)

	f.clock.Advance(time.Hour)
	res = f.move(c.ID, done.ID, 0)
	require.NotNil(t, res.Card.CompletedAt)
	assert.True(t, res.Card.CompletedAt.Equal(f.clock.Now()))
}

func TestMove_CompletionTitleVariants(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	c := f.card(todo.ID, "task")

	for _, title := range []string{"done", "Completed", "COMPLETED"} {
		b, err := f.svc.CreateBoard(f.ctx, f.member.ID, f.project.ID, BoardInput{Title: title})
		require.NoError(t, err)
		res := f.move(c.ID, b.ID, 0)
		assert.NotNil(t, res.Card.CompletedAt, "board %q", title)
		res = f.move(c.ID, todo.ID, 0)
		assert.Nil(t, res.Card.CompletedAt)
	}

	review, err := f.svc.CreateBoard(f.ctx, f.member.ID, f.project.ID, BoardInput{Title: "Done-ish"})
	require.NoError(t, err)
	res := f.move(c.ID, review.ID, 0)
	assert.Nil(t, res.Card.CompletedAt)
}

func TestMove_TerminalFlagOverridesTitle(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	done := f.board("Done")
	yes, no := true, false

	shipped, err := f.svc.CreateBoard(f.ctx, f.member.ID, f.project.ID, BoardInput{Title: "Shipped", IsTerminal: &yes})
	require.NoError(t, err)
	_, err = f.svc.UpdateBoard(f.ctx, f.member.ID, f.project.ID, done.ID, BoardPatch{IsTerminal: &no})
	require.NoError(t, err)

	c := f.card(todo.ID, "task")
	res := f.move(c.ID, shipped.ID, 0)
	assert.NotNil(t, res.Card.CompletedAt)
	res = f.move(c.ID, done.ID, 0)
	assert.Nil(t, res.Card.CompletedAt)
}

func TestMove_ExplicitCompletedAtSurvivesUntilMove(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	progress := f.board("In Progress")
	c := f.card(todo.ID, "task")

	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	edited, err := f.svc.EditCard(f.ctx, f.member.ID, f.project.ID, c.ID, CardPatch{
		CardUpdate: storage.CardUpdate{CompletedAt: models.OptionalTime{Set: true, Value: &stamp}},
	})
	require.NoError(t, err)
	require.NotNil(t, edited.CompletedAt)

	res := f.move(c.ID, progress.ID, 0)
	assert.Nil(t, res.Card.CompletedAt)
}

func TestMove_Errors(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	c := f.card(todo.ID, "task")

	other, err := f.svc.CreateProject(f.ctx, f.owner.ID, "Other")
	require.NoError(t, err)
	otherBoards, err := f.svc.ListBoards(f.ctx, f.owner.ID, other.ID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		actor int64
		req   MoveRequest
		kind  apperr.Kind
	}{
		{"negative position", f.member.ID, MoveRequest{CardID: c.ID, TargetBoardID: todo.ID, NewPosition: -1}, apperr.KindValidation},
		{"unknown card", f.member.ID, MoveRequest{CardID: 9999, TargetBoardID: todo.ID}, apperr.KindNotFound},
		{"unknown board", f.member.ID, MoveRequest{CardID: c.ID, TargetBoardID: 9999}, apperr.KindNotFound},
		{"cross project board", f.member.ID, MoveRequest{CardID: c.ID, TargetBoardID: otherBoards[0].ID}, apperr.KindValidation},
		{"viewer", f.viewer.ID, MoveRequest{CardID: c.ID, TargetBoardID: todo.ID}, apperr.KindForbidden},
		{"outsider", f.outsider.ID, MoveRequest{CardID: c.ID, TargetBoardID: todo.ID}, apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.MoveCard(f.ctx, tt.actor, f.project.ID, tt.req)
			requireKind(t, err, tt.kind)
		})
	}

	require.NoError(t, f.svc.DeleteCard(f.ctx, f.member.ID, f.project.ID, c.ID))
	_, err = f.svc.MoveCard(f.ctx, f.member.ID, f.project.ID, MoveRequest{CardID: c.ID, TargetBoardID: todo.ID})
	requireKind(t, err, apperr.KindNotFound)
}

func TestMove_CompanyAdminBypassesMembership(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	done := f.board("Done")
	c := f.card(todo.ID, "task")

	res, err := f.svc.MoveCard(f.ctx, f.admin.ID, f.project.ID, MoveRequest{CardID: c.ID, TargetBoardID: done.ID})
	require.NoError(t, err)
	assert.Equal(t, done.ID, res.Card.BoardID)
}

func TestMove_ExpectedVersion(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	done := f.board("Done")
	c1 := f.card(todo.ID, "one")
	c2 := f.card(todo.ID, "two")

	stale := f.board("Done").Version
	f.move(c1.ID, done.ID, 0)

	_, err := f.svc.MoveCard(f.ctx, f.member.ID, f.project.ID, MoveRequest{
		CardID:          c2.ID,
		TargetBoardID:   done.ID,
		ExpectedVersion: &stale,
	})
	requireKind(t, err, apperr.KindConflict)
	assert.Equal(t, []string{"two"}, f.layout(todo.ID), "conflict must not write")

	fresh := f.board("Done").Version
	res, err := f.svc.MoveCard(f.ctx, f.member.ID, f.project.ID, MoveRequest{
		CardID:          c2.ID,
		TargetBoardID:   done.ID,
		NewPosition:     1,
		ExpectedVersion: &fresh,
	})
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, []string{"one", "two"}, f.layout(done.ID))
}

func TestMove_PreservesIdentityAndAssignees(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	done := f.board("Done")
	c, err := f.svc.CreateCard(f.ctx, f.member.ID, f.project.ID, CardInput{
		BoardID:     todo.ID,
		Title:       "task",
		AssigneeIDs: []int64{f.member.ID, f.owner.ID},
	})
	require.NoError(t, err)

	res := f.move(c.ID, done.ID, 0)
	assert.Equal(t, c.ID, res.Card.ID)
	assert.ElementsMatch(t, c.AssigneeIDs, res.Card.AssigneeIDs)
}

func TestMove_PublishesAfterCommit(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	done := f.board("Done")
	c := f.card(todo.ID, "task")

	f.move(c.ID, done.ID, 0)
	types := f.events.types()
	require.NotEmpty(t, types)
	assert.Equal(t, events.CardMoved, types[len(types)-1])
}

func TestMove_ConcurrentMovesStayDense(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	progress := f.board("In Progress")
	done := f.board("Done")
	boards := []int64{todo.ID, progress.ID, done.ID}

	var cards []models.Card
	for i := 0; i < 12; i++ {
		cards = append(cards, f.card(boards[i%3], "c"))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(cards)*4)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i, c := range cards {
				_, err := f.svc.MoveCard(f.ctx, f.member.ID, f.project.ID, MoveRequest{
					CardID:        c.ID,
					TargetBoardID: boards[(i+w)%3],
					NewPosition:   (i * w) % 5,
				})
				if err != nil && !apperr.Is(err, apperr.KindConflict) {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("move: %v", err)
	}

	total := 0
	for _, id := range boards {
		f.requireDense(id)
		total += len(f.positions(id))
	}
	assert.Equal(t, len(cards), total)
}

func TestScenario_TodoToDone(t *testing.T) {
	f := newFixture(t, true)
	todo := f.board("To Do")
	done := f.board("Done")
	t1 := f.card(todo.ID, "T1")
	f.card(todo.ID, "T2")
	f.card(done.ID, "D1")

	res := f.move(t1.ID, done.ID, 0)
	require.NotNil(t, res.Card.CompletedAt)
	stamp := *res.Card.CompletedAt
	assert.True(t, stamp.Equal(f.clock.Now()))

	assert.Equal(t, []string{"T2"}, f.layout(todo.ID))
	assert.Equal(t, []int{0}, f.positions(todo.ID))
	assert.Equal(t, []string{"T1", "D1"}, f.layout(done.ID))
	assert.Equal(t, []int{0, 1}, f.positions(done.ID))

	f.clock.Advance(time.Minute)
	again := f.move(t1.ID, done.ID, 0)
	assert.False(t, again.Moved)
	require.NotNil(t, again.Card.CompletedAt)
	assert.True(t, again.Card.CompletedAt.Equal(stamp))
	assert.Equal(t, []string{"T1", "D1"}, f.layout(done.ID))
}
