package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendPreservesOrder(t *testing.T) {
	s := NewStore()

	ids := []int{
		s.Append(1, RoleUser, "hello", true),
		s.Append(1, RoleAssistantInternal, "", false),
		s.Append(1, RoleAssistant, "", false),
	}
	assert.Equal(t, []int{0, 1, 2}, ids)

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, RoleUser, snap[0].Role)
	assert.Equal(t, "hello", snap[0].Content)
	assert.True(t, snap[0].Finalized)
	assert.Equal(t, RoleAssistantInternal, snap[1].Role)
	assert.Equal(t, RoleAssistant, snap[2].Role)
	for _, r := range snap {
		assert.Equal(t, uint64(1), r.Seq)
	}
}

func TestUpdateLatestUnfinalized(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(s *Store)
		role      Role
		wantFound bool
		wantIdx   int
	}{
		{
			name:      "empty store is a no-op",
			setup:     func(s *Store) {},
			role:      RoleAssistant,
			wantFound: false,
		},
		{
			name: "picks most recent open record",
			setup: func(s *Store) {
				s.Append(1, RoleAssistant, "", false)
				s.Append(2, RoleAssistant, "", false)
			},
			role:      RoleAssistant,
			wantFound: true,
			wantIdx:   1,
		},
		{
			name: "skips finalized records",
			setup: func(s *Store) {
				s.Append(1, RoleAssistant, "", false)
				s.Append(2, RoleAssistant, "done", true)
			},
			role:      RoleAssistant,
			wantFound: true,
			wantIdx:   0,
		},
		{
			name: "ignores other roles",
			setup: func(s *Store) {
				s.Append(1, RoleAssistantInternal, "", false)
			},
			role:      RoleAssistant,
			wantFound: false,
		},
		{
			name: "all finalized",
			setup: func(s *Store) {
				s.Append(1, RoleAssistant, "one", true)
				s.Append(2, RoleAssistant, "two", true)
			},
			role:      RoleAssistant,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			tt.setup(s)
			before := s.Snapshot()

			found := s.UpdateLatestUnfinalized(tt.role, "updated", false)
			assert.Equal(t, tt.wantFound, found)

			after := s.Snapshot()
			for i := range after {
				if tt.wantFound && i == tt.wantIdx {
					assert.Equal(t, "updated", after[i].Content)
					continue
				}
				assert.Equal(t, before[i], after[i], "record %d changed", i)
			}
		})
	}
}

func TestUpdateLatestUnfinalizedNeverTouchesFinalized(t *testing.T) {
	s := NewStore()
	s.Append(0, RoleAssistant, "final answer", true)

	assert.False(t, s.UpdateLatestUnfinalized(RoleAssistant, "late tick", false))
	assert.False(t, s.UpdateLatestUnfinalized(RoleAssistant, "late tick", true))

	snap := s.Snapshot()
	assert.Equal(t, "final answer", snap[0].Content)
	assert.True(t, snap[0].Finalized)
}

func TestFinalizedRecordIsNotSelectedAgain(t *testing.T) {
	s := NewStore()
	s.Append(1, RoleAssistant, "", false)

	require.True(t, s.UpdateLatestUnfinalized(RoleAssistant, "answer", true))
	assert.False(t, s.UpdateLatestUnfinalized(RoleAssistant, "stale", false))

	// A new placeholder reopens the role.
	s.Append(2, RoleAssistant, "", false)
	require.True(t, s.UpdateLatestUnfinalized(RoleAssistant, "second", false))

	snap := s.Snapshot()
	assert.Equal(t, "answer", snap[0].Content)
	assert.Equal(t, "second", snap[1].Content)
}

func TestUpdateByID(t *testing.T) {
	s := NewStore()
	first := s.Append(1, RoleAssistant, "", false)
	second := s.Append(2, RoleAssistant, "", false)

	assert.True(t, s.Update(first, "older", false))
	assert.True(t, s.Update(first, "older done", true))
	assert.False(t, s.Update(first, "stale", false))
	assert.False(t, s.Update(99, "x", false))
	assert.False(t, s.Update(-1, "x", false))

	r, ok := s.Get(second)
	require.True(t, ok)
	assert.Equal(t, "", r.Content, "newer placeholder must be untouched")

	r, _ = s.Get(first)
	assert.Equal(t, "older done", r.Content)
	assert.True(t, r.Finalized)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Append(0, RoleUser, "hi", true)

	snap := s.Snapshot()
	snap[0].Content = "mutated"

	assert.Equal(t, "hi", s.Snapshot()[0].Content)
}

func TestChangesSignal(t *testing.T) {
	s := NewStore()

	s.Append(0, RoleAssistant, "", false)
	select {
	case <-s.Changes():
	default:
		t.Fatal("expected change signal after append")
	}

	// Failed update must not notify.
	s.Append(0, RoleUser, "x", true)
	<-s.Changes()
	s.UpdateLatestUnfinalized(RoleAssistantInternal, "nobody", false)
	select {
	case <-s.Changes():
		t.Fatal("no-op update must not signal")
	default:
	}

	// Multiple mutations coalesce into one pending signal.
	s.UpdateLatestUnfinalized(RoleAssistant, "a", false)
	s.UpdateLatestUnfinalized(RoleAssistant, "a b", false)
	<-s.Changes()
	select {
	case <-s.Changes():
		t.Fatal("signals should coalesce")
	default:
	}

	assert.Equal(t, uint64(4), s.Revision())
}

func TestSinks(t *testing.T) {
	s := NewStore()
	id := s.Append(1, RoleAssistant, "", false)
	s.Append(2, RoleAssistant, "", false)

	assert.True(t, s.RecordSink(id).Apply("by id", true))
	assert.True(t, s.RoleSink(RoleAssistant).Apply("by role", false))

	snap := s.Snapshot()
	assert.Equal(t, "by id", snap[0].Content)
	assert.Equal(t, "by role", snap[1].Content)
}

func TestConcurrentAppendAndUpdate(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Append(0, RoleAssistant, "", false)
		}()
		go func() {
			defer wg.Done()
			s.UpdateLatestUnfinalized(RoleAssistant, "x", true)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap, 50)
	for i, r := range snap {
		assert.Equal(t, i, r.ID)
	}
}

func TestRole(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistantInternal.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
	assert.Equal(t, "Thoughts", RoleAssistantInternal.DisplayName())
	assert.Equal(t, "system", Role("system").DisplayName())
}
