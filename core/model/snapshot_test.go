package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotUsers(t *testing.T) {
	t.Run("Lookup Is Case Insensitive", func(t *testing.T) {
		snap := NewSnapshot()
		require.NoError(t, snap.AddUser(NewUser("Alice.Smith"), DuplicateError))

		assert.True(t, snap.HasUser("alice.smith"))
		assert.True(t, snap.HasUser("ALICE.SMITH"))
		assert.Equal(t, "Alice.Smith", snap.User("alice.smith").Name)
	})

	t.Run("Duplicate Policies", func(t *testing.T) {
		fresh := func() *Snapshot {
			snap := NewSnapshot()
			original := NewUser("alice")
			original.Email = "original@example.com"
			original.AddGroup("analysts")
			require.NoError(t, snap.AddUser(original, DuplicateError))
			return snap
		}

		replacement := func() *User {
			u := NewUser("Alice")
			u.Email = "replacement@example.com"
			u.AddGroup("admins")
			return u
		}

		snap := fresh()
		assert.Error(t, snap.AddUser(replacement(), DuplicateError))

		snap = fresh()
		require.NoError(t, snap.AddUser(replacement(), DuplicateIgnore))
		assert.Equal(t, "original@example.com", snap.User("alice").Email)

		snap = fresh()
		require.NoError(t, snap.AddUser(replacement(), DuplicateOverwrite))
		assert.Equal(t, "replacement@example.com", snap.User("alice").Email)
		assert.Equal(t, []string{"admins"}, snap.User("alice").GroupNames)

		snap = fresh()
		require.NoError(t, snap.AddUser(replacement(), DuplicateMerge))
		assert.Equal(t, "replacement@example.com", snap.User("alice").Email)
		assert.ElementsMatch(t, []string{"admins", "analysts"}, snap.User("alice").GroupNames)
	})

	t.Run("Preserves Insertion Order", func(t *testing.T) {
		snap := NewSnapshot()
		for _, name := range []string{"zoe", "alice", "mallory"} {
			require.NoError(t, snap.AddUser(NewUser(name), DuplicateError))
		}

		var names []string
		for _, u := range snap.Users() {
			names = append(names, u.Name)
		}
		assert.Equal(t, []string{"zoe", "alice", "mallory"}, names)
	})

	t.Run("Rejects Nameless User", func(t *testing.T) {
		snap := NewSnapshot()
		assert.Error(t, snap.AddUser(NewUser("   "), DuplicateError))
		assert.Error(t, snap.AddUser(nil, DuplicateError))
	})

	t.Run("Remove Returns The Entry", func(t *testing.T) {
		snap := NewSnapshot()
		require.NoError(t, snap.AddUser(NewUser("alice"), DuplicateError))

		removed := snap.RemoveUser("ALICE")
		require.NotNil(t, removed)
		assert.Equal(t, "alice", removed.Name)
		assert.Equal(t, 0, snap.UserCount())
		assert.Nil(t, snap.RemoveUser("alice"))
	})
}

func TestSnapshotGroups(t *testing.T) {
	t.Run("Lookup Is Case Sensitive", func(t *testing.T) {
		snap := NewSnapshot()
		require.NoError(t, snap.AddGroup(NewGroup("Analysts"), DuplicateError))

		assert.True(t, snap.HasGroup("Analysts"))
		assert.False(t, snap.HasGroup("analysts"))
	})

	t.Run("Merge Unions Supergroups Into Existing", func(t *testing.T) {
		snap := NewSnapshot()
		original := NewGroup("analysts")
		original.AddGroup("staff")
		require.NoError(t, snap.AddGroup(original, DuplicateError))

		incoming := NewGroup("analysts")
		incoming.AddGroup("contractors")
		require.NoError(t, snap.AddGroup(incoming, DuplicateMerge))

		assert.ElementsMatch(t, []string{"staff", "contractors"}, snap.Group("analysts").GroupNames)
	})
}

func TestSnapshotIDIndex(t *testing.T) {
	snap := NewSnapshot()
	alice := NewUser("alice")
	alice.ID = "u-1"
	require.NoError(t, snap.AddUser(alice, DuplicateError))

	name, ok := snap.UserNameByID("u-1")
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	// The index rebuilds after a mutation.
	bob := NewUser("bob")
	bob.ID = "u-2"
	require.NoError(t, snap.AddUser(bob, DuplicateError))

	name, ok = snap.UserNameByID("u-2")
	require.True(t, ok)
	assert.Equal(t, "bob", name)

	_, ok = snap.GroupNameByID("g-404")
	assert.False(t, ok)
}

func TestSnapshotValidate(t *testing.T) {
	t.Run("Clean Snapshot Has No Issues", func(t *testing.T) {
		snap := NewSnapshot()
		require.NoError(t, snap.AddGroup(NewGroup("analysts"), DuplicateError))
		alice := NewUser("alice")
		alice.AddGroup("analysts")
		require.NoError(t, snap.AddUser(alice, DuplicateError))

		assert.Empty(t, snap.Validate())
	})

	t.Run("Reports Every Dangling Reference", func(t *testing.T) {
		snap := NewSnapshot()
		alice := NewUser("alice")
		alice.AddGroup("nowhere")
		require.NoError(t, snap.AddUser(alice, DuplicateError))

		orphan := NewGroup("orphan")
		orphan.AddGroup("missing-parent")
		require.NoError(t, snap.AddGroup(orphan, DuplicateError))

		issues := snap.Validate()
		require.Len(t, issues, 2)
		assert.Contains(t, issues[0], "nowhere")
		assert.Contains(t, issues[1], "missing-parent")
	})
}
