package identitydb

import (
	"context"
	"testing"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/sync"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestReader_Read(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `user_groups`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "display_name", "description", "visibility"}).
			AddRow(1, "analysts", "Analysts", "People who analyze", "DEFAULT").
			AddRow(2, "admins", "Admins", "", "NON_SHARABLE"),
	)
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "display_name", "mail", "visibility"}).
			AddRow(1, "alice", "Alice", "alice@example.com", "DEFAULT").
			AddRow(2, "bob", "", "bob@example.com", ""),
	)
	mock.ExpectQuery("SELECT \\* FROM `memberships`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "group_name"}).
			AddRow(1, "alice", "analysts").
			AddRow(2, "alice", "admins").
			AddRow(3, "bob", "analysts"),
	)

	snap, err := NewReader(db, nil).Read(context.Background(), sync.Options{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 2, snap.UserCount())
	assert.Equal(t, 2, snap.GroupCount())
	assert.Empty(t, snap.Validate())

	alice := snap.User("alice")
	require.NotNil(t, alice)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.ElementsMatch(t, []string{"analysts", "admins"}, alice.GroupNames)

	// Empty display name falls back to the login name.
	assert.Equal(t, "bob", snap.User("bob").DisplayName)
	assert.Equal(t, model.VisibilityNonShareable, snap.Group("admins").Visibility)
}

func TestReader_Read_DanglingMembership(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `user_groups`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "display_name", "description", "visibility"}),
	)
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "display_name", "mail", "visibility"}).
			AddRow(1, "alice", "Alice", "", ""),
	)
	mock.ExpectQuery("SELECT \\* FROM `memberships`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "group_name"}).
			AddRow(1, "alice", "ghosts"),
	)

	_, err := NewReader(db, nil).Read(context.Background(), sync.Options{})
	assert.True(t, serrors.IsUnresolvedReference(err))
}

func TestReader_Read_NilDB(t *testing.T) {
	_, err := NewReader(nil, nil).Read(context.Background(), sync.Options{})
	assert.True(t, serrors.IsSourceUnavailable(err))
}
