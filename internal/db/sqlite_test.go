package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-stream/transcript-studio/internal/auth"
	"github.com/video-stream/transcript-studio/internal/db/models"
)

func TestEnsureAdmin(t *testing.T) {
	d, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.EnsureAdmin("admin", "pw"))
	require.NoError(t, d.EnsureAdmin("other", "pw2"), "second call is a no-op")

	u, err := d.GetUserByUsername("admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, auth.CheckPassword("pw", u.Password))

	byID, err := d.GetUserByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", byID.Username)

	_, err = d.GetUserByUsername("other")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
