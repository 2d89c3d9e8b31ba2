package campman_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/campman/pkg/campman"
	"github.com/mesh-intelligence/campman/pkg/types"
)

func TestCreateNewThenOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "war.db")

	s, err := campman.CreateNew(ctx, path)
	require.NoError(t, err)
	aria, err := s.Subjects().Insert(ctx, types.Subject{Name: "Aria"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = campman.CreateNew(ctx, path)
	assert.ErrorIs(t, err, types.ErrFileExists)

	s, err = campman.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	var subjects *campman.Table[types.Subject] = s.Subjects()
	got, err := subjects.GetByName(ctx, "Aria")
	require.NoError(t, err)
	assert.Equal(t, aria, got)
}

func TestImport_NoManifest(t *testing.T) {
	_, _, err := campman.Import(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorIs(t, err, campman.ErrNoManifest)
}
