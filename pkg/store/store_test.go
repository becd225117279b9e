package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/flattree/pkg/loader"
	"github.com/vanderheijden86/flattree/pkg/model"
	"github.com/vanderheijden86/flattree/pkg/tree"
)

func sampleElements() []loader.Element {
	return []loader.Element{
		{ID: 0, Depth: -1, Payload: model.Item{Title: "Plan", Kind: model.KindFolder}},
		{ID: 1, Depth: 0, Payload: model.Item{Title: "Work", Kind: model.KindFolder}},
		{ID: 4, Depth: 1, Name: "renamed", Payload: model.Item{Title: "Report", Kind: model.KindTask, Priority: 2, Tags: []string{"q3"}}},
		{ID: 2, Depth: 0, Payload: model.Item{Title: "Home", Notes: "fix the sink"}},
	}
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "outlines.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Save(ctx, "plan", sampleElements()))

	got, err := s.Load(ctx, "plan")
	require.NoError(t, err)
	require.Equal(t, sampleElements(), got)

	_, err = tree.New(got)
	require.NoError(t, err)
}

func TestSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Save(ctx, "plan", sampleElements()))
	shorter := sampleElements()[:2]
	require.NoError(t, s.Save(ctx, "plan", shorter))

	got, err := s.Load(ctx, "plan")
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestLoadMissing(t *testing.T) {
	s := openTemp(t)
	_, err := s.Load(context.Background(), "nope")
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Save(ctx, "a", sampleElements()))
	require.NoError(t, s.Save(ctx, "b", sampleElements()[:1]))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	counts := map[string]int{}
	for _, sum := range list {
		counts[sum.Name] = sum.Elements
		require.Equal(t, "Plan", sum.Title)
		require.False(t, sum.Updated.IsZero())
	}
	require.Equal(t, map[string]int{"a": 4, "b": 1}, counts)

	require.NoError(t, s.Delete(ctx, "a"))
	require.True(t, errors.Is(s.Delete(ctx, "a"), ErrNotFound))

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "b", list[0].Name)
}

func TestSaveRequiresName(t *testing.T) {
	s := openTemp(t)
	require.Error(t, s.Save(context.Background(), "", sampleElements()))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "outlines.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "plan", sampleElements()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, "plan")
	require.NoError(t, err)
	require.Len(t, got, 4)
}
