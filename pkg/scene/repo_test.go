package scene

import (
	"os"
	"path/filepath"
	"testing"

	"awarego/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTextScene(t *testing.T) {
	repo := NewRepository("testdata")

	s, err := repo.LoadTextScene("text_scene_01")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Chapter)
	assert.Equal(t, "text_scene_01", s.SceneID)
	require.Len(t, s.Nodes, 4)

	// Kinds resolved at load time.
	assert.Equal(t, model.NodeKindMessage, s.Nodes[0].Kind)
	assert.Equal(t, model.NodeKindPlayerChoice, s.Nodes[1].Kind)
	assert.Equal(t, model.NodeKindSystemEvent, s.Nodes[2].Kind)
	assert.Equal(t, model.EventTransitionToEncounter, s.Nodes[3].SystemEvent)

	opts := s.Nodes[1].Options
	require.Len(t, opts, 2)
	assert.Equal(t, "curious", opts[0].OptionID)
	assert.Equal(t, 2, opts[0].Points)
	assert.Len(t, opts[0].BranchMessages, 1)
}

func TestLoadEncounter(t *testing.T) {
	repo := NewRepository("testdata")

	e, err := repo.LoadEncounter("encounter_01")
	require.NoError(t, err)

	assert.Equal(t, "encounter_01", e.SceneID)
	assert.NotEmpty(t, e.Location.Resolve(model.LangEnglish))
	require.Len(t, e.Nodes, 4)
	assert.Equal(t, model.NodeKindNarrative, e.Nodes[0].Kind)
	assert.Equal(t, model.NodeKindDialogue, e.Nodes[1].Kind)

	assert.Equal(t, 14, e.Endings.Good.Threshold)
	assert.Equal(t, 8, e.Endings.Neutral.Threshold)
	assert.Equal(t, 0, e.Endings.Bad.Threshold)
	assert.True(t, e.Endings.Ordered())
}

func TestLoadMissing(t *testing.T) {
	repo := NewRepository("testdata")

	_, err := repo.LoadTextScene("no_such_scene")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.LoadEncounter("no_such_scene")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0o644))

	repo := NewRepository(dir)
	_, err := repo.LoadTextScene("broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
