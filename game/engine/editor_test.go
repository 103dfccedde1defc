package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func editorSim(t *testing.T) *Simulation {
	t.Helper()
	return loadSim(t, newLevel("edit").layout("....", "....").build())
}

func TestPlaceTile_RoutesToHomeLayer(t *testing.T) {
	sim := editorSim(t)

	for _, tt := range AllTileTypes() {
		t.Run(string(tt), func(t *testing.T) {
			pos := at(1, 1)
			e, err := sim.PlaceTile(tt, pos, AllowsAll())
			require.NoError(t, err)
			assert.NotZero(t, e.ID)
			assert.Same(t, e, sim.grid.Get(tt.HomeLayer(), pos))
		})
	}
}

func TestPlaceTile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sim     func(t *testing.T) *Simulation
		tile    TileType
		pos     Position
		dirs    Directions
		wantErr error
	}{
		{name: "no level", sim: func(*testing.T) *Simulation { return NewSimulation() }, tile: Box, dirs: AllowsAll(), wantErr: ErrNoLevelLoaded},
		{name: "unknown type", sim: editorSim, tile: TileType("dragon"), dirs: AllowsAll(), wantErr: ErrUnknownTileType},
		{name: "object without directions", sim: editorSim, tile: Box, dirs: Directions{Pushable: true}, wantErr: ErrInsufficientDirections},
		{name: "outside bounds", sim: editorSim, tile: Wall, pos: at(9, 9), wantErr: ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := tt.sim(t)
			_, err := sim.PlaceTile(tt.tile, tt.pos, tt.dirs)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlaceTile_NonObjectsNeedNoDirections(t *testing.T) {
	sim := editorSim(t)
	_, err := sim.PlaceTile(Wall, at(0, 0), Directions{})
	assert.NoError(t, err)
}

func TestPlaceTile_ReplacesOccupant(t *testing.T) {
	sim := editorSim(t)
	first, err := sim.PlaceTile(Box, at(2, 0), AllowsAll())
	require.NoError(t, err)

	second, err := sim.PlaceTile(Circle, at(2, 0), AllowsAll())
	require.NoError(t, err)

	assert.Equal(t, 1, sim.grid.Count(LayerObject))
	assert.Same(t, second, objectAt(sim, 2, 0))

	require.True(t, sim.EditorUndo())
	assert.Same(t, first, objectAt(sim, 2, 0))
}

func TestRemoveTile_TopMostFirst(t *testing.T) {
	sim := editorSim(t)
	pos := at(1, 0)
	for _, tt := range []TileType{Wall, Area, Hazard, Box, Orb, NPC} {
		_, err := sim.PlaceTile(tt, pos, AllowsAll())
		require.NoError(t, err)
	}

	var removed []TileType
	for {
		e, err := sim.RemoveTile(pos)
		if err != nil {
			assert.ErrorIs(t, err, ErrNothingToRemove)
			break
		}
		removed = append(removed, e.Type)
	}

	assert.Equal(t, []TileType{NPC, Orb, Box, Hazard, Area, Wall}, removed)
}

func TestEditorHistory(t *testing.T) {
	sim := editorSim(t)
	assert.False(t, sim.EditorUndo())
	assert.False(t, sim.EditorRedo())

	e, err := sim.PlaceTile(Box, at(0, 1), AllowsAll())
	require.NoError(t, err)
	assert.True(t, sim.State().EditorUndoable)

	require.True(t, sim.EditorUndo())
	assert.Nil(t, objectAt(sim, 0, 1))
	assert.False(t, sim.EditorUndo(), "only one step is kept")

	require.True(t, sim.EditorRedo())
	assert.Same(t, e, objectAt(sim, 0, 1))
	assert.False(t, sim.EditorRedo())

	_, err = sim.RemoveTile(at(0, 1))
	require.NoError(t, err)
	assert.Nil(t, objectAt(sim, 0, 1))
	require.True(t, sim.EditorUndo())
	assert.Same(t, e, objectAt(sim, 0, 1))
}

func TestEditor_CustomText(t *testing.T) {
	sim := editorSim(t)
	pos := at(3, 1)

	_, err := sim.PlaceCustomTile(NPC, pos, Directions{}, "guide:hi")
	require.NoError(t, err)
	assert.Equal(t, "guide:hi", sim.grid.Text(pos))

	_, err = sim.RemoveTile(pos)
	require.NoError(t, err)
	assert.Empty(t, sim.grid.Text(pos))

	require.True(t, sim.EditorUndo())
	assert.Equal(t, "guide:hi", sim.grid.Text(pos))

	_, err = sim.PlaceCustomTile(Box, pos, AllowsAll(), "nope")
	assert.ErrorIs(t, err, ErrUnknownTileType)
}

func TestEditor_EditsSurviveReload(t *testing.T) {
	sim := editorSim(t)
	_, err := sim.PlaceTile(Box, at(0, 0), AllowsAll())
	require.NoError(t, err)
	_, err = sim.PlaceCustomTile(LevelTrigger, at(3, 0), Directions{}, "level-9")
	require.NoError(t, err)

	require.NoError(t, sim.ReloadLevel())

	assert.NotNil(t, objectAt(sim, 0, 0))
	assert.Equal(t, "level-9", sim.grid.Text(at(3, 0)))

	exported, err := sim.ExportLevel()
	require.NoError(t, err)
	require.Len(t, exported.Tiles.ObjectTiles, 1)
	assert.Equal(t, "box", exported.Tiles.ObjectTiles[0].Type)
	require.Len(t, exported.Tiles.CustomTileInfo, 1)
	assert.Equal(t, "level-9", exported.Tiles.CustomTileInfo[0].Text)
}

func TestEditor_EditDropsTickUndo(t *testing.T) {
	sim := loadSim(t, newLevel("edit").layout("B...").build())
	require.True(t, sim.ApplyMovement(Right).Moved)
	require.True(t, sim.IsUndoAvailable())

	_, err := sim.PlaceTile(Wall, at(3, 0), Directions{})
	require.NoError(t, err)

	assert.False(t, sim.IsUndoAvailable())
}

func TestEditor_MoveDropsEditHistory(t *testing.T) {
	sim := loadSim(t, newLevel("edit").
		layout("B..", "...").
		tile(Box, 0, 1, Directions{Up: true}).
		build())

	_, err := sim.PlaceTile(Box, at(0, 0), Directions{Right: true})
	require.NoError(t, err)
	require.True(t, sim.State().EditorUndoable)

	require.True(t, sim.ApplyMovement(Right).Moved)
	assert.False(t, sim.State().EditorUndoable)
	require.True(t, sim.ApplyMovement(Up).Moved)
	climber := objectAt(sim, 0, 0)
	require.NotNil(t, climber)

	assert.False(t, sim.EditorUndo())
	assert.False(t, sim.EditorRedo())
	assert.Len(t, sim.grid.All(LayerObject), 2)
	assert.Same(t, climber, objectAt(sim, 0, 0))
}

func TestEditor_BlockedTickKeepsEditHistory(t *testing.T) {
	sim := editorSim(t)
	_, err := sim.PlaceTile(Wall, at(1, 0), Directions{})
	require.NoError(t, err)

	require.False(t, sim.ApplyMovement(Right).Moved)
	require.True(t, sim.EditorUndo())
	assert.Nil(t, sim.grid.Get(LayerSolid, at(1, 0)))
}

func TestEditor_TickUndoDropsEditHistory(t *testing.T) {
	sim := loadSim(t, newLevel("edit").layout("....").build())
	_, err := sim.PlaceTile(Box, at(0, 0), AllowsAll())
	require.NoError(t, err)

	require.True(t, sim.ApplyMovement(Right).Moved)
	require.True(t, sim.Undo())

	assert.False(t, sim.EditorUndo())
	assert.False(t, sim.State().EditorUndoable)
	assert.Len(t, sim.grid.All(LayerObject), 1)
	assert.NotNil(t, objectAt(sim, 0, 0))
}
