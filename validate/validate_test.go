package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validLevel = `{
	"levelName": "Test Level",
	"nextLevel": "level-2",
	"tiles": {
		"solidTiles": [
			{"type": "wall", "position": {"x": 0, "y": 1}}
		],
		"objectTiles": [
			{"type": "box", "directions": {"pushable": true, "up": true, "down": true, "left": true, "right": true}, "position": {"x": 0, "y": 0}}
		],
		"overlapTiles": [
			{"type": "area", "position": {"x": 2, "y": 0}}
		]
	}
}`

const level2YAML = `levelName: Second
tiles:
  objectTiles:
    - type: circle
      directions: {pushable: true, up: true, down: true, left: true, right: true}
      position: {x: 0, y: 0}
  overlapTiles:
    - type: area
      position: {x: 3, y: 0}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFile_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "level-1.json", validLevel)

	result := File(path, map[string]bool{"level-1": true, "level-2": true})
	assert.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Equal(t, "level-1.json", result.File)
	assert.Contains(t, result.Info, "✓ Name: Test Level")
	assert.Contains(t, result.Info, "✓ Grid: 3x2")
	assert.Contains(t, result.Info, "✓ Reachability: all 1 goals reachable")
	assert.Empty(t, result.Warnings)
}

func TestFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		known   map[string]bool
		wantErr string
	}{
		{
			name:    "invalid json",
			file:    "bad.json",
			content: `{"levelName": "x", invalid}`,
			wantErr: "failed to parse level",
		},
		{
			name:    "invalid yaml",
			file:    "bad.yaml",
			content: "levelName: [unterminated",
			wantErr: "failed to parse level",
		},
		{
			name:    "missing name",
			file:    "noname.json",
			content: `{"tiles": {}}`,
			wantErr: "levelName is required",
		},
		{
			name: "overlapping tiles",
			file: "overlap.json",
			content: `{"levelName": "x", "tiles": {"solidTiles": [
				{"type": "wall", "position": {"x": 0, "y": 0}},
				{"type": "antiwall", "position": {"x": 0, "y": 0}}]}}`,
			wantErr: "overlaps",
		},
		{
			name: "unknown tile",
			file: "unknown.json",
			content: `{"levelName": "x", "tiles": {
				"objectTiles": [{"type": "dragon", "directions": {"up": true}, "position": {"x": 0, "y": 0}}],
				"overlapTiles": [{"type": "area", "position": {"x": 0, "y": 1}}]}}`,
			wantErr: `Unknown tile type "dragon"`,
		},
		{
			name: "no pieces",
			file: "empty.json",
			content: `{"levelName": "x", "tiles": {
				"overlapTiles": [{"type": "area", "position": {"x": 0, "y": 0}}]}}`,
			wantErr: "at least 1 movable piece",
		},
		{
			name: "no goals",
			file: "nogoal.json",
			content: `{"levelName": "x", "tiles": {
				"objectTiles": [{"type": "box", "directions": {"up": true}, "position": {"x": 0, "y": 0}}]}}`,
			wantErr: "at least 1 area",
		},
		{
			name: "level tile without target",
			file: "trigger.json",
			content: `{"levelName": "x", "tiles": {
				"objectTiles": [{"type": "box", "directions": {"right": true}, "position": {"x": 0, "y": 0}}],
				"customTiles": [{"type": "level", "position": {"x": 1, "y": 0}}]}}`,
			wantErr: "has no target text",
		},
		{
			name: "outside bounds",
			file: "bounds.json",
			content: `{"levelName": "x", "bounds": {"minX": 0, "minY": 0, "maxX": 1, "maxY": 0}, "tiles": {
				"objectTiles": [{"type": "box", "directions": {"right": true}, "position": {"x": 0, "y": 0}}],
				"overlapTiles": [{"type": "area", "position": {"x": 3, "y": 0}}]}}`,
			wantErr: "outside bounds",
		},
		{
			name:    "unknown next level",
			file:    "level-1.json",
			content: validLevel,
			known:   map[string]bool{"level-1": true},
			wantErr: `nextLevel "level-2" does not match`,
		},
		{
			name: "sealed goal",
			file: "sealed.json",
			content: `{"levelName": "x", "tiles": {
				"solidTiles": [{"type": "wall", "position": {"x": 1, "y": 0}}],
				"objectTiles": [{"type": "box", "directions": {"right": true}, "position": {"x": 0, "y": 0}}],
				"overlapTiles": [{"type": "area", "position": {"x": 2, "y": 0}}]}}`,
			wantErr: "Reachability failure: 1/1 goals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			result := File(path, tt.known)
			assert.False(t, result.Valid)
			assert.Contains(t, strings.Join(result.Errors, "\n"), tt.wantErr)
		})
	}
}

func TestFile_Warnings(t *testing.T) {
	content := `{"levelName": "x", "tiles": {
		"solidTiles": [{"type": "box", "directions": {"right": true}, "position": {"x": 0, "y": 0}}],
		"objectTiles": [{"type": "box", "directions": {}, "position": {"x": 1, "y": 0}}],
		"overlapTiles": [{"type": "area", "position": {"x": 0, "y": 1}}],
		"customTiles": [{"type": "npc", "position": {"x": 2, "y": 0}}]}}`
	path := writeFile(t, t.TempDir(), "warn.json", content)

	result := File(path, nil)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
	warnings := strings.Join(result.Warnings, "\n")
	assert.Contains(t, warnings, "belongs to the object layer")
	assert.Contains(t, warnings, "no active directions")
	assert.Contains(t, warnings, "npc at (2,0) has no dialog text")
}

func TestFile_Missing(t *testing.T) {
	result := File(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "Failed to read file")
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "level-1.json", validLevel)
	writeFile(t, dir, "level-2.yaml", level2YAML)
	writeFile(t, dir, "notes.txt", "not a level")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

	results, err := Dir(dir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "level-1.json", results[0].File)
	assert.Equal(t, "level-2.yaml", results[1].File)
	for _, r := range results {
		assert.True(t, r.Valid, "%s: %v", r.File, r.Errors)
	}

	_, err = Dir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	ok := Report(&buf, []Result{
		{File: "good.json", Valid: true, Info: []string{"✓ Name: Good"}},
		{File: "bad.json", Valid: false, Errors: []string{"broken"}, Warnings: []string{"odd"}},
	})
	assert.False(t, ok)
	out := buf.String()
	assert.Contains(t, out, "✅ VALID")
	assert.Contains(t, out, "✓ Name: Good")
	assert.Contains(t, out, "❌ broken")
	assert.Contains(t, out, "⚠️  odd")
	assert.Contains(t, out, "Some levels have errors")

	buf.Reset()
	assert.True(t, Report(&buf, nil))
	assert.Contains(t, buf.String(), "No level files found")
}

func TestShippedLevels(t *testing.T) {
	results, err := Dir(filepath.Join("..", "levels"))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.True(t, r.Valid, "%s: %v", r.File, r.Errors)
		assert.Empty(t, r.Warnings, r.File)
	}
}
