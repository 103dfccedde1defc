package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/slidepuzzle/game/engine"
	"github.com/wricardo/slidepuzzle/game/input"
	"github.com/wricardo/slidepuzzle/game/render"
	"github.com/wricardo/slidepuzzle/game/service"
)

const (
	// Screen rows above the grid
	gridTop = 2

	paintInterval = 40 * time.Millisecond
)

var layerStyles = map[engine.Layer]tcell.Style{
	engine.LayerSolid:  tcell.StyleDefault.Foreground(tcell.ColorGray),
	engine.LayerObject: tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true),
	engine.LayerArea:   tcell.StyleDefault.Foreground(tcell.ColorGreen),
	engine.LayerHazard: tcell.StyleDefault.Foreground(tcell.ColorRed),
	engine.LayerEffect: tcell.StyleDefault.Foreground(tcell.ColorAqua),
	engine.LayerCustom: tcell.StyleDefault.Foreground(tcell.ColorFuchsia),
}

type player struct {
	svc     service.GameService
	session string
	screen  tcell.Screen
	sound   cues
	log     *logrus.Entry

	slide *input.Repeater
	paint *input.Repeater

	mu         sync.Mutex
	state      *engine.GameState
	status     string
	editing    bool
	brush      int
	cursor     engine.Position
	lastPaint  *engine.Position
	brushTypes []engine.TileType
}

func newPlayer(svc service.GameService, info *service.SessionInfo, screen tcell.Screen, sound cues, log *logrus.Entry) *player {
	return &player{
		svc:        svc,
		session:    info.ID,
		screen:     screen,
		sound:      sound,
		log:        log,
		slide:      input.NewRepeater(0, 0),
		paint:      input.NewRepeater(paintInterval, paintInterval),
		state:      info.GameState,
		status:     "arrows move, shift slides, u undo, r reset, e editor, q quit",
		brushTypes: brushes(),
	}
}

func (p *player) run(ctx context.Context) error {
	defer p.slide.Stop()
	defer p.paint.Stop()

	p.draw()
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if !p.handleKey(ctx, ev) {
				return nil
			}
		case *tcell.EventMouse:
			p.handleMouse(ctx, ev)
		case *tcell.EventResize:
			p.screen.Sync()
		}
		p.draw()
	}
}

// handleKey returns false when the player quits. Any key ends a slide.
func (p *player) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	p.slide.Stop()

	act := keyAction(ev)
	switch act.kind {
	case actQuit:
		return false
	case actMove:
		p.move(ctx, act.dir)
	case actSlide:
		p.slide.Start(ctx, func() bool {
			ok := p.move(ctx, act.dir)
			p.redraw()
			return ok
		})
	case actUndo:
		res, err := p.svc.Undo(ctx, p.session)
		p.apply(undoState(res), err, undoStatus(res, "undid move", "nothing to undo"))
	case actReset:
		state, err := p.svc.Reset(ctx, p.session)
		p.apply(state, err, "level reset")
	case actToggleEditor:
		p.mu.Lock()
		p.editing = !p.editing
		p.status = p.modeStatus()
		p.mu.Unlock()
	case actNextBrush, actPrevBrush:
		p.mu.Lock()
		step := 1
		if act.kind == actPrevBrush {
			step = len(p.brushTypes) - 1
		}
		p.brush = (p.brush + step) % len(p.brushTypes)
		p.status = p.modeStatus()
		p.mu.Unlock()
	case actEditorUndo:
		res, err := p.svc.EditorUndo(ctx, p.session)
		p.apply(undoState(res), err, undoStatus(res, "edit undone", "no edit to undo"))
	case actEditorRedo:
		res, err := p.svc.EditorRedo(ctx, p.session)
		p.apply(undoState(res), err, undoStatus(res, "edit redone", "no edit to redo"))
	case actExport:
		res, err := p.svc.ExportLevel(ctx, p.session, "")
		if err != nil {
			p.apply(nil, err, "")
			break
		}
		p.apply(nil, nil, fmt.Sprintf("exported as %s", res.LevelID))
	}
	return true
}

// handleMouse paints with the left button and erases with the right one
// while the editor is on. Holding the left button and dragging keeps
// painting the cell under the pointer.
func (p *player) handleMouse(ctx context.Context, ev *tcell.EventMouse) {
	p.mu.Lock()
	editing := p.editing
	pos, inside := p.cellAt(ev.Position())
	p.cursor = pos
	p.mu.Unlock()

	if !editing {
		return
	}

	switch buttons := ev.Buttons(); {
	case buttons&tcell.Button1 != 0:
		if !inside || p.paint.Active() {
			return
		}
		p.paint.Start(ctx, func() bool {
			p.paintCursor(ctx)
			p.redraw()
			return true
		})
	case buttons&tcell.Button2 != 0:
		p.paint.Stop()
		if inside {
			res, err := p.svc.RemoveTile(ctx, p.session, pos.X, pos.Y)
			p.apply(editState(res), err, fmt.Sprintf("removed tile at %d,%d", pos.X, pos.Y))
		}
	case buttons == tcell.ButtonNone:
		p.paint.Stop()
		p.mu.Lock()
		p.lastPaint = nil
		p.mu.Unlock()
	}
}

// paintCursor places the current brush under the pointer once per cell
func (p *player) paintCursor(ctx context.Context) {
	p.mu.Lock()
	pos := p.cursor
	if p.lastPaint != nil && *p.lastPaint == pos {
		p.mu.Unlock()
		return
	}
	p.lastPaint = &pos
	t := p.brushTypes[p.brush]
	p.mu.Unlock()

	res, err := p.svc.PlaceTile(ctx, p.session, service.PlaceTileRequest{
		Type:       string(t),
		X:          pos.X,
		Y:          pos.Y,
		Directions: brushDirections(t),
	})
	p.apply(editState(res), err, fmt.Sprintf("placed %s at %d,%d", t, pos.X, pos.Y))
}

// move applies one tick and reports whether a slide may continue
func (p *player) move(ctx context.Context, dir engine.Direction) bool {
	res, err := p.svc.Move(ctx, p.session, string(dir))
	if err != nil {
		p.apply(nil, err, "")
		return false
	}

	status := fmt.Sprintf("moved %s", dir)
	if !res.Moved {
		status = "blocked"
	}
	for _, e := range res.Events {
		switch e.Type {
		case engine.EventPush:
			p.sound.Push()
		case engine.EventCollect:
			p.sound.Collect()
		case engine.EventWin:
			p.sound.Win()
		case engine.EventDialog:
			status = fmt.Sprintf("%s: %s", e.Speaker, e.Text)
		}
	}
	if tr := res.Transition; tr != nil {
		if tr.Error != "" {
			status = fmt.Sprintf("could not load %s: %s", tr.To, tr.Error)
		} else {
			status = fmt.Sprintf("%s solved, now playing %s", tr.From, tr.To)
		}
	}
	p.apply(res.GameState, nil, status)
	return res.Moved && res.Transition == nil && !res.GameState.Frozen
}

func (p *player) apply(state *engine.GameState, err error, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.log.WithError(err).Debug("command failed")
		p.status = err.Error()
		return
	}
	if state != nil {
		p.state = state
	}
	if status != "" {
		p.status = status
	}
}

// redraw asks the event loop to draw from another goroutine
func (p *player) redraw() {
	_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// cellAt converts screen coordinates to a grid position. The caller
// holds p.mu.
func (p *player) cellAt(sx, sy int) (engine.Position, bool) {
	if p.state == nil {
		return engine.Position{}, false
	}
	b := p.state.Bounds
	pos := engine.Position{X: sx + b.MinX, Y: sy - gridTop + b.MinY}
	return pos, b.Contains(pos)
}

// modeStatus describes the mode; the caller holds p.mu
func (p *player) modeStatus() string {
	if !p.editing {
		return "play mode"
	}
	t := p.brushTypes[p.brush]
	return fmt.Sprintf("editor: brush %c %s ([ ] change, left paint, right erase, ^Z/^Y, x export)", render.Glyph(t), t)
}

func (p *player) draw() {
	p.mu.Lock()
	state, status, editing := p.state, p.status, p.editing
	p.mu.Unlock()

	p.screen.Clear()
	header := "No level loaded"
	if state != nil {
		header = fmt.Sprintf("%s | moves %d | undo %d", state.LevelName, state.MoveCount, state.UndoDepth)
		if editing {
			header += " | EDITOR"
		}
	}
	drawText(p.screen, 0, 0, tcell.StyleDefault.Bold(true), header)

	rows := render.Cells(state)
	for y, row := range rows {
		for x, c := range row {
			style := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
			if c.Type != "" {
				style = layerStyles[c.Layer]
			}
			p.screen.SetContent(x, y+gridTop, c.Glyph, nil, style)
		}
	}

	footer := len(rows) + gridTop + 1
	if state != nil && state.Outcome != engine.WinNone {
		drawText(p.screen, 0, footer, tcell.StyleDefault.Foreground(tcell.ColorGreen), fmt.Sprintf("Solved (%s)", state.Outcome))
		footer++
	}
	drawText(p.screen, 0, footer, tcell.StyleDefault, status)
	p.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func undoStatus(res *service.UndoResult, done, noop string) string {
	if res != nil && res.Undone {
		return done
	}
	return noop
}

func undoState(res *service.UndoResult) *engine.GameState {
	if res == nil {
		return nil
	}
	return res.GameState
}

func editState(res *service.EditResult) *engine.GameState {
	if res == nil {
		return nil
	}
	return res.GameState
}
