package engine

// UndoFrame is a full snapshot of the grid taken before a tick
type UndoFrame struct {
	grid      *Grid
	lastActed TileType
	moveCount int
}

// UndoBuffer is a fixed-capacity ring of frames; pushing onto a full ring
// evicts the oldest frame.
type UndoBuffer struct {
	frames []UndoFrame
	start  int
	size   int
}

// NewUndoBuffer creates a ring holding at most capacity frames
func NewUndoBuffer(capacity int) *UndoBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &UndoBuffer{frames: make([]UndoFrame, capacity)}
}

// Push appends a frame
func (u *UndoBuffer) Push(f UndoFrame) {
	if u.size == len(u.frames) {
		u.frames[u.start] = UndoFrame{}
		u.start = (u.start + 1) % len(u.frames)
		u.size--
	}
	u.frames[(u.start+u.size)%len(u.frames)] = f
	u.size++
}

// Pop removes and returns the newest frame
func (u *UndoBuffer) Pop() (UndoFrame, bool) {
	if u.size == 0 {
		return UndoFrame{}, false
	}
	i := (u.start + u.size - 1) % len(u.frames)
	f := u.frames[i]
	u.frames[i] = UndoFrame{}
	u.size--
	return f, true
}

// Discard drops the newest frame without returning it
func (u *UndoBuffer) Discard() bool {
	_, ok := u.Pop()
	return ok
}

// Clear empties the ring
func (u *UndoBuffer) Clear() {
	for i := range u.frames {
		u.frames[i] = UndoFrame{}
	}
	u.start, u.size = 0, 0
}

// Len returns the number of stored frames
func (u *UndoBuffer) Len() int { return u.size }

// Cap returns the ring capacity
func (u *UndoBuffer) Cap() int { return len(u.frames) }

func (s *Simulation) pushFrame() {
	s.undo.Push(UndoFrame{
		grid:      s.grid.Clone(),
		lastActed: s.lastActed,
		moveCount: s.moveCount,
	})
}

// Undo restores the state before the most recent recorded tick. It does
// nothing when the buffer is empty or movement is frozen.
func (s *Simulation) Undo() bool {
	if s.frozen {
		return false
	}
	f, ok := s.undo.Pop()
	if !ok {
		return false
	}
	s.restore(f)
	s.log.WithField("move_count", s.moveCount).Debug("undo")
	return true
}

// IsUndoAvailable reports whether Undo would do anything
func (s *Simulation) IsUndoAvailable() bool {
	return !s.frozen && s.undo.Len() > 0
}

// restore rebuilds every layer from the snapshot rather than patching.
// The rebuilt entities are copies, so the editor history no longer refers
// to anything on the board and is dropped.
func (s *Simulation) restore(f UndoFrame) {
	for _, l := range Layers() {
		s.grid.Clear(l)
	}
	snap := f.grid.Clone()
	for _, l := range Layers() {
		for _, e := range snap.All(l) {
			s.grid.Set(l, e.Pos, e)
		}
	}
	for p, t := range snap.Texts() {
		s.grid.SetText(p, t)
	}
	s.lastActed = f.lastActed
	s.moveCount = f.moveCount
	s.outcome = WinNone
	s.editor = editorHistory{}
}
