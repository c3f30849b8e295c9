package medias

// ResizeEntry is one applied resize: the dimensions it moved the image
// to, the dimensions it came from, and the backup file the host wrote so
// the step can be undone. Data keeps the resized bytes because a redo
// re-sends them; the history cap bounds how many copies stay around.
type ResizeEntry struct {
	Width      int
	Height     int
	PrevWidth  int
	PrevHeight int
	BackupPath string
	Data       []byte
}

const historyCap = 10

// ResizeHistory is the linear undo/redo history of one image's resizes.
// A new resize discards any redoable tail, the eleventh entry evicts the
// oldest, and stepping past either end is a no-op.
type ResizeHistory struct {
	entries []ResizeEntry
	cursor  int // entries[:cursor] are applied
}

func (h *ResizeHistory) Push(e ResizeEntry) {
	h.entries = append(h.entries[:h.cursor], e)
	if len(h.entries) > historyCap {
		h.entries = h.entries[len(h.entries)-historyCap:]
	}
	h.cursor = len(h.entries)
}

// Undo steps back one entry and returns it, so the caller can ask the
// host to restore that entry's backup.
func (h *ResizeHistory) Undo() (ResizeEntry, bool) {
	if h.cursor == 0 {
		return ResizeEntry{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo reapplies the next undone entry, if any.
func (h *ResizeHistory) Redo() (ResizeEntry, bool) {
	if h.cursor == len(h.entries) {
		return ResizeEntry{}, false
	}
	e := h.entries[h.cursor]
	h.cursor++
	return e, true
}

func (h *ResizeHistory) Len() int {
	return len(h.entries)
}

func (h *ResizeHistory) CanUndo() bool {
	return h.cursor > 0
}

func (h *ResizeHistory) CanRedo() bool {
	return h.cursor < len(h.entries)
}

// HistoryStore keys resize histories by image path.
type HistoryStore struct {
	byPath map[string]*ResizeHistory
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{byPath: make(map[string]*ResizeHistory)}
}

// ForImage returns the history for a path, creating it on first use.
func (s *HistoryStore) ForImage(path string) *ResizeHistory {
	h, ok := s.byPath[path]
	if !ok {
		h = &ResizeHistory{}
		s.byPath[path] = h
	}
	return h
}

// Forget drops a history, e.g. when the image is deleted.
func (s *HistoryStore) Forget(path string) {
	delete(s.byPath, path)
}
