package sketch

// DefaultHistoryLimit bounds the undo log when no limit is configured.
const DefaultHistoryLimit = 100

// History is a linear undo/redo log over collection snapshots. The redo log
// only ever fills from Undo and is invalidated by any new snapshot.
type History struct {
	undo  [][]byte
	redo  [][]byte
	limit int
}

// NewHistory returns a history bounded to the given number of snapshots.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records a new snapshot, discarding the oldest one beyond the limit
// and clearing the redo log.
func (h *History) Push(snapshot []byte) {
	h.undo = append(h.undo, snapshot)
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// Undo moves the current snapshot to the redo log and returns the previous
// one to restore. The initial snapshot is never undone past: with one entry
// or none, Undo reports false and nothing changes.
func (h *History) Undo() ([]byte, bool) {
	if len(h.undo) <= 1 {
		return nil, false
	}

	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)

	return h.undo[len(h.undo)-1], true
}

// Redo moves one snapshot back from the redo log and returns it to restore.
// Reports false when there is nothing to redo.
func (h *History) Redo() ([]byte, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}

	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, top)

	return top, true
}

// Top returns the current snapshot without changing the logs.
func (h *History) Top() ([]byte, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	return h.undo[len(h.undo)-1], true
}

// Len returns the number of snapshots in the undo log.
func (h *History) Len() int {
	return len(h.undo)
}

// RedoLen returns the number of snapshots in the redo log.
func (h *History) RedoLen() int {
	return len(h.redo)
}
