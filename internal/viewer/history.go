package viewer

import (
	"slices"
)

const MaxUndo = 64

type UndoFunc = func()
type UndoableFunction = func() UndoFunc

// History keeps the undo functions of the last MaxUndo actions.
type History struct {
	undoList []UndoFunc
}

// Dispatch runs f and remembers the undo function it returns.
func (h *History) Dispatch(f UndoableFunction) {
	undoFunc := f()
	if undoFunc == nil {
		return
	}
	h.undoList = append(h.undoList, undoFunc)
	if len(h.undoList) > MaxUndo {
		h.undoList = slices.Delete(h.undoList, 0, len(h.undoList)-MaxUndo)
	}
}

// Undo reverts the last action. It reports false if there was none.
func (h *History) Undo() bool {
	if len(h.undoList) == 0 {
		return false
	}
	last := h.undoList[len(h.undoList)-1]
	h.undoList = h.undoList[:len(h.undoList)-1]
	last()
	return true
}

func (h *History) Len() int {
	return len(h.undoList)
}

func (h *History) Clear() {
	h.undoList = nil
}

// Navigate returns an undoable action moving *v to next. Moves which
// do not change the view are not recorded.
func Navigate(v *View, next View) UndoableFunction {
	return func() UndoFunc {
		prev := *v
		if prev == next {
			return nil
		}
		*v = next
		return func() {
			*v = prev
		}
	}
}
