package tokenizer

import (
	"fmt"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
)

// Context is the kind of collection an indentation frame belongs to.
type Context int

const (
	ContextBlockMapping Context = iota
	ContextBlockSequence
	ContextFlow
)

func (c Context) String() string {
	switch c {
	case ContextBlockMapping:
		return "block mapping"
	case ContextBlockSequence:
		return "block sequence"
	case ContextFlow:
		return "flow collection"
	default:
		return fmt.Sprintf("Context(%d)", int(c))
	}
}

// IndentFrame is one open collection. Column is the 1-based column of the
// collection's first key or entry indicator.
type IndentFrame struct {
	Column  int
	Context Context
}

// Decision is the tracker's verdict for a token that starts a line.
type Decision int

const (
	// DecisionNested: the token is indented deeper than the current block.
	DecisionNested Decision = iota
	// DecisionContinue: the token is a sibling in the current block.
	DecisionContinue
	// DecisionClose: the token closes one or more blocks and lands on an
	// enclosing block's column.
	DecisionClose
	// DecisionMisaligned: the token closes the current block but does not
	// line up with any enclosing block.
	DecisionMisaligned
)

func (d Decision) String() string {
	switch d {
	case DecisionNested:
		return "nested"
	case DecisionContinue:
		return "continue"
	case DecisionClose:
		return "close"
	case DecisionMisaligned:
		return "misaligned"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// IndentContext is the read-only view of the tracker the scanner needs to
// size block scalars.
type IndentContext interface {
	CurrentIndent() int
}

// IndentationTracker maintains the stack of open collections.
//
// Frames are strictly nested: a block frame never sits at a smaller column
// than the block frame enclosing it. The one exception YAML allows is a block
// sequence used as a mapping value at the mapping's own column:
//
//	key:
//	- a
//	- b
//
// Flow frames record where the flow collection opened but do not change the
// block indentation seen by CurrentIndent.
type IndentationTracker struct {
	frames   []IndentFrame
	maxDepth int
}

// NewIndentationTracker creates a tracker that refuses to open more than
// maxDepth nested collections. A maxDepth <= 0 disables the limit.
func NewIndentationTracker(maxDepth int) *IndentationTracker {
	return &IndentationTracker{maxDepth: maxDepth}
}

// CurrentIndent returns the column of the innermost block collection, or 0
// when no block collection is open.
func (t *IndentationTracker) CurrentIndent() int {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i].Context != ContextFlow {
			return t.frames[i].Column
		}
	}
	return 0
}

// Depth returns the number of open frames.
func (t *IndentationTracker) Depth() int { return len(t.frames) }

// InFlow reports whether a flow collection is open.
func (t *IndentationTracker) InFlow() bool {
	for _, f := range t.frames {
		if f.Context == ContextFlow {
			return true
		}
	}
	return false
}

// Top returns the innermost frame.
func (t *IndentationTracker) Top() (IndentFrame, bool) {
	if len(t.frames) == 0 {
		return IndentFrame{}, false
	}
	return t.frames[len(t.frames)-1], true
}

// Frames returns a copy of the stack, outermost first.
func (t *IndentationTracker) Frames() []IndentFrame {
	return append([]IndentFrame(nil), t.frames...)
}

// PushContext opens a collection at column. It fails with NestingTooDeep when
// the depth limit is reached and with BadIndentation when a block collection
// would open to the left of its parent block.
func (t *IndentationTracker) PushContext(column int, ctx Context, pos diag.Position) error {
	if t.maxDepth > 0 && len(t.frames) >= t.maxDepth {
		d := diag.Errorf(diag.NestingTooDeep, pos, pos,
			"nesting depth exceeds the maximum of %d", t.maxDepth)
		return d
	}
	if ctx != ContextFlow && !t.InFlow() {
		if parent, ok := t.innermostBlock(); ok {
			indentless := ctx == ContextBlockSequence &&
				parent.Context == ContextBlockMapping &&
				column == parent.Column
			if column < parent.Column || (column == parent.Column && !indentless) {
				d := diag.Errorf(diag.BadIndentation, pos, pos,
					"%s at column %d is not indented under the enclosing %s at column %d",
					ctx, column, parent.Context, parent.Column)
				return d
			}
		}
	}
	t.frames = append(t.frames, IndentFrame{Column: column, Context: ctx})
	return nil
}

// Pop closes the innermost frame.
func (t *IndentationTracker) Pop() (IndentFrame, bool) {
	if len(t.frames) == 0 {
		return IndentFrame{}, false
	}
	f := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	return f, true
}

// PopTo closes every block frame whose column is greater than column and
// returns the closed frames, innermost first. It stops at the first flow
// frame, since flow collections close only on their own indicator.
func (t *IndentationTracker) PopTo(column int) []IndentFrame {
	var closed []IndentFrame
	for len(t.frames) > 0 {
		f := t.frames[len(t.frames)-1]
		if f.Context == ContextFlow || f.Column <= column {
			break
		}
		closed = append(closed, f)
		t.frames = t.frames[:len(t.frames)-1]
	}
	return closed
}

// Classify decides what a token starting a line at column means for the
// innermost block collection.
func (t *IndentationTracker) Classify(column int) Decision {
	current := t.CurrentIndent()
	switch {
	case column > current:
		return DecisionNested
	case column == current:
		return DecisionContinue
	}

	outermost := current
	for i := len(t.frames) - 1; i >= 0; i-- {
		f := t.frames[i]
		if f.Context == ContextFlow {
			continue
		}
		if f.Column == column {
			return DecisionClose
		}
		outermost = f.Column
	}
	if column < outermost {
		// Left of every open block: the root node is finished.
		return DecisionClose
	}
	return DecisionMisaligned
}

func (t *IndentationTracker) innermostBlock() (IndentFrame, bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i].Context != ContextFlow {
			return t.frames[i], true
		}
	}
	return IndentFrame{}, false
}
