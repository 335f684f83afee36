package cursor

import (
	"context"
)

// Sequence returns the index sequence. It changes whenever entries are
// added, removed or moved, and not on content only edits.
func (e *Engine) Sequence(ctx context.Context) (uint32, error) {
	seq, err := e.index.Sequence(ctx)
	if err != nil {
		return 0, translate("sequence", err)
	}
	return seq, nil
}

// Changed reports whether the index moved past since.
func (e *Engine) Changed(ctx context.Context, since uint32) (bool, error) {
	seq, err := e.Sequence(ctx)
	if err != nil {
		return false, err
	}
	return seq != since, nil
}
