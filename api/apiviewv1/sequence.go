package apiviewv1

import (
	"context"
	"strconv"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/cursor"
)

type SequenceResponse struct {
	Sequence uint32 `json:"sequence"`
	Changed  bool   `json:"changed"`
}

// sequence reports the index sequence. With ?since=<n> it also tells whether
// the index moved past n.
func sequence(ctx context.Context) (*SequenceResponse, error) {

	viewName := box.GetUrlParameter(ctx, "viewName")

	var since *uint32
	if text := box.GetRequest(ctx).URL.Query().Get("since"); text != "" {
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return nil, invalidArgument("since: %s", err)
		}
		v := uint32(n)
		since = &v
	}

	result := &SequenceResponse{}
	err := GetServicer(ctx).WithEngine(ctx, viewName, func(ctx context.Context, e *cursor.Engine) error {
		var err error
		result.Sequence, err = e.Sequence(ctx)
		if err != nil || since == nil {
			return err
		}
		result.Changed, err = e.Changed(ctx, *since)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
