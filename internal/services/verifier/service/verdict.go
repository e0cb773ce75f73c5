package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/platform/i18n"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/replay"
)

// Verdict is a replay response plus the catalog key of its user-facing
// message.
type Verdict struct {
	replay.Response
	MessageKey  string
	MessageData map[string]string
}

// Localize renders the verdict message for locale.
func (v Verdict) Localize(l *i18n.Localizer, locale string) string {
	return l.Format(locale, v.MessageKey, v.MessageData)
}

func verdictKey(status replay.Status) string {
	return "verdict." + status.String()
}

func (v *Verifier) newVerdict(req replay.Request, resp replay.Response) Verdict {
	out := Verdict{Response: resp, MessageKey: verdictKey(resp.Status)}
	if resp.Status == replay.StatusInvalidInput && len(req.Commands) > v.opts.MaxCommands {
		out.MessageKey = string(apperrors.CodeCommandLimitExceeded)
		out.MessageData = map[string]string{"Limit": strconv.Itoa(v.opts.MaxCommands)}
	}
	return out
}

func rejectedVerdict(err *apperrors.Error) Verdict {
	return Verdict{
		Response: replay.Response{
			Status:       replay.StatusInvalidInput,
			Message:      err.Error(),
			CommandIndex: replay.NoCommand,
		},
		MessageKey:  string(err.Code),
		MessageData: err.Metadata,
	}
}

var errBatchShape = errors.New(`batch body must be {"requests": [...]}`)

func splitBatch(body []byte) ([][]byte, error) {
	if !gjson.ValidBytes(body) {
		return nil, replay.ErrMalformedRequest
	}
	requests := gjson.GetBytes(body, "requests")
	if !requests.IsArray() {
		return nil, errBatchShape
	}
	var out [][]byte
	for i, item := range requests.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("request %d: %w", i, replay.ErrMalformedRequest)
		}
		out = append(out, []byte(item.Raw))
	}
	return out, nil
}
