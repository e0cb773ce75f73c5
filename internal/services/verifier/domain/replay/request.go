package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/command"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
)

var (
	// ErrMalformedRequest indicates the request body is not a JSON object.
	ErrMalformedRequest = errors.New("malformed verify request")
	// ErrInvalidField indicates a request field has the wrong shape.
	ErrInvalidField = errors.New("invalid verify request field")
)

// DecodeRequest reads {match, claimedScore, commands, grant} using codec for
// the command list. Missing match or commands decode to nil so Verify can
// report them as invalid input.
func DecodeRequest(data []byte, codec *command.Codec) (Request, error) {
	if !gjson.ValidBytes(data) {
		return Request{}, ErrMalformedRequest
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Request{}, ErrMalformedRequest
	}
	var req Request

	if match := root.Get("match"); match.Exists() && match.Type != gjson.Null {
		var cfg engine.MatchConfig
		if err := json.Unmarshal([]byte(match.Raw), &cfg); err != nil {
			return Request{}, fmt.Errorf("%w: match: %w", ErrInvalidField, err)
		}
		req.Match = &cfg
	}

	if score := root.Get("claimedScore"); score.Exists() {
		if score.Type != gjson.Number || score.Num < 0 || score.Num > math.MaxUint32 || score.Num != math.Trunc(score.Num) {
			return Request{}, fmt.Errorf("%w: claimedScore must be a non-negative integer", ErrInvalidField)
		}
		req.ClaimedScore = uint32(score.Num)
	}

	if cmds := root.Get("commands"); cmds.Exists() && cmds.Type != gjson.Null {
		list, err := codec.DecodeList([]byte(cmds.Raw))
		if err != nil {
			return Request{}, fmt.Errorf("%w: commands: %w", ErrInvalidField, err)
		}
		req.Commands = list
	}

	if grant := root.Get("grant"); grant.Exists() && grant.Type != gjson.Null {
		if grant.Type != gjson.String {
			return Request{}, fmt.Errorf("%w: grant must be a string", ErrInvalidField)
		}
		req.Grant = grant.String()
	}
	return req, nil
}

// EncodeRequest writes req in the form DecodeRequest reads.
func EncodeRequest(req Request, codec *command.Codec) ([]byte, error) {
	out := []byte("{}")
	var err error
	if req.Match != nil {
		if out, err = sjson.SetBytes(out, "match", req.Match); err != nil {
			return nil, fmt.Errorf("encode match: %w", err)
		}
	}
	if out, err = sjson.SetBytes(out, "claimedScore", req.ClaimedScore); err != nil {
		return nil, fmt.Errorf("encode claimed score: %w", err)
	}
	cmds, err := codec.EncodeList(req.Commands)
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetRawBytes(out, "commands", cmds); err != nil {
		return nil, fmt.Errorf("encode commands: %w", err)
	}
	if req.Grant != "" {
		if out, err = sjson.SetBytes(out, "grant", req.Grant); err != nil {
			return nil, fmt.Errorf("encode grant: %w", err)
		}
	}
	return out, nil
}
