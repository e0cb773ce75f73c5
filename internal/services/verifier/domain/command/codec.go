package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultDiscriminator is the JSON field that carries the command kind.
const DefaultDiscriminator = "type"

var (
	// ErrMalformedJSON indicates the payload is not valid JSON.
	ErrMalformedJSON = errors.New("malformed command json")
	// ErrNotObject indicates a command payload is not a JSON object.
	ErrNotObject = errors.New("command must be a json object")
	// ErrNotArray indicates a command list is not a JSON array.
	ErrNotArray = errors.New("commands must be a json array")
	// ErrDiscriminatorMissing indicates the discriminator field is absent.
	ErrDiscriminatorMissing = errors.New("command discriminator is missing")
	// ErrDiscriminatorInvalid indicates the discriminator is neither an
	// integer nor a kind name.
	ErrDiscriminatorInvalid = errors.New("command discriminator is invalid")
)

// Codec reads and writes commands using a discriminator field and a registry.
type Codec struct {
	registry *Registry
	field    string
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithDiscriminator overrides the discriminator field name.
func WithDiscriminator(field string) CodecOption {
	return func(c *Codec) {
		if f := strings.TrimSpace(field); f != "" {
			c.field = f
		}
	}
}

// NewCodec builds a codec over registry.
func NewCodec(registry *Registry, opts ...CodecOption) *Codec {
	c := &Codec{registry: registry, field: DefaultDiscriminator}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discriminator returns the discriminator field name.
func (c *Codec) Discriminator() string {
	return c.field
}

// Decode builds a command from one JSON object. The discriminator field is
// matched case-insensitively and may hold an integer kind or a kind name.
func (c *Codec) Decode(data []byte) (Command, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformedJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, ErrNotObject
	}

	var (
		tag   gjson.Result
		found bool
	)
	root.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), c.field) {
			tag, found = value, true
			return false
		}
		return true
	})
	if !found {
		return nil, fmt.Errorf("%w: field %q", ErrDiscriminatorMissing, c.field)
	}

	kind, err := parseDiscriminator(tag)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", c.field, err)
	}
	cmd, err := c.registry.New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("decode %v command: %w", kind, err)
	}
	return cmd, nil
}

// DecodeList decodes a JSON array of commands.
func (c *Codec) DecodeList(data []byte) ([]Command, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformedJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, ErrNotArray
	}
	items := root.Array()
	out := make([]Command, 0, len(items))
	for i, item := range items {
		cmd, err := c.Decode([]byte(item.Raw))
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

// Encode writes cmd as a JSON object with the discriminator set to the
// numeric kind.
func (c *Codec) Encode(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, errors.New("command is required")
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %v command: %w", cmd.Kind(), err)
	}
	out, err := sjson.SetBytes(body, c.field, int(cmd.Kind()))
	if err != nil {
		return nil, fmt.Errorf("set discriminator: %w", err)
	}
	return out, nil
}

// EncodeList writes cmds as a JSON array.
func (c *Codec) EncodeList(cmds []Command) ([]byte, error) {
	out := []byte("[]")
	for i, cmd := range cmds {
		item, err := c.Encode(cmd)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		out, err = sjson.SetRawBytes(out, "-1", item)
		if err != nil {
			return nil, fmt.Errorf("append command %d: %w", i, err)
		}
	}
	return out, nil
}

func parseDiscriminator(tag gjson.Result) (Kind, error) {
	switch tag.Type {
	case gjson.String:
		if n, err := strconv.Atoi(strings.TrimSpace(tag.String())); err == nil {
			if n < 0 || n > math.MaxUint8 {
				return 0, fmt.Errorf("%w: %s", ErrDiscriminatorInvalid, tag.Raw)
			}
			return Kind(n), nil
		}
		kind, ok := ParseKind(tag.String())
		if !ok {
			return 0, fmt.Errorf("%w: unknown kind %q", ErrKindUnknown, tag.String())
		}
		return kind, nil
	case gjson.Number:
		n := tag.Num
		if n != math.Trunc(n) || n < 0 || n > math.MaxUint8 {
			return 0, fmt.Errorf("%w: %s", ErrDiscriminatorInvalid, tag.Raw)
		}
		return Kind(n), nil
	default:
		return 0, fmt.Errorf("%w: unexpected %s token", ErrDiscriminatorInvalid, tag.Type)
	}
}
