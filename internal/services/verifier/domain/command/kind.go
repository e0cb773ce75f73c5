package command

import (
	"strconv"
	"strings"
)

// Kind identifies a command variant. Concrete kinds are the wire
// discriminator values; abstract kinds only exist so executors can be
// registered for a family of commands.
type Kind uint8

const (
	KindPlace Kind = iota
	KindGrow
	KindShrink
)

const (
	// KindResize is the abstract parent of Grow and Shrink.
	KindResize Kind = 0x80 + iota
	// KindAny is the root of the kind hierarchy.
	KindAny Kind = 0xFF
)

var kindNames = map[Kind]string{
	KindPlace:  "Place",
	KindGrow:   "Grow",
	KindShrink: "Shrink",
	KindResize: "Resize",
	KindAny:    "Any",
}

// parents is the explicit kind hierarchy. Kinds without an entry are roots.
var parents = map[Kind]Kind{
	KindPlace:  KindAny,
	KindGrow:   KindResize,
	KindShrink: KindResize,
	KindResize: KindAny,
}

// Parent returns the direct ancestor of k.
func (k Kind) Parent() (Kind, bool) {
	p, ok := parents[k]
	return p, ok
}

// Ancestors returns k followed by each ancestor up to the root.
func (k Kind) Ancestors() []Kind {
	out := []Kind{k}
	for cur := k; ; {
		p, ok := cur.Parent()
		if !ok {
			return out
		}
		out = append(out, p)
		cur = p
	}
}

// Abstract reports whether k has no wire representation.
func (k Kind) Abstract() bool {
	return k >= KindResize
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(name string) (Kind, bool) {
	name = strings.TrimSpace(name)
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}
	return 0, false
}
