package session

import (
	"strconv"

	"github.com/janhq/sessions-api/internal/utils/stringutils"
)

// IdentifierKind tags how a path identifier is resolved against the store.
type IdentifierKind int

const (
	// KindNativeID resolves by the store's own primary key.
	KindNativeID IdentifierKind = iota + 1
	// KindSequence resolves by website_index.
	KindSequence
)

func (k IdentifierKind) String() string {
	switch k {
	case KindNativeID:
		return "native_id"
	case KindSequence:
		return "website_index"
	default:
		return "unknown"
	}
}

// NativeIDParser recognises the canonical textual form of a store's primary key.
type NativeIDParser interface {
	ParseNativeID(raw string) (ID, bool)
}

// Identifier is the outcome of resolving a client-supplied session identifier.
type Identifier struct {
	Kind IdentifierKind
	Raw  string

	// NativeID is set when Kind is KindNativeID.
	NativeID ID

	// Sequence is the parsed website_index when HasSequence is true. When it is
	// false the Raw string is compared against the textual website_index.
	Sequence    int64
	HasSequence bool
}

// ResolveIdentifier decides, once, how raw will be looked up: the native id
// parser is consulted first and website_index is the fallback.
func ResolveIdentifier(raw string, parser NativeIDParser) Identifier {
	if id, ok := parser.ParseNativeID(raw); ok {
		return Identifier{Kind: KindNativeID, Raw: raw, NativeID: id}
	}

	ident := Identifier{Kind: KindSequence, Raw: raw}
	if n, ok := stringutils.ParseLeadingInt(raw); ok {
		ident.Sequence = n
		ident.HasSequence = true
	}
	return ident
}

// MatchesSequence reports whether a record with the given website_index is
// addressed by a KindSequence identifier.
func (i Identifier) MatchesSequence(websiteIndex int64) bool {
	if i.HasSequence {
		return websiteIndex == i.Sequence
	}
	return strconv.FormatInt(websiteIndex, 10) == i.Raw
}

// Matches reports whether s is the record addressed by i.
func (i Identifier) Matches(s Session) bool {
	switch i.Kind {
	case KindNativeID:
		return s.ID == i.NativeID
	case KindSequence:
		return i.MatchesSequence(s.WebsiteIndex)
	default:
		return false
	}
}

// SerialIDParser accepts canonical non-negative decimal integers, the native
// id format of relational and in-memory stores.
type SerialIDParser struct{}

// ParseNativeID implements NativeIDParser.
func (SerialIDParser) ParseNativeID(raw string) (ID, bool) {
	n, ok := stringutils.ParseCanonicalUint(raw)
	if !ok {
		return ID{}, false
	}
	return SerialID(n), true
}
