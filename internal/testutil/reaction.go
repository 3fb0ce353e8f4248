package testutil

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/garrett-reinhard/ord-interface/internal/reaction"
)

// ORD field numbers written by MarshalReaction and read by DecodeDataset.
const (
	reactionIdentifiers protowire.Number = 1
	reactionInputs      protowire.Number = 2
	reactionOutcomes    protowire.Number = 8
	reactionProvenance  protowire.Number = 9
	reactionID          protowire.Number = 10

	identifierType    protowire.Number = 1
	identifierDetails protowire.Number = 2
	identifierValue   protowire.Number = 3

	mapEntryKey   protowire.Number = 1
	provenanceDOI protowire.Number = 4

	datasetName      protowire.Number = 1
	datasetReactions protowire.Number = 3
)

// MarshalReaction encodes the summarized fields of r as an ORD Reaction,
// the inverse of reaction.Unmarshal. Input values and outcomes are written
// as empty messages.
func MarshalReaction(r *reaction.Reaction) []byte {
	var b []byte
	for _, id := range r.Identifiers {
		var v []byte
		if id.Type != reaction.IdentifierUnspecified {
			v = protowire.AppendTag(v, identifierType, protowire.VarintType)
			v = protowire.AppendVarint(v, uint64(id.Type))
		}
		if id.Details != "" {
			v = appendString(v, identifierDetails, id.Details)
		}
		v = appendString(v, identifierValue, id.Value)
		b = appendBytes(b, reactionIdentifiers, v)
	}
	for _, name := range r.InputNames {
		b = appendBytes(b, reactionInputs, appendString(nil, mapEntryKey, name))
	}
	for i := 0; i < r.NumOutcomes; i++ {
		b = appendBytes(b, reactionOutcomes, nil)
	}
	if r.DOI != "" {
		b = appendBytes(b, reactionProvenance, appendString(nil, provenanceDOI, r.DOI))
	}
	if r.ReactionID != "" {
		b = appendString(b, reactionID, r.ReactionID)
	}
	return b
}

// DecodeDataset splits a serialized ORD Dataset, as written by
// reaction.EncodeDataset, into its name and serialized reactions.
func DecodeDataset(b []byte) (string, [][]byte, error) {
	var (
		name      string
		reactions [][]byte
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", nil, fmt.Errorf("decode dataset: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return "", nil, fmt.Errorf("decode dataset: %w", protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return "", nil, fmt.Errorf("decode dataset: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case datasetName:
			name = string(v)
		case datasetReactions:
			reactions = append(reactions, v)
		}
	}
	return name, reactions, nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
