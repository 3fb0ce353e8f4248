package reaction

import (
	"bytes"
	"compress/gzip"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	reactionIdentifiers protowire.Number = 1
	reactionInputs      protowire.Number = 2
	reactionOutcomes    protowire.Number = 8
	reactionProvenance  protowire.Number = 9
	reactionID          protowire.Number = 10

	identifierType    protowire.Number = 1
	identifierDetails protowire.Number = 2
	identifierValue   protowire.Number = 3

	mapEntryKey protowire.Number = 1

	provenanceDOI protowire.Number = 4

	datasetName      protowire.Number = 1
	datasetReactions protowire.Number = 3
)

// DownloadName is the Dataset name used for search result downloads.
const DownloadName = "ORD Search Results"

// fieldFunc handles one field. b starts at the field value; it returns the
// number of bytes consumed or a negative protowire error code.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walk iterates the fields of a message.
func walk(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

// bytesField consumes a length-delimited field, rejecting other wire types.
func bytesField(num protowire.Number, typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("field %d: unexpected wire type %d", num, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

// Unmarshal decodes a serialized ORD Reaction.
func Unmarshal(b []byte) (*Reaction, error) {
	r := &Reaction{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case reactionIdentifiers:
			v, n, err := bytesField(num, typ, b)
			if err != nil {
				return 0, err
			}
			id, err := unmarshalIdentifier(v)
			if err != nil {
				return 0, fmt.Errorf("identifier %d: %w", len(r.Identifiers), err)
			}
			r.Identifiers = append(r.Identifiers, id)
			return n, nil

		case reactionInputs:
			v, n, err := bytesField(num, typ, b)
			if err != nil {
				return 0, err
			}
			key, err := mapKey(v)
			if err != nil {
				return 0, fmt.Errorf("inputs: %w", err)
			}
			r.InputNames = append(r.InputNames, key)
			return n, nil

		case reactionOutcomes:
			_, n, err := bytesField(num, typ, b)
			if err != nil {
				return 0, err
			}
			r.NumOutcomes++
			return n, nil

		case reactionProvenance:
			v, n, err := bytesField(num, typ, b)
			if err != nil {
				return 0, err
			}
			doi, err := provenanceDOIOf(v)
			if err != nil {
				return 0, fmt.Errorf("provenance: %w", err)
			}
			if doi != "" {
				r.DOI = doi
			}
			return n, nil

		case reactionID:
			v, n, err := bytesField(num, typ, b)
			if err != nil {
				return 0, err
			}
			r.ReactionID = string(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode reaction: %w", err)
	}
	return r, nil
}

func unmarshalIdentifier(b []byte) (Identifier, error) {
	var id Identifier
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case identifierType:
			if typ != protowire.VarintType {
				return 0, fmt.Errorf("field %d: unexpected wire type %d", num, typ)
			}
			v, n := protowire.ConsumeVarint(b)
			id.Type = IdentifierType(int32(v))
			return n, nil
		case identifierDetails:
			v, n, err := bytesField(num, typ, b)
			id.Details = string(v)
			return n, err
		case identifierValue:
			v, n, err := bytesField(num, typ, b)
			id.Value = string(v)
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return id, err
}

func mapKey(b []byte) (string, error) {
	var key string
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == mapEntryKey {
			v, n, err := bytesField(num, typ, b)
			key = string(v)
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return key, err
}

func provenanceDOIOf(b []byte) (string, error) {
	var doi string
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == provenanceDOI {
			v, n, err := bytesField(num, typ, b)
			doi = string(v)
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return doi, err
}

// EncodeDataset builds a serialized ORD Dataset holding the given serialized
// reactions verbatim.
func EncodeDataset(name string, reactions [][]byte) []byte {
	var b []byte
	if name != "" {
		b = appendString(b, datasetName, name)
	}
	for _, r := range reactions {
		b = appendBytes(b, datasetReactions, r)
	}
	return b
}

// GzipDataset encodes a Dataset and gzips it.
func GzipDataset(name string, reactions [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(EncodeDataset(name, reactions)); err != nil {
		return nil, fmt.Errorf("compress dataset: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress dataset: %w", err)
	}
	return buf.Bytes(), nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
