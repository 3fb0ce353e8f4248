// Package reaction reads and writes the parts of ORD Reaction and Dataset
// protocol buffer messages that the query layer surfaces.
//
// Payloads are handled at the wire level. Only the fields below are
// interpreted; everything else is skipped on decode.
//
//	Reaction:   identifiers=1, inputs=2 (map<string, ReactionInput>),
//	            outcomes=8, provenance=9 {doi=4}, reaction_id=10
//	Identifier: type=1, details=2, value=3
//	Dataset:    name=1, description=2, reactions=3, dataset_id=5
package reaction

// IdentifierType is the ORD ReactionIdentifier.type enum.
type IdentifierType int32

const (
	IdentifierUnspecified IdentifierType = iota
	IdentifierCustom
	IdentifierReactionSMILES
	IdentifierRDFile
	IdentifierRInChI
	IdentifierReactionType
	IdentifierReactionCXSMILES
)

var identifierTypeNames = map[IdentifierType]string{
	IdentifierUnspecified:      "UNSPECIFIED",
	IdentifierCustom:           "CUSTOM",
	IdentifierReactionSMILES:   "REACTION_SMILES",
	IdentifierRDFile:           "RDFILE",
	IdentifierRInChI:           "RINCHI",
	IdentifierReactionType:     "REACTION_TYPE",
	IdentifierReactionCXSMILES: "REACTION_CXSMILES",
}

func (t IdentifierType) String() string {
	if name, ok := identifierTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Identifier is one ReactionIdentifier.
type Identifier struct {
	Type    IdentifierType `json:"type"`
	Details string         `json:"details,omitempty"`
	Value   string         `json:"value"`
}

// Reaction is the decoded summary of an ORD Reaction.
type Reaction struct {
	ReactionID  string       `json:"reaction_id"`
	Identifiers []Identifier `json:"identifiers,omitempty"`
	// InputNames holds the keys of the inputs map in wire order.
	InputNames  []string `json:"input_names,omitempty"`
	NumOutcomes int      `json:"num_outcomes"`
	DOI         string   `json:"doi,omitempty"`
}

// SMILES returns the first reaction SMILES (or CXSMILES) identifier value, or
// "" if the reaction has none.
func (r *Reaction) SMILES() string {
	for _, id := range r.Identifiers {
		if id.Type == IdentifierReactionSMILES || id.Type == IdentifierReactionCXSMILES {
			return id.Value
		}
	}
	return ""
}
