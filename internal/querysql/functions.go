package querysql

import (
	"fmt"

	"github.com/garrett-reinhard/ord-interface/internal/query"
)

// RDKit cartridge contract. Only names and argument order matter here; the
// matching algorithms belong to the store.
const (
	fnExact           = "mol_eq"
	fnSubstruct       = "substruct"
	fnSubstructChiral = "substruct_chiral"
	fnSimilarity      = "tanimoto_sml"
	fnFingerprint     = "morganbv_fp"
	fnMolFromSmiles   = "mol_from_smiles"
	fnQmolFromSmarts  = "qmol_from_smarts"
	fnRxnFromSmarts   = "reaction_from_smarts"
	fnRandom          = "random"
)

// componentTables maps a target to the table holding its structures.
var componentTables = map[query.Target]string{
	query.TargetInput:  "reaction_input",
	query.TargetOutput: "reaction_output",
}

// componentMatch compiles one predicate to an EXISTS clause over the
// role-appropriate component table.
//
// Exact matching always compares canonical structures including stereo, so
// chiral only changes substructure matching.
func componentMatch(b *builder, p query.Predicate, chiral bool, threshold float64) (string, error) {
	table, ok := componentTables[p.Target()]
	if !ok {
		return "", query.NewInternalError("no component table for target %s", p.Target())
	}

	var match string
	switch p.Mode() {
	case query.MatchExact:
		match = fmt.Sprintf("%s(c.mol, %s)", fnExact, molFromSmiles(b, p.Pattern()))
	case query.MatchSubstructure:
		fn := fnSubstruct
		if chiral {
			fn = fnSubstructChiral
		}
		match = fmt.Sprintf("%s(c.mol, %s)", fn, molFromSmiles(b, p.Pattern()))
	case query.MatchSimilarity:
		fp := fmt.Sprintf("%s(%s)", fnFingerprint, molFromSmiles(b, p.Pattern()))
		match = fmt.Sprintf("%s(c.morgan_bfp, %s) >= %s", fnSimilarity, fp, b.bind(threshold))
	case query.MatchSMARTS:
		match = fmt.Sprintf("%s(c.mol, %s(%s::cstring))", fnSubstruct, fnQmolFromSmarts, b.bind(p.Pattern()))
	default:
		return "", query.NewInternalError("unsupported match mode %s", p.Mode())
	}

	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS c WHERE c.reaction_id = reaction.id AND %s)", table, match), nil
}

// reactionMatch compiles a whole-reaction SMARTS match.
func reactionMatch(b *builder, pattern string) string {
	return fmt.Sprintf("%s(reaction.rxn, %s(%s::cstring))", fnSubstruct, fnRxnFromSmarts, b.bind(pattern))
}

func molFromSmiles(b *builder, smiles string) string {
	return fmt.Sprintf("%s(%s::cstring)", fnMolFromSmiles, b.bind(smiles))
}
