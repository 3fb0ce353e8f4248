package query

// Describe returns a JSON-friendly description of q, echoed back to API
// clients alongside results so a search can be reproduced.
func Describe(q Query) map[string]any {
	out := map[string]any{"kind": string(q.Kind())}

	switch v := q.(type) {
	case *DatasetIDQuery:
		out["dataset_ids"] = v.IDs()
	case *ReactionIDQuery:
		out["reaction_ids"] = v.IDs()
	case *ReactionSmartsQuery:
		out["reaction_smarts"] = v.Pattern()
	case *DOIQuery:
		out["dois"] = v.DOIs()
	case *ReactionComponentQuery:
		components := make([]map[string]string, 0, len(v.predicates))
		for _, p := range v.predicates {
			components = append(components, map[string]string{
				"pattern": p.pattern,
				"target":  p.target.String(),
				"mode":    p.mode.String(),
			})
		}
		out["components"] = components
		out["use_stereochemistry"] = v.doChiralSSS
		out["similarity"] = v.tanimotoThreshold
	case *RandomSampleQuery:
		out["sample_size"] = v.n
	}
	return out
}
