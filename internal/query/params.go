package query

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Params holds raw request parameters as they arrive from a URL query string
// or command-line flags. List parameters are comma-separated; Components
// holds one "pattern;target;mode" token per entry. Empty means absent.
type Params struct {
	DatasetIDs         string
	ReactionIDs        string
	ReactionSmarts     string
	DOIs               string
	Components         []string
	UseStereochemistry string
	Similarity         string
}

// Build turns raw parameters into a validated Query.
//
// Returns (nil, nil) when no query parameter is present. Supplying more than
// one variant is a validation error: variants are not combinable.
func (p Params) Build() (Query, error) {
	var given []string
	if p.DatasetIDs != "" {
		given = append(given, "dataset_ids")
	}
	if p.ReactionIDs != "" {
		given = append(given, "reaction_ids")
	}
	if p.ReactionSmarts != "" {
		given = append(given, "reaction_smarts")
	}
	if p.DOIs != "" {
		given = append(given, "dois")
	}
	if len(p.Components) > 0 {
		given = append(given, "component")
	}

	switch len(given) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, NewValidationError("query parameters are mutually exclusive: %s", strings.Join(given, ", "))
	}

	switch {
	case p.DatasetIDs != "":
		return NewDatasetIDQuery(SplitList(p.DatasetIDs))
	case p.ReactionIDs != "":
		return NewReactionIDQuery(SplitList(p.ReactionIDs))
	case p.ReactionSmarts != "":
		return NewReactionSmartsQuery(p.ReactionSmarts)
	case p.DOIs != "":
		return NewDOIQuery(SplitList(p.DOIs))
	default:
		return p.buildComponents()
	}
}

func (p Params) buildComponents() (Query, error) {
	predicates := make([]Predicate, 0, len(p.Components))
	for _, token := range p.Components {
		pred, err := ParsePredicate(token)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, pred)
	}

	var opts []ComponentOption
	if p.UseStereochemistry != "" {
		chiral, err := strconv.ParseBool(p.UseStereochemistry)
		if err != nil {
			return nil, NewValidationError("invalid use_stereochemistry %q", p.UseStereochemistry)
		}
		opts = append(opts, WithChiralSSS(chiral))
	}
	if p.Similarity != "" {
		threshold, err := strconv.ParseFloat(p.Similarity, 64)
		if err != nil {
			return nil, NewValidationError("invalid similarity %q", p.Similarity)
		}
		opts = append(opts, WithTanimotoThreshold(threshold))
	}
	return NewReactionComponentQuery(predicates, opts...)
}

// SplitList splits a comma-separated parameter and normalizes each entry
// with NormalizeList.
func SplitList(raw string) []string {
	return NormalizeList(strings.Split(raw, ","))
}

// NormalizeList trims whitespace from each entry and NFC-normalizes it so
// visually identical ids bind identically. Empty entries are kept.
func NormalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, norm.NFC.String(strings.TrimSpace(item)))
	}
	return out
}
