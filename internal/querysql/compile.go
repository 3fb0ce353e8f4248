// Package querysql compiles query variants to parameterized PostgreSQL.
//
// The target schema is:
//
//	dataset(id, dataset_id, name, description)
//	reaction(id, dataset_id -> dataset.id, reaction_id, doi, proto, rxn)
//	reaction_input(reaction_id -> reaction.id, mol, morgan_bfp)
//	reaction_output(reaction_id -> reaction.id, mol, morgan_bfp)
//
// where rxn, mol and morgan_bfp are RDKit cartridge types. Chemistry matching
// is delegated to cartridge functions; see functions.go for the contract.
//
// CRITICAL: All values are parameterized (never interpolated).
package querysql

import (
	"fmt"
	"strings"

	"github.com/garrett-reinhard/ord-interface/internal/query"
)

// Statement is a compiled query: SQL text with $n placeholders plus the
// values bound to them, in placeholder order.
type Statement struct {
	SQL  string
	Args []any
}

// Options tune compilation for execution.
//
// The zero value compiles the variant on its own terms: no row ceiling except
// the sample size of a RandomSampleQuery.
type Options struct {
	// Limit caps the number of rows when positive. It is not applied to
	// ReactionIDQuery, whose id list already bounds the result.
	Limit int

	// IDsOnly selects only the dataset and reaction id columns.
	IDsOnly bool
}

const (
	fullColumns = "dataset.dataset_id, reaction.reaction_id, reaction.proto"
	idColumns   = "dataset.dataset_id, reaction.reaction_id"
	fromClause  = "FROM reaction JOIN dataset ON dataset.id = reaction.dataset_id"
	stableOrder = "ORDER BY reaction.reaction_id"
)

// Compile converts a query variant to a Statement.
//
// Compile is pure and total for every variant built through its constructor.
// The only failure is an INTERNAL *query.Error for nil or hand-assembled
// variants.
func Compile(q query.Query, opts Options) (Statement, error) {
	if q == nil {
		return Statement{}, query.NewInternalError("cannot compile nil query")
	}

	b := &builder{}
	b.write("SELECT ")
	if opts.IDsOnly {
		b.write(idColumns)
	} else {
		b.write(fullColumns)
	}
	b.write(" " + fromClause)

	switch v := q.(type) {
	case *query.DatasetIDQuery:
		if err := b.whereIn("dataset.dataset_id", v.IDs()); err != nil {
			return Statement{}, err
		}
		b.write(" " + stableOrder)
		b.limit(opts.Limit)

	case *query.ReactionIDQuery:
		if err := b.whereIn("reaction.reaction_id", v.IDs()); err != nil {
			return Statement{}, err
		}
		b.write(" " + stableOrder)

	case *query.DOIQuery:
		if err := b.whereIn("reaction.doi", v.DOIs()); err != nil {
			return Statement{}, err
		}
		b.write(" " + stableOrder)
		b.limit(opts.Limit)

	case *query.ReactionSmartsQuery:
		if v.Pattern() == "" {
			return Statement{}, query.NewInternalError("reaction SMARTS query has no pattern")
		}
		b.write(" WHERE " + reactionMatch(b, v.Pattern()))
		b.write(" " + stableOrder)
		b.limit(opts.Limit)

	case *query.ReactionComponentQuery:
		if err := b.whereComponents(v); err != nil {
			return Statement{}, err
		}
		b.write(" " + stableOrder)
		b.limit(opts.Limit)

	case *query.RandomSampleQuery:
		n := v.N()
		if n <= 0 {
			return Statement{}, query.NewInternalError("random sample query has size %d", n)
		}
		if opts.Limit > 0 && opts.Limit < n {
			n = opts.Limit
		}
		b.write(" ORDER BY " + fnRandom + "()")
		b.limit(n)

	default:
		return Statement{}, query.NewInternalError("unsupported query type: %T", q)
	}

	return b.statement(), nil
}

// builder accumulates SQL text and bound arguments.
type builder struct {
	sql  strings.Builder
	args []any
}

func (b *builder) write(s string) {
	b.sql.WriteString(s)
}

// bind appends a value and returns its placeholder.
func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// whereIn writes "WHERE column IN ($i, ..., $j)" binding values in order.
func (b *builder) whereIn(column string, values []string) error {
	if len(values) == 0 {
		return query.NewInternalError("empty value list for %s", column)
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.bind(v)
	}
	b.write(fmt.Sprintf(" WHERE %s IN (%s)", column, strings.Join(placeholders, ", ")))
	return nil
}

// whereComponents writes one EXISTS clause per predicate, joined with AND.
func (b *builder) whereComponents(q *query.ReactionComponentQuery) error {
	preds := q.Predicates()
	if len(preds) == 0 {
		return query.NewInternalError("component query has no predicates")
	}
	clauses := make([]string, 0, len(preds))
	for _, p := range preds {
		clause, err := componentMatch(b, p, q.DoChiralSSS(), q.TanimotoThreshold())
		if err != nil {
			return err
		}
		clauses = append(clauses, clause)
	}
	b.write(" WHERE " + strings.Join(clauses, " AND "))
	return nil
}

func (b *builder) limit(n int) {
	if n > 0 {
		b.write(" LIMIT " + b.bind(n))
	}
}

func (b *builder) statement() Statement {
	return Statement{SQL: b.sql.String(), Args: b.args}
}
