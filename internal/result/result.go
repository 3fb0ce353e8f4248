// Package result maps query rows to typed results.
package result

import (
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/garrett-reinhard/ord-interface/internal/query"
	"github.com/garrett-reinhard/ord-interface/internal/reaction"
)

// Result is one matched reaction.
//
// The serialized payload is decoded on the first call to Reaction and the
// outcome, value or error, is cached. A Result is safe for concurrent use.
type Result struct {
	datasetID  string
	reactionID string
	proto      []byte
	loaded     bool

	once     sync.Once
	reaction *reaction.Reaction
	err      error
}

// New creates a Result carrying a serialized reaction payload.
func New(datasetID, reactionID string, proto []byte) *Result {
	return &Result{
		datasetID:  datasetID,
		reactionID: reactionID,
		proto:      proto,
		loaded:     true,
	}
}

// NewIDsOnly creates a Result without a payload.
func NewIDsOnly(datasetID, reactionID string) *Result {
	return &Result{datasetID: datasetID, reactionID: reactionID}
}

// DatasetID returns the id of the dataset the reaction belongs to.
func (r *Result) DatasetID() string { return r.datasetID }

// ReactionID returns the reaction id.
func (r *Result) ReactionID() string { return r.reactionID }

// Proto returns the serialized reaction exactly as stored. It is nil for
// ids-only results. Callers must not modify the returned slice.
func (r *Result) Proto() []byte { return r.proto }

// HasPayload reports whether the row carried a serialized reaction.
func (r *Result) HasPayload() bool { return r.loaded }

// Reaction returns the decoded reaction. A payload that does not decode
// yields a DESERIALIZATION *query.Error naming the reaction id.
func (r *Result) Reaction() (*reaction.Reaction, error) {
	r.once.Do(func() {
		if !r.loaded {
			r.err = &query.Error{
				Code:    query.ErrCodeDeserialization,
				Message: "payload not loaded for reaction " + r.reactionID,
			}
			return
		}
		parsed, err := reaction.Unmarshal(r.proto)
		if err != nil {
			r.err = (&query.Error{
				Code:    query.ErrCodeDeserialization,
				Message: "failed to deserialize reaction " + r.reactionID,
				Cause:   err,
			}).WithDetail("reaction_id", r.reactionID)
			return
		}
		r.reaction = parsed
	})
	return r.reaction, r.err
}

// Scan reads one row. The row must select dataset_id and reaction_id, followed
// by proto unless idsOnly is set.
func Scan(row pgx.Row, idsOnly bool) (*Result, error) {
	var datasetID, reactionID string
	if idsOnly {
		if err := row.Scan(&datasetID, &reactionID); err != nil {
			return nil, err
		}
		return NewIDsOnly(datasetID, reactionID), nil
	}
	var proto []byte
	if err := row.Scan(&datasetID, &reactionID, &proto); err != nil {
		return nil, err
	}
	return New(datasetID, reactionID, proto), nil
}
