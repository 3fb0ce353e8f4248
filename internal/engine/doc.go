// Package engine executes reaction queries.
//
// A Run compiles the query with package querysql, checks out one pooled
// connection, streams the rows through package result, and releases the
// connection on every path.
//
// Row ceiling:
//   - every variant except ReactionIDQuery is capped at
//     min(RunOptions.Limit, Config.MaxResults)
//   - ReactionIDQuery is bounded by its id list and never capped
//   - RandomSampleQuery is capped at min(n, limit)
//
// Failures are classified by store.ClassifyError. Nothing is retried here;
// a *query.UnavailableError tells the caller a retry may succeed.
package engine
