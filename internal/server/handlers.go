package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/garrett-reinhard/ord-interface/internal/engine"
	"github.com/garrett-reinhard/ord-interface/internal/metrics"
	"github.com/garrett-reinhard/ord-interface/internal/query"
	"github.com/garrett-reinhard/ord-interface/internal/reaction"
	"github.com/garrett-reinhard/ord-interface/internal/result"
	"github.com/garrett-reinhard/ord-interface/internal/store"
)

const (
	// searchSampleSize is the random sample shown by /api/search when no
	// query is given.
	searchSampleSize = 100

	downloadFilename = "ord_search_results.pb.gz"
)

// resultJSON is one result on the wire. Proto is hex-encoded.
type resultJSON struct {
	DatasetID  string             `json:"dataset_id"`
	ReactionID string             `json:"reaction_id"`
	Proto      string             `json:"proto,omitempty"`
	Reaction   *reaction.Reaction `json:"reaction,omitempty"`
}

// searchResponse is the /api/search body.
type searchResponse struct {
	Query   map[string]any `json:"query"`
	Results []resultJSON   `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// downloadRow is one row of the /api/download_results body.
type downloadRow struct {
	ReactionID string `json:"Reaction ID"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := paramsFromRequest(r).Build()
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	if q == nil {
		s.respondError(w, http.StatusBadRequest, "no query defined")
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	summary, err := parseSummary(r.URL.Query().Get("summary"))
	if err != nil {
		s.respondQueryError(w, err)
		return
	}

	results, err := s.runner.Run(r.Context(), q, engine.RunOptions{Limit: limit})
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.encodeResults(results, summary))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := paramsFromRequest(r).Build()
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	if q == nil {
		q, err = query.NewRandomSampleQuery(searchSampleSize)
		if err != nil {
			s.respondQueryError(w, err)
			return
		}
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.respondQueryError(w, err)
		return
	}

	results, err := s.runner.Run(r.Context(), q, engine.RunOptions{Limit: limit, IDsOnly: true})
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	resp := searchResponse{
		Query:   query.Describe(q),
		Results: s.encodeResults(results, false),
	}
	if len(results) == 0 {
		resp.Error = "query did not match any reactions"
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFetchReactions(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := query.NewReactionIDQuery(ids)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	results, err := s.runner.Run(r.Context(), q, engine.RunOptions{})
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.encodeResults(results, false))
}

func (s *Server) handleDownloadResults(w http.ResponseWriter, r *http.Request) {
	var rows []downloadRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if limit := s.runner.MaxResults(); len(rows) > limit {
		rows = rows[:limit]
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ReactionID
	}
	q, err := query.NewReactionIDQuery(ids)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	results, err := s.runner.Run(r.Context(), q, engine.RunOptions{})
	if err != nil {
		s.respondQueryError(w, err)
		return
	}

	payloads := make([][]byte, len(results))
	for i, res := range results {
		payloads[i] = res.Proto()
	}
	body, err := reaction.GzipDataset(reaction.DownloadName, payloads)
	if err != nil {
		s.logger.Error("download: compress failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to build download")
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("download: write failed", zap.Error(err))
	}
}

func (s *Server) handleReaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, err := query.NewReactionIDQuery([]string{id})
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	results, err := s.runner.Run(r.Context(), q, engine.RunOptions{})
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	if len(results) == 0 {
		s.respondError(w, http.StatusNotFound, "reaction not found")
		return
	}

	res := results[0]
	rxn, err := res.Reaction()
	if err != nil {
		metrics.DecodeFailuresTotal.Inc()
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resultJSON{
		DatasetID:  res.DatasetID(),
		ReactionID: res.ReactionID(),
		Proto:      hex.EncodeToString(res.Proto()),
		Reaction:   rxn,
	})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.runner.Datasets(r.Context())
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, datasets)
}

type healthJSON struct {
	Status string          `json:"status"`
	Pool   *store.PoolStat `json:"pool,omitempty"`
}

// handleHealth pings the store when a Pinger is configured and reports pool
// usage when the Pinger also tracks it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger == nil {
		s.respondJSON(w, http.StatusOK, healthJSON{Status: "ok"})
		return
	}
	resp := healthJSON{Status: "ok"}
	if st, ok := s.pinger.(PoolStater); ok {
		stat := st.Stat()
		resp.Pool = &stat
	}
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.logger.Warn("health: store ping failed", zap.Error(err))
		resp.Status = "unavailable"
		s.respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// encodeResults converts results for the wire. With summary set, each
// payload is decoded; rows that fail to decode keep their raw proto, are
// logged and counted, and carry no summary.
func (s *Server) encodeResults(results []*result.Result, summary bool) []resultJSON {
	out := make([]resultJSON, 0, len(results))
	for _, res := range results {
		item := resultJSON{
			DatasetID:  res.DatasetID(),
			ReactionID: res.ReactionID(),
		}
		if res.HasPayload() {
			item.Proto = hex.EncodeToString(res.Proto())
		}
		if summary && res.HasPayload() {
			rxn, err := res.Reaction()
			if err != nil {
				metrics.DecodeFailuresTotal.Inc()
				s.logger.Warn("skipping reaction summary", zap.String("reaction_id", res.ReactionID()), zap.Error(err))
			} else {
				item.Reaction = rxn
			}
		}
		out = append(out, item)
	}
	return out
}

// paramsFromRequest collects the query parameters of r.
func paramsFromRequest(r *http.Request) query.Params {
	v := r.URL.Query()
	return query.Params{
		DatasetIDs:         v.Get("dataset_ids"),
		ReactionIDs:        v.Get("reaction_ids"),
		ReactionSmarts:     v.Get("reaction_smarts"),
		DOIs:               v.Get("dois"),
		Components:         v["component"],
		UseStereochemistry: v.Get("use_stereochemistry"),
		Similarity:         v.Get("similarity"),
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, query.NewValidationError("invalid limit %q", raw)
	}
	return n, nil
}

func parseSummary(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, query.NewValidationError("invalid summary %q", raw)
	}
	return v, nil
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var qe *query.Error
	switch {
	case errors.As(err, &qe):
		if qe.Code == query.ErrCodeInternal {
			return http.StatusInternalServerError
		}
		return http.StatusBadRequest
	case query.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondQueryError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		s.logger.Warn("store unavailable", zap.Error(err))
		msg = "database unavailable"
	case http.StatusInternalServerError:
		s.logger.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	s.respondError(w, status, msg)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
