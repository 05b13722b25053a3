package server

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrWong99/confab/internal/confab"
	"github.com/MrWong99/confab/internal/format"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/pkg/phoneme"
)

type confabulateRequest struct {
	Phrase  string   `json:"phrase,omitempty"`
	Phrases []string `json:"phrases,omitempty"`
}

type stats struct {
	Visited    int `json:"visited"`
	Backtracks int `json:"backtracks"`
	MaxDepth   int `json:"max_depth"`
}

type confabulation struct {
	Input      string   `json:"input"`
	Output     string   `json:"output,omitempty"`
	Words      []string `json:"words,omitempty"`
	Phonetics  string   `json:"phonetics,omitempty"`
	Similarity float64  `json:"similarity"`
	Strategy   string   `json:"strategy"`
	Stats      stats    `json:"stats"`
	Error      string   `json:"error,omitempty"`
}

type batchResponse struct {
	Results []confabulation `json:"results"`
}

type errorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (s *Server) handleConfabulate(w http.ResponseWriter, r *http.Request) {
	var req confabulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	c := s.Confabulator()
	switch {
	case req.Phrase != "" && len(req.Phrases) > 0:
		s.writeError(w, r, http.StatusBadRequest, errors.New("set either phrase or phrases, not both"))
	case len(req.Phrases) > s.maxBatch:
		s.writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("%d phrases exceed the limit of %d", len(req.Phrases), s.maxBatch))
	case len(req.Phrases) > 0:
		results, err := c.ConfabulateBatch(r.Context(), req.Phrases)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
		out := batchResponse{Results: make([]confabulation, len(results))}
		for i, br := range results {
			out.Results[i] = toConfabulation(br.Result, c.Strategy(), br.Err)
		}
		writeJSON(w, http.StatusOK, out)
	default:
		res, err := c.Confabulate(r.Context(), req.Phrase)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, toConfabulation(res, c.Strategy(), nil))
	}
}

type homophonesResponse struct {
	Word       string   `json:"word"`
	Phonetics  string   `json:"phonetics"`
	Homophones []string `json:"homophones"`
}

func (s *Server) handleHomophones(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("query parameter word is required"))
		return
	}
	c := s.Confabulator()
	seq, err := c.Pronounce(r.Context(), word)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	entries := c.Dictionary().Homophones(seq)
	out := homophonesResponse{Word: word, Phonetics: seq.String(), Homophones: make([]string, 0, len(entries))}
	for _, e := range entries {
		out.Homophones = append(out.Homophones, strings.ToLower(format.StripVariant(e.Word)))
	}
	writeJSON(w, http.StatusOK, out)
}

type partner struct {
	Word    string `json:"word"`
	Partner string `json:"partner"`
}

type partnersResponse struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	Total    int       `json:"total"`
	Partners []partner `json:"partners"`
}

func (s *Server) handlePartners(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := phoneme.Unit(strings.ToUpper(cmp.Or(strings.TrimSpace(q.Get("from")), "TH")))
	to := phoneme.Unit(strings.ToUpper(cmp.Or(strings.TrimSpace(q.Get("to")), "DH")))
	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("limit %q must be a positive integer", v))
			return
		}
		limit = n
	}

	found := s.Confabulator().Dictionary().Partners(from, to)
	out := partnersResponse{From: string(from.Base()), To: string(to.Base()), Total: len(found), Partners: []partner{}}
	for _, p := range found[:min(limit, len(found))] {
		out.Partners = append(out.Partners, partner{Word: strings.ToLower(p.Word), Partner: strings.ToLower(p.Partner)})
	}
	writeJSON(w, http.StatusOK, out)
}

func toConfabulation(res confab.Result, strategy string, err error) confabulation {
	out := confabulation{
		Input:      res.Input,
		Output:     res.Output,
		Words:      res.Words,
		Similarity: res.SpellingSimilarity,
		Strategy:   strategy,
		Stats: stats{
			Visited:    res.Stats.Visited,
			Backtracks: res.Stats.Backtracks,
			MaxDepth:   res.Stats.MaxDepth,
		},
	}
	if len(res.Phonetics) > 0 {
		out.Phonetics = res.Phonetics.String()
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// statusFor maps confabulation errors to HTTP status codes. A phrase the
// search cannot rebuild means the dictionary and
// converter disagree, which is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, confab.ErrEmptyPhrase), errors.Is(err, confab.ErrConversion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		observe.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), CorrelationID: observe.CorrelationID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
