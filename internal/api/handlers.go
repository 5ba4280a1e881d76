package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	settings "github.com/mldkyt/go-settings"
	"github.com/mldkyt/go-settings/internal/hydrate"
	"github.com/mldkyt/go-settings/schema/openapi"
)

// resultBody is the JSON shape of a dispatch Result.
type resultBody struct {
	Kind        settings.ResultKind `json:"kind"`
	Group       string              `json:"group"`
	Item        string              `json:"item"`
	Description string              `json:"description,omitempty"`
	Display     string              `json:"display,omitempty"`
	Value       string              `json:"value,omitempty"`
	Reason      settings.Reason     `json:"reason,omitempty"`
	Detail      string              `json:"detail,omitempty"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Tree().DescribeGroups())
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, ok := s.engine.Tree().DescribeGroup(chi.URLParam(r, "group"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown group")
		return
	}
	respondJSON(w, http.StatusOK, group)
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	doc, err := openapi.Generate(s.engine.Tree(), s.schemaOpts...)
	if err != nil {
		s.logger.Error("generate schema", "error", err)
		respondError(w, http.StatusInternalServerError, "schema unavailable")
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, s.invocation(r))
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	inv := s.invocation(r)
	req, err := decodeBody(w, r, valueDecoder, selector(inv))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	candidate, err := settings.CandidateFromJSON(req.Value)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	inv.Candidate = candidate
	s.dispatch(w, r, inv)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	inv := s.invocation(r)
	inv.Reset = true
	s.dispatch(w, r, inv)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	inv := s.invocation(r)
	req, err := decodeBody(w, r, actionDecoder, selector(inv))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	args, err := candidateArgs(req.Args)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	inv.Args = args
	s.dispatch(w, r, inv)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	snapshot, err := s.engine.Snapshot(r.Context(), domain)
	if err != nil {
		s.logger.Error("snapshot", "domain", domain, "error", err)
		respondError(w, statusForReason(settings.ReasonOf(err)), "The settings store is unavailable, try again later")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	req, err := decodeBody(w, r, evaluateDecoder, hydrate.Context{Domain: domain})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := s.engine.Evaluate(r.Context(), domain, req.Expression)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if settings.ReasonOf(err) == settings.ReasonPersistence {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"result": value})
}

func (s *Server) invocation(r *http.Request) settings.Invocation {
	return settings.Invocation{
		Domain:     chi.URLParam(r, "domain"),
		Group:      chi.URLParam(r, "group"),
		Item:       chi.URLParam(r, "item"),
		Authorized: authorized(r),
		Actor:      r.Header.Get("X-Actor-ID"),
	}
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, inv settings.Invocation) {
	result := s.engine.Dispatch(r.Context(), inv)
	if result.Rejected() && result.Err != nil {
		s.logger.Debug("dispatch rejected",
			"request_id", RequestIDFrom(r.Context()),
			"group", inv.Group,
			"item", inv.Item,
			"reason", result.Reason,
			"error", result.Err,
		)
	}
	respondJSON(w, statusForReason(result.Reason), resultBody{
		Kind:        result.Kind,
		Group:       result.Group,
		Item:        result.Item,
		Description: result.Description,
		Display:     result.DisplayValue,
		Value:       result.Value,
		Reason:      result.Reason,
		Detail:      result.Detail,
	})
}

func selector(inv settings.Invocation) hydrate.Context {
	return hydrate.Context{Domain: inv.Domain, Group: inv.Group, Item: inv.Item}
}
