package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/etnz/networth"
	"github.com/etnz/networth/chat"
	"github.com/go-chi/chi/v5"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type typeView struct {
	Type   networth.AccountType `json:"type"`
	Fields networth.Contract    `json:"fields"`
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	var types []typeView
	for _, t := range networth.Types() {
		fields, _ := networth.FieldsFor(t)
		types = append(types, typeView{Type: t, Fields: fields})
	}
	s.writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, networth.ErrNotFound.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}
	a, err := s.store.Add(p)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, a)
}

// handleEditAccount replaces the account named in the path, whatever id the body holds.
func (s *Server) handleEditAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}
	p["id"] = chi.URLParam(r, "id")
	a, err := s.store.Edit(p)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	if !s.store.Remove(chi.URLParam(r, "id")) {
		s.writeError(w, http.StatusNotFound, networth.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.NetWorth())
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.profile.Get())
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}
	profile, err := s.profile.Set(p)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleClearProfile(w http.ResponseWriter, r *http.Request) {
	s.profile.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleChat answers a chat request the way a remote chat backend does.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid chat request: "+err.Error())
		return
	}
	for _, a := range req.Accounts {
		networth.Derive(a)
	}
	answer, err := s.backend.Reply(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Msg("chat backend failed")
		s.writeError(w, http.StatusBadGateway, "no answer from the assistant")
		return
	}
	s.writeJSON(w, http.StatusOK, chat.Response{Response: answer})
}

func (s *Server) readPayload(w http.ResponseWriter, r *http.Request) (networth.Payload, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	p, err := networth.ParsePayload(data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return p, true
}

// writeFailure maps store errors to status codes.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var invalid networth.ValidationError
	switch {
	case errors.As(err, &invalid):
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  invalid.Error(),
			"fields": invalid.Fields(),
		})
	case errors.Is(err, networth.ErrDuplicateID):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, networth.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
