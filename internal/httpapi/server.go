package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/service"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/token"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/types"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
)

type Dependencies struct {
	Logger *log.Logger
	Addr   string
	Guard  *service.Guard
	Cards  *service.CardManager
	Tokens *token.Service
	Audit  audit.Logger
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	guard      *service.Guard
	cards      *service.CardManager
	tokens     *token.Service
	audit      audit.Logger
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger: d.Logger,
		mux:    mux,
		guard:  d.Guard,
		cards:  d.Cards,
		tokens: d.Tokens,
		audit:  d.Audit,
	}

	mux.HandleFunc("POST /v1/access_request", s.handleAccessRequest)
	mux.HandleFunc("POST /v1/cards", s.handleCreateCard)
	mux.HandleFunc("POST /v1/cards/permissions", s.handleModifyPermissions)
	mux.HandleFunc("POST /v1/cards/revoke", s.handleRevokeCard)
	mux.HandleFunc("POST /v1/tokens", s.handleIssueToken)
	mux.HandleFunc("GET /v1/history", s.handleHistory)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleAccessRequest(w http.ResponseWriter, r *http.Request) {
	var req types.AccessRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if req.FacadeID == "" {
		writeError(w, http.StatusBadRequest, "invalid_facade_id", "facade_id is required")
		return
	}

	f, err := zone.Parse(req.Floor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_floor", "unknown floor: "+req.Floor)
		return
	}

	var at time.Time
	if req.RequestedAt != "" {
		at, err = time.Parse(time.RFC3339, req.RequestedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "requested_at must be RFC 3339")
			return
		}
	}

	granted, reason, err := s.guard.GrantAccess(r.Context(), req.FacadeID, f, req.Room, req.Token, at)
	if err != nil {
		s.logger.Printf("access_request error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, types.AccessResponse{
		OK:         true,
		Granted:    granted,
		Reason:     reason,
		Floor:      f.String(),
		ServerTime: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCardRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	spec, err := permissionSpecFromPayload(req.Permission)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_permission", err.Error())
		return
	}

	ident := card.Identifier{
		SerialNumber: req.SerialNumber,
		IssuerID:     req.IssuerID,
		IssueDate:    time.Now().UTC(),
	}

	c, err := s.cards.Create(r.Context(), ident, spec, req.Secure)
	if err != nil {
		switch {
		case errors.Is(err, card.ErrInvalidIdentifier):
			writeError(w, http.StatusBadRequest, "invalid_identifier", err.Error())
		case errors.Is(err, card.ErrInvalidPermissionSpec):
			writeError(w, http.StatusBadRequest, "invalid_permission", err.Error())
		default:
			s.logger.Printf("create card error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, types.CreateCardResponse{
		OK:        true,
		FacadeID:  c.PrimaryFacadeID(),
		CreatedAt: c.CreatedAt().Format(time.RFC3339),
	})
}

func (s *Server) handleModifyPermissions(w http.ResponseWriter, r *http.Request) {
	var req types.ModifyPermissionsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	spec, err := permissionSpecFromPayload(req.Permission)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_permission", err.Error())
		return
	}

	if _, err := s.cards.ModifyPermissions(r.Context(), req.FacadeID, spec, req.Actor); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownCard):
			writeError(w, http.StatusNotFound, "unknown_card", "no card for facade id")
		case errors.Is(err, card.ErrInvalidPermissionSpec):
			writeError(w, http.StatusBadRequest, "invalid_permission", err.Error())
		default:
			s.logger.Printf("modify permissions error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, types.StatusResponse{OK: true})
}

func (s *Server) handleRevokeCard(w http.ResponseWriter, r *http.Request) {
	var req types.RevokeCardRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	if err := s.cards.Revoke(r.Context(), req.FacadeID, req.Actor); err != nil {
		if errors.Is(err, service.ErrUnknownCard) {
			writeError(w, http.StatusNotFound, "unknown_card", "no card for facade id")
			return
		}
		s.logger.Printf("revoke card error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, types.StatusResponse{OK: true})
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req types.TokenRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	c, err := s.cards.FindByFacadeID(r.Context(), req.FacadeID)
	if err != nil {
		s.logger.Printf("issue token error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if c == nil || !c.Active() {
		writeError(w, http.StatusNotFound, "unknown_card", "no active card for facade id")
		return
	}

	value, expiresAt := s.tokens.Generate(c.RealID())

	writeJSON(w, http.StatusOK, types.TokenResponse{
		OK:        true,
		Token:     value,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// handleHistory serves the audit trail, either by card (facade id) or by
// location over a time range. Records are keyed internally by real card id,
// so the card query resolves the facade first and the response swaps the
// facade id back in.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if facadeID := q.Get("card_id"); facadeID != "" {
		c, err := s.cards.FindByFacadeID(r.Context(), facadeID)
		if err != nil {
			s.logger.Printf("history error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
		if c == nil {
			writeError(w, http.StatusNotFound, "unknown_card", "no card for facade id")
			return
		}

		records := s.audit.History(c.RealID())
		writeJSON(w, http.StatusOK, historyResponse(records, facadeID))
		return
	}

	location := q.Get("location")
	if location == "" {
		writeError(w, http.StatusBadRequest, "bad_query", "card_id or location is required")
		return
	}

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_time", "start must be RFC 3339")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_time", "end must be RFC 3339")
		return
	}

	records := s.audit.LocationHistory(location, start, end)
	writeJSON(w, http.StatusOK, historyResponse(records, ""))
}

func permissionSpecFromPayload(p types.PermissionPayload) (card.PermissionSpec, error) {
	spec := card.PermissionSpec{Floors: p.Floors, Rooms: p.Rooms}

	if p.ValidFrom != "" {
		from, err := time.Parse(time.RFC3339, p.ValidFrom)
		if err != nil {
			return card.PermissionSpec{}, errors.New("valid_from must be RFC 3339")
		}
		spec.ValidFrom = &from
	}
	if p.ValidUntil != "" {
		until, err := time.Parse(time.RFC3339, p.ValidUntil)
		if err != nil {
			return card.PermissionSpec{}, errors.New("valid_until must be RFC 3339")
		}
		spec.ValidUntil = &until
	}

	return spec, nil
}

// historyResponse converts trail records to wire payloads. When facadeID is
// set the real card id is replaced with it so internal identifiers stay
// internal.
func historyResponse(records []audit.Record, facadeID string) types.HistoryResponse {
	out := types.HistoryResponse{OK: true, Records: make([]types.AuditRecordPayload, 0, len(records))}
	for _, rec := range records {
		cardID := rec.CardID
		if facadeID != "" {
			cardID = facadeID
		}
		out.Records = append(out.Records, types.AuditRecordPayload{
			ID:        rec.ID.String(),
			Event:     string(rec.Event),
			CardID:    cardID,
			Location:  rec.Location,
			ActorID:   rec.ActorID,
			Outcome:   rec.Outcome,
			Timestamp: rec.Timestamp.Format(time.RFC3339),
			Details:   rec.Details,
		})
	}
	return out
}
