package sessionapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// CreateRequest is the POST /session body.
type CreateRequest struct {
	IDToken string `json:"idToken"`
}

// Response describes the caller's session. The token itself only travels
// through the transport.
type Response struct {
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rotated   bool      `json:"rotated"`
}

func newResponse(rec *session.Record, rotated bool) Response {
	return Response{
		UserID:    rec.UserID,
		SessionID: rec.SessionID,
		ExpiresAt: rec.ExpiresAt,
		Rotated:   rotated,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.IDToken == "" {
		h.fail(w, r, errMissingIDToken)
		return
	}

	id, err := h.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.establish(ctx, r, id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.transport.SetToken(w, res.token, h.sessions.Config().TTL); err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if res.created {
		status = http.StatusCreated
	}
	h.respond(w, r, status, newResponse(res.record, res.rotated))
}

type established struct {
	token   string
	record  *session.Record
	rotated bool
	created bool
}

// establish continues, replaces or creates the caller's session for userID.
// A live session of the same user is rotated, one of another user is revoked
// as replaced before a new one is created.
func (h *Handler) establish(ctx context.Context, r *http.Request, userID string) (*established, error) {
	meta := session.MetadataFromRequest(r)

	if existing := h.token(r); existing != "" {
		rec, err := h.sessions.Lookup(ctx, existing)
		switch {
		case err == nil && rec.UserID == userID:
			rot, err := h.sessions.Rotate(ctx, existing, meta)
			if err == nil {
				return &established{token: rot.Token, record: rot.Record, rotated: rot.Rotated}, nil
			}
			// Lost a rotation race or expired since the lookup: start over.
			if !errors.Is(err, session.ErrSessionNotFound) {
				return nil, err
			}
		case err == nil:
			if err := h.sessions.Revoke(ctx, existing, session.ReasonReplaced); err != nil {
				return nil, err
			}
		case !errors.Is(err, session.ErrSessionNotFound):
			return nil, err
		}
	}

	token, rec, err := h.sessions.Create(ctx, userID, meta)
	if err != nil {
		return nil, err
	}
	return &established{token: token, record: rec, created: true}, nil
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	token := h.token(r)
	if token == "" {
		h.fail(w, r, session.ErrSessionNotFound)
		return
	}

	rec, err := h.sessions.Touch(r.Context(), token)
	if err != nil {
		h.dropOnNotFound(w, err)
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, newResponse(rec, false))
}

func (h *Handler) rotate(w http.ResponseWriter, r *http.Request) {
	token := h.token(r)
	if token == "" {
		h.fail(w, r, session.ErrSessionNotFound)
		return
	}

	rot, err := h.sessions.Rotate(r.Context(), token, session.MetadataFromRequest(r))
	if err != nil {
		h.dropOnNotFound(w, err)
		h.fail(w, r, err)
		return
	}

	if err := h.transport.SetToken(w, rot.Token, h.sessions.Config().TTL); err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, newResponse(rot.Record, rot.Rotated))
}

// logout revokes the caller's session and clears the transport. Unknown and
// already revoked sessions still get 204.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.transport.ClearToken(w); err != nil {
		h.fail(w, r, err)
		return
	}

	if token := h.token(r); token != "" {
		if err := h.sessions.Revoke(r.Context(), token, session.ReasonLogout); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// dropOnNotFound clears a dead token so the client stops sending it.
func (h *Handler) dropOnNotFound(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		_ = h.transport.ClearToken(w)
	}
}

// token returns the request's session token, or "" when it carries none or
// the transport cannot read it.
func (h *Handler) token(r *http.Request) string {
	token, err := h.transport.GetToken(r)
	if err != nil {
		return ""
	}
	return token
}
