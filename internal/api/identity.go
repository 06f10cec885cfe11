package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// Actor is the already-authenticated identity handed to us by the
// boundary layer through headers. This service only checks that the
// actor agrees with the operation (ownership, provider match); it does
// not authenticate.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  string
}

const (
	RolePatient  = "patient"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

var errNoActor = errors.New("missing or invalid X-Actor-ID header")

func actorFromRequest(r *http.Request) (Actor, error) {
	raw := r.Header.Get("X-Actor-ID")
	if raw == "" {
		return Actor{}, errNoActor
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return Actor{}, errNoActor
	}

	return Actor{
		ID:    id,
		Email: r.Header.Get("X-Actor-Email"),
		Role:  r.Header.Get("X-Actor-Role"),
	}, nil
}

func requireActor(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing_actor", err.Error())
		return Actor{}, false
	}
	return actor, true
}

func requireRole(w http.ResponseWriter, r *http.Request, role string) (Actor, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return Actor{}, false
	}
	if actor.Role != role && actor.Role != RoleAdmin {
		writeError(w, http.StatusForbidden, "role_mismatch", "operation requires role "+role)
		return Actor{}, false
	}
	return actor, true
}
