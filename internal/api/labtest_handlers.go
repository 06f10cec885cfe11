package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carebook/clinic-booking/internal/labtest"
)

func createLabTestHandler(svc *labtest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req CreateLabTestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.Create(r.Context(), req.TestType, req.Location, actor.ID, actor.Email)
		if err != nil {
			handleLabTestError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toLabTestResponse(created))
	}
}

func cancelLabTestHandler(svc *labtest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.Cancel(r.Context(), id, actor.ID); err != nil {
			handleLabTestError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": string(labtest.StatusCancelled)})
	}
}

func labTestStatusHandler(svc *labtest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireRole(w, r, RoleAdmin); !ok {
			return
		}
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		var req LabTestStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.SetStatus(r.Context(), id, labtest.Status(req.Status))
		if err != nil {
			handleLabTestError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toLabTestResponse(updated))
	}
}

func listLabTestsHandler(svc *labtest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		status := labtest.Status(r.URL.Query().Get("status"))
		tests, err := svc.ListOwned(r.Context(), actor.ID, status)
		if err != nil {
			handleLabTestError(w, err)
			return
		}

		result := make([]LabTestResponse, 0, len(tests))
		for i := range tests {
			result = append(result, toLabTestResponse(&tests[i]))
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleLabTestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, labtest.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "lab_test_not_found", err.Error())
	case errors.Is(err, labtest.ErrMissingTestType),
		errors.Is(err, labtest.ErrMissingLocation),
		errors.Is(err, labtest.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, labtest.ErrNotCancellable),
		errors.Is(err, labtest.ErrAlreadyFinal):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, labtest.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_authorized", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
