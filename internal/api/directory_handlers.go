package api

import (
	"net/http"

	"github.com/carebook/clinic-booking/internal/directory"
)

func providerLocationsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locations, err := svc.ProviderLocations(r.Context(), r.URL.Query().Get("term"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, CatalogResponse{Results: locations})
	}
}

func diseasesHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CatalogResponse{Results: svc.SearchDiseases(r.URL.Query().Get("term"))})
	}
}

func labTestTypesHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CatalogResponse{Results: svc.SearchLabTestTypes(r.URL.Query().Get("term"))})
	}
}

func labLocationsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CatalogResponse{Results: svc.SearchLabLocations(r.URL.Query().Get("term"))})
	}
}
