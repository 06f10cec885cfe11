// Package directory exposes the read-only lookups used to narrow a
// booking: provider locations, the symptom catalog, and the lab-test
// catalogs. Everything is stateless; the only data dependency is the
// distinct-location query against the provider table.
package directory

import (
	"context"
	"strings"
)

// Diseases is the fixed symptom/disease catalog. "Other" is special:
// provider search treats it as no specialty filter.
var Diseases = []string{
	"Fever", "Cold", "Cough", "Headache", "Stomach Pain",
	"Diabetes", "Hypertension", "Heart Problem", "Skin Rash", "Allergy", "Other",
}

// LabTestTypes is the fixed catalog of orderable lab tests.
var LabTestTypes = []string{
	"Blood Test", "Urine Test", "RTPCR Test", "HIV Test", "DNA Test",
}

// LabLocations is the fixed set of towns with a partner lab.
var LabLocations = []string{
	"Aurangabad", "Beed", "Latur", "Osmanabad", "Solapur",
}

// LocationSource yields the distinct provider locations.
type LocationSource interface {
	DistinctLocations(ctx context.Context) ([]string, error)
}

type Service struct {
	locations LocationSource
}

func NewService(locations LocationSource) *Service {
	return &Service{locations: locations}
}

// Filter keeps the entries containing term, case-insensitively. An
// empty term keeps everything.
func Filter(entries []string, term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]string(nil), entries...)
	}

	var result []string
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e), term) {
			result = append(result, e)
		}
	}
	return result
}

// ProviderLocations lists the distinct locations providers practice
// in, filtered by term.
func (s *Service) ProviderLocations(ctx context.Context, term string) ([]string, error) {
	locations, err := s.locations.DistinctLocations(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(locations, term), nil
}

func (s *Service) SearchDiseases(term string) []string {
	return Filter(Diseases, term)
}

func (s *Service) SearchLabTestTypes(term string) []string {
	return Filter(LabTestTypes, term)
}

func (s *Service) SearchLabLocations(term string) []string {
	return Filter(LabLocations, term)
}

// KnownLabTestType reports whether t is in the catalog.
func KnownLabTestType(t string) bool {
	for _, known := range LabTestTypes {
		if strings.EqualFold(known, t) {
			return true
		}
	}
	return false
}
