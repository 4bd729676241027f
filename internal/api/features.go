package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/careerdesk/internal/identity"
	"github.com/dmitrymomot/careerdesk/pkg/feature"
)

type featuresResponse struct {
	Tier     feature.Tier      `json:"tier"`
	Features []feature.Feature `json:"features"`
}

type featureCheckResponse struct {
	Feature feature.Feature `json:"feature"`
	Tier    feature.Tier    `json:"tier"`
	Allowed bool            `json:"allowed"`
}

// listFeatures returns the features the caller's tier may use.
func (s *Server) listFeatures(w http.ResponseWriter, r *http.Request) error {
	tier := identity.Tier(r.Context())
	s.writeJSON(w, r, http.StatusOK, featuresResponse{
		Tier:     tier,
		Features: s.policy.Accessible(tier),
	})
	return nil
}

func (s *Server) checkFeature(w http.ResponseWriter, r *http.Request) error {
	f, err := feature.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		return err
	}

	tier := identity.Tier(r.Context())
	s.writeJSON(w, r, http.StatusOK, featureCheckResponse{
		Feature: f,
		Tier:    tier,
		Allowed: s.canAccess(f, tier),
	})
	return nil
}
