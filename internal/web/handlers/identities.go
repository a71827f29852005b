package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// IdentitiesHandler handles enrollment and identity lookup endpoints.
type IdentitiesHandler struct {
	engine Engine
}

// NewIdentitiesHandler creates a new identities handler
func NewIdentitiesHandler(engine Engine) *IdentitiesHandler {
	return &IdentitiesHandler{engine: engine}
}

// List returns every enrolled identity in enrollment order.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.engine.Identities(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toIdentityResponses(identities))
}

// Get returns a single identity.
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := h.engine.Identity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toIdentityResponse(*identity))
}

// Search returns identities whose name contains the name query parameter.
func (h *IdentitiesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("name"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}
	identities, err := h.engine.FindByName(r.Context(), query)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toIdentityResponses(identities))
}

// Enroll registers a new identity from a multipart form with name, id and image fields.
func (h *IdentitiesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r, "image")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold, err := parseThreshold(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := h.engine.Enroll(r.Context(), attendance.EnrollRequest{
		Name:      r.FormValue("name"),
		ID:        r.FormValue("id"),
		Image:     image,
		Threshold: threshold,
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toIdentityResponse(*identity))
}

// Similar lists the enrolled identities nearest to the face in the uploaded image.
func (h *IdentitiesHandler) Similar(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r, "image")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	k := 0
	if s := strings.TrimSpace(r.FormValue("k")); s != "" {
		k, err = strconv.Atoi(s)
		if err != nil || k < 0 {
			respondError(w, http.StatusBadRequest, "invalid k")
			return
		}
	}

	neighbours, err := h.engine.Similar(r.Context(), image, k)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	out := make([]NeighbourResponse, len(neighbours))
	for i, n := range neighbours {
		out[i] = NeighbourResponse{
			Identity:        toIdentityResponse(n.Identity),
			Distance:        n.Distance,
			WithinEnroll:    n.WithinEnroll,
			WithinRecognize: n.WithinRecognize,
		}
	}
	respondJSON(w, http.StatusOK, out)
}
