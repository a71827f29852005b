package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
)

// AttendanceHandler handles attendance capture and ledger endpoints.
type AttendanceHandler struct {
	engine Engine
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(engine Engine) *AttendanceHandler {
	return &AttendanceHandler{engine: engine}
}

// Mark processes one capture. Every outcome of the attempt is a 200 reply;
// only invalid input and detector or storage failures are errors.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.engine.Mark(r.Context(), attendance.MarkRequest{
		Image:     image,
		Threshold: threshold,
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toMarkResponse(result))
}

// Today returns the current day's attendance in mark order.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	records, err := h.engine.Today(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(records))
}

// History returns the full attendance history, optionally filtered by id and date.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	filter := attendance.HistoryFilter{
		IdentityID: strings.TrimSpace(r.URL.Query().Get("id")),
		Date:       strings.TrimSpace(r.URL.Query().Get("date")),
	}
	if filter.Date != "" {
		if _, err := time.Parse(constants.DateLayout, filter.Date); err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	records, err := h.engine.History(r.Context(), filter)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(records))
}
