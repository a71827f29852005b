package handlers

import (
	"math"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// IdentityResponse is an enrolled identity without its embedding.
type IdentityResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Dim        int       `json:"dim"`
	EnrolledAt time.Time `json:"enrolled_at,omitzero"`
}

// RecordResponse is one attendance record.
type RecordResponse struct {
	IdentityID string `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// MarkResponse is the result of an attendance attempt.
type MarkResponse struct {
	Outcome       attendance.Outcome `json:"outcome"`
	Identity      *IdentityResponse  `json:"identity,omitempty"`
	Distance      *float64           `json:"distance,omitempty"`
	Record        *RecordResponse    `json:"record,omitempty"`
	Region        *facematch.Region  `json:"region,omitempty"`
	FacesDetected int                `json:"faces_detected"`
}

// NeighbourResponse is one entry of a similarity inspection.
type NeighbourResponse struct {
	Identity        IdentityResponse `json:"identity"`
	Distance        float64          `json:"distance"`
	WithinEnroll    bool             `json:"within_enroll_threshold"`
	WithinRecognize bool             `json:"within_recognize_threshold"`
}

func toIdentityResponse(identity database.Identity) IdentityResponse {
	return IdentityResponse{
		ID:         identity.ID,
		Name:       identity.Name,
		Dim:        len(identity.Embedding),
		EnrolledAt: identity.EnrolledAt,
	}
}

func toIdentityResponses(identities []database.Identity) []IdentityResponse {
	out := make([]IdentityResponse, len(identities))
	for i := range identities {
		out[i] = toIdentityResponse(identities[i])
	}
	return out
}

func toRecordResponses(records []database.AttendanceRecord) []RecordResponse {
	out := make([]RecordResponse, len(records))
	for i, r := range records {
		out[i] = RecordResponse(r)
	}
	return out
}

func toMarkResponse(result *attendance.MarkResult) MarkResponse {
	resp := MarkResponse{
		Outcome:       result.Outcome,
		FacesDetected: result.FacesDetected,
	}
	if result.FacesDetected > 0 {
		region := result.Region
		resp.Region = &region
	}
	if result.Identity != nil {
		identity := toIdentityResponse(*result.Identity)
		resp.Identity = &identity
		if !math.IsInf(result.Distance, 0) && !math.IsNaN(result.Distance) {
			distance := result.Distance
			resp.Distance = &distance
		}
	}
	if result.Record != nil {
		record := RecordResponse(*result.Record)
		resp.Record = &record
	}
	return resp
}
