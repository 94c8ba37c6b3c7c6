package appointments

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mentra/availability"
)

func TestCreateAppointmentRejectsBadPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"missing mentor", `{"userId":"u1","meetingDate":"2025-06-02T10:00:00Z"}`},
		{"missing date", `{"userId":"u1","mentorId":"m1"}`},
		{"bad date", `{"userId":"u1","mentorId":"m1","meetingDate":"tomorrow"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(c.body))
			rec := httptest.NewRecorder()
			CreateAppointment(rec, req, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRescheduleAppointmentRequiresNewDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/appointments/a1/reschedule", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	RescheduleAppointment(rec, req, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRespondEngineErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{availability.ErrNotFound, http.StatusNotFound},
		{ErrAppointmentNotFound, http.StatusNotFound},
		{ErrDayUnavailable, http.StatusBadRequest},
		{ErrSlotUnavailable, http.StatusBadRequest},
		{ErrOverlap, http.StatusBadRequest},
		{ErrNotice, http.StatusBadRequest},
		{ErrDailyCap, http.StatusBadRequest},
		{ErrNotScheduled, http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		respondEngineError(rec, c.err)
		if rec.Code != c.code {
			t.Errorf("%v: expected %d, got %d", c.err, c.code, rec.Code)
		}
	}
}
