package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/services"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func writeError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ServiceError(c, err)
	return w
}

func TestServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Field: "name", Message: "name is required"}, http.StatusUnprocessableEntity},
		{"forbidden", &services.ForbiddenError{Reason: "only the committee organizer can modify it"}, http.StatusForbidden},
		{"not found", &services.NotFoundError{Resource: "committee"}, http.StatusNotFound},
		{"conflict", &services.ConflictError{Message: "a contribution for this month already exists"}, http.StatusConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := writeError(t, tt.err)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestServiceError_TypedErrorsExposeMessage(t *testing.T) {
	w := writeError(t, &services.ForbiddenError{Reason: "payout belongs to another member"})

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["error"] != "payout belongs to another member" {
		t.Errorf("error = %q, want the denial reason", body["error"])
	}
}

func TestServiceError_UnknownErrorsAreOpaque(t *testing.T) {
	w := writeError(t, errors.New("pq: connection refused"))

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("error = %q, want generic message", body["error"])
	}
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got := Date(d); got != "2024-03-01" {
		t.Errorf("Date = %q, want 2024-03-01", got)
	}
}

func TestParseDate_RejectsTimestamp(t *testing.T) {
	if _, err := ParseDate("2024-03-01T00:00:00Z"); err == nil {
		t.Error("expected error for timestamp input")
	}
}

func TestDatePtr_Nil(t *testing.T) {
	if DatePtr(nil) != nil {
		t.Error("DatePtr(nil) should be nil")
	}
	d := time.Date(2024, 6, 10, 15, 4, 5, 0, time.UTC)
	if got := DatePtr(&d); got == nil || *got != "2024-06-10" {
		t.Errorf("DatePtr = %v, want 2024-06-10", got)
	}
}

func TestParseDatePtr(t *testing.T) {
	if got, err := ParseDatePtr(nil); err != nil || got != nil {
		t.Errorf("ParseDatePtr(nil) = %v, %v", got, err)
	}
	s := "2024-02-29"
	got, err := ParseDatePtr(&s)
	if err != nil {
		t.Fatalf("ParseDatePtr: %v", err)
	}
	if !got.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDatePtr = %v, want 2024-02-29", got)
	}

	bad := "29/02/2024"
	if _, err := ParseDatePtr(&bad); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
