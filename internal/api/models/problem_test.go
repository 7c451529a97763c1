package models

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestNewProblem(t *testing.T) {
	p := NewProblem(ProblemTypeValidation, "Validation error", 400, "trace-123")

	if p.Type != ProblemTypeValidation {
		t.Errorf("expected type %q, got %q", ProblemTypeValidation, p.Type)
	}
	if p.Title != "Validation error" {
		t.Errorf("expected title %q, got %q", "Validation error", p.Title)
	}
	if p.Status != 400 {
		t.Errorf("expected status 400, got %d", p.Status)
	}
	if p.TraceID != "trace-123" {
		t.Errorf("expected trace ID %q, got %q", "trace-123", p.TraceID)
	}
}

func TestProblem_Builders(t *testing.T) {
	p := NewProblem(ProblemTypeNotFound, "Not found", 404, "trace-abc").
		WithDetail("route not found").
		WithInstance("/v1/routes/rte_missing").
		WithErrors([]FieldError{{Field: "id", Message: "unknown"}})

	if p.Detail != "route not found" {
		t.Errorf("unexpected detail: %q", p.Detail)
	}
	if p.Instance != "/v1/routes/rte_missing" {
		t.Errorf("unexpected instance: %q", p.Instance)
	}
	if len(p.Errors) != 1 || p.Errors[0].Field != "id" {
		t.Errorf("unexpected errors: %+v", p.Errors)
	}
}

func TestProblem_Write(t *testing.T) {
	p := NewBadRequest("trace-xyz", "bad input", []FieldError{
		{Field: "name", Message: "is required"},
	})

	rec := httptest.NewRecorder()
	p.Write(rec)

	if rec.Code != 400 {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", ct)
	}
	if id := rec.Header().Get("X-Request-Id"); id != "trace-xyz" {
		t.Errorf("expected X-Request-Id trace-xyz, got %q", id)
	}

	var decoded Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if decoded.Type != ProblemTypeValidation {
		t.Errorf("expected type %q, got %q", ProblemTypeValidation, decoded.Type)
	}
	if len(decoded.Errors) != 1 {
		t.Errorf("expected 1 field error, got %d", len(decoded.Errors))
	}
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name       string
		problem    *Problem
		wantStatus int
		wantType   string
	}{
		{"unauthorized", NewUnauthorized("t", "no token"), 401, ProblemTypeUnauthorized},
		{"not found", NewNotFound("t", "missing"), 404, ProblemTypeNotFound},
		{"too many requests", NewTooManyRequests("t", "slow down"), 429, ProblemTypeTooManyRequests},
		{"internal", NewInternalError("t", "boom"), 500, ProblemTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.problem.Status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.problem.Status)
			}
			if tt.problem.Type != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, tt.problem.Type)
			}
		})
	}
}
