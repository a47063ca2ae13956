package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/greensidehq/greenside/internal/loader"
	"github.com/greensidehq/greenside/internal/record"
)

// fakeRecordService is a scripted RecordService.
type fakeRecordService struct {
	collection record.Collection
	degraded   bool
	refreshErr error
	appendErr  error
}

func (f *fakeRecordService) Snapshot() (record.Collection, error) {
	return f.collection, nil
}

func (f *fakeRecordService) Append(ctx context.Context, rec record.Record) (record.Collection, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.collection = append(f.collection, rec)
	return f.collection, nil
}

func (f *fakeRecordService) Refresh(ctx context.Context) (record.Collection, bool, error) {
	if f.refreshErr != nil {
		return nil, false, f.refreshErr
	}
	return f.collection, f.degraded, nil
}

func testCollection() record.Collection {
	return record.Collection{
		{Name: "Alice Park", Date: "2025-05-10", Trophy: record.TrophyClubChampion, Course: "Pine Hollow", Score: 71},
		{Name: "Ben Ito", Date: "2025-05-10", Trophy: record.TrophyRunnerUp, Course: "Pine Hollow", Score: 74},
	}
}

func setupRecordRouter(service RecordService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	rc := NewRecordController(service)
	r := gin.New()
	r.GET("/records", rc.List)
	r.POST("/records", rc.Create)
	r.GET("/stats", rc.Stats)
	r.POST("/refresh", rc.Refresh)
	return r
}

func TestRecordController_List(t *testing.T) {
	router := setupRecordRouter(&fakeRecordService{collection: testCollection()})

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var got record.Collection
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestRecordController_Create(t *testing.T) {
	service := &fakeRecordService{collection: testCollection()}
	router := setupRecordRouter(service)

	body := `{"name":"Zoe Hall","date":"2025-07-01","trophy":"longest_drive","course":"Heather Glen","score":72}`
	req := httptest.NewRequest(http.MethodPost, "/records", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", w.Code, w.Body.String())
	}

	var got record.Collection
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 records after append, got %d", len(got))
	}
}

func TestRecordController_Create_InvalidPayload(t *testing.T) {
	router := setupRecordRouter(&fakeRecordService{})

	req := httptest.NewRequest(http.MethodPost, "/records", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestRecordController_Create_RejectedRecord(t *testing.T) {
	router := setupRecordRouter(&fakeRecordService{appendErr: fmt.Errorf("invalid record: trophy unknown")})

	req := httptest.NewRequest(http.MethodPost, "/records", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestRecordController_Stats(t *testing.T) {
	router := setupRecordRouter(&fakeRecordService{collection: testCollection()})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var stats []record.PlayerStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(stats) != 2 {
		t.Errorf("expected stats for 2 players, got %d", len(stats))
	}
}

func TestRecordController_Refresh(t *testing.T) {
	tests := []struct {
		name           string
		service        *fakeRecordService
		expectedStatus int
		expectedHeader string
	}{
		{
			name:           "fresh refresh",
			service:        &fakeRecordService{collection: testCollection()},
			expectedStatus: http.StatusOK,
			expectedHeader: "network",
		},
		{
			name:           "degraded refresh marks the response",
			service:        &fakeRecordService{collection: testCollection(), degraded: true},
			expectedStatus: http.StatusOK,
			expectedHeader: "cache",
		},
		{
			name:           "no data yields retryable 503",
			service:        &fakeRecordService{refreshErr: loader.ErrNoData},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRecordRouter(tt.service)

			req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedHeader != "" && w.Header().Get("X-Served-From") != tt.expectedHeader {
				t.Errorf("expected X-Served-From %q, got %q", tt.expectedHeader, w.Header().Get("X-Served-From"))
			}
			if tt.expectedStatus == http.StatusServiceUnavailable {
				var body map[string]interface{}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if retry, ok := body["retry"].(bool); !ok || !retry {
					t.Error("expected retry affordance in error response")
				}
			}
		})
	}
}
