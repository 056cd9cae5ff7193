package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/http/response"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/ctxutil"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/errs"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/services"
)

type fakeMaps struct {
	services.MapsService
	get    func(graphID, userID uuid.UUID) (*services.GraphView, error)
	create func(in services.CreateGraphInput) (*services.CreatedGraph, error)
}

func (f *fakeMaps) Get(_ dbctx.Context, graphID, userID uuid.UUID) (*services.GraphView, error) {
	return f.get(graphID, userID)
}

func (f *fakeMaps) Create(_ dbctx.Context, in services.CreateGraphInput) (*services.CreatedGraph, error) {
	return f.create(in)
}

type fakeOctal struct {
	services.OctalService
	submitted []bool
	next      uuid.UUID
	exercise  string
}

func (f *fakeOctal) SubmitAttempt(_ dbctx.Context, attemptID, _ uuid.UUID, correct bool) (*services.SubmitResult, error) {
	f.submitted = append(f.submitted, correct)
	res := &services.SubmitResult{Attempt: &domain.ExerciseAttempt{ID: attemptID, Correct: correct}}
	if !correct {
		res.NextAttemptID = f.next
	}
	return res, nil
}

func (f *fakeOctal) RequestExercise(_ dbctx.Context, _, _ uuid.UUID, conceptKey string) (*services.ExercisePayload, error) {
	f.exercise = conceptKey
	return &services.ExercisePayload{QID: uuid.New(), Answers: []string{"right"}}, nil
}

type fakeKnowledge struct {
	graphs []uuid.UUID
}

func (f *fakeKnowledge) Infer(_ dbctx.Context, _, graphID uuid.UUID) (*services.Knowledge, error) {
	f.graphs = append(f.graphs, graphID)
	return &services.Knowledge{}, nil
}

func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}
	return gin.New()
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return env.Error
}

func TestMapsGetRedirectsToStudyLanding(t *testing.T) {
	r := newEngine(t)
	userID := uuid.New()
	maps := &fakeMaps{get: func(graphID, uid uuid.UUID) (*services.GraphView, error) {
		if uid != userID {
			t.Errorf("user id = %s, want %s", uid, userID)
		}
		return nil, apierr.New(http.StatusConflict, "study_enrollment_required", errs.ErrConflict)
	}}
	r.GET("/maps/:id", asUser(userID), NewMapsHandler(maps).Get)

	id := uuid.New()
	w := do(r, http.MethodGet, "/maps/"+id.String(), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	got := decodeError(t, w)
	if got.Code != "study_enrollment_required" {
		t.Fatalf("code = %q", got.Code)
	}
	if got.Redirect != services.StudyLandingPath(id) {
		t.Fatalf("redirect = %q, want %q", got.Redirect, services.StudyLandingPath(id))
	}

	w = do(r, http.MethodGet, "/maps/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w); got.Field != "id" {
		t.Fatalf("field = %q, want id", got.Field)
	}
}

func TestMapsCreate(t *testing.T) {
	r := newEngine(t)
	var seen services.CreateGraphInput
	maps := &fakeMaps{create: func(in services.CreateGraphInput) (*services.CreatedGraph, error) {
		seen = in
		return &services.CreatedGraph{Graph: &domain.Graph{ID: uuid.New(), Name: in.Name}, Secret: "s3cret"}, nil
	}}
	r.POST("/maps", NewMapsHandler(maps).Create)

	w := do(r, http.MethodPost, "/maps", `{"name":"Algorithms","graph":null,"json_data":"{\"nodes\":[]}"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if seen.Source.Graph != nil {
		t.Fatalf("null graph should be dropped, got %s", seen.Source.Graph)
	}
	if seen.Source.JSONData != `{"nodes":[]}` {
		t.Fatalf("json_data = %q", seen.Source.JSONData)
	}
	var body struct {
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Secret != "s3cret" {
		t.Fatalf("secret = %q err=%v", body.Secret, err)
	}

	w = do(r, http.MethodPost, "/maps", `{"name":"x","secret":"this-secret-is-too-long"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("long secret status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w); got.Field != "secret" || got.Code != "invalid_request" {
		t.Fatalf("error = %+v", got)
	}

	w = do(r, http.MethodPost, "/maps", `{"description":"no name"}`)
	if got := decodeError(t, w); w.Code != http.StatusBadRequest || got.Field != "name" {
		t.Fatalf("missing name: status=%d error=%+v", w.Code, got)
	}
}

func TestSubmitAttempt(t *testing.T) {
	r := newEngine(t)
	oc := &fakeOctal{next: uuid.New()}
	h := NewOctalHandler(oc, &fakeKnowledge{}, nil)
	r.POST("/attempts/:id/:correct", asUser(uuid.New()), h.SubmitAttempt)

	id := uuid.New()
	w := do(r, http.MethodPost, "/attempts/"+id.String()+"/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if _, ok := body["aid"]; ok {
		t.Fatalf("correct answer should not hand out a retry: %v", body)
	}

	w = do(r, http.MethodPost, "/attempts/"+id.String()+"/0", "")
	body = map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["aid"] != oc.next.String() {
		t.Fatalf("aid = %v, want %s", body["aid"], oc.next)
	}

	w = do(r, http.MethodPost, "/attempts/"+id.String()+"/2", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w); got.Field != "correct" {
		t.Fatalf("field = %q, want correct", got.Field)
	}
	if fmt.Sprint(oc.submitted) != "[true false]" {
		t.Fatalf("submitted = %v", oc.submitted)
	}
}

func TestExerciseConceptKeyValidation(t *testing.T) {
	r := newEngine(t)
	oc := &fakeOctal{}
	h := NewOctalHandler(oc, &fakeKnowledge{}, nil)
	r.GET("/graphs/:graphID/exercises/:conceptID", asUser(uuid.New()), h.Exercise)

	graphID := uuid.New().String()
	w := do(r, http.MethodGet, "/graphs/"+graphID+"/exercises/binary_search", "")
	if w.Code != http.StatusOK || oc.exercise != "binary_search" {
		t.Fatalf("status = %d concept = %q", w.Code, oc.exercise)
	}

	w = do(r, http.MethodGet, "/graphs/"+graphID+"/exercises/has%20space", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w); got.Field != "conceptID" {
		t.Fatalf("field = %q, want conceptID", got.Field)
	}
}

func TestKnowledgeGraphQuery(t *testing.T) {
	r := newEngine(t)
	k := &fakeKnowledge{}
	r.GET("/knowledge", asUser(uuid.New()), NewOctalHandler(&fakeOctal{}, k, nil).Knowledge)

	graphID := uuid.New()
	for _, path := range []string{"/knowledge", "/knowledge?graph=" + graphID.String()} {
		if w := do(r, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, w.Code)
		}
	}
	if len(k.graphs) != 2 || k.graphs[0] != uuid.Nil || k.graphs[1] != graphID {
		t.Fatalf("graphs = %v", k.graphs)
	}
	if w := do(r, http.MethodGet, "/knowledge?graph=nope", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad graph status = %d, want 400", w.Code)
	}
}

func TestStreamRequiresUser(t *testing.T) {
	r := newEngine(t)
	r.GET("/stream", NewRealtimeHandler(logger.Nop(), nil).Stream)
	w := do(r, http.MethodGet, "/stream", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
