package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabeater-console/internal/blob/blobtest"
	"diabeater-console/internal/identity"
	"diabeater-console/internal/middleware"
	"diabeater-console/internal/moderation"
	"diabeater-console/internal/repository"
	"diabeater-console/internal/service"
	"diabeater-console/internal/sse"
	"diabeater-console/internal/store"
	"diabeater-console/internal/store/storetest"
	"diabeater-console/pkg/models"
)

var (
	admin = models.Principal{UID: "admin-1", Name: "Grace Hopper", Role: models.RoleAdmin}
	nutri = models.Principal{UID: "nutri-1", Name: "Ada Lovelace", Role: models.RoleNutritionist}
)

type nopMailer struct{}

func (nopMailer) Send(context.Context, string, string, string) error { return nil }

type testServer struct {
	app   *fiber.App
	idp   *identity.Local
	store *storetest.Recorder
	repos *repository.Repositories
	blobs *blobtest.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	rec := storetest.NewRecorder(storetest.NewSQLite(t))
	repos := repository.New(rec, store.UserAccounts)
	blobs := blobtest.NewMemory()
	idp := identity.NewLocal("test-secret", time.Hour)
	broker := sse.NewBroker()

	notify := service.NewNotifyService(repos, broker, nil, nil)
	accounts := service.NewAccountService(repos, idp, blobs, nopMailer{})
	h := NewHandler(Services{
		Engine:       moderation.NewEngine(repos.MealPlans, repos.Users, blobs, notify),
		Notify:       notify,
		Categories:   service.NewCategoryService(repos),
		Feedback:     service.NewFeedbackService(repos),
		Accounts:     accounts,
		Applications: service.NewApplicationService(repos, idp, blobs, nopMailer{}, notify),
		Reports:      service.NewReportService(repos),
		Broker:       broker,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h.Register(app, middleware.Authenticate(idp))
	return &testServer{app: app, idp: idp, store: rec, repos: repos, blobs: blobs}
}

func (s *testServer) token(t *testing.T, p models.Principal) string {
	t.Helper()
	tok, err := s.idp.Issue(p)
	require.NoError(t, err)
	return tok
}

// do sends a request and decodes the JSON response into a map.
func (s *testServer) do(t *testing.T, method, path, token, contentType string, body io.Reader) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	return s.do(t, method, path, token, fiber.MIMEApplicationJSON, r)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, content []byte) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

func (s *testServer) submitPlan(t *testing.T, name string) string {
	t.Helper()
	data, err := json.Marshal(moderation.MealPlanInput{Name: name, Description: "Oven baked", Categories: []string{"Dinner"}})
	require.NoError(t, err)
	ct, body := multipartBody(t, map[string]string{"data": string(data)}, "image", "plan.png", []byte("png"))

	status, out := s.do(t, "POST", "/v1/meal-plans", s.token(t, nutri), ct, body)
	require.Equal(t, fiber.StatusCreated, status, out)
	plan := out["mealPlan"].(map[string]interface{})
	return plan["id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, out := s.do(t, "GET", "/health", "", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

func TestRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "GET", "/v1/meal-plans", "", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(t, "GET", "/admin/reports/summary", s.token(t, nutri), "", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestMealPlanModerationFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.submitPlan(t, "Herb Salmon")
	assert.Equal(t, 1, s.blobs.Len())

	status, out := s.do(t, "GET", "/v1/meal-plans?tab=pending", s.token(t, admin), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["plans"], 1)
	counts := out["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["pendingCount"])

	status, _ = s.doJSON(t, "POST", "/admin/meal-plans/"+id+"/decision", s.token(t, admin),
		map[string]string{"verdict": "REJECTED"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out = s.doJSON(t, "POST", "/admin/meal-plans/"+id+"/decision", s.token(t, admin),
		map[string]string{"verdict": "REJECTED", "reason": "Too much sodium"})
	require.Equal(t, fiber.StatusOK, status, out)
	assert.Equal(t, "success", out["status"])
	counts = out["counts"].(map[string]interface{})
	assert.Equal(t, float64(0), counts["pendingCount"])
	assert.Equal(t, float64(1), counts["rejectedCount"])
	assert.Equal(t, float64(1), counts["totalCount"])

	status, out = s.do(t, "GET", "/v1/notifications/unread-count", s.token(t, nutri), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), out["unread"])

	status, out = s.do(t, "GET", "/v1/notifications", s.token(t, nutri), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	notes := out["notifications"].([]interface{})
	require.Len(t, notes, 1)
	note := notes[0].(map[string]interface{})
	assert.Contains(t, note["message"], "Herb Salmon")
	assert.Equal(t, "Too much sodium", note["rejectionReason"])

	status, out = s.do(t, "GET", "/v1/meal-plans?tab=rejected", s.token(t, nutri), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["plans"], 1)

	status, out = s.do(t, "DELETE", "/v1/meal-plans/"+id, s.token(t, nutri), "", nil)
	require.Equal(t, fiber.StatusOK, status, out)
	counts = out["counts"].(map[string]interface{})
	assert.Equal(t, float64(0), counts["totalCount"])
	assert.Equal(t, 0, s.blobs.Len())
}

func TestDecisionPartialFailureIsReportedAsWarning(t *testing.T) {
	s := newTestServer(t)
	id := s.submitPlan(t, "Lentil Soup")
	s.store.FailOn("add", store.Notifications)

	status, out := s.doJSON(t, "POST", "/admin/meal-plans/"+id+"/decision", s.token(t, admin),
		map[string]string{"verdict": "APPROVED"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "partial", out["status"])
	assert.Equal(t, "decision saved, but notification failed", out["warning"])
	counts := out["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["approvedCount"])

	plan, err := s.repos.MealPlans.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, plan.Status)
}

func TestNutritionistCannotDecide(t *testing.T) {
	s := newTestServer(t)
	id := s.submitPlan(t, "Lentil Soup")

	status, _ := s.doJSON(t, "POST", "/admin/meal-plans/"+id+"/decision", s.token(t, nutri),
		map[string]string{"verdict": "APPROVED"})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestSubmitMealPlanWithoutImage(t *testing.T) {
	s := newTestServer(t)
	ct, body := multipartBody(t, map[string]string{"data": `{"name":"Soup"}`}, "", "", nil)

	status, out := s.do(t, "POST", "/v1/meal-plans", s.token(t, nutri), ct, body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "a meal plan image is required", out["error"])
}

func TestFeedbackAndTestimonials(t *testing.T) {
	s := newTestServer(t)
	for _, msg := range []string{"Love it", "Great recipes", "So helpful", "Changed my life"} {
		status, _ := s.doJSON(t, "POST", "/v1/public/feedback", "", service.FeedbackInput{
			Name: "Sam " + msg, Message: msg, Rating: 5, Category: "Compliment",
		})
		require.Equal(t, fiber.StatusCreated, status)
	}
	status, _ := s.doJSON(t, "POST", "/v1/public/feedback", "", service.FeedbackInput{Message: "hm", Rating: 9})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out := s.doJSON(t, "POST", "/admin/feedback/automate", s.token(t, admin), nil)
	require.Equal(t, fiber.StatusOK, status, out)

	status, out = s.do(t, "GET", "/v1/public/testimonials", "", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["testimonials"], models.MaxFeaturedFeedback)
}

func TestSuspendUser(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.repos.Users.Put(context.Background(), models.UserAccount{
		ID: "user-9", FirstName: "Linus", LastName: "Pauling", Email: "linus@example.com",
		Role: models.RoleUser, Status: models.AccountActive, CreatedAt: time.Now().UTC(),
	}))

	status, out := s.doJSON(t, "POST", "/admin/users/user-9/suspend", s.token(t, admin), nil)
	require.Equal(t, fiber.StatusOK, status, out)
	user := out["user"].(map[string]interface{})
	assert.Equal(t, "Inactive", user["status"])
	counts := out["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["inactiveCount"])

	status, out = s.do(t, "GET", "/admin/users?status=suspended", s.token(t, admin), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), out["count"])

	status, out = s.doJSON(t, "POST", "/admin/users/missing/suspend", s.token(t, admin), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.NotEmpty(t, out["error"])
}

func TestPublicApplication(t *testing.T) {
	s := newTestServer(t)
	ct, body := multipartBody(t, map[string]string{
		"firstName": "Rosalind",
		"lastName":  "Franklin",
		"email":     "rosalind@example.com",
	}, "certificate", "cert.pdf", []byte("%PDF"))

	status, out := s.do(t, "POST", "/v1/public/applications", "", ct, body)
	require.Equal(t, fiber.StatusCreated, status, out)

	status, out = s.do(t, "GET", "/admin/applications?status=pending", s.token(t, admin), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), out["count"])
}

func TestStreamEventsWritesBacklogReadyAndLiveEvents(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	now := time.Now().UTC()
	backlog := []models.Notification{
		{ID: "n2", Message: "newer", Timestamp: now},
		{ID: "n1", Message: "older", Timestamp: now.Add(-time.Minute)},
	}
	events := make(chan sse.Event, 1)
	events <- sse.Event{Type: service.EventNotification, Data: map[string]string{"id": "n3"}, UserID: "nutri-1"}
	close(events)

	require.NoError(t, streamEvents(w, "nutri-1", backlog, events, nil, nil))

	out := buf.String()
	older := strings.Index(out, `"older"`)
	newer := strings.Index(out, `"newer"`)
	ready := strings.Index(out, "event: ready")
	live := strings.Index(out, `"n3"`)
	assert.True(t, older >= 0 && older < newer, out)
	assert.True(t, newer < ready, out)
	assert.True(t, ready < live, out)
}
