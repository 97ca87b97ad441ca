package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arnavshah/capacity-planner-go/pkg/auth"
	"github.com/arnavshah/capacity-planner-go/pkg/database"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"github.com/arnavshah/capacity-planner-go/pkg/store"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Monday 2025-01-06, mid-morning
var testNow = time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	a := auth.New("jwt-secret", "master-secret")
	a.Cost = bcrypt.MinCost

	h := &Handler{
		Store:      store.New(db),
		Auth:       a,
		Logger:     log.New(io.Discard),
		WindowDays: 14,
		Now:        func() time.Time { return testNow },
	}
	created, err := a.EnsureAdminExists(context.Background(), h.Store, "admin", "admin123")
	require.NoError(t, err)
	require.True(t, created)

	return h.Router()
}

func send(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func login(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w := send(r, http.MethodPost, "/auth/login", gin.H{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		AccessToken string `json:"access_token"`
	}](t, w).AccessToken
}

func issueKey(t *testing.T, r *gin.Engine, admin, name string) (uint, string) {
	t.Helper()
	w := send(r, http.MethodPost, "/api/keys", gin.H{"name": name}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}](t, w)
	return resp.ID, resp.Key
}

func TestRoot(t *testing.T) {
	r := newTestRouter(t)

	w := send(r, http.MethodGet, "/", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), Version)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	r := newTestRouter(t)

	w := send(r, http.MethodPost, "/auth/login", gin.H{"username": "admin", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(r, http.MethodPost, "/auth/login", gin.H{"username": "admin"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_RequiresToken(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodGet, "/api/teams", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodGet, "/api/teams", nil, "garbage").Code)
}

func TestCapacity_StoredTeam(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")

	w := send(r, http.MethodPost, "/api/teams", gin.H{"name": "core"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	team := decode[database.Team](t, w)

	w = send(r, http.MethodPost, "/api/users", gin.H{
		"username":     "alice",
		"password":     "secret",
		"display_name": "Alice",
		"team_id":      team.ID,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	alice := decode[database.User](t, w)
	assert.Equal(t, 40.0, alice.WeeklyHours)
	assert.Equal(t, 100.0, alice.WorkloadPercent)
	assert.NotContains(t, w.Body.String(), "secret")

	w = send(r, http.MethodPost, "/api/tickets", gin.H{
		"title":           "Billing export",
		"assignee_id":     alice.ID,
		"estimated_hours": 40,
		"due_date":        "2025-01-10",
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = send(r, http.MethodGet, "/api/capacity?end=2025-01-20&team="+team.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CapacityResponse](t, w)

	assert.Equal(t, models.Window{From: "2025-01-06", To: "2025-01-20", WorkDays: 10}, resp.Window)
	require.Len(t, resp.Resources, 1)
	rep := resp.Resources[0]
	assert.Equal(t, "Alice", rep.Name)
	assert.Equal(t, 80.0, rep.TotalAvailableHours)
	assert.Equal(t, 40.0, rep.AssignedHours)
	assert.Equal(t, 40.0, rep.FreeHours)
	assert.Equal(t, 50, rep.UtilizationPercent)
	assert.Equal(t, 1, resp.Summary.Resources)

	w = send(r, http.MethodGet, "/api/capacity.csv?end=2025-01-20&team="+team.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "capacity_2025-01-06_2025-01-20.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "resource_id,name,"))
	assert.Contains(t, w.Body.String(), alice.ID+",Alice,"+team.ID+",8.0,10,80.0,40.0,40.0,50")
}

func TestCapacity_RejectsReversedWindow(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")

	w := send(r, http.MethodGet, "/api/capacity?end=2025-01-01", nil, admin)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMember_CannotPlan(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")

	w := send(r, http.MethodPost, "/api/users", gin.H{"username": "bob", "password": "pw"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bob := login(t, r, "bob", "pw")

	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/api/capacity", nil, bob).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPost, "/api/teams", gin.H{"name": "x"}, bob).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/api/keys", nil, bob).Code)
	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/api/teams", nil, bob).Code)
}

func TestCreateUser_Validation(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")

	cases := map[string]gin.H{
		"bad role":     {"username": "a", "password": "pw", "role": "owner"},
		"negative":     {"username": "b", "password": "pw", "weekly_hours": -1},
		"over 100 pct": {"username": "c", "password": "pw", "workload_percent": 120},
		"no password":  {"username": "d"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/api/users", body, admin).Code)
		})
	}
}

func TestMilestones_UpdateCascades(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")

	w := send(r, http.MethodPost, "/api/milestones", gin.H{"title": "Design", "due_date": "2025-01-10"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	design := decode[database.Milestone](t, w)

	w = send(r, http.MethodPost, "/api/milestones", gin.H{"title": "Build", "due_date": "2025-01-15", "depends_on_id": design.ID}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	build := decode[database.Milestone](t, w)

	w = send(r, http.MethodPost, "/api/milestones", gin.H{"title": "Orphan", "due_date": "2025-01-15", "depends_on_id": "missing"}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = send(r, http.MethodPut, "/api/milestones/"+design.ID, gin.H{"due_date": "2025-01-12", "cascade": true}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	upd := decode[store.MilestoneUpdate](t, w)

	assert.Equal(t, 2, upd.DaysDelta)
	require.Len(t, upd.Shifts, 1)
	assert.Equal(t, build.ID, upd.Shifts[0].ItemID)
	assert.Equal(t, "2025-01-15", upd.Shifts[0].OldDueDate.Format(models.DateLayout))
	assert.Equal(t, "2025-01-17", upd.Shifts[0].NewDueDate.Format(models.DateLayout))

	w = send(r, http.MethodPut, "/api/milestones/nope", gin.H{"due_date": "2025-01-12"}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEngine_RequiresValidKey(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodGet, "/engine/usage", nil, "").Code)
	forged := auth.GenerateHMACKey([]byte("other-secret"), "acme")
	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodGet, "/engine/usage", nil, forged).Code)
}

func TestEngine_CapacityAndUsage(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")
	_, key := issueKey(t, r, admin, "acme")

	body := gin.H{
		"from": "2025-01-06",
		"to":   "2025-01-13",
		"resources": []gin.H{
			{"id": "u1", "name": "Ann", "weekly_hours": 40, "workload_percent": 100, "open_items": []gin.H{
				{"id": "t1", "estimated_hours": 100, "due_date": "2025-01-10T00:00:00Z"},
			}},
			{"id": "u2", "name": "Ben", "weekly_hours": 40, "workload_percent": 50},
		},
	}
	w := send(r, http.MethodPost, "/engine/capacity", body, key)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CapacityResponse](t, w)

	require.Len(t, resp.Resources, 2)
	assert.Equal(t, "u2", resp.Resources[0].ResourceID)
	assert.Equal(t, 20.0, resp.Resources[0].FreeHours)
	assert.Equal(t, "u1", resp.Resources[1].ResourceID)
	assert.Zero(t, resp.Resources[1].FreeHours)
	assert.True(t, resp.Resources[1].Overloaded)
	assert.Equal(t, 1, resp.Summary.Overloaded)

	w = send(r, http.MethodGet, "/engine/usage", nil, key)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[struct {
		KeyName string `json:"key_name"`
		Totals  struct {
			Requests  int `json:"requests"`
			Resources int `json:"resources"`
		} `json:"totals"`
	}](t, w)
	assert.Equal(t, "acme", usage.KeyName)
	assert.Equal(t, 1, usage.Totals.Requests)
	assert.Equal(t, 2, usage.Totals.Resources)
}

func TestEngine_Cascade(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")
	_, key := issueKey(t, r, admin, "acme")

	items := []gin.H{
		{"id": "A", "due_date": "2025-01-10T00:00:00Z"},
		{"id": "B", "due_date": "2025-01-15T00:00:00Z", "depends_on_id": "A"},
		{"id": "C", "due_date": "2025-01-20T00:00:00Z", "depends_on_id": "B"},
		{"id": "X", "due_date": "2025-01-20T00:00:00Z"},
	}

	w := send(r, http.MethodPost, "/engine/cascade", gin.H{"root_id": "A", "new_due_date": "2025-01-13", "items": items}, key)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CascadeResponse](t, w)
	assert.Equal(t, 3, resp.DaysDelta)
	require.Len(t, resp.Shifts, 2)
	assert.Equal(t, "B", resp.Shifts[0].ItemID)
	assert.Equal(t, "2025-01-18", resp.Shifts[0].NewDueDate.Format(models.DateLayout))
	assert.Equal(t, "C", resp.Shifts[1].ItemID)
	assert.Equal(t, "2025-01-23", resp.Shifts[1].NewDueDate.Format(models.DateLayout))

	w = send(r, http.MethodPost, "/engine/cascade", gin.H{"root_id": "X", "days_delta": 5, "items": items}, key)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"shifts":[]`)

	w = send(r, http.MethodPost, "/engine/cascade", gin.H{"root_id": "A", "items": items}, key)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/engine/cascade", gin.H{"root_id": "Z", "new_due_date": "2025-01-13", "items": items}, key)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngine_Validate(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")
	_, key := issueKey(t, r, admin, "acme")

	type result struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}

	w := send(r, http.MethodPost, "/engine/validate", gin.H{"resources": []gin.H{
		{"id": "u1", "weekly_hours": 40, "workload_percent": 100},
		{"id": "u1", "weekly_hours": 40, "workload_percent": 100},
	}}, key)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[result](t, w)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "Duplicate resource ID")

	w = send(r, http.MethodPost, "/engine/validate", gin.H{"resources": []gin.H{
		{"id": "u1", "weekly_hours": 40, "workload_percent": 150},
	}}, key)
	assert.False(t, decode[result](t, w).Valid)

	w = send(r, http.MethodPost, "/engine/validate", gin.H{"resources": []gin.H{
		{"id": "u1", "weekly_hours": 40, "workload_percent": 100, "open_items": []gin.H{{"id": "t1"}}},
	}}, key)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[result](t, w).Valid)
	assert.Contains(t, w.Body.String(), `"ignored_items":1`)
}

func TestKeys_RevokeAndLimit(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")
	id, key := issueKey(t, r, admin, "acme")
	path := fmt.Sprintf("/api/keys/%d", id)

	w := send(r, http.MethodGet, "/api/keys", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), key)
	assert.Contains(t, w.Body.String(), store.Preview(key))

	require.Equal(t, http.StatusOK, send(r, http.MethodPatch, path, gin.H{"rate_limit": 1}, admin).Code)

	body := gin.H{"resources": []gin.H{{"id": "u1", "weekly_hours": 40, "workload_percent": 100}}}
	assert.Equal(t, http.StatusOK, send(r, http.MethodPost, "/engine/capacity", body, key).Code)
	assert.Equal(t, http.StatusTooManyRequests, send(r, http.MethodPost, "/engine/capacity", body, key).Code)

	w = send(r, http.MethodGet, path+"/usage", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"request_count":1`)

	require.Equal(t, http.StatusOK, send(r, http.MethodDelete, path, nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodDelete, path, nil, admin).Code)
	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodGet, "/engine/usage", nil, key).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodDelete, "/api/keys/abc", nil, admin).Code)
}

func TestSuggestions_Stored(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")

	w := send(r, http.MethodPost, "/api/teams", gin.H{"name": "core"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	team := decode[database.Team](t, w)

	w = send(r, http.MethodPost, "/api/users", gin.H{"username": "alice", "password": "pw", "team_id": team.ID}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	alice := decode[database.User](t, w)

	w = send(r, http.MethodPost, "/api/tickets", gin.H{"title": "Unowned", "estimated_hours": 16, "due_date": "2025-01-10"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	ticket := decode[database.Ticket](t, w)

	w = send(r, http.MethodGet, "/api/suggestions?end=2025-01-13&team="+team.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SuggestResponse](t, w)

	assert.Equal(t, 5, resp.Window.WorkDays)
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, models.Assignment{ItemID: ticket.ID, ResourceID: alice.ID, Hours: 16}, resp.Assignments[0])
	assert.Empty(t, resp.Conflicts)
	assert.Equal(t, 100.0, resp.BalanceScore)
}

func TestEngine_Suggest(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "admin", "admin123")
	_, key := issueKey(t, r, admin, "acme")

	body := gin.H{
		"from":      "2025-01-06",
		"to":        "2025-01-13",
		"resources": []gin.H{{"id": "u1", "weekly_hours": 10, "workload_percent": 100}},
		"items": []gin.H{
			{"id": "big", "estimated_hours": 30, "due_date": "2025-01-10T00:00:00Z"},
			{"id": "small", "estimated_hours": 5, "due_date": "2025-01-10T00:00:00Z"},
		},
	}
	w := send(r, http.MethodPost, "/engine/suggest", body, key)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SuggestResponse](t, w)

	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "small", resp.Assignments[0].ItemID)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "big", resp.Conflicts[0].ItemID)
}
