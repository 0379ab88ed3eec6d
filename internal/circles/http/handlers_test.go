package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/auth"
	"github.com/Perismakworo/Shesecure2/internal/circles/domain"
)

type fakeService struct {
	joinErr   error
	leaves    []string
	lastName  string
	lastOwner string
}

func (f *fakeService) GenerateInviteCode(_ context.Context, name, leader string) (*domain.InviteCode, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrCircleNameEmpty
	}
	f.lastName, f.lastOwner = name, leader
	return &domain.InviteCode{Code: "K7QX2A", CircleID: "c1", ExpiresAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeService) RegenerateInviteCode(_ context.Context, circleID, caller string) (*domain.InviteCode, error) {
	if caller != "lee@x.com" {
		return nil, domain.ErrNotCircleLeader
	}
	return &domain.InviteCode{Code: "ZZZZZZ", CircleID: circleID}, nil
}

func (f *fakeService) JoinCircle(_ context.Context, code, joiner string) (string, error) {
	if f.joinErr != nil {
		return "", f.joinErr
	}
	return "c1", nil
}

func (f *fakeService) ListCirclesForUser(_ context.Context, email string) ([]domain.Circle, error) {
	return []domain.Circle{{ID: "c1", Name: "Family", LeaderEmail: email}}, nil
}

func (f *fakeService) ListMembers(_ context.Context, circleID, caller string) ([]domain.Member, error) {
	if circleID == "" {
		return nil, domain.ErrCircleIDEmpty
	}
	tok := "tok-lee"
	return []domain.Member{
		{Email: "lee@x.com", Name: "Lee", PushToken: &tok, IsLeader: true},
		{Email: "mo@x.com", Name: "Mo"},
	}, nil
}

func (f *fakeService) LeaveCircle(_ context.Context, circleID, email string) error {
	if circleID == "" {
		return domain.ErrCircleIDEmpty
	}
	f.leaves = append(f.leaves, circleID)
	return nil
}

func setupRouter(svc CircleService, caller string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/")
	g.Use(func(c *gin.Context) { c.Set(auth.CtxCallerEmail, caller) })
	New(svc, zap.NewNop()).Register(g)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGenerateInviteCode(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc, "lee@x.com")

	rr := do(r, http.MethodPost, "/generateInviteCode", `{"circleName":"Family"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp inviteResp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "K7QX2A", resp.Code)
	assert.Equal(t, "c1", resp.CircleID)
	assert.Equal(t, "Family", svc.lastName)
	assert.Equal(t, "lee@x.com", svc.lastOwner)

	rr = do(r, http.MethodPost, "/generateInviteCode", `{"circleName":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(r, http.MethodPost, "/generateInviteCode", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJoinCircle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		rr := do(setupRouter(&fakeService{}, "mo@x.com"), http.MethodPost, "/joinCircle", `{"inviteCode":"K7QX2A"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Successfully joined the circle")
	})

	t.Run("expired code is 404", func(t *testing.T) {
		svc := &fakeService{joinErr: domain.ErrInviteNotFound}
		rr := do(setupRouter(svc, "mo@x.com"), http.MethodPost, "/joinCircle", `{"inviteCode":"K7QX2A"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error":"invalid or expired invite code"}`, rr.Body.String())
	})

	t.Run("missing code is 400", func(t *testing.T) {
		svc := &fakeService{joinErr: domain.ErrInviteCodeEmpty}
		rr := do(setupRouter(svc, "mo@x.com"), http.MethodPost, "/joinCircle", `{}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetUserCircles(t *testing.T) {
	rr := do(setupRouter(&fakeService{}, "lee@x.com"), http.MethodGet, "/getUserCircles", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":"c1","name":"Family"}]`, rr.Body.String())
}

func TestGetCircleMembers(t *testing.T) {
	r := setupRouter(&fakeService{}, "lee@x.com")

	rr := do(r, http.MethodGet, "/getCircleMembers?circleId=c1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[
		{"email":"lee@x.com","name":"Lee","pushToken":"tok-lee"},
		{"email":"mo@x.com","name":"Mo","pushToken":null}
	]`, rr.Body.String())

	rr = do(r, http.MethodGet, "/getCircleMembers", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLeaveCircleIsIdempotent(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc, "mo@x.com")

	for i := 0; i < 2; i++ {
		rr := do(r, http.MethodPost, "/leaveCircle", `{"circleId":"c1"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, []string{"c1", "c1"}, svc.leaves)
}

func TestRegenerateInviteCode(t *testing.T) {
	rr := do(setupRouter(&fakeService{}, "lee@x.com"), http.MethodPost, "/circles/c1/inviteCode", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ZZZZZZ")

	rr = do(setupRouter(&fakeService{}, "mo@x.com"), http.MethodPost, "/circles/c1/inviteCode", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
