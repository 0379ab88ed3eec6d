package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/apperr"
	"github.com/Perismakworo/Shesecure2/internal/auth"
	"github.com/Perismakworo/Shesecure2/internal/sos/domain"
)

type fakeEngine struct {
	owner    string
	lat, lon float64
	err      error
}

func (f *fakeEngine) Trigger(_ context.Context, owner string, lat, lon float64) (*domain.Trigger, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.owner, f.lat, f.lon = owner, lat, lon
	return &domain.Trigger{SOSID: "sos-1", AudienceSize: 2}, nil
}

func (f *fakeEngine) Get(_ context.Context, id, caller string) (*domain.Dispatch, error) {
	if id != "sos-1" || caller != "u@x.com" {
		return nil, domain.ErrDispatchNotFound
	}
	return &domain.Dispatch{ID: id, Owner: caller, AudienceSize: 2, Deliveries: []domain.Delivery{
		{Channel: domain.ChannelEmail, Recipient: "a@x.com", Status: domain.StatusSent},
	}}, nil
}

func (f *fakeEngine) List(_ context.Context, owner string) ([]domain.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if owner != "u@x.com" {
		return []domain.Summary{}, nil
	}
	return []domain.Summary{{ID: "sos-1", AudienceSize: 2, Counts: map[domain.Status]int{domain.StatusSent: 3}}}, nil
}

func setupRouter(e Engine, caller string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/")
	g.Use(func(c *gin.Context) { c.Set(auth.CtxCallerEmail, caller) })
	New(e, zap.NewNop()).Register(g)
	return r
}

func postSOS(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sendSOS", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSendSOS(t *testing.T) {
	e := &fakeEngine{}
	r := setupRouter(e, "u@x.com")

	w := postSOS(r, `{"latitude":6.9,"longitude":79.8}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"SOS sent successfully","sosId":"sos-1","audienceSize":2}`, w.Body.String())
	assert.Equal(t, "u@x.com", e.owner)
	assert.Equal(t, 6.9, e.lat)
	assert.Equal(t, 79.8, e.lon)
}

func TestSendSOS_Errors(t *testing.T) {
	t.Run("missing coordinates", func(t *testing.T) {
		w := postSOS(setupRouter(&fakeEngine{}, "u@x.com"), `{"latitude":6.9}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("audience failure", func(t *testing.T) {
		e := &fakeEngine{err: apperr.Internal("sos.send", errors.New("db down"))}
		w := postSOS(setupRouter(e, "u@x.com"), `{"latitude":6.9,"longitude":79.8}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})
}

func TestGetSOS(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		w := httptest.NewRecorder()
		setupRouter(&fakeEngine{}, "u@x.com").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sos/sos-1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got domain.Dispatch
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "sos-1", got.ID)
		require.Len(t, got.Deliveries, 1)
		assert.Equal(t, domain.StatusSent, got.Deliveries[0].Status)
	})

	t.Run("someone else", func(t *testing.T) {
		w := httptest.NewRecorder()
		setupRouter(&fakeEngine{}, "a@x.com").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sos/sos-1", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListSOS(t *testing.T) {
	get := func(e Engine, caller string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		setupRouter(e, caller).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sos", nil))
		return w
	}

	t.Run("owner", func(t *testing.T) {
		w := get(&fakeEngine{}, "u@x.com")
		require.Equal(t, http.StatusOK, w.Code)

		var got []domain.Summary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "sos-1", got[0].ID)
		assert.Equal(t, 3, got[0].Counts[domain.StatusSent])
	})

	t.Run("no alerts is an empty list", func(t *testing.T) {
		w := get(&fakeEngine{}, "a@x.com")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		w := get(&fakeEngine{err: apperr.Internal("sos.list", errors.New("redis down"))}, "u@x.com")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
