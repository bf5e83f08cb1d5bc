// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/utils"
	"github.com/MKhiriev/go-push-sync/models"
)

func newTestAdapter(t *testing.T, serverURL string, opts ...Opt) RemoteAPI {
	t.Helper()
	a, err := NewHTTPRemoteAPI(config.EngineAdapter{BaseURL: serverURL, RequestTimeout: time.Second}, logger.Nop(), opts...)
	require.NoError(t, err)
	return a
}

func writeError(w http.ResponseWriter, status int, code, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.NewErrorResponse(code, text))
}

// ── Construction ─────────────────────────────────────────────────────────────

func TestNewHTTPRemoteAPI_BaseURL(t *testing.T) {
	_, err := NewHTTPRemoteAPI(config.EngineAdapter{}, logger.Nop())
	assert.ErrorIs(t, err, ErrEmptyBaseURL)

	got, err := normalizeBaseURL(" localhost:8089/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8089", got)
}

// ── CreateInstance ───────────────────────────────────────────────────────────

func TestCreateInstance_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathInstance, r.URL.Path)
		assert.Equal(t, "App app-code", r.Header.Get(HeaderAuthorization))
		assert.Empty(t, r.Header.Get(HeaderPushRegistrationID))
		assert.NotEmpty(t, r.Header.Get(HeaderTraceID))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "token", body["pushServiceToken"])
		assert.Equal(t, true, body["regEnabled"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pushRegId":"reg-1","pushServiceToken":"token","regEnabled":true}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	got, err := a.CreateInstance(context.Background(), "app-code", delta.Map{
		"pushServiceToken":          delta.String("token"),
		"isPushRegistrationEnabled": delta.Bool(true),
	})

	require.NoError(t, err)
	id, _ := got["pushRegistrationId"].AsString()
	assert.Equal(t, "reg-1", id)
}

func TestCreateInstance_ForwardsTraceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-1", r.Header.Get(HeaderTraceID))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.CreateInstance(utils.WithTraceID(context.Background(), "trace-1"), "app", delta.Map{})
	require.NoError(t, err)
}

func TestCreateInstance_ServerErrorIsRetriable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.CreateInstance(context.Background(), "app", delta.Map{})

	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, IsRetriable(err))
}

func TestCreateInstance_ConnectionRefusedIsRetriable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := newTestAdapter(t, url)
	_, err := a.CreateInstance(context.Background(), "app", delta.Map{})

	assert.True(t, IsRetriable(err))
}

func TestCreateInstance_CancelledContextIsNotRetriable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newTestAdapter(t, srv.URL)
	_, err := a.CreateInstance(ctx, "app", delta.Map{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetriable(err))
}

func TestCreateInstance_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2]`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.CreateInstance(context.Background(), "app", delta.Map{})

	assert.ErrorIs(t, err, ErrDecodeResponse)
}

// ── UpdateInstance / DeleteInstance / FetchInstance ──────────────────────────

func TestUpdateInstance_SendsPatchWithNulls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "reg-1", r.Header.Get(HeaderPushRegistrationID))

		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"applicationUserId":null,"isPrimary":true}`, string(raw))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	err := a.UpdateInstance(context.Background(), "app", "reg-1", delta.Map{
		"applicationUserId": delta.Null(),
		"isPrimaryDevice":   delta.Bool(true),
	})
	require.NoError(t, err)
}

func TestUpdateInstance_NoRegistrationCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, models.ErrorCodeNoRegistration, "unknown registration")
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	err := a.UpdateInstance(context.Background(), "app", "reg-1", delta.Map{"a": delta.Number(1)})

	assert.ErrorIs(t, err, ErrNoSuchRegistration)
	assert.False(t, IsRetriable(err))
}

func TestDeleteInstance_Path(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, PathInstance+"/old-reg", r.URL.Path)
		assert.Equal(t, "new-reg", r.Header.Get(HeaderPushRegistrationID))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	require.NoError(t, a.DeleteInstance(context.Background(), "app", "new-reg", "old-reg"))
}

func TestFetchInstance_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.FetchInstance(context.Background(), "app", "reg-1")

	assert.ErrorIs(t, err, ErrNoSuchRegistration)
}

// ── User data ────────────────────────────────────────────────────────────────

func TestFetchUser_UsesJWT(t *testing.T) {
	token, err := utils.GenerateJWTToken("backend", "user-1", time.Hour, "secret")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathUser, r.URL.Path)
		assert.Equal(t, "JWT "+token, r.Header.Get(HeaderAuthorization))
		_, _ = w.Write([]byte(`{"externalUserId":"user-1"}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, WithJWTSupplier(StaticJWT(token)), WithClock(clockwork.NewFakeClockAt(time.Now())))

	got, err := a.FetchUser(context.Background(), "app", "reg-1")
	require.NoError(t, err)
	id, _ := got["externalUserId"].AsString()
	assert.Equal(t, "user-1", id)
}

func TestUpdateUser_ExpiredJWTRejectedLocally(t *testing.T) {
	token, err := utils.GenerateJWTToken("backend", "user-1", time.Minute, "secret")
	require.NoError(t, err)

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	later := clockwork.NewFakeClockAt(time.Now().Add(time.Hour))
	a := newTestAdapter(t, srv.URL, WithJWTSupplier(StaticJWT(token)), WithClock(later))

	err = a.UpdateUser(context.Background(), "app", "reg-1", delta.Map{"firstName": delta.String("A")})
	assert.ErrorIs(t, err, ErrInvalidJWT)
	assert.ErrorIs(t, err, utils.ErrJWTExpired)
	assert.False(t, called)
}

func TestUpdateUser_MalformedJWT(t *testing.T) {
	a := newTestAdapter(t, "http://127.0.0.1:1", WithJWTSupplier(StaticJWT("not-a-jwt")))

	err := a.UpdateUser(context.Background(), "app", "reg-1", delta.Map{})
	assert.ErrorIs(t, err, ErrInvalidJWT)
	assert.ErrorIs(t, err, utils.ErrJWTMalformed)
}

func TestUpdateUser_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "bad app code")
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	err := a.UpdateUser(context.Background(), "app", "reg-1", delta.Map{"firstName": delta.String("A")})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, IsRetriable(err))
}

func TestUpdateUser_ValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnprocessableEntity, models.ErrorCodeBadRequest, "invalid birthday")
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	err := a.UpdateUser(context.Background(), "app", "reg-1", delta.Map{"birthday": delta.String("x")})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "invalid birthday")
}

func TestPersonalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathPersonalize, r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("forceDepersonalize"))

		var req models.PersonalizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ext-1", req.UserIdentity["externalUserId"])
		assert.Equal(t, "Ann", req.UserAttributes["firstName"])

		_, _ = w.Write([]byte(`{"externalUserId":"ext-1","firstName":"Ann"}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	got, err := a.Personalize(context.Background(), "app", "reg-1",
		delta.Map{"externalUserId": delta.String("ext-1")},
		delta.Map{"firstName": delta.String("Ann")},
		true,
	)
	require.NoError(t, err)
	name, _ := got["firstName"].AsString()
	assert.Equal(t, "Ann", name)
}

func TestDepersonalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathDepersonalize, r.URL.Path)
		assert.Equal(t, "reg-1", r.Header.Get(HeaderPushRegistrationID))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	require.NoError(t, a.Depersonalize(context.Background(), "app", "reg-1"))
}
