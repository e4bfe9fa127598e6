package router

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"mgtrako/internal/auth"
	"mgtrako/internal/config"
	"mgtrako/internal/errors"
	"mgtrako/internal/handler"
	"mgtrako/internal/model"
	"mgtrako/internal/repository"
	"mgtrako/internal/service"
	"mgtrako/internal/testutil"
)

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gormDB := testutil.SetupTestDB(t)
	store := repository.NewStore(gormDB)

	jwtService := auth.NewJWTService("test-secret")
	tokenStore := auth.NewTokenStore(nil)

	userService := service.NewUserService(store.Users(), nil)
	requestService := service.NewRequestService(store, nil, nil)

	e := echo.New()
	Register(
		e,
		&config.Config{JWTSecret: "test-secret"},
		zap.NewNop(),
		handler.ActorMiddleware(userService, tokenStore),
		handler.NewAuthHandler(service.NewAuthService(store.Users(), jwtService, tokenStore), jwtService),
		handler.NewUserHandler(userService),
		handler.NewRequestHandler(requestService),
		handler.NewBulkHandler(service.NewBulkService(requestService, nil, nil)),
		handler.NewPartHandler(service.NewPartService(store, nil)),
		handler.NewReportHandler(service.NewReportService(store, nil, nil)),
	)
	return &testServer{e: e, db: gormDB}
}

func (s *testServer) login(t *testing.T, role model.Role, email string) (string, *model.User) {
	t.Helper()
	user := testutil.SeedUser(t, s.db, role, email)

	rec := testutil.DoRequest(s.e, http.MethodPost, "/api/auth/login", handler.LoginRequest{
		Email:    email,
		Password: testutil.TestPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.AuthResponse
	testutil.ParseResponse(t, rec, &resp)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken, user
}

func samplePayload() map[string]interface{} {
	return map[string]interface{}{
		"shipment_number": "SHP-1001",
		"plant":           "AB12",
		"route_info":      "Route 7",
		"trailers": []map[string]interface{}{
			{"trailer_number": "T1", "parts": []map[string]interface{}{
				{"part_number": "P1", "quantity": 30},
				{"part_number": "P2", "quantity": 5},
			}},
		},
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errors.ErrorResponse
	testutil.ParseResponse(t, rec, &resp)
	return resp.Code
}

func TestHealthz(t *testing.T) {
	s := setupServer(t)
	rec := testutil.DoRequest(s.e, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	s := setupServer(t)

	rec := testutil.DoRequest(s.e, http.MethodGet, "/api/requests", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", errorCode(t, rec))

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/requests", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodPost, "/api/auth/login", handler.LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = testutil.DoRequest(s.e, http.MethodPost, "/api/auth/login", map[string]string{"email": "bad"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestRegisterAndPendingAccess(t *testing.T) {
	s := setupServer(t)

	rec := testutil.DoRequest(s.e, http.MethodPost, "/api/auth/register", handler.RegisterRequest{
		Email: "new@example.com", Password: "secret1", Name: "New Person",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = testutil.DoRequest(s.e, http.MethodPost, "/api/auth/register", handler.RegisterRequest{
		Email: "new@example.com", Password: "secret1", Name: "New Person",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodPost, "/api/auth/login", handler.LoginRequest{
		Email: "new@example.com", Password: "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login handler.AuthResponse
	testutil.ParseResponse(t, rec, &login)
	assert.Equal(t, model.RolePending, login.User.Role)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/me", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	testutil.ParseResponse(t, rec, &me)
	assert.Equal(t, "new@example.com", me.Email)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/requests", nil, login.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Promotion applies to the token already issued.
	adminToken, _ := s.login(t, model.RoleAdmin, "admin@example.com")
	rec = testutil.DoRequest(s.e, http.MethodPatch, "/api/users/"+me.ID.String()+"/role",
		handler.UpdateRoleRequest{Role: "WAREHOUSE"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/requests", nil, login.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCookieAuthentication(t *testing.T) {
	s := setupServer(t)
	token, _ := s.login(t, model.RoleWarehouse, "wh@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLifecycle(t *testing.T) {
	s := setupServer(t)
	csToken, _ := s.login(t, model.RoleCustomerService, "cs@example.com")
	whToken, _ := s.login(t, model.RoleWarehouse, "wh@example.com")
	adminToken, _ := s.login(t, model.RoleAdmin, "admin@example.com")

	rec := testutil.DoRequest(s.e, http.MethodPost, "/api/requests", samplePayload(), whToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodPost, "/api/requests", samplePayload(), csToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created service.RequestView
	testutil.ParseResponse(t, rec, &created)
	assert.Equal(t, 3, created.Request.PalletCount)
	assert.True(t, created.CanEdit)
	path := "/api/requests/" + created.Request.ID.String()

	rec = testutil.DoRequest(s.e, http.MethodPatch, path+"/status", service.UpdateStatusInput{Status: "IN_PROGRESS"}, csToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodPatch, path+"/status",
		service.UpdateStatusInput{Status: "IN_PROGRESS", Note: "Loading"}, whToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	edited := samplePayload()
	edited["trailers"] = []map[string]interface{}{
		{"trailer_number": "T1", "parts": []map[string]interface{}{
			{"part_number": "P1", "quantity": 30},
			{"part_number": "P2", "quantity": 8},
		}},
	}
	edited["pallet_count"] = 3
	rec = testutil.DoRequest(s.e, http.MethodPut, path, edited, csToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = testutil.DoRequest(s.e, http.MethodGet, path, nil, whToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var got service.RequestView
	testutil.ParseResponse(t, rec, &got)
	assert.Equal(t, model.RequestStatusInProgress, got.Request.Status)
	assert.Equal(t, 8, got.Trailers[0].Parts[1].Quantity)
	require.Len(t, got.Request.Logs, 3)
	var actions []string
	for _, l := range got.Request.Logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, "Part changes: updated part P2 quantity from 5 to 8 in trailer T1")
	assert.True(t, got.CanEdit)
	assert.True(t, got.CanUpdateStatus)

	rec = testutil.DoRequest(s.e, http.MethodDelete, path, nil, csToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodDelete, path, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = testutil.DoRequest(s.e, http.MethodDelete, path, nil, adminToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodGet, path, nil, csToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/requests?include_deleted=true", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []service.RequestView
	testutil.ParseResponse(t, rec, &list)
	assert.Len(t, list, 1)

	rec = testutil.DoRequest(s.e, http.MethodPost, path+"/restore", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/requests?search=p2", nil, csToken)
	require.Equal(t, http.StatusOK, rec.Code)
	testutil.ParseResponse(t, rec, &list)
	assert.Len(t, list, 1)
}

func TestRequestValidationResponses(t *testing.T) {
	s := setupServer(t)
	csToken, _ := s.login(t, model.RoleCustomerService, "cs@example.com")

	payload := samplePayload()
	payload["pallet_count"] = 0
	rec := testutil.DoRequest(s.e, http.MethodPost, "/api/requests", payload, csToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errors.ErrorResponse
	testutil.ParseResponse(t, rec, &resp)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "pallet_count", resp.Details[0].Field)

	payload = samplePayload()
	payload["trailers"] = []interface{}{}
	rec = testutil.DoRequest(s.e, http.MethodPost, "/api/requests", payload, csToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/requests/not-a-uuid", nil, csToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_UUID", errorCode(t, rec))

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/requests?status=SHIPPED&limit=-1", nil, csToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	testutil.ParseResponse(t, rec, &resp)
	assert.Len(t, resp.Details, 2)

	var count int64
	require.NoError(t, s.db.Model(&model.MustGoRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBulkUploadEndpoint(t *testing.T) {
	s := setupServer(t)
	csToken, _ := s.login(t, model.RoleCustomerService, "cs@example.com")

	text := "SHIPMENT\tDELIVERY\tPLANT\tCUST\tDELPHI\tMG QTY\tINSTRUCTIONS\tTRAILER\n" +
		"S1\tD\tAB12\tC\tP1\t30\tRoute\tT1\n" +
		"S2\tD\tAB12\tC\tP2\t5\tRoute\tT2\n"

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("text", url.PathEscape(text)))
	require.NoError(t, w.WriteField("split_criteria", "shipment"))
	require.NoError(t, w.Close())

	rec := testutil.DoMultipart(s.e, "/api/bulk-upload", body, w.FormDataContentType(), csToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.BulkResult
	testutil.ParseResponse(t, rec, &result)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.SuccessfulRows)

	empty := &bytes.Buffer{}
	w = multipart.NewWriter(empty)
	require.NoError(t, w.Close())
	rec = testutil.DoMultipart(s.e, "/api/bulk-upload", empty, w.FormDataContentType(), csToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPartsAndReports(t *testing.T) {
	s := setupServer(t)
	whToken, _ := s.login(t, model.RoleWarehouse, "wh@example.com")
	rrToken, _ := s.login(t, model.RoleReportRunner, "rr@example.com")
	adminToken, _ := s.login(t, model.RoleAdmin, "admin@example.com")

	rec := testutil.DoRequest(s.e, http.MethodPost, "/api/parts", map[string]interface{}{
		"part_number": "P1", "description": "Bracket", "weight": "1.5",
	}, whToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var part model.PartInfo
	testutil.ParseResponse(t, rec, &part)

	rec = testutil.DoRequest(s.e, http.MethodPost, "/api/parts", map[string]interface{}{"part_number": "P1"}, whToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/parts?search=brack", nil, rrToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var parts []model.PartInfo
	testutil.ParseResponse(t, rec, &parts)
	assert.Len(t, parts, 1)

	rec = testutil.DoRequest(s.e, http.MethodDelete, fmt.Sprintf("/api/parts/%s", part.ID), nil, whToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/reports", nil, whToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/reports", nil, rrToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/admin/stats", nil, rrToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/admin/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats service.AdminStats
	testutil.ParseResponse(t, rec, &stats)
	assert.Equal(t, int64(3), stats.TotalUsers)

	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/users", nil, whToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = testutil.DoRequest(s.e, http.MethodGet, "/api/users", nil, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	for _, path := range []string{"/ok?shipment=S1", "/missing", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "shipment=S1", entries[0].ContextMap()["query"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Contains(t, entries[2].ContextMap(), "error")
}
