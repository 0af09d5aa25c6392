package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/adapter/logger"
	"github.com/sm8ta/webike_marketplace/internal/adapter/memory"
	"github.com/sm8ta/webike_marketplace/internal/adapter/prometheus"
	"github.com/sm8ta/webike_marketplace/internal/config"
	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
	tokens *JWTTokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.NewNopLogger()
	validate := validator.New()
	metrics := prometheus.NewPrometheusAdapterWithRegistry(prom.NewRegistry())
	store := memory.NewStore()
	cache := memory.NewCache()
	tokens := NewJWTTokenService("test-secret", time.Hour, log)

	authService := services.NewAuthService(store, tokens, log, validate)
	userService := services.NewUserService(store, memory.NewObjectStorage("http://files.test"), log, validate, cache)
	bikeService := services.NewBikeService(store, log, validate, cache)
	policy := services.NewAssignmentPolicy(store, cache, log)
	requestService := services.NewServiceRequestService(store, store, policy, log, validate, metrics)
	rentalService := services.NewRentalService(store, store, log, validate, cache)
	dashboardService := services.NewDashboardService(requestService, rentalService, bikeService, log)

	router, err := NewRouter(
		&config.HTTP{Env: "test"},
		log,
		authService,
		NewAuthHandler(authService, log, metrics),
		NewBikeHandler(bikeService, log, metrics),
		NewServiceRequestHandler(requestService, policy, log, metrics),
		NewUserHandler(userService, rentalService, log, metrics),
		NewRentalHandler(rentalService, log, metrics),
		NewDashboardHandler(dashboardService, log, metrics),
	)
	require.NoError(t, err)

	return &testServer{engine: router.Engine(), store: store, tokens: tokens}
}

// user stores an identity directly and returns it with a signed token.
func (s *testServer) user(t *testing.T, email string, role domain.UserRole) (*domain.User, string) {
	t.Helper()

	u, err := s.store.CreateUser(context.Background(), &domain.User{
		ID:          uuid.New(),
		FirstName:   "Test",
		LastName:    string(role),
		Email:       email,
		PhoneNumber: "9876543210",
		Address:     "12 MG Road",
		Role:        role,
	})
	require.NoError(t, err)

	token, err := s.tokens.CreateToken(u)
	require.NoError(t, err)
	return u, token
}

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) upload(t *testing.T, userID, token, contentType string, data []byte) (int, envelope) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="profileImage"; filename="me.png"`},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/user/upload-profile/"+userID, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		FirstName: "Ravi",
		LastName:  "Kumar",
		Email:     "ravi@webike.test",
		Password:  "secret123",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	registered := decode[domain.AuthResult](t, env.Data)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, domain.Customer, registered.User.Role)
	assert.NotContains(t, string(env.Data), "password")

	code, env = s.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		FirstName: "Ravi",
		LastName:  "Kumar",
		Email:     "ravi@webike.test",
		Password:  "secret123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, codeConflict, env.Code)

	code, env = s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ravi@webike.test", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, codeUnauthorized, env.Code)
	assert.False(t, env.Success)
	assert.Empty(t, env.Data)

	code, env = s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ravi@webike.test", Password: "secret123"})
	require.Equal(t, http.StatusOK, code)
	login := decode[domain.AuthResult](t, env.Data)

	code, env = s.do(t, http.MethodGet, "/api/auth/profile/me", login.Token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[domain.PublicUser](t, env.Data)
	assert.Equal(t, "ravi@webike.test", me.Email)
}

func TestAuth_TokenErrors(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/auth/profile/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, codeUnauthorized, env.Code)

	code, env = s.do(t, http.MethodGet, "/api/auth/profile/me", "not.a.jwt", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, codeForbidden, env.Code)

	other := NewJWTTokenService("other-secret", time.Hour, logger.NewNopLogger())
	forged, err := other.CreateToken(&domain.User{ID: uuid.New(), Email: "x@webike.test", Role: domain.Admin})
	require.NoError(t, err)
	code, _ = s.do(t, http.MethodGet, "/api/auth/profile/me", forged, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// A valid signature for an identity that no longer exists.
	ghost, err := s.tokens.CreateToken(&domain.User{ID: uuid.New(), Email: "ghost@webike.test", Role: domain.Customer})
	require.NoError(t, err)
	code, env = s.do(t, http.MethodGet, "/api/auth/profile/me", ghost, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, codeNotFound, env.Code)
}

func TestBikes_AdminOnlyWrites(t *testing.T) {
	s := newTestServer(t)
	_, customer := s.user(t, "c@webike.test", domain.Customer)
	_, admin := s.user(t, "a@webike.test", domain.Admin)

	bike := BikeRequest{BikeID: "KA01-RE-350", Name: "Royal Enfield", Model: "Classic 350", Type: "cruiser", Price: 800}

	code, env := s.do(t, http.MethodPost, "/api/bikes", customer, bike)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, codeForbidden, env.Code)

	code, env = s.do(t, http.MethodPost, "/api/bikes", admin, bike)
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = s.do(t, http.MethodGet, "/api/bikes/KA01-RE-350", customer, nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[domain.Bike](t, env.Data)
	assert.True(t, got.Available)

	code, env = s.do(t, http.MethodGet, "/api/bikes/missing", customer, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, codeNotFound, env.Code)

	available := false
	code, _ = s.do(t, http.MethodPut, "/api/bikes/KA01-RE-350/availability", admin, AvailabilityRequest{Available: &available})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/bikes/available", customer, nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[BikeListResponse](t, env.Data)
	assert.Equal(t, 0, list.Count)

	code, _ = s.do(t, http.MethodGet, "/api/bikes", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestBikes_PublicBrowse(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user(t, "a@webike.test", domain.Admin)

	code, _ := s.do(t, http.MethodPost, "/api/bikes", admin, BikeRequest{BikeID: "B1", Model: "Classic 350", Type: "cruiser", Price: 500})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodGet, "/api/bikes/available", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, 1, decode[BikeListResponse](t, env.Data).Count)

	code, env = s.do(t, http.MethodGet, "/api/bikes/B1", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "B1", decode[domain.Bike](t, env.Data).BikeID)

	// Catalog writes and the full list still need an admin.
	code, env = s.do(t, http.MethodGet, "/api/bikes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, codeUnauthorized, env.Code)

	available := false
	code, _ = s.do(t, http.MethodPut, "/api/bikes/B1/availability", "", AvailabilityRequest{Available: &available})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestServiceRequests_LifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	customerUser, customer := s.user(t, "c@webike.test", domain.Customer)
	mechanicUser, mechanic := s.user(t, "m@webike.test", domain.Mechanic)
	_, otherMechanic := s.user(t, "m2@webike.test", domain.Mechanic)
	_, admin := s.user(t, "a@webike.test", domain.Admin)

	code, env := s.do(t, http.MethodPost, "/api/service-requests", mechanic, ServiceRequestRequest{})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPost, "/api/service-requests", customer, ServiceRequestRequest{
		VehicleType:   "bike",
		VehicleModel:  "Pulsar 150",
		VehicleNumber: "KA01AB1234",
		ServiceType:   "repair",
		Description:   "Front brake is weak",
		Priority:      "high",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[domain.ServiceRequestView](t, env.Data)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, customerUser.ID, created.CustomerID)
	base := "/api/service-requests/" + created.ID.String()

	code, env = s.do(t, http.MethodGet, base, otherMechanic, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPatch, base+"/assign", customer, AssignRequest{MechanicID: mechanicUser.ID.String()})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPatch, base+"/assign", admin, AssignRequest{MechanicID: customerUser.ID.String()})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, codeValidation, env.Code)

	code, env = s.do(t, http.MethodPatch, base+"/assign", admin, AssignRequest{MechanicID: mechanicUser.ID.String()})
	require.Equal(t, http.StatusOK, code, env.Message)
	assigned := decode[domain.ServiceRequestView](t, env.Data)
	require.NotNil(t, assigned.Mechanic)
	assert.Equal(t, mechanicUser.ID, assigned.Mechanic.ID)

	code, _ = s.do(t, http.MethodGet, base, mechanic, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPatch, base+"/status", otherMechanic, StatusRequest{Status: "in_progress"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPatch, base+"/status", mechanic, StatusRequest{Status: "cancelled"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPatch, base+"/status", mechanic, StatusRequest{Status: "completed"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, codeInvalidTransition, env.Code)

	code, _ = s.do(t, http.MethodPatch, base+"/status", mechanic, StatusRequest{Status: "in_progress"})
	require.Equal(t, http.StatusOK, code)

	notes, cost := "fixed brake", 500.0
	code, env = s.do(t, http.MethodPatch, base+"/status", mechanic, StatusRequest{Status: "completed", MechanicNotes: &notes, ActualCost: &cost})
	require.Equal(t, http.StatusOK, code, env.Message)
	done := decode[domain.ServiceRequestView](t, env.Data)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, "fixed brake", done.MechanicNotes)
	assert.Equal(t, 500.0, done.ActualCost)
	assert.NotNil(t, done.CompletedDate)

	code, env = s.do(t, http.MethodGet, "/api/service-requests/mechanic/"+mechanicUser.ID.String()+"?status=completed", mechanic, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[ServiceRequestListResponse](t, env.Data).Count)

	code, _ = s.do(t, http.MethodGet, "/api/service-requests/customer/"+customerUser.ID.String(), mechanic, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodGet, "/api/service-requests?status=completed", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[ServiceRequestListResponse](t, env.Data).Count)

	code, env = s.do(t, http.MethodGet, "/api/service-requests/"+uuid.NewString(), admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, codeNotFound, env.Code)

	code, env = s.do(t, http.MethodGet, "/api/service-requests/not-a-uuid", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, codeBadRequest, env.Code)
}

func TestServiceRequests_CustomerCancels(t *testing.T) {
	s := newTestServer(t)
	_, customer := s.user(t, "c@webike.test", domain.Customer)
	_, stranger := s.user(t, "s@webike.test", domain.Customer)

	code, env := s.do(t, http.MethodPost, "/api/service-requests", customer, ServiceRequestRequest{
		VehicleType:   "scooter",
		VehicleModel:  "Activa",
		VehicleNumber: "KA02XY0001",
		ServiceType:   "maintenance",
		Description:   "Service due",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[domain.ServiceRequestView](t, env.Data)
	base := "/api/service-requests/" + created.ID.String()

	code, _ = s.do(t, http.MethodPatch, base+"/status", customer, StatusRequest{Status: "in_progress"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPatch, base+"/status", stranger, StatusRequest{Status: "cancelled"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPatch, base+"/status", customer, StatusRequest{Status: "cancelled"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StatusCancelled, decode[domain.ServiceRequestView](t, env.Data).Status)
}

func TestRentals_OverHTTP(t *testing.T) {
	s := newTestServer(t)
	customerUser, customer := s.user(t, "c@webike.test", domain.Customer)
	_, stranger := s.user(t, "s@webike.test", domain.Customer)
	_, admin := s.user(t, "a@webike.test", domain.Admin)

	code, _ := s.do(t, http.MethodPost, "/api/bikes", admin, BikeRequest{BikeID: "B1", Model: "Classic 350", Type: "cruiser", Price: 500})
	require.Equal(t, http.StatusCreated, code)

	start := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	rent := RentRequest{BikeID: "B1", RentalStart: start, RentalEnd: start.Add(36 * time.Hour)}

	code, env := s.do(t, http.MethodPost, "/api/rentals", customer, rent)
	require.Equal(t, http.StatusCreated, code, env.Message)
	rental := decode[domain.Rental](t, env.Data)
	assert.Equal(t, 1000.0, rental.TotalCost)

	code, env = s.do(t, http.MethodPost, "/api/rentals", stranger, rent)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, codeConflict, env.Code)

	code, _ = s.do(t, http.MethodGet, "/api/user/rentals/"+customerUser.ID.String(), stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodGet, "/api/user/rentals/"+customerUser.ID.String(), customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[RentalHistoryResponse](t, env.Data).Count)

	code, _ = s.do(t, http.MethodPatch, "/api/rentals/"+rental.ID.String()+"/return", stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPatch, "/api/rentals/"+rental.ID.String()+"/return", customer, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/user/stats/"+customerUser.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[domain.RentalStats](t, env.Data)
	assert.Equal(t, int64(1), stats.TotalRentals)
	assert.Equal(t, int64(0), stats.ActiveRentals)
}

func TestUsers_ProfileAndImage(t *testing.T) {
	s := newTestServer(t)
	u, token := s.user(t, "u@webike.test", domain.Customer)
	_, stranger := s.user(t, "s@webike.test", domain.Customer)
	_, admin := s.user(t, "a@webike.test", domain.Admin)
	path := "/api/user/profile/" + u.ID.String()

	code, _ := s.do(t, http.MethodGet, path, stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodPut, path, token, UpdateProfileRequest{City: "Pune"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Pune", decode[domain.PublicUser](t, env.Data).City)

	code, env = s.upload(t, u.ID.String(), token, "image/png", []byte("\x89PNG\r\n\x1a\nimage"))
	require.Equal(t, http.StatusOK, code, env.Message)
	profile := decode[domain.PublicUser](t, env.Data)
	require.NotNil(t, profile.ProfileImage)
	assert.Contains(t, *profile.ProfileImage, "profile-pictures/"+u.ID.String()+".png")

	code, env = s.upload(t, u.ID.String(), token, "image/png", []byte("<html>not an image</html>"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, codeValidation, env.Code)

	code, _ = s.do(t, http.MethodPut, "/api/user/role/"+u.ID.String(), token, SetRoleRequest{Role: "admin"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPut, "/api/user/role/"+u.ID.String(), admin, SetRoleRequest{Role: "mechanic"})
	require.Equal(t, http.StatusOK, code, env.Message)

	// The existing token now carries mechanic rights.
	code, _ = s.do(t, http.MethodPost, "/api/rentals", token, RentRequest{BikeID: "x", RentalStart: time.Now(), RentalEnd: time.Now().Add(time.Hour)})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestDashboard_ByRole(t *testing.T) {
	s := newTestServer(t)
	_, customer := s.user(t, "c@webike.test", domain.Customer)
	_, mechanic := s.user(t, "m@webike.test", domain.Mechanic)
	_, admin := s.user(t, "a@webike.test", domain.Admin)

	for _, tc := range []struct {
		token string
		role  string
		key   string
	}{
		{customer, "customer", "stats"},
		{mechanic, "mechanic", "open"},
		{admin, "admin", "inventory"},
	} {
		code, env := s.do(t, http.MethodGet, "/api/dashboard", tc.token, nil)
		require.Equal(t, http.StatusOK, code, env.Message)

		var resp struct {
			Role      string                     `json:"role"`
			Dashboard map[string]json.RawMessage `json:"dashboard"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, tc.role, resp.Role)
		assert.Contains(t, resp.Dashboard, tc.key)
	}
}
