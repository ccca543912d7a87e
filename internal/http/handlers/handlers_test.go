// README: End-to-end handler tests over the real router with in-memory stores.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rachana28/DHAPP-BACKEND/internal/config"
	httptransport "github.com/rachana28/DHAPP-BACKEND/internal/http"
	"github.com/rachana28/DHAPP-BACKEND/internal/infra"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/allocation"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/device"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/trip"
	"github.com/rachana28/DHAPP-BACKEND/internal/notify"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

// stubVerifier resolves fixed bearer tokens to identities.
type stubVerifier struct {
	tokens map[string]*infra.FirebaseToken
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*infra.FirebaseToken, error) {
	if t, ok := s.tokens[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("unknown token")
}

type testApp struct {
	router  *gin.Engine
	drivers *driver.MemStore
	trips   *trip.MemStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	trips := trip.NewMemStore()
	drivers := driver.NewMemStore()
	log := zap.NewNop()

	engine := allocation.NewEngine(trips, drivers, notify.NewLogNotifier(log), config.AllocationConfig{
		TierSize:          3,
		EscalationTimeout: 10 * time.Minute,
		SweepInterval:     time.Minute,
	}, log)

	verifier := &stubVerifier{tokens: map[string]*infra.FirebaseToken{
		"rider-token":  {UID: "rider1", Claims: map[string]interface{}{}},
		"rider2-token": {UID: "rider2", Claims: map[string]interface{}{}},
		"driver-token": {UID: "driver-user1", Claims: map[string]interface{}{"role": "driver"}},
	}}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Engine:   engine,
		Drivers:  driver.NewService(drivers),
		Trips:    trip.NewService(trips),
		Devices:  device.NewMemStore(),
		Verifier: verifier,
		Log:      log,
	})
	return &testApp{router: router, drivers: drivers, trips: trips}
}

func (a *testApp) seedDriver(t *testing.T, id, userID string) {
	t.Helper()
	err := a.drivers.Create(context.Background(), &driver.Driver{
		ID:          types.ID(id),
		UserID:      types.ID(userID),
		Name:        "Test Driver",
		Fleet:       driver.FleetRide,
		VehicleType: "SUV",
		Status:      driver.StatusAvailable,
		Rating:      4.5,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("seed driver: %v", err)
	}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/api/trips", "", map[string]any{"fleet": "ride", "vehicle_type": "SUV"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", w.Code)
	}
	w = app.do(t, http.MethodPost, "/api/trips", "bogus", map[string]any{"fleet": "ride", "vehicle_type": "SUV"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: got %d, want 401", w.Code)
	}
}

func TestDriverRoutesRequireDriverRole(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/api/drivers/offers", "rider-token", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("got %d, want 403", w.Code)
	}
}

func TestRequestOfferAcceptFlow(t *testing.T) {
	app := newTestApp(t)
	app.seedDriver(t, "d1", "driver-user1")

	w := app.do(t, http.MethodPost, "/api/trips", "rider-token", map[string]any{"fleet": "ride", "vehicle_type": "SUV"})
	if w.Code != http.StatusCreated {
		t.Fatalf("request trip: got %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		TripID string `json:"trip_id"`
		Status string `json:"status"`
	}
	decode(t, w, &created)
	if created.Status != string(trip.StatusSearching) {
		t.Fatalf("trip status = %s, want searching", created.Status)
	}

	w = app.do(t, http.MethodGet, "/api/drivers/offers", "driver-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list offers: got %d body %s", w.Code, w.Body.String())
	}
	var offers struct {
		Offers []struct {
			OfferID string `json:"offer_id"`
			Tier    int    `json:"tier"`
			Trip    struct {
				TripID string `json:"trip_id"`
			} `json:"trip"`
		} `json:"offers"`
	}
	decode(t, w, &offers)
	if len(offers.Offers) != 1 || offers.Offers[0].Trip.TripID != created.TripID {
		t.Fatalf("offers = %+v, want one offer for trip %s", offers, created.TripID)
	}

	w = app.do(t, http.MethodPost, "/api/offers/"+offers.Offers[0].OfferID+"/accept", "driver-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: got %d body %s", w.Code, w.Body.String())
	}

	// Second accept loses with 409.
	w = app.do(t, http.MethodPost, "/api/offers/"+offers.Offers[0].OfferID+"/accept", "driver-token", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("double accept: got %d, want 409", w.Code)
	}

	w = app.do(t, http.MethodGet, "/api/trips/"+created.TripID, "rider-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get trip: got %d", w.Code)
	}
	var got struct {
		Status   string `json:"status"`
		DriverID string `json:"driver_id"`
	}
	decode(t, w, &got)
	if got.Status != string(trip.StatusAccepted) || got.DriverID != "d1" {
		t.Fatalf("trip after accept = %+v, want accepted by d1", got)
	}
}

func TestGetTripOwnershipEnforced(t *testing.T) {
	app := newTestApp(t)
	app.seedDriver(t, "d1", "driver-user1")

	w := app.do(t, http.MethodPost, "/api/trips", "rider-token", map[string]any{"fleet": "ride", "vehicle_type": "SUV"})
	var created struct {
		TripID string `json:"trip_id"`
	}
	decode(t, w, &created)

	w = app.do(t, http.MethodGet, "/api/trips/"+created.TripID, "rider2-token", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign get: got %d, want 403", w.Code)
	}
	w = app.do(t, http.MethodPost, "/api/trips/"+created.TripID+"/cancel", "rider2-token", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign cancel: got %d, want 403", w.Code)
	}
}

func TestRejectThenExhaustion(t *testing.T) {
	app := newTestApp(t)
	app.seedDriver(t, "d1", "driver-user1")

	w := app.do(t, http.MethodPost, "/api/trips", "rider-token", map[string]any{"fleet": "ride", "vehicle_type": "SUV"})
	var created struct {
		TripID string `json:"trip_id"`
	}
	decode(t, w, &created)

	w = app.do(t, http.MethodGet, "/api/drivers/offers", "driver-token", nil)
	var offers struct {
		Offers []struct {
			OfferID string `json:"offer_id"`
		} `json:"offers"`
	}
	decode(t, w, &offers)
	if len(offers.Offers) != 1 {
		t.Fatalf("want 1 offer, got %d", len(offers.Offers))
	}

	w = app.do(t, http.MethodPost, "/api/offers/"+offers.Offers[0].OfferID+"/reject", "driver-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reject: got %d body %s", w.Code, w.Body.String())
	}
	// Rejecting again is a conflict, not an error.
	w = app.do(t, http.MethodPost, "/api/offers/"+offers.Offers[0].OfferID+"/reject", "driver-token", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("double reject: got %d, want 409", w.Code)
	}

	// The only driver rejected, so the trip is out of candidates.
	w = app.do(t, http.MethodGet, "/api/trips/"+created.TripID, "rider-token", nil)
	var got struct {
		Status string `json:"status"`
	}
	decode(t, w, &got)
	if got.Status != string(trip.StatusNoDriversAvailable) {
		t.Errorf("trip status = %s, want no_drivers_available", got.Status)
	}
}

func TestRequestTripValidation(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/api/trips", "rider-token", map[string]any{"fleet": "ride"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing vehicle type: got %d, want 400", w.Code)
	}
}

func TestDriverRegisterAndList(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/drivers", "driver-token", map[string]any{
		"name":           "Nomsa",
		"phone":          "+27110000000",
		"license_number": "LIC-1",
		"fleet":          "tow",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: got %d body %s", w.Code, w.Body.String())
	}
	var reg struct {
		Status string `json:"status"`
	}
	decode(t, w, &reg)
	if reg.Status != string(driver.StatusPendingApproval) {
		t.Errorf("new driver status = %s, want pending_approval", reg.Status)
	}

	w = app.do(t, http.MethodGet, "/api/drivers?fleet=tow", "rider-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}
	var list struct {
		Drivers []struct {
			Name string `json:"name"`
		} `json:"drivers"`
	}
	decode(t, w, &list)
	if len(list.Drivers) != 1 || list.Drivers[0].Name != "Nomsa" {
		t.Fatalf("list = %+v, want the registered tow driver", list)
	}
}

func TestDeviceRegister(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/api/devices", "rider-token", map[string]any{"token": "tok1", "platform": "ios"})
	if w.Code != http.StatusNoContent {
		t.Errorf("register device: got %d, want 204", w.Code)
	}
	w = app.do(t, http.MethodPost, "/api/devices", "rider-token", map[string]any{"token": "", "platform": "ios"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty token: got %d, want 400", w.Code)
	}
}
