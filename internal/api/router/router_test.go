package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-backoffice/internal/appointments"
	"github.com/wolfman30/clinic-backoffice/internal/http/handlers"
	"github.com/wolfman30/clinic-backoffice/internal/inventory"
	"github.com/wolfman30/clinic-backoffice/internal/ledger"
	"github.com/wolfman30/clinic-backoffice/internal/observability/metrics"
	"github.com/wolfman30/clinic-backoffice/internal/patients"
	"github.com/wolfman30/clinic-backoffice/internal/scheduling"
	"github.com/wolfman30/clinic-backoffice/internal/workbook"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.New("error")
	reg := prometheus.NewRegistry()
	store := workbook.NewStore(logger, metrics.NewStoreMetrics(reg))
	root := t.TempDir()

	windows := appointments.StaticWindows{Default: scheduling.DefaultWindow()}
	apptSvc := appointments.NewService(store, windows, metrics.NewSchedulingMetrics(reg), logger)

	return New(&Config{
		Logger:       logger,
		Patients:     handlers.NewPatientsHandler(patients.NewService(store, nil, logger), root, logger),
		Appointments: handlers.NewAppointmentsHandler(apptSvc, root, logger),
		Ledger:       handlers.NewLedgerHandler(ledger.NewService(store, logger), root, logger),
		Inventory:    handlers.NewInventoryHandler(inventory.NewService(store, logger), root, logger),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, org string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if org != "" {
		req.Header.Set(orgHeader, org)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthIsPublic(t *testing.T) {
	h := newTestRouter(t)
	rr := doJSON(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestTenantRoutesRequireOrgHeader(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/patients/", "/appointments/slots?resource=drA", "/ledger/revenues/", "/inventory/items"} {
		rr := doJSON(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestPatientRegisterAndFetch(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/patients/", "clinic-1", map[string]any{
		"last_name":  "Durand",
		"first_name": "Alice",
		"phone":      "0601020304",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created patients.Identity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rr = doJSON(t, h, http.MethodGet, "/patients/"+created.ID, "clinic-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched patients.Identity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, "Durand", fetched.LastName)

	rr = doJSON(t, h, http.MethodGet, "/patients/lookup?name=Durand+Alice", "clinic-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Another org must not see the patient.
	rr = doJSON(t, h, http.MethodGet, "/patients/"+created.ID, "clinic-2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBookingConflictReturns409(t *testing.T) {
	h := newTestRouter(t)

	book := func(patient, slot string) *httptest.ResponseRecorder {
		return doJSON(t, h, http.MethodPost, "/appointments/", "clinic-1", map[string]any{
			"resource":   "drA",
			"date":       "2026-09-01",
			"slot":       slot,
			"patient_id": patient,
		})
	}

	rr := book("p1", "08:30")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var appt scheduling.Appointment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &appt))
	assert.Equal(t, 3, appt.Position)

	rr = book("p2", "08:30")
	require.Equal(t, http.StatusConflict, rr.Code)

	var conflict map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &conflict))
	assert.Equal(t, "slot_taken", conflict["kind"])

	rr = book("p1", "09:00")
	require.Equal(t, http.StatusConflict, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &conflict))
	assert.Equal(t, "duplicate_same_day", conflict["kind"])

	rr = doJSON(t, h, http.MethodGet, "/appointments/?resource=drA&date=2026-09-01", "clinic-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var day handlers.ListDayResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &day))
	assert.Len(t, day.Appointments, 1)
}

func TestAppointmentEditAndCancel(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/appointments/", "clinic-1", map[string]any{
		"resource":   "drA",
		"date":       "2026-09-01",
		"slot":       "10:00",
		"patient_id": "p1",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var appt scheduling.Appointment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &appt))

	rr = doJSON(t, h, http.MethodPut, "/appointments/"+appt.ID, "clinic-1", map[string]any{"slot": "11:15"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &appt))
	assert.Equal(t, "11:15", appt.Slot)

	rr = doJSON(t, h, http.MethodDelete, "/appointments/"+appt.ID, "clinic-1", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/appointments/"+appt.ID, "clinic-1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLedgerCRUDAndMonthTotal(t *testing.T) {
	h := newTestRouter(t)

	for i, amount := range []float64{100.50, 49.50} {
		rr := doJSON(t, h, http.MethodPost, "/ledger/revenues/", "clinic-1", map[string]any{
			"label":  fmt.Sprintf("consult %d", i),
			"amount": amount,
			"date":   "2026-08-15T00:00:00Z",
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := doJSON(t, h, http.MethodGet, "/ledger/revenues/total?year=2026&month=8", "clinic-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var total map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &total))
	assert.InDelta(t, 150.0, total["total"], 0.001)

	rr = doJSON(t, h, http.MethodGet, "/ledger/bogus/", "clinic-1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInventoryMovementFlow(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/inventory/items", "clinic-1", map[string]any{
		"name": "gloves", "quantity": 10, "threshold": 5,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var item inventory.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))

	rr = doJSON(t, h, http.MethodPost, "/inventory/items/"+item.ID+"/movements", "clinic-1", map[string]any{
		"delta": -6, "reason": "dispensed",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/inventory/items/"+item.ID+"/movements", "clinic-1", map[string]any{
		"delta": -10, "reason": "dispensed",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/inventory/low-stock", "clinic-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var low map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &low))
	assert.EqualValues(t, 1, low["count"])
}
