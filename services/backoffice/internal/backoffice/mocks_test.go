package backoffice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/billing"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/query"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/remote"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/roster"
)

// MockPublisher records every published message.
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[topic] = append(m.messages[topic], msg)
	return m.err
}

func (m *MockPublisher) Count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages[topic])
}

func (m *MockPublisher) Last(topic string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[topic]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// fakeAPI is a remote API double that counts calls per route.
type fakeAPI struct {
	mu     sync.Mutex
	mux    *http.ServeMux
	calls  map[string]int
	bodies map[string][]byte
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		mux:    http.NewServeMux(),
		calls:  make(map[string]int),
		bodies: make(map[string][]byte),
	}
}

func (f *fakeAPI) handle(pattern string, fn http.HandlerFunc) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		body, _ := readAll(r)
		f.mu.Lock()
		f.calls[pattern]++
		f.bodies[pattern] = body
		f.mu.Unlock()
		fn(w, r)
	})
}

func (f *fakeAPI) count(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[pattern]
}

func (f *fakeAPI) body(pattern string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[pattern]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.ServeHTTP(w, r)
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func envelope(status int, data any, message string, errField any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data":       data,
			"message":    message,
			"httpStatus": status,
			"error":      errField,
		})
	}
}

func ok(data any) http.HandlerFunc {
	return envelope(http.StatusOK, data, "", nil)
}

type testEnv struct {
	api       *fakeAPI
	handler   *Handler
	router    *chi.Mux
	cache     *query.Cache
	publisher *MockPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := newFakeAPI()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	cache := query.NewCache(time.Minute, nil)
	publisher := NewMockPublisher()
	h := NewHandler(HandlerDeps{
		Client:     remote.NewClientWithURL(server.URL, 2*time.Second, nil),
		Cache:      cache,
		Publisher:  publisher,
		Reconciler: roster.NewReconciler(time.UTC),
		Source:     "test",
	}, aqm.NewConfig(), aqm.NewNoopLogger())

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	return &testEnv{api: api, handler: h, router: router, cache: cache, publisher: publisher}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func deliveredOrder(id, reservationID string) billing.Order {
	return billing.Order{
		ID:            id,
		ReservationID: reservationID,
		Status:        "delivered",
		Lines: []billing.Line{
			{ID: id + "-pho", DishName: "Pho", UnitPrice: money(50000), Quantity: 2, Status: "delivered"},
			{ID: id + "-tea", DishName: "Tea", UnitPrice: money(20000), Quantity: 1, Status: "delivered"},
		},
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
