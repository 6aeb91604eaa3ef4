package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

type fakeSubStore struct {
	subs map[string]core.Subscription
}

func newFakeSubStore() *fakeSubStore {
	return &fakeSubStore{subs: make(map[string]core.Subscription)}
}

func (f *fakeSubStore) CreateSubscription(_ context.Context, s core.Subscription) error {
	f.subs[s.ID] = s
	return nil
}

func (f *fakeSubStore) GetSubscription(_ context.Context, userID, id string) (core.Subscription, error) {
	s, ok := f.subs[id]
	if !ok || s.UserID != userID {
		return core.Subscription{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeSubStore) ListSubscriptions(_ context.Context, userID string) ([]core.Subscription, error) {
	var out []core.Subscription
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeSubStore) UpdateSubscription(_ context.Context, s core.Subscription) error {
	if _, ok := f.subs[s.ID]; !ok {
		return storage.ErrNotFound
	}
	f.subs[s.ID] = s
	return nil
}

func (f *fakeSubStore) DeleteSubscription(_ context.Context, userID, id string) error {
	s, ok := f.subs[id]
	if !ok || s.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.subs, id)
	return nil
}

func (f *fakeSubStore) SetSubscriptionActive(_ context.Context, userID, id string, active bool) error {
	s, ok := f.subs[id]
	if !ok || s.UserID != userID {
		return storage.ErrNotFound
	}
	s.Active = active
	f.subs[id] = s
	return nil
}

type fakeSettingsStore struct {
	settings map[string]storage.UserSettings
}

func (f *fakeSettingsStore) GetUserSettings(_ context.Context, userID string, defaults storage.UserSettings) (storage.UserSettings, error) {
	if s, ok := f.settings[userID]; ok {
		return s, nil
	}
	return defaults, nil
}

func (f *fakeSettingsStore) SaveUserSettings(_ context.Context, userID string, s storage.UserSettings) error {
	f.settings[userID] = s
	return nil
}

type fakeUserStore struct {
	users map[string]auth.User
}

func (f *fakeUserStore) CreateUser(_ context.Context, u auth.User) error {
	f.users[u.Email] = u
	return nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (auth.User, error) {
	u, ok := f.users[email]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetUser(_ context.Context, id string) (auth.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

type testEnv struct {
	server *Server
	store  *fakeSubStore
	token  string
	userID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authSvc := auth.NewService(
		&fakeUserStore{users: make(map[string]auth.User)},
		auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Minute),
		auth.NewMemorySessionStore(),
		time.Hour,
	)

	store := newFakeSubStore()
	subSvc := services.NewSubscriptionService(store, nil)

	defaults := storage.UserSettings{
		Currency:          core.DefaultCurrency,
		Locale:            core.DefaultLocale,
		RenewalWindowDays: core.DefaultRenewalWindow,
	}
	settings := &fakeSettingsStore{settings: make(map[string]storage.UserSettings)}

	server := NewServer(":0", subSvc, authSvc, settings, defaults)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})

	user, tokens, err := authSvc.Register(context.Background(), "ana@example.com", "password123", "Ana")
	if err != nil {
		t.Fatalf("register test user: %v", err)
	}

	return &testEnv{server: server, store: store, token: tokens.AccessToken, userID: user.ID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createReq(name string, cents int64, cycle, category, next string) subscriptionRequest {
	return subscriptionRequest{
		Name:            name,
		PriceCents:      &cents,
		BillingCycle:    cycle,
		Category:        category,
		NextBillingDate: next,
	}
}

func futureDate(days int) string {
	return core.DateOf(time.Now().AddDate(0, 0, days)).String()
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	rec := env.do(t, http.MethodGet, "/api/v1/subscriptions", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", registerRequest{
		Email: "bob@example.com", Password: "password123", Name: "Bob",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body)
	}
	reg := decodeBody[authResponse](t, rec)
	if reg.AccessToken == "" || reg.RefreshToken == "" {
		t.Error("register response missing tokens")
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", registerRequest{
		Email: "bob@example.com", Password: "password123",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Email: "bob@example.com", Password: "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Email: "bob@example.com", Password: "password123",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d, want 200", rec.Code)
	}

	login := decodeBody[authResponse](t, rec)
	rec = env.do(t, http.MethodPost, "/api/v1/auth/refresh", refreshRequest{RefreshToken: login.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Errorf("refresh status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", refreshRequest{RefreshToken: login.RefreshToken})
	if rec.Code != http.StatusNoContent {
		t.Errorf("logout status = %d, want 204", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/auth/refresh", refreshRequest{RefreshToken: login.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", rec.Code)
	}
}

func TestCreateSubscription(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Netflix", 4590, "monthly", "streaming", futureDate(10)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	sub := decodeBody[subscriptionResponse](t, rec)
	if sub.ID == "" || !sub.Active {
		t.Errorf("response = %+v", sub)
	}
	if sub.MonthlyCents != 4590 || sub.YearlyCents != 55080 {
		t.Errorf("normalized cents = %d/%d, want 4590/55080", sub.MonthlyCents, sub.YearlyCents)
	}
}

func TestCreateSubscriptionValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  subscriptionRequest
	}{
		{"bad cycle", createReq("Netflix", 4590, "weekly", "streaming", futureDate(1))},
		{"bad date", createReq("Netflix", 4590, "monthly", "streaming", "15/09/2026")},
		{"negative price", createReq("Netflix", -1, "monthly", "streaming", futureDate(1))},
		{"empty name", createReq("", 4590, "monthly", "streaming", futureDate(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/subscriptions", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
			}
		})
	}

	t.Run("missing price", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/subscriptions", subscriptionRequest{
			Name: "Netflix", BillingCycle: "monthly", Category: "streaming", NextBillingDate: futureDate(1),
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCreateSubscriptionUnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Coinbase", 990, "monthly", "crypto", futureDate(5)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	sub := decodeBody[subscriptionResponse](t, rec)
	if sub.Category != "other" {
		t.Errorf("category = %q, want other", sub.Category)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Netflix", 4590, "monthly", "streaming", futureDate(10)))
	created := decodeBody[subscriptionResponse](t, rec)

	rec = env.do(t, http.MethodGet, "/api/v1/subscriptions/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/subscriptions/"+created.ID,
		createReq("Netflix Premium", 5990, "monthly", "streaming", futureDate(10)))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body)
	}
	updated := decodeBody[subscriptionResponse](t, rec)
	if updated.Name != "Netflix Premium" || updated.PriceCents != 5990 {
		t.Errorf("updated = %+v", updated)
	}

	rec = env.do(t, http.MethodPatch, "/api/v1/subscriptions/"+created.ID+"/active",
		map[string]bool{"active": false})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/subscriptions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/subscriptions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestDashboardSummary(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Netflix", 4590, "monthly", "streaming", futureDate(10)))
	env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("JetBrains", 12000, "yearly", "software", futureDate(40)))

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	sum := decodeBody[summaryResponse](t, rec)

	if sum.MonthlyTotalCents != 5590 {
		t.Errorf("monthly total = %d, want 5590", sum.MonthlyTotalCents)
	}
	if sum.YearlyTotalCents != 67080 {
		t.Errorf("yearly total = %d, want 67080", sum.YearlyTotalCents)
	}
	if sum.ActiveCount != 2 || sum.InactiveCount != 0 {
		t.Errorf("counts = %d/%d", sum.ActiveCount, sum.InactiveCount)
	}
	if sum.MonthlyTotalDisplay != "R$ 55,90" {
		t.Errorf("monthly display = %q, want R$ 55,90", sum.MonthlyTotalDisplay)
	}
	if len(sum.ByCategory) != 2 {
		t.Fatalf("by_category len = %d, want 2", len(sum.ByCategory))
	}
	// Declaration order: streaming before software.
	if sum.ByCategory[0].Category != "streaming" || sum.ByCategory[1].Category != "software" {
		t.Errorf("by_category order = %q, %q", sum.ByCategory[0].Category, sum.ByCategory[1].Category)
	}
}

func TestDashboardSummaryCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Netflix", 4590, "monthly", "streaming", futureDate(10)))

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil)
	if got := decodeBody[summaryResponse](t, rec).MonthlyTotalCents; got != 4590 {
		t.Fatalf("monthly total = %d, want 4590", got)
	}

	env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Spotify", 1990, "monthly", "streaming", futureDate(5)))

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil)
	if got := decodeBody[summaryResponse](t, rec).MonthlyTotalCents; got != 6580 {
		t.Errorf("monthly total after create = %d, want 6580", got)
	}
}

func TestTopCategories(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Netflix", 4590, "monthly", "streaming", futureDate(10)))
	env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Xbox", 2990, "monthly", "gaming", futureDate(10)))

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/top-categories?n=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string][]categoryTotalResponse](t, rec)
	cats := body["categories"]
	if len(cats) != 1 || cats[0].Category != "streaming" {
		t.Errorf("top categories = %+v", cats)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard/top-categories?n=99", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("n=99 status = %d, want 400", rec.Code)
	}
}

func TestUpcomingRenewals(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("Netflix", 4590, "monthly", "streaming", futureDate(3)))
	env.do(t, http.MethodPost, "/api/v1/subscriptions",
		createReq("JetBrains", 12000, "yearly", "software", futureDate(30)))

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/upcoming", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	up := decodeBody[upcomingResponse](t, rec)
	if up.WindowDays != core.DefaultRenewalWindow {
		t.Errorf("window = %d, want %d", up.WindowDays, core.DefaultRenewalWindow)
	}
	if len(up.Alerts) != 1 || up.Alerts[0].Subscription.Name != "Netflix" || up.Alerts[0].DaysUntil != 3 {
		t.Errorf("alerts = %+v", up.Alerts)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard/upcoming?window=60", nil)
	up = decodeBody[upcomingResponse](t, rec)
	if len(up.Alerts) != 2 {
		t.Errorf("wide window alerts = %d, want 2", len(up.Alerts))
	}

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard/upcoming?window=9999", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("window=9999 status = %d, want 400", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody[settingsPayload](t, rec)
	if got.Currency != "BRL" || got.Locale != "pt-BR" || got.RenewalWindowDays != 7 {
		t.Errorf("defaults = %+v", got)
	}
	if got.SampleAmount != "R$ 1.234,56" {
		t.Errorf("sample amount = %q, want R$ 1.234,56", got.SampleAmount)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/settings", settingsPayload{
		Currency: "usd", Locale: "en-US", RenewalWindowDays: 14,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/settings", nil)
	got = decodeBody[settingsPayload](t, rec)
	if got.Currency != "USD" || got.Locale != "en-US" || got.RenewalWindowDays != 14 {
		t.Errorf("saved = %+v", got)
	}
	if got.SampleAmount != "$ 1,234.56" {
		t.Errorf("sample amount = %q, want $ 1,234.56", got.SampleAmount)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/settings", settingsPayload{
		Currency: "USDT", Locale: "en-US", RenewalWindowDays: 14,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad currency status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
