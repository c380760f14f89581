package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alanyoungcy/tradedash/internal/auth"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
	"github.com/alanyoungcy/tradedash/internal/service"
	"github.com/alanyoungcy/tradedash/internal/web"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func request(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(environment.WithEnvironment(r.Context(), domain.EnvironmentStaging))
}

func form(target string, values url.Values) *http.Request {
	r := request(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

type stubPositions struct {
	rows []domain.Position
	err  error
}

func (s stubPositions) ListOpen(context.Context, domain.Environment) ([]domain.Position, error) {
	return s.rows, s.err
}

type stubJournal struct {
	entries []domain.JournalEntry
	got     domain.JournalFilter
	err     error
}

func (s *stubJournal) List(_ context.Context, _ domain.Environment, f domain.JournalFilter) ([]domain.JournalEntry, error) {
	s.got = f
	return s.entries, s.err
}

func (s *stubJournal) Get(_ context.Context, _ domain.Environment, id int64) (domain.JournalEntry, error) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.JournalEntry{}, domain.ErrNotFound
}

type stubAnalyses struct {
	logs []domain.AnalysisLog
	opts domain.AnalysisListOpts
	err  error
}

func (s *stubAnalyses) List(_ context.Context, _ domain.Environment, opts domain.AnalysisListOpts) ([]domain.AnalysisLog, error) {
	s.opts = opts
	return s.logs, s.err
}

func (s *stubAnalyses) Get(_ context.Context, _ domain.Environment, id int64) (domain.AnalysisLog, error) {
	if s.err != nil {
		return domain.AnalysisLog{}, s.err
	}
	for _, l := range s.logs {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.AnalysisLog{}, domain.ErrNotFound
}

type stubCandles struct {
	symbol string
	tf     domain.Timeframe
	limit  int
	err    error
}

func (s *stubCandles) List(_ context.Context, _ domain.Environment, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	s.symbol, s.tf, s.limit = symbol, tf, limit
	return nil, s.err
}

type failingPing struct{}

func (failingPing) Ping(_ context.Context, env domain.Environment) error {
	if env == domain.EnvironmentProduction {
		return errors.New("connection refused")
	}
	return nil
}

func TestPositionsEmptyIsArray(t *testing.T) {
	h := NewPositionHandler(stubPositions{}, quiet())
	rec := httptest.NewRecorder()
	h.ListOpen(rec, request(http.MethodGet, "/api/positions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestBackendErrorIsVerbatim500(t *testing.T) {
	h := NewPositionHandler(stubPositions{err: errors.New(`relation "positions" does not exist`)}, quiet())
	rec := httptest.NewRecorder()
	h.ListOpen(rec, request(http.MethodGet, "/api/positions", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != `relation "positions" does not exist` {
		t.Errorf("error = %q", body["error"])
	}
}

// brokenPositions fails the journal query the way the postgres store does.
type brokenPositions struct{ err error }

func (b brokenPositions) ListOpen(context.Context) ([]domain.Position, error) { return nil, b.err }

func (b brokenPositions) GetByID(context.Context, int64) (domain.Position, error) {
	return domain.Position{}, b.err
}

func (b brokenPositions) ListJournal(context.Context, domain.JournalFilter) ([]domain.Position, error) {
	return nil, fmt.Errorf("postgres: list journal: %w", b.err)
}

type oneStoreSet struct{ stores *domain.Stores }

func (p oneStoreSet) Stores(domain.Environment) (*domain.Stores, error) { return p.stores, nil }

func TestJournalBackendErrorIsUnwrapped500(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"postgres error",
			&pgconn.PgError{Severity: "ERROR", Code: "42P01", Message: `relation "positions" does not exist`},
			`relation "positions" does not exist`,
		},
		{"driver error", errors.New("conn closed"), "conn closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			journal := service.NewJournalService(oneStoreSet{&domain.Stores{Positions: brokenPositions{tt.err}}}, quiet())
			rec := httptest.NewRecorder()
			NewJournalHandler(journal, quiet()).List(rec, request(http.MethodGet, "/api/journal", nil))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.want {
				t.Errorf("error = %q, want %q", body["error"], tt.want)
			}
		})
	}
}

func TestBackendMessage(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}
	tests := []struct {
		err  error
		want string
	}{
		{errors.New("plain"), "plain"},
		{fmt.Errorf("a: %w", fmt.Errorf("b: %w", errors.New("root"))), "root"},
		{fmt.Errorf("svc: %w", fmt.Errorf("postgres: %w", pgErr)), pgErr.Message},
	}
	for _, tt := range tests {
		if got := backendMessage(tt.err); got != tt.want {
			t.Errorf("backendMessage(%q) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestParseJournalFilter(t *testing.T) {
	day := func(s string) time.Time {
		tm, _ := time.Parse(time.DateOnly, s)
		return tm
	}
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(t *testing.T, f domain.JournalFilter)
	}{
		{
			name:  "defaults filter nothing",
			query: "",
			check: func(t *testing.T, f domain.JournalFilter) {
				if f.Status != nil || f.ExitReason != nil || f.Confidence != nil || f.Outcome != domain.OutcomeAll {
					t.Errorf("filter = %+v", f)
				}
			},
		},
		{
			name:  "all values are ignored",
			query: "status=all&winOnly=all&exitReason=all&confidence=all",
			check: func(t *testing.T, f domain.JournalFilter) {
				if f.Status != nil || f.ExitReason != nil || f.Confidence != nil {
					t.Errorf("filter = %+v", f)
				}
			},
		},
		{
			name:  "predicates map",
			query: "symbol=btc&status=closed&winOnly=losses&exitReason=STOP_LOSS&confidence=high",
			check: func(t *testing.T, f domain.JournalFilter) {
				if f.Symbol != "btc" {
					t.Errorf("symbol = %q", f.Symbol)
				}
				if f.Status == nil || *f.Status != domain.PositionStatusClosed {
					t.Errorf("status = %v", f.Status)
				}
				if f.Outcome != domain.OutcomeLosses {
					t.Errorf("outcome = %q", f.Outcome)
				}
				if f.ExitReason == nil || *f.ExitReason != domain.ExitStopLoss {
					t.Errorf("exit reason = %v", f.ExitReason)
				}
				if f.Confidence == nil || *f.Confidence != domain.ConfidenceHigh {
					t.Errorf("confidence = %v", f.Confidence)
				}
			},
		},
		{
			name:  "bare dates cover the whole upper day",
			query: "from=2024-03-01&to=2024-03-31",
			check: func(t *testing.T, f domain.JournalFilter) {
				if !f.From.Equal(day("2024-03-01")) {
					t.Errorf("from = %v", f.From)
				}
				if want := day("2024-04-01").Add(-time.Nanosecond); !f.To.Equal(want) {
					t.Errorf("to = %v, want %v", f.To, want)
				}
			},
		},
		{
			name:  "rfc3339 bounds are exact",
			query: "to=" + url.QueryEscape("2024-03-31T12:00:00Z"),
			check: func(t *testing.T, f domain.JournalFilter) {
				if f.To.Hour() != 12 {
					t.Errorf("to = %v", f.To)
				}
			},
		},
		{name: "unknown status", query: "status=pending", wantErr: true},
		{name: "unknown exit reason", query: "exitReason=LIQUIDATED", wantErr: true},
		{name: "unknown confidence", query: "confidence=extreme", wantErr: true},
		{name: "bad date", query: "from=yesterday", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, _, err := parseJournalFilter(request(http.MethodGet, "/api/journal?"+tc.query, nil))
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Fatalf("err = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			tc.check(t, f)
		})
	}
}

func TestJournalListRejectsBadFilter(t *testing.T) {
	j := &stubJournal{}
	rec := httptest.NewRecorder()
	NewJournalHandler(j, quiet()).List(rec, request(http.MethodGet, "/api/journal?winOnly=maybe", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "winOnly") {
		t.Errorf("error does not name the parameter: %s", rec.Body.String())
	}
}

func TestAnalysisList(t *testing.T) {
	a := &stubAnalyses{}
	h := NewAnalysisHandler(a, quiet())

	rec := httptest.NewRecorder()
	h.List(rec, request(http.MethodGet, "/api/analysis?limit=5&setup_found=true", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if a.opts.Limit != 5 || a.opts.SetupFound == nil || !*a.opts.SetupFound {
		t.Errorf("opts = %+v", a.opts)
	}

	rec = httptest.NewRecorder()
	h.List(rec, request(http.MethodGet, "/api/analysis?setup_found=maybe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad setup_found status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.List(rec, request(http.MethodGet, "/api/analysis?limit=ten", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}
}

func TestAnalysisGetStatuses(t *testing.T) {
	a := &stubAnalyses{logs: []domain.AnalysisLog{{ID: 7, Symbol: "BTCUSDT"}}}
	h := NewAnalysisHandler(a, quiet())

	tests := []struct {
		id   string
		want int
	}{
		{"7", http.StatusOK},
		{"8", http.StatusNotFound},
		{"abc", http.StatusBadRequest},
		{"-1", http.StatusBadRequest},
	}
	for _, tc := range tests {
		r := request(http.MethodGet, "/api/analysis/"+tc.id, nil)
		r.SetPathValue("id", tc.id)
		rec := httptest.NewRecorder()
		h.Get(rec, r)
		if rec.Code != tc.want {
			t.Errorf("id %s: status = %d, want %d", tc.id, rec.Code, tc.want)
		}
	}
}

func TestCandlesParams(t *testing.T) {
	c := &stubCandles{}
	h := NewCandleHandler(c, quiet())

	rec := httptest.NewRecorder()
	h.List(rec, request(http.MethodGet, "/api/candles?symbol=ETHUSDT&timeframe=15m&limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if c.symbol != "ETHUSDT" || c.tf != domain.Timeframe4h || c.limit != 2 {
		t.Errorf("got symbol=%q tf=%q limit=%d", c.symbol, c.tf, c.limit)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %s", rec.Body.String())
	}

	for err, want := range map[error]int{
		domain.ErrInvalidInput: http.StatusBadRequest,
		domain.ErrNotFound:     http.StatusNotFound,
	} {
		c.err = err
		rec := httptest.NewRecorder()
		h.List(rec, request(http.MethodGet, "/api/candles", nil))
		if rec.Code != want {
			t.Errorf("%v: status = %d, want %d", err, rec.Code, want)
		}
	}
}

func TestHealthReportsDegradedWith200(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(failingPing{}, quiet()).HealthCheck(rec, request(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status   string            `json:"status"`
		Backends map[string]string `json:"backends"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "degraded" || body.Backends["staging"] != "ok" || body.Backends["production"] == "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                  "/",
		"/journal?status=x": "/journal?status=x",
		"//evil.example":    "/",
		"/\\evil.example":   "/",
		"https://evil.test": "/",
		"/login":            "/",
		"/login?next=/x":    "/",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnvironmentSelect(t *testing.T) {
	h := NewEnvironmentHandler(true, quiet())

	r := form("/environment", url.Values{"environment": {"production"}})
	r.Header.Set("Referer", "http://"+r.Host+"/journal?status=open")
	rec := httptest.NewRecorder()
	h.Select(rec, r)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/journal?status=open" {
		t.Errorf("location = %q", loc)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != environment.CookieName || cookies[0].Value != "production" || !cookies[0].Secure {
		t.Errorf("cookies = %+v", cookies)
	}

	r = form("/environment", url.Values{"environment": {"prod"}})
	rec = httptest.NewRecorder()
	h.Select(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid environment status = %d", rec.Code)
	}

	r = form("/environment", url.Values{"environment": {"staging"}})
	r.Header.Set("Referer", "https://elsewhere.test/phish")
	rec = httptest.NewRecorder()
	h.Select(rec, r)
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("foreign referer location = %q", loc)
	}
}

type stubSessions struct {
	loggedOut string
}

func (s *stubSessions) Login(_ context.Context, env domain.Environment, email, password string) (auth.Session, error) {
	if password != "hunter2" {
		return auth.Session{}, domain.ErrUnauthenticated
	}
	return auth.Session{AccessToken: "acc-" + string(env), RefreshToken: "ref", ExpiresIn: 3600, User: auth.User{Email: email}}, nil
}

func (s *stubSessions) VerifyEmail(_ context.Context, _ domain.Environment, tokenHash, _ string) (auth.Session, error) {
	if tokenHash != "good" {
		return auth.Session{}, domain.ErrUnauthenticated
	}
	return auth.Session{AccessToken: "acc", RefreshToken: "ref", ExpiresIn: 3600}, nil
}

func (s *stubSessions) Logout(_ context.Context, _ domain.Environment, access string) {
	s.loggedOut = access
}

func newRenderer(t *testing.T) *web.Renderer {
	t.Helper()
	r, err := web.NewRenderer(quiet())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func cookieMap(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestLogin(t *testing.T) {
	s := &stubSessions{}
	h := NewAuthHandler(s, newRenderer(t), false, quiet())

	rec := httptest.NewRecorder()
	h.Login(rec, form("/login", url.Values{"email": {"ops@example.com"}, "password": {"wrong"}}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Error("login page does not explain the failure")
	}

	rec = httptest.NewRecorder()
	h.Login(rec, form("/login", url.Values{
		"email":       {"ops@example.com"},
		"password":    {"hunter2"},
		"environment": {"production"},
		"next":        {"/journal/4"},
	}))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/journal/4" {
		t.Fatalf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}
	cookies := cookieMap(rec)
	if c := cookies[auth.AccessCookieName(domain.EnvironmentProduction)]; c == nil || c.Value != "acc-production" {
		t.Errorf("access cookie = %+v", c)
	}
	if c := cookies[environment.CookieName]; c == nil || c.Value != "production" {
		t.Errorf("environment cookie = %+v", c)
	}
}

func TestCallbackAndLogout(t *testing.T) {
	s := &stubSessions{}
	h := NewAuthHandler(s, newRenderer(t), false, quiet())

	rec := httptest.NewRecorder()
	h.Callback(rec, request(http.MethodGet, "/auth/callback?token_hash=good&type=signup&next=/positions", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/positions" {
		t.Fatalf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	h.Callback(rec, request(http.MethodGet, "/auth/callback?token_hash=bad&type=signup", nil))
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?error=") {
		t.Errorf("failed callback location = %q", loc)
	}

	r := request(http.MethodPost, "/logout", nil)
	r.AddCookie(&http.Cookie{Name: auth.AccessCookieName(domain.EnvironmentStaging), Value: "acc"})
	rec = httptest.NewRecorder()
	h.Logout(rec, r)
	if s.loggedOut != "acc" {
		t.Errorf("logout token = %q", s.loggedOut)
	}
	if c := cookieMap(rec)[auth.AccessCookieName(domain.EnvironmentStaging)]; c == nil || c.MaxAge >= 0 {
		t.Errorf("access cookie not cleared: %+v", c)
	}
}

type stubDashboard struct{}

func (stubDashboard) Overview(context.Context, domain.Environment) service.Overview {
	return service.Overview{}
}

func TestPages(t *testing.T) {
	mark := 61000.0
	entries := []domain.JournalEntry{{Position: domain.Position{ID: 4, Symbol: "BTCUSDT", Status: domain.PositionStatusOpen, EntryPrice: 60000, Quantity: 1, CurrentPrice: &mark}}}
	h := NewPageHandler(PageServices{
		Dashboard: stubDashboard{},
		Positions: stubPositions{},
		Analyses:  &stubAnalyses{},
		Journal:   &stubJournal{entries: entries},
		Candles:   &stubCandles{err: errors.New("timeout")},
	}, newRenderer(t), "test", quiet())

	tests := []struct {
		name   string
		target string
		id     string
		serve  http.HandlerFunc
		want   int
	}{
		{"dashboard", "/", "", h.Dashboard, http.StatusOK},
		{"positions", "/positions", "", h.Positions, http.StatusOK},
		{"analysis", "/analysis?setup_found=false", "", h.AnalysisList, http.StatusOK},
		{"analysis bad filter", "/analysis?setup_found=x", "", h.AnalysisList, http.StatusBadRequest},
		{"analysis missing", "/analysis/9", "9", h.AnalysisDetail, http.StatusNotFound},
		{"journal", "/journal?status=open", "", h.Journal, http.StatusOK},
		{"trade without candles", "/journal/4", "4", h.Trade, http.StatusOK},
		{"trade missing", "/journal/5", "5", h.Trade, http.StatusNotFound},
		{"settings", "/settings", "", h.Settings, http.StatusOK},
		{"not found", "/nope", "", h.NotFound, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := request(http.MethodGet, tc.target, nil)
			if tc.id != "" {
				r.SetPathValue("id", tc.id)
			}
			rec := httptest.NewRecorder()
			tc.serve(rec, r)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("content type = %q", ct)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	NewStatusHandler("1.2.3", "postgres", true, func() int { return 3 }).GetStatus(rec, request(http.MethodGet, "/api/status", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["version"] != "1.2.3" || body["environment"] != "staging" || body["ws_clients"] != float64(3) {
		t.Errorf("body = %v", body)
	}
}
