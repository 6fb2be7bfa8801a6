package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	. "github.com/trezcool/copo/apps/api/echo"
	"github.com/trezcool/copo/core"
	"github.com/trezcool/copo/core/academic"
	"github.com/trezcool/copo/core/attainment"
	"github.com/trezcool/copo/core/cache"
	"github.com/trezcool/copo/core/user"
	emailsvc "github.com/trezcool/copo/services/email"
	"github.com/trezcool/copo/storage/docrepos"
	"github.com/trezcool/copo/storage/docstore"
	testutil "github.com/trezcool/copo/tests"
)

const testPwd = "Xk9#mPq2vL"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testApp is a server backed by a fresh in-memory store.
type testApp struct {
	*Server
	conf    *core.Config
	usrRepo user.Repository
	acadSvc *academic.Service
	mailSvc *emailsvc.ConsoleService
	logger  *testutil.Logger
	clock   *fakeClock
}

func setup(t *testing.T) *testApp {
	t.Helper()
	conf := core.NewTestConfig()

	store := docstore.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	usrRepo := docrepos.NewUserRepository(store)
	acadRepo := docrepos.NewAcademicRepository(store)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc)
	acadSvc := academic.NewService(acadRepo)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	clock := &fakeClock{now: time.Now()}
	logger := new(testutil.Logger)
	registry := prometheus.NewRegistry()
	resultCache, err := cache.Instrument(cache.NewMemoryCache(cache.WithClock(clock.Now)), registry)
	if err != nil {
		t.Fatalf("cache.Instrument(): %v", err)
	}

	server := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       usrSvc,
		AcademicSvc:   acadSvc,
		AttainmentSvc: attainment.NewService(acadRepo, usrSvc),
		Cache:         resultCache,
		Gatherer:      registry,
		Validate:      validate,
		Translator:    translator,
	})
	return &testApp{
		Server:  server,
		conf:    conf,
		usrRepo: usrRepo,
		acadSvc: acadSvc,
		mailSvc: mailSvc,
		logger:  logger,
		clock:   clock,
	}
}

func (app *testApp) createUser(t *testing.T, name, email, role string, courseIDs ...string) user.User {
	return testutil.CreateUser(t, app.usrRepo, name, email, testPwd, role, courseIDs...)
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	return getToken(t, app.conf, usr)
}

// serve runs a request through the server and returns the recorder.
func (app *testApp) serve(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marks(v float64) *float64 { return &v }

func mustCreate(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("creating fixture: %v", err)
	}
}

var bg = context.Background()
