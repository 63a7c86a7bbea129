package jwtauth_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/jwtauth"
	"github.com/stretchr/testify/require"
)

const testSecret = "shhh-its-a-test"

var errUnknownUser = errors.New("unknown user")

type testUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	password string
}

// fixture bundles a middleware with a tiny in-memory user table, a settable
// clock and counters on every callback.
type fixture struct {
	t     *testing.T
	now   time.Time
	users map[string]*testUser

	lookups  atomic.Int32
	verifies atomic.Int32

	mw      *jwtauth.Middleware
	handler http.Handler
	reached atomic.Int32
}

func newFixture(t *testing.T, tweak func(*jwtauth.Options)) *fixture {
	t.Helper()

	f := &fixture{
		t:   t,
		now: time.Unix(1_700_000_000, 0),
		users: map[string]*testUser{
			"alice": {ID: 1, Username: "alice", password: "wonderland"},
			"bob":   {ID: 2, Username: "bob", password: "builder"},
		},
	}

	opts := &jwtauth.Options{
		Secret:    testSecret,
		TokenLife: time.Minute,
		Lookup: jwtauth.LookupFunc(func(_ *http.Request, ident string) (jwtauth.Record, error) {
			f.lookups.Add(1)
			u, ok := f.users[ident]
			if !ok {
				return nil, errUnknownUser
			}
			return u, nil
		}),
		Verify: jwtauth.VerifyFunc(func(_ *http.Request, password string, rec jwtauth.Record) (bool, error) {
			f.verifies.Add(1)
			return rec.(*testUser).password == password, nil
		}),
		Clock: func() time.Time { return f.now },
	}
	if tweak != nil {
		tweak(opts)
	}

	mw, err := jwtauth.New(opts)
	require.NoError(t, err)
	f.mw = mw

	app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.reached.Add(1)
		w.WriteHeader(http.StatusTeapot)
	})
	f.handler = mw.Handler(app)
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func postJSON(path string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func postForm(path string, vals url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// login runs the issuance flow for a known user and returns the token found
// under the configured token property.
func (f *fixture) login(username string) string {
	f.t.Helper()
	rec := f.do(postJSON("/api-token-auth", map[string]string{
		"username": username,
		"password": f.users[username].password,
	}))
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())

	token, ok := decodeBody(f.t, rec)[f.mw.Config().TokenPropertyName].(string)
	require.True(f.t, ok)
	require.NotEmpty(f.t, token)
	return token
}
