package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/visitor"
	"github.com/trezcool/schoolhub/services/directory"
	"github.com/trezcool/schoolhub/services/directory/directorytest"
	"github.com/trezcool/schoolhub/services/metrics"
	"github.com/trezcool/schoolhub/storage/database/inmem"
	"github.com/trezcool/schoolhub/tests"
)

var (
	asha  = auth.User{ID: "u1", Name: "Asha Rao", Email: "asha@test.in", Role: auth.RoleUser}
	ravi  = auth.User{ID: "u2", Name: "Ravi Iyer", Email: "ravi@test.in", Role: auth.RoleSchoolAdmin}
	meera = auth.User{ID: "u3", Name: "Meera Shah", Email: "meera@test.in", Role: auth.RoleSuperAdmin}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

const password = "Tr1cky-Pass"

type httpErr struct {
	Error string `json:"error"`
}

type redirectErr struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testEnv struct {
	srv      *server
	upstream *directorytest.Server
	visitors *visitor.Service
	logger   *testutil.Logger
}

func setup(t *testing.T) *testEnv {
	upstream := directorytest.NewServer()
	t.Cleanup(upstream.Close)

	upstream.AddUser(asha, password)
	upstream.AddUser(ravi, password)
	upstream.AddUser(meera, password)
	upstream.AddSchool(map[string]interface{}{
		"_id": "s1", "slug": "dps-pune", "name": "DPS Pune", "city": "Pune", "board": "CBSE",
		"ratingAverage": 4.5, "minFee": 50000, "maxFee": 120000, "admin": ravi.ID,
	})
	upstream.AddSchool(map[string]interface{}{"_id": "s2", "slug": "little-stars", "name": "Little Stars", "city": "Pune", "board": "ICSE"})
	upstream.AddSchool(map[string]interface{}{"_id": "s3", "slug": "oak-ridge", "name": "Oak Ridge", "city": "Hyderabad", "board": "IB"})
	upstream.AddPendingSchool(map[string]interface{}{"_id": "p1", "slug": "new-school", "name": "New School"})

	conf := &core.Config{
		AppName:   "SchoolHub",
		SecretKey: "t3st-s3cr3t",
		TestMode:  true,
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
	}
	logger := new(testutil.Logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	auth.InitValidators(validate, translator)

	db := inmemdb.Open()
	visitorSvc := visitor.NewService(inmemdb.NewVisitorRepository(db), inmemdb.NewKVRepository(db))

	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		VisitorSvc: visitorSvc,
		Directory:  directory.New(core.DirectoryConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second}, logger),
		Metrics:    metrics.New(),
		Validate:   validate,
		Translator: translator,
	}).(*server)

	return &testEnv{srv: srv, upstream: upstream, visitors: visitorSvc, logger: logger}
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

func (env *testEnv) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	env.srv.ServeHTTP(rec, req)
	return rec
}

// newVisitor returns the token of a new anonymous visitor.
func (env *testEnv) newVisitor(t *testing.T) string {
	rec := env.do(http.MethodPost, "/v1/visitors", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

// login logs usr in on a new visitor and returns the visitor's new token.
func (env *testEnv) login(t *testing.T, usr auth.User) string {
	rec := env.do(http.MethodPost, "/v1/auth/login", env.newVisitor(t),
		marchallObj(t, auth.Credentials{Email: usr.Email, Password: password}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func parseClaims(t *testing.T, token string) Claims {
	var claims Claims
	_, _, err := new(jwt.Parser).ParseUnverified(token, &claims)
	require.NoError(t, err)
	return claims
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
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

func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			checkCodeAndData(t, tt, env.do(method, tt.path, tt.token, tt.body))
		})
	}
}
