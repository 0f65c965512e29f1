package router

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/fastygo/accounts/api/handler"
	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/infrastructure/boltdb"
	"github.com/fastygo/accounts/internal/infrastructure/monitor"
	"github.com/fastygo/accounts/internal/middleware"
	"github.com/fastygo/accounts/internal/security"
	"github.com/fastygo/accounts/pkg/httpcontext"
	boltRepo "github.com/fastygo/accounts/repository/bolt"
	redisRepo "github.com/fastygo/accounts/repository/redis"
	"github.com/fastygo/accounts/usecase"
	accountUC "github.com/fastygo/accounts/usecase/account"
	authUC "github.com/fastygo/accounts/usecase/auth"
)

type outbox struct {
	mu   sync.Mutex
	sent []usecase.Message
}

func (o *outbox) Send(_ context.Context, msg usecase.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) lastToken(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	body := o.sent[len(o.sent)-1].Body
	idx := strings.LastIndex(body, "/api/verify-email/")
	require.GreaterOrEqual(t, idx, 0, body)
	return strings.TrimSpace(body[idx+len("/api/verify-email/"):])
}

type server struct {
	handler fasthttp.RequestHandler
	mail    *outbox
	redis   *miniredis.Miniredis
}

func newServer(t *testing.T) *server {
	t.Helper()

	db, err := boltdb.Open(filepath.Join(t.TempDir(), "accounts.db"), boltRepo.BucketNames()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	accounts := boltRepo.NewAccountRepository(db)
	sessions := redisRepo.NewSessionRepository(client, time.Hour)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	signer, err := security.NewSigner("signing-secret")
	require.NoError(t, err)
	tokens, err := security.NewTokenIssuer("jwt-secret", "test", time.Minute, time.Hour)
	require.NoError(t, err)

	mail := &outbox{}
	accountUseCase := accountUC.New(accounts, hasher, signer, mail, "http://localhost:8000", nil)
	authUseCase := authUC.New(accounts, sessions, hasher, tokens, nil)

	mon := monitor.New(time.Second, nil)
	mon.Register("store", accounts)
	mon.Register("redis", sessions)

	adapter := httpcontext.NewAdapter(time.Second)
	r := New(Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, adapter, nil),
		Account: apiHandler.NewAccountHandler(accountUseCase, adapter, nil),
		Profile: apiHandler.NewProfileHandler(accountUseCase, adapter, nil),
		Health:  apiHandler.NewHealthHandler(mon, adapter, nil),
	}, middleware.JWTAuth(tokens, nil))

	return &server{
		handler: Handler(r, middleware.AccessLog(nil)),
		mail:    mail,
		redis:   mr,
	}
}

type response struct {
	status int
	body   []byte
}

func (s *server) do(t *testing.T, method, uri, bearer string, payload interface{}) response {
	t.Helper()

	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	switch p := payload.(type) {
	case nil:
	case string:
		req.SetBodyString(p)
	default:
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		req.SetBody(raw)
	}

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	s.handler(&ctx)

	return response{status: ctx.Response.StatusCode(), body: append([]byte(nil), ctx.Response.Body()...)}
}

func decode[T any](t *testing.T, r response) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type messageBody struct {
	Message string `json:"message"`
}

func signup(t *testing.T, s *server, username, password, email string) response {
	t.Helper()
	return s.do(t, fasthttp.MethodPost, "/api/signup/", "", map[string]string{
		"username": username,
		"password": password,
		"email":    email,
	})
}

func TestSignupVerifyFlow(t *testing.T) {
	s := newServer(t)

	res := signup(t, s, "alice", "pw", "alice@example.com")
	require.Equal(t, fasthttp.StatusCreated, res.status, string(res.body))
	assert.Equal(t, "Utilisateur créé avec succès.Veuillez vérifier votre email", decode[messageBody](t, res).Message)

	res = s.do(t, fasthttp.MethodGet, "/users/", "", nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	users := decode[[]domain.PublicAccount](t, res)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.NotEmpty(t, users[0].ID)
	assert.NotContains(t, string(res.body), "password")

	require.Len(t, s.mail.sent, 1)
	assert.Equal(t, "alice@example.com", s.mail.sent[0].To)
	assert.Equal(t, "Vérification de votre email", s.mail.sent[0].Subject)
	token := s.mail.lastToken(t)

	res = s.do(t, fasthttp.MethodGet, "/api/verify-email/"+token, "", nil)
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	assert.Equal(t, "Votre email a été vérifié avec succès.", decode[messageBody](t, res).Message)

	res = s.do(t, fasthttp.MethodGet, "/verify-email/"+token+"/", "", nil)
	require.Equal(t, fasthttp.StatusBadRequest, res.status)
	body := decode[errorBody](t, res)
	assert.Equal(t, "ALREADY_VERIFIED", body.Code)
	assert.Equal(t, "Votre email est déjà vérifié.", body.Error)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	s := newServer(t)

	require.Equal(t, fasthttp.StatusCreated, signup(t, s, "alice", "pw", "a@example.com").status)

	res := signup(t, s, "alice", "other", "b@example.com")
	require.Equal(t, fasthttp.StatusBadRequest, res.status)
	body := decode[errorBody](t, res)
	assert.Equal(t, "DUPLICATE_USERNAME", body.Code)
	assert.Equal(t, "Cet utilisateur existe déjà.", body.Error)
	assert.Len(t, s.mail.sent, 1)
}

func TestSignup_InvalidPayloads(t *testing.T) {
	s := newServer(t)

	cases := map[string]interface{}{
		"not json":         "{",
		"missing password": map[string]string{"username": "bob", "email": "b@example.com"},
		"missing email":    map[string]string{"username": "bob", "password": "pw"},
		"empty username":   map[string]string{"username": "", "password": "pw", "email": "b@example.com"},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			res := s.do(t, fasthttp.MethodPost, "/api/signup/", "", payload)
			require.Equal(t, fasthttp.StatusBadRequest, res.status)
			body := decode[errorBody](t, res)
			assert.Equal(t, "INVALID", body.Code)
			assert.Equal(t, domain.ErrInvalidPayload.Message, body.Error)
		})
	}
	assert.Empty(t, s.mail.sent)
}

func TestValidationErrorsDoNotExposeFieldDetails(t *testing.T) {
	s := newServer(t)

	for uri, payload := range map[string]interface{}{
		"/api/login/":         map[string]string{"username": ""},
		"/api/token/refresh/": map[string]string{},
	} {
		res := s.do(t, fasthttp.MethodPost, uri, "", payload)
		require.Equal(t, fasthttp.StatusBadRequest, res.status, uri)
		body := decode[errorBody](t, res)
		assert.Equal(t, "INVALID", body.Code, uri)
		assert.Equal(t, domain.ErrInvalidPayload.Message, body.Error, uri)
		assert.NotContains(t, string(res.body), "LoginRequest", uri)
		assert.NotContains(t, string(res.body), "validation", uri)
	}
}

func TestVerifyEmail_InvalidLink(t *testing.T) {
	s := newServer(t)
	require.Equal(t, fasthttp.StatusCreated, signup(t, s, "alice", "pw", "alice@example.com").status)

	foreign, err := security.NewSigner("another-secret")
	require.NoError(t, err)
	unknown, err := security.NewSigner("signing-secret")
	require.NoError(t, err)
	foreignToken, err := foreign.Sign("alice@example.com")
	require.NoError(t, err)
	unknownToken, err := unknown.Sign("nobody@example.com")
	require.NoError(t, err)

	for _, token := range []string{"garbage", foreignToken, unknownToken} {
		res := s.do(t, fasthttp.MethodGet, "/verify-email/"+token+"/", "", nil)
		require.Equal(t, fasthttp.StatusBadRequest, res.status)
		body := decode[errorBody](t, res)
		assert.Equal(t, "INVALID_LINK", body.Code)
		assert.Equal(t, "Le lien de vérification est invalide.", body.Error)
	}
}

func TestProfileRoutes_RequireAuthentication(t *testing.T) {
	s := newServer(t)

	res := s.do(t, fasthttp.MethodGet, "/user/", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)

	res = s.do(t, fasthttp.MethodPut, "/user/update/", "", map[string]string{"username": "x"})
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)

	res = s.do(t, fasthttp.MethodGet, "/user/", "not-a-token", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
}

func activate(t *testing.T, s *server, username, password, email string) {
	t.Helper()
	require.Equal(t, fasthttp.StatusCreated, signup(t, s, username, password, email).status)
	res := s.do(t, fasthttp.MethodGet, "/api/verify-email/"+s.mail.lastToken(t), "", nil)
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
}

func login(t *testing.T, s *server, username, password string) domain.TokenPair {
	t.Helper()
	res := s.do(t, fasthttp.MethodPost, "/api/login/", "", map[string]string{"username": username, "password": password})
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	pair := decode[domain.TokenPair](t, res)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	return pair
}

func TestLogin_InactiveAccountRefused(t *testing.T) {
	s := newServer(t)
	require.Equal(t, fasthttp.StatusCreated, signup(t, s, "alice", "pw", "alice@example.com").status)

	res := s.do(t, fasthttp.MethodPost, "/api/login/", "", map[string]string{"username": "alice", "password": "pw"})
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
}

func TestProfileReadAndUpdate(t *testing.T) {
	s := newServer(t)
	activate(t, s, "alice", "pw", "alice@example.com")
	pair := login(t, s, "alice", "pw")

	res := s.do(t, fasthttp.MethodGet, "/user/", pair.Access, nil)
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	profile := decode[domain.PublicAccount](t, res)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)

	res = s.do(t, fasthttp.MethodPut, "/user/update/", pair.Access, map[string]string{"email": "new@example.com", "password": "pw2"})
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	assert.Equal(t, "Informations de l'utilisateur modifiées avec succès.", decode[messageBody](t, res).Message)

	res = s.do(t, fasthttp.MethodGet, "/user/", pair.Access, nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	profile = decode[domain.PublicAccount](t, res)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "new@example.com", profile.Email)

	login(t, s, "alice", "pw2")
	res = s.do(t, fasthttp.MethodPost, "/api/login/", "", map[string]string{"username": "alice", "password": "pw"})
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
}

func TestProfileUpdate_UsernameTaken(t *testing.T) {
	s := newServer(t)
	activate(t, s, "alice", "pw", "alice@example.com")
	activate(t, s, "bob", "pw", "bob@example.com")
	pair := login(t, s, "bob", "pw")

	res := s.do(t, fasthttp.MethodPut, "/user/update/", pair.Access, map[string]string{"username": "alice"})
	require.Equal(t, fasthttp.StatusBadRequest, res.status)
	assert.Equal(t, "DUPLICATE_USERNAME", decode[errorBody](t, res).Code)
}

func TestRefresh(t *testing.T) {
	s := newServer(t)
	activate(t, s, "alice", "pw", "alice@example.com")
	pair := login(t, s, "alice", "pw")

	res := s.do(t, fasthttp.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	access := decode[map[string]string](t, res)["access"]
	require.NotEmpty(t, access)

	res = s.do(t, fasthttp.MethodGet, "/user/", access, nil)
	assert.Equal(t, fasthttp.StatusOK, res.status)

	res = s.do(t, fasthttp.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": pair.Access})
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	res := s.do(t, fasthttp.MethodGet, "/health", "", nil)
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	status := decode[monitor.Status](t, res)
	assert.True(t, status.Healthy)
	assert.True(t, status.Services["store"])
	assert.True(t, status.Services["redis"])

	s.redis.Close()

	res = s.do(t, fasthttp.MethodGet, "/health", "", nil)
	require.Equal(t, fasthttp.StatusServiceUnavailable, res.status)
	status = decode[monitor.Status](t, res)
	assert.False(t, status.Healthy)
	assert.False(t, status.Services["redis"])
}

func TestHandler_AppliesOuterMiddlewareInOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
			return func(ctx *fasthttp.RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}

	r := New(Handlers{}, mark("auth"))

	h := Handler(r, mark("outer"), mark("inner"))
	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI("/missing")
	h(&ctx)

	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}
