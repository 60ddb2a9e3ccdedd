package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"conduit/internal/auth"
	"conduit/internal/config"
	"conduit/internal/handlers"
	"conduit/internal/logger"
	"conduit/internal/models"
	"conduit/internal/repository"
	"conduit/internal/repository/db"
	"conduit/internal/service"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Conduit API Suite")
}

// Cheap argon2id target so the suite stays fast.
var suiteParams = auth.PasswordParams{Time: 1, MemoryKiB: 8 * 1024, Threads: 1, KeyLength: 32, SaltLength: 16}

// apiEnv is a fully wired server over a throwaway sqlite database.
type apiEnv struct {
	dir      string
	conn     *db.Conn
	repos    *repository.Repository
	hasher   *auth.PasswordHasher
	resolver *auth.Resolver
	server   *httptest.Server
}

var env *apiEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupAPIEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupAPIEnv() (*apiEnv, error) {
	dir, err := os.MkdirTemp("", "conduit-api-*")
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	conn, err := db.InitDB(context.Background(), config.DBConfig{
		Driver:         config.DriverSQLite,
		Path:           filepath.Join(dir, "conduit.db"),
		ConnectRetries: 1,
		ConnectBackoff: 10 * time.Millisecond,
		AutoMigrate:    true,
	}, log)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	repos := repository.NewRepository(conn)
	hasher := auth.NewPasswordHasher(suiteParams)
	tokens, err := auth.NewAuthService("suite-secret", auth.WithLogger(log))
	if err != nil {
		return nil, err
	}
	resolver := auth.NewResolver(tokens, repos.Users, log)
	services := service.NewService(repos, hasher, tokens, log)

	gin.SetMode(gin.TestMode)
	h := handlers.NewHandler(services, resolver, log, handlers.WithHealthCheck(repos.Ping))

	return &apiEnv{
		dir:      dir,
		conn:     conn,
		repos:    repos,
		hasher:   hasher,
		resolver: resolver,
		server:   httptest.NewServer(h.InitRoutes()),
	}, nil
}

func (e *apiEnv) cleanup() {
	e.server.Close()
	_ = e.conn.Close()
	_ = os.RemoveAll(e.dir)
}

// seedUser stores a user directly with the given password hash.
func seedUser(username, email, hash string) *models.User {
	u, err := env.repos.Users.Create(context.Background(), models.User{Username: username, Email: email}, hash)
	Expect(err).NotTo(HaveOccurred())
	return u
}

type apiResponse struct {
	Status int
	Body   map[string]any
}

// call sends body as JSON with an optional "Token" header and decodes the JSON answer.
func call(method, path, token string, body any) apiResponse {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, env.server.URL+path, rd)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", auth.TokenScheme+token)
	}

	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	out := apiResponse{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	if len(raw) > 0 {
		Expect(json.Unmarshal(raw, &out.Body)).To(Succeed(), "body: %s", raw)
	}
	return out
}

func userEnvelope(fields map[string]any) map[string]any {
	return map[string]any{"user": fields}
}

func field(m map[string]any, path ...string) any {
	var cur any = m
	for _, k := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}
