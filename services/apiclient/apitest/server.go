// Package apitest runs an in-process attendance API for tests and offline demos.
package apitest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/apiclient"
)

const (
	claimsKey     = "userToken"
	tokenLifetime = 24 * time.Hour
)

var signingKey = []byte("apitest-signing-key")

// Claims are the JWT claims issued by the fake API.
type Claims struct {
	jwt.StandardClaims
	UserID   int64     `json:"userId"`
	Username string    `json:"username"`
	Role     user.Role `json:"role"`
}

type account struct {
	password string
	profile  user.Profile
}

// Server is a fake attendance API backed by memory.
type Server struct {
	app *echo.Echo

	mu         sync.Mutex
	accounts   map[string]account
	revoked    map[string]bool
	revokeAll  bool
	nextUserID int64

	students      map[int64]apiclient.Student
	nextStudentID int64
	teachers      map[int64]apiclient.Teacher
	nextTeacherID int64
	attendance    []apiclient.AttendanceRecord
	settings      apiclient.NotificationSettings
	logs          []apiclient.NotificationLog

	messages     map[string]map[string]string
	messagesDown bool
	gates        map[string]chan struct{}

	unauthorized int
	requests     []*http.Request
}

// NewServer returns a Server seeded with one account per role (see SeedAccounts).
func NewServer() *Server {
	s := &Server{
		app:      echo.New(),
		accounts: make(map[string]account),
		revoked:  make(map[string]bool),
		students: make(map[int64]apiclient.Student),
		teachers: make(map[int64]apiclient.Teacher),
		messages: make(map[string]map[string]string),
		gates:    make(map[string]chan struct{}),
	}
	s.seed()
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(s.record)
	s.app.HTTPErrorHandler = httpErrorHandler

	api := s.app.Group("/api")
	api.GET("/messages", s.getMessages)

	auth := api.Group("/auth")
	jwtAuth := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    signingKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    claimsKey,
		Claims:        new(Claims),
		ErrorHandler: func(err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	})
	auth.POST("/login", s.login)
	auth.POST("/register", s.register, jwtAuth, s.checkRevoked, requireRole(user.RoleAdmin))
	auth.POST("/validate", s.validate, jwtAuth, s.checkRevoked)
	auth.POST("/refresh", s.refresh, jwtAuth, s.checkRevoked)
	auth.GET("/me", s.me, jwtAuth, s.checkRevoked)

	staff := requireRole(user.RoleAdmin, user.RoleTeacher)
	admin := requireRole(user.RoleAdmin)
	protected := api.Group("", jwtAuth, s.checkRevoked)
	s.registerStudents(protected, staff, admin)
	s.registerTeachers(protected, admin)
	s.registerAttendance(protected, staff)
	s.registerStats(protected, staff)
	s.registerNotifications(protected, staff)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// Start serves on address until ctx is done.
func (s *Server) Start(ctx context.Context, address string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Start(address) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.Shutdown(shutdownCtx)
	}
}

// Listen starts an httptest server; its URL plus "/api" is the client base URL.
func (s *Server) Listen() *httptest.Server {
	return httptest.NewServer(s)
}

// Knobs

// Token issues a valid token for username.
func (s *Server) Token(username string) string {
	s.mu.Lock()
	acc, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok {
		return ""
	}
	token, _ := generateToken(acc.profile)
	return token
}

// Revoke makes every later request with token answer 401.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()
}

// RevokeAll makes every authenticated request answer 401.
func (s *Server) RevokeAll(revoke bool) {
	s.mu.Lock()
	s.revokeAll = revoke
	s.mu.Unlock()
}

// SetMessages sets the remote table for lang.
func (s *Server) SetMessages(lang string, messages map[string]string) {
	s.mu.Lock()
	s.messages[lang] = messages
	s.mu.Unlock()
}

// MessagesDown makes /messages answer 503.
func (s *Server) MessagesDown(down bool) {
	s.mu.Lock()
	s.messagesDown = down
	s.mu.Unlock()
}

// Hold blocks /messages for lang until the returned func is called.
func (s *Server) Hold(lang string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[lang] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, lang)
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Unauthorized is the number of 401 responses served so far.
func (s *Server) Unauthorized() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unauthorized
}

// Requests returns the requests received so far.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := make([]*http.Request, len(s.requests))
	copy(reqs, s.requests)
	return reqs
}

// middleware

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s.mu.Lock()
		s.requests = append(s.requests, ctx.Request().Clone(context.Background()))
		s.mu.Unlock()

		err := next(ctx)
		if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusUnauthorized {
			s.mu.Lock()
			s.unauthorized++
			s.mu.Unlock()
		}
		return err
	}
}

func (s *Server) checkRevoked(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, _ := ctx.Get(claimsKey).(*jwt.Token)
		s.mu.Lock()
		revoked := s.revokeAll || (token != nil && s.revoked[token.Raw])
		s.mu.Unlock()
		if revoked {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}
		return next(ctx)
	}
}

func requireRole(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := contextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.Role.In(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
			return next(ctx)
		}
	}
}

func contextClaims(ctx echo.Context) (*Claims, error) {
	if token, ok := ctx.Get(claimsKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return claims, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
}

func generateToken(usr user.Profile) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    "apitest",
			Subject:   usr.Username,
			ExpiresAt: now.Add(tokenLifetime).Unix(),
			IssuedAt:  now.Unix(),
		},
		UserID:   usr.ID,
		Username: usr.Username,
		Role:     usr.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type httpErr struct {
	Error string `json:"error"`
}

func httpErrorHandler(err error, ctx echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	if !ctx.Response().Committed {
		_ = ctx.JSON(code, httpErr{Error: msg})
	}
}
