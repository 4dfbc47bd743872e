// Package session owns the signed-in identity of the dashboard operator.
//
// The Service is the single writer of session state: the token and profile are only changed by
// Restore, Login, Logout, ValidateToken and Expire, and every change is written to the Store
// before it becomes visible in memory.
package session

import (
	"context"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

const loginFailed = "Login failed"

var errIncompleteLogin = errors.New("incomplete login response")

type (
	// Record is what the credential store persists for a signed-in session.
	Record struct {
		Token string
		User  user.Profile
	}

	// Store is the durable side of the session.
	// Absent or unreadable entries are reported as ok=false.
	Store interface {
		LoadSession(ctx context.Context) (rec Record, ok bool, err error)
		SaveSession(ctx context.Context, rec Record) error
		ClearSession(ctx context.Context) error
	}

	// LoginResponse is the body of a 2xx login call.
	LoginResponse struct {
		Success bool          `json:"success"`
		Token   string        `json:"token"`
		User    *user.Profile `json:"user"`
		Error   string        `json:"error,omitempty"`
		Message string        `json:"message,omitempty"`
	}

	// Authenticator talks to the remote auth endpoints.
	// Non-2xx responses and transport failures are returned as errors.
	Authenticator interface {
		Login(ctx context.Context, creds user.Credentials) (LoginResponse, error)
		Register(ctx context.Context, token string, nu user.NewUser) (user.Profile, error)
		Validate(ctx context.Context, token string) (bool, error)
		Me(ctx context.Context, token string) (user.Profile, error)
	}

	// Result is returned by Login and Register; failures never surface as Go errors.
	Result struct {
		Success bool
		Data    interface{}
		Error   string
		Fields  []core.FieldError
	}

	Deps struct {
		Store      Store
		Auth       Authenticator
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Service struct {
		store      Store
		auth       Authenticator
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator

		mu      sync.RWMutex
		token   string
		user    *user.Profile
		loading bool

		subMu       sync.Mutex
		subSeq      int
		subscribers map[int]func(Event)
	}
)

func New(deps Deps) *Service {
	return &Service{
		store:       deps.Store,
		auth:        deps.Auth,
		logger:      deps.Logger,
		validate:    deps.Validate,
		translator:  deps.Translator,
		loading:     true,
		subscribers: make(map[int]func(Event)),
	}
}

// Restore loads the persisted session, if any. It never touches the network.
func (s *Service) Restore(ctx context.Context) {
	rec, ok, err := s.store.LoadSession(ctx)
	if err != nil {
		s.logger.Warn("restoring session", err)
	}

	s.mu.Lock()
	if ok && err == nil {
		usr := rec.User
		s.token, s.user = rec.Token, &usr
	} else {
		s.token, s.user = "", nil
	}
	s.loading = false
	s.mu.Unlock()
}

// Login authenticates against the remote API and, on success, persists and activates the session.
func (s *Service) Login(ctx context.Context, creds user.Credentials) Result {
	if res, ok := s.checkInput(creds.Validate(s.validate)); !ok {
		return res
	}

	resp, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.logger.Warn("login", err, map[string]interface{}{"username": creds.Username})
		return Result{Error: failureMessage(err, loginFailed)}
	}
	if !resp.Success {
		return Result{Error: firstNonEmpty(resp.Error, resp.Message, loginFailed)}
	}
	if resp.Token == "" || resp.User == nil || !resp.User.Role.Valid() {
		s.logger.Warn("login", errIncompleteLogin, map[string]interface{}{"username": creds.Username})
		return Result{Error: loginFailed}
	}

	usr := *resp.User
	s.mu.Lock()
	if err := s.store.SaveSession(ctx, Record{Token: resp.Token, User: usr}); err != nil {
		s.mu.Unlock()
		s.logger.Error("persisting session", err, usr)
		return Result{Error: loginFailed}
	}
	s.token, s.user = resp.Token, &usr
	s.mu.Unlock()

	s.logger.Info("logged in", usr)
	s.publish(Event{Kind: EventLoggedIn, User: &usr})
	return Result{Success: true, Data: resp}
}

// Logout clears the session. It is safe to call when already logged out.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	prev := s.user
	s.clearLocked(ctx)
	s.mu.Unlock()

	if prev != nil {
		s.publish(Event{Kind: EventLoggedOut, User: prev})
	}
}

// Expire handles an authorization loss reported for token.
// The session is cleared only if token is still the active one, so concurrent 401s for the same
// token clear it once; Expire returns true for that single call.
func (s *Service) Expire(ctx context.Context, token string) bool {
	prev, ok := s.clearIf(ctx, token)
	if ok {
		s.logger.Info("session expired", *prev)
		s.publish(Event{Kind: EventExpired, User: prev})
	}
	return ok
}

// Register creates a new account; the current token is attached when present.
// It does not change the session.
func (s *Service) Register(ctx context.Context, nu user.NewUser) Result {
	if res, ok := s.checkInput(nu.Validate(s.validate)); !ok {
		return res
	}

	usr, err := s.auth.Register(ctx, s.Token(), nu)
	if err != nil {
		s.logger.Warn("registration", err, map[string]interface{}{"username": nu.Username})
		return Result{Error: failureMessage(err, "Registration failed")}
	}
	return Result{Success: true, Data: usr}
}

// ValidateToken asks the API whether the current token is still valid.
// Any failure of the validation call logs the user out.
func (s *Service) ValidateToken(ctx context.Context) bool {
	token := s.Token()
	if token == "" {
		return false
	}

	valid, err := s.auth.Validate(ctx, token)
	if err != nil {
		s.logger.Warn("token validation", err)
		if prev, ok := s.clearIf(ctx, token); ok {
			s.publish(Event{Kind: EventLoggedOut, User: prev})
		}
		return false
	}
	return valid
}

// CurrentUser fetches the profile of the signed-in user from the API.
func (s *Service) CurrentUser(ctx context.Context) (user.Profile, bool) {
	token := s.Token()
	if token == "" {
		return user.Profile{}, false
	}

	usr, err := s.auth.Me(ctx, token)
	if err != nil {
		s.logger.Warn("fetching current user", err)
		return user.Profile{}, false
	}
	return usr, true
}

// Teardown drops subscribers and in-memory state without touching the Store.
func (s *Service) Teardown() {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.loading = true
	s.mu.Unlock()

	s.subMu.Lock()
	s.subscribers = make(map[int]func(Event))
	s.subMu.Unlock()
}

// Getters

func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in profile.
func (s *Service) User() (user.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return user.Profile{}, false
	}
	return *s.user, true
}

// IsAuthenticated is true only when both a token and a user are present.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// HasRole reports whether the signed-in user's role is one of roles.
func (s *Service) HasRole(roles ...user.Role) bool {
	usr, ok := s.User()
	return ok && usr.Role.In(roles...)
}

func (s *Service) HasPermission(perm user.Permission) bool {
	usr, ok := s.User()
	return ok && usr.Role.Can(perm)
}

func (s *Service) IsAdmin() bool   { return s.HasRole(user.RoleAdmin) }
func (s *Service) IsTeacher() bool { return s.HasRole(user.RoleTeacher) }
func (s *Service) IsStudent() bool { return s.HasRole(user.RoleStudent) }

// helpers

func (s *Service) clearIf(ctx context.Context, token string) (*user.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.token != token {
		return nil, false
	}
	prev := s.user
	s.clearLocked(ctx)
	if prev == nil {
		prev = &user.Profile{}
	}
	return prev, true
}

// clearLocked must be called with s.mu held.
func (s *Service) clearLocked(ctx context.Context) {
	if err := s.store.ClearSession(ctx); err != nil {
		s.logger.Error("clearing persisted session", err)
	}
	s.token, s.user = "", nil
}

func (s *Service) checkInput(err error) (Result, bool) {
	if err == nil {
		return Result{}, true
	}
	err = core.TranslateValidationError(err, s.translator)
	res := Result{Error: err.Error()}
	if vErr, ok := err.(*core.ValidationError); ok {
		res.Fields = vErr.Fields
	}
	return res, false
}

// failureMessage prefers the message sent by the server.
func failureMessage(err error, fallback string) string {
	cause := errors.Cause(err)
	if sErr, ok := cause.(interface{ ServerMessage() string }); ok {
		return firstNonEmpty(sErr.ServerMessage(), fallback)
	}
	return firstNonEmpty(cause.Error(), fallback)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
