package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/core/ports"
	"github.com/storerate/rating-client/internal/metrics"
)

// SessionManager owns the authenticated identity and its token. It is the
// only component that talks to the TokenStore and the only one that reads
// the token when issuing calls.
type SessionManager struct {
	transport ports.Transport
	tokens    ports.TokenStore
	log       zerolog.Logger

	mu      sync.RWMutex
	session *domain.Session

	subs subscribers[ports.SessionEvent]
}

var _ ports.SessionService = (*SessionManager)(nil)

func NewSessionManager(transport ports.Transport, tokens ports.TokenStore, log zerolog.Logger) *SessionManager {
	return &SessionManager{transport: transport, tokens: tokens, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Restore rebuilds the session from the durable token, if any. The token is
// not checked against the server here; the first authenticated call does that.
func (s *SessionManager) Restore(ctx context.Context) bool {
	token, ok, err := s.tokens.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("token restore failed")
		return false
	}
	if !ok || token == "" {
		return false
	}

	identity, known := identityFromToken(token)
	if !known {
		s.log.Debug().Msg("restored token carries no identity claims")
	}
	sess := domain.Session{Identity: identity, Token: token, Restored: true}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()

	s.publish(ports.EventRestore, sess)
	s.log.Debug().Str("role", string(identity.Role)).Msg("session restored")
	return true
}

// Login authenticates and, on success, establishes and persists the session.
// On any failure the current session is left as it was.
func (s *SessionManager) Login(ctx context.Context, email, password string) domain.Result[domain.User] {
	const op = "login"

	resp, err := s.transport.Do(ctx, ports.Request{
		Method: domain.EndpointLogin.Method,
		Path:   domain.EndpointLogin.Path,
		Body:   loginRequest{Email: email, Password: password},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("login transport failure")
		f := domain.TransportFailure()
		observe(op, f)
		return domain.Fail[domain.User](f)
	}
	if !resp.Success() {
		f := failureFromResponse(resp)
		observe(op, f)
		return domain.Fail[domain.User](f)
	}

	sess, f := decodeLogin(resp)
	if f != nil {
		observe(op, f)
		return domain.Fail[domain.User](f)
	}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()

	if err := s.tokens.Save(ctx, sess.Token); err != nil {
		// The session still holds for this process.
		s.log.Warn().Err(err).Msg("token persist failed")
	}

	observe(op, nil)
	s.publish(ports.EventLogin, sess)
	s.log.Info().Int64("user_id", sess.Identity.ID).Str("role", string(sess.Identity.Role)).Msg("logged in")
	return domain.Success(sess.Identity)
}

// decodeLogin accepts {token, user:{...}} and the flat {token, id, name, ...}.
func decodeLogin(resp *ports.Response) (domain.Session, *domain.Failure) {
	var body struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	invalid := &domain.Failure{Kind: domain.KindRemote, Message: invalidResponseMessage, StatusCode: resp.StatusCode}
	if err := json.Unmarshal(resp.Body, &body); err != nil || body.Token == "" {
		return domain.Session{}, invalid
	}

	var identity domain.User
	if body.User != nil {
		identity = *body.User
	} else if err := json.Unmarshal(resp.Body, &identity); err != nil {
		return domain.Session{}, invalid
	}
	role, err := domain.ParseRole(string(identity.Role))
	if err != nil {
		return domain.Session{}, invalid
	}
	identity.Role = role
	return domain.Session{Identity: identity, Token: body.Token}, nil
}

// Signup registers an account. It never establishes a session; the caller
// logs in separately afterwards.
func (s *SessionManager) Signup(ctx context.Context, profile domain.SignupProfile) domain.Result[string] {
	const op = "signup"

	resp, err := s.transport.Do(ctx, ports.Request{
		Method: domain.EndpointSignup.Method,
		Path:   domain.EndpointSignup.Path,
		Body:   profile,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("signup transport failure")
		f := domain.TransportFailure()
		observe(op, f)
		return domain.Fail[string](f)
	}
	if !resp.Success() {
		f := failureFromResponse(resp)
		observe(op, f)
		return domain.Fail[string](f)
	}

	observe(op, nil)
	msg := decodeMessage(resp)
	return domain.SuccessWithMessage(msg, msg)
}

// Logout clears the session and the durable token. It never fails.
func (s *SessionManager) Logout(ctx context.Context) {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("token clear failed")
	}
	if had {
		s.publish(ports.EventLogout, domain.Session{})
		s.log.Info().Msg("logged out")
	}
}

// UpdatePassword changes the password of the logged-in account. The token
// stays valid on success.
func (s *SessionManager) UpdatePassword(ctx context.Context, oldPassword, newPassword string) domain.Result[string] {
	resp, f := s.Authorized(ctx, domain.OpUpdatePassword, nil, passwordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
	if f != nil {
		return domain.Fail[string](f)
	}
	msg := decodeMessage(resp)
	return domain.SuccessWithMessage(msg, msg)
}

// Current returns a copy of the active session.
func (s *SessionManager) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.Session{}, false
	}
	return *s.session, true
}

// Role returns the role of the active session, if known.
func (s *SessionManager) Role() (domain.Role, bool) {
	sess, ok := s.Current()
	if !ok || !sess.Identity.Role.Valid() {
		return "", false
	}
	return sess.Identity.Role, true
}

func (s *SessionManager) Subscribe(fn func(ports.SessionEvent)) (cancel func()) {
	return s.subs.add(fn)
}

// Authorized resolves op through the role gate and issues it with the token
// copied at call start. A 401 clears the session whatever happened to it in
// the meantime; later calls then fail without touching the network.
func (s *SessionManager) Authorized(ctx context.Context, op domain.Operation, query domain.Filters, body any) (*ports.Response, *domain.Failure) {
	name := op.String()

	sess, ok := s.Current()
	if !ok {
		f := domain.NewFailure(domain.KindUnauthenticated, domain.ErrNoSession.Error())
		observe(name, f)
		return nil, f
	}
	if !sess.Identity.Role.Valid() {
		f := domain.NewFailure(domain.KindUnauthenticated, domain.ErrIdentityUnknown.Error()+"; log in again")
		observe(name, f)
		return nil, f
	}
	ep, err := sess.Identity.Role.Endpoint(op)
	if err != nil {
		f := domain.NewFailure(domain.KindForbidden, err.Error())
		observe(name, f)
		return nil, f
	}

	start := time.Now()
	resp, err := s.transport.Do(ctx, ports.Request{
		Method: ep.Method,
		Path:   ep.Path,
		Query:  toQuery(query),
		Body:   body,
		Token:  sess.Token,
	})
	metrics.RequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		s.log.Warn().Err(err).Str("operation", name).Msg("transport failure")
		f := domain.TransportFailure()
		observe(name, f)
		return nil, f
	}
	if resp.StatusCode == http.StatusUnauthorized {
		s.expire(ctx)
		f := failureFromResponse(resp)
		observe(name, f)
		return nil, f
	}
	if !resp.Success() {
		f := failureFromResponse(resp)
		observe(name, f)
		return nil, f
	}

	observe(name, nil)
	resp.Scope = sess.Scope()
	return resp, nil
}

func (s *SessionManager) expire(ctx context.Context) {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.mu.Unlock()

	// the caller's context may already be done once the response is in
	if err := s.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("token clear failed")
	}
	if had {
		s.publish(ports.EventExpired, domain.Session{})
		s.log.Info().Msg("session expired")
	}
}

func (s *SessionManager) publish(t ports.SessionEventType, sess domain.Session) {
	metrics.SessionEventsTotal.WithLabelValues(string(t)).Inc()
	s.subs.publish(ports.SessionEvent{Type: t, Session: sess})
}
