package device

import (
	"context"
	"errors"
	"time"

	"github.com/planfill/planfill-server/pkg/logger"
	"github.com/planfill/planfill-server/pkg/metrics"
)

var (
	ErrUnauthorizedEmail = errors.New("email not on allow-list")
	ErrExchangeFailed    = errors.New("identity provider exchange failed")
)

// Authorizer decides whether an authenticated email may use the system.
type Authorizer interface {
	IsAuthorized(email string) bool
}

// Exchanger is the boundary to the external identity provider.
type Exchanger interface {
	// AuthCodeURL builds the provider login URL carrying state so the
	// callback can be matched back to the pending session.
	AuthCodeURL(state string) string
	// Exchange turns an authorization code into a verified email.
	Exchange(ctx context.Context, code string) (string, error)
}

// TokenIssuer mints the bearer token returned to an approved poller.
type TokenIssuer interface {
	Issue(email string) (string, error)
}

// StartResponse is returned to the client that initiates a login.
type StartResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// PollResponse is the approved-or-pending answer to a poll. Terminal
// failures surface as errors instead.
type PollResponse struct {
	Status Status `json:"status"`
	Token  string `json:"token,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Service orchestrates the device-login state machine over a Store, the
// identity-provider exchange, the allow-list and the token codec.
type Service struct {
	store           Store
	gate            Authorizer
	exchanger       Exchanger
	issuer          TokenIssuer
	sessionTTL      time.Duration
	pollInterval    time.Duration
	verificationURL string
}

func NewService(store Store, gate Authorizer, ex Exchanger, issuer TokenIssuer, sessionTTL, pollInterval time.Duration, verificationURL string) *Service {
	return &Service{
		store:           store,
		gate:            gate,
		exchanger:       ex,
		issuer:          issuer,
		sessionTTL:      sessionTTL,
		pollInterval:    pollInterval,
		verificationURL: verificationURL,
	}
}

// Start creates a new pending session and hands the codes back to the
// caller. User codes are regenerated on collision with an active session.
func (s *Service) Start(ctx context.Context) (*StartResponse, error) {
	deviceCode, err := NewDeviceCode()
	if err != nil {
		return nil, err
	}

	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		userCode, err := NewUserCode()
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		sess := &Session{
			DeviceCode: deviceCode,
			UserCode:   userCode,
			Status:     StatusPending,
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.sessionTTL),
		}
		err = s.store.Create(ctx, sess)
		if err == ErrUserCodeTaken {
			continue
		}
		if err != nil {
			return nil, err
		}
		metrics.DeviceSessionsStarted.Inc()
		return &StartResponse{
			DeviceCode:      deviceCode,
			UserCode:        userCode,
			VerificationURL: s.verificationURL,
			ExpiresIn:       int(s.sessionTTL.Seconds()),
			Interval:        int(s.pollInterval.Seconds()),
		}, nil
	}
	return nil, errors.New("could not allocate a unique user code")
}

// Poll reports the session state for the original client. Unknown codes
// fail with ErrNotFound, elapsed sessions with ErrExpired (even if a
// terminal status was stored before the deadline passed) and denials with
// ErrDenied. Polling a terminal state repeatedly returns the same answer.
func (s *Service) Poll(ctx context.Context, deviceCode string) (*PollResponse, error) {
	sess, err := s.store.GetByDeviceCode(ctx, deviceCode)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		metrics.DevicePolls.WithLabelValues("invalid_code").Inc()
		return nil, ErrNotFound
	}
	if sess.ExpiredAt(time.Now().UTC()) {
		metrics.DevicePolls.WithLabelValues("expired").Inc()
		return nil, ErrExpired
	}
	switch sess.Status {
	case StatusApproved:
		metrics.DevicePolls.WithLabelValues("approved").Inc()
		return &PollResponse{Status: StatusApproved, Token: sess.Token, Email: sess.Email}, nil
	case StatusDenied:
		metrics.DevicePolls.WithLabelValues("denied").Inc()
		return nil, ErrDenied
	default:
		metrics.DevicePolls.WithLabelValues("pending").Inc()
		return &PollResponse{Status: StatusPending}, nil
	}
}

// BeginVerification resolves a human-entered user code to the provider
// login URL. Only pending, unexpired sessions match.
func (s *Service) BeginVerification(ctx context.Context, userCode string) (string, error) {
	sess, err := s.store.GetActiveByUserCode(ctx, userCode)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrNotFound
	}
	return s.exchanger.AuthCodeURL(sess.DeviceCode), nil
}

// CompleteLogin finishes the flow after the provider redirects back. Any
// exchange failure denies the session so pollers never wait forever; an
// allow-list rejection denies it too. Only a successful exchange of an
// allow-listed email approves, minting the token and committing it
// together with the email.
func (s *Service) CompleteLogin(ctx context.Context, deviceCode, authCode string) (string, error) {
	sess, err := s.store.GetByDeviceCode(ctx, deviceCode)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrNotFound
	}
	if sess.ExpiredAt(time.Now().UTC()) {
		return "", ErrExpired
	}
	if sess.terminal() {
		return "", ErrConflict
	}

	email, err := s.exchanger.Exchange(ctx, authCode)
	if err != nil {
		logger.Warnf("device login %s…: provider exchange failed: %v", shortCode(deviceCode), err)
		s.deny(ctx, deviceCode, "exchange_failed")
		return "", ErrExchangeFailed
	}

	if !s.gate.IsAuthorized(email) {
		logger.Infof("device login %s…: email %s not on allow-list, denying", shortCode(deviceCode), email)
		s.deny(ctx, deviceCode, "unauthorized")
		return "", ErrUnauthorizedEmail
	}

	tok, err := s.issuer.Issue(email)
	if err != nil {
		logger.Errorf("device login %s…: token mint failed: %v", shortCode(deviceCode), err)
		s.deny(ctx, deviceCode, "mint_failed")
		return "", ErrExchangeFailed
	}

	if err := s.store.Approve(ctx, deviceCode, email, tok); err != nil {
		return "", err
	}
	metrics.DeviceSessionsResolved.WithLabelValues("approved").Inc()
	metrics.TokensIssued.Inc()
	logger.Infof("device login %s…: approved for %s", shortCode(deviceCode), email)
	return email, nil
}

func (s *Service) deny(ctx context.Context, deviceCode, reason string) {
	if err := s.store.Deny(ctx, deviceCode); err != nil && err != ErrConflict {
		logger.Errorf("device login %s…: deny failed: %v", shortCode(deviceCode), err)
		return
	}
	metrics.DeviceSessionsResolved.WithLabelValues(reason).Inc()
}

// shortCode truncates a device code for logs; the full value is a secret.
func shortCode(dc string) string {
	if len(dc) > 8 {
		return dc[:8]
	}
	return dc
}
