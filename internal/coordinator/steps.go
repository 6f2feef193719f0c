package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jcmexdev/checkout-sessions/internal/checkout-api/core/ports"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/cache"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
)

// --- CreateSessionStep ---

type CreateSessionStep struct {
	gateway ports.SessionGateway
	input   gatewayrpc.CreateSessionInput
	session gatewayrpc.Session
}

func NewCreateSessionStep(gateway ports.SessionGateway, input gatewayrpc.CreateSessionInput) *CreateSessionStep {
	return &CreateSessionStep{gateway: gateway, input: input}
}

func (s *CreateSessionStep) Name() string { return "Create_Session_Step" }

func (s *CreateSessionStep) Execute(ctx context.Context) error {
	sess, err := s.gateway.CreateSession(ctx, s.input)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if sess.URL == "" {
		return ErrEmptySessionURL
	}
	if sess.Status != gatewayrpc.StatusOpen {
		return fmt.Errorf("session %s is %q: %w", sess.ID, sess.Status, ErrSessionNotOpen)
	}
	s.session = sess
	return nil
}

// Compensate expires the session so the hosted page can no longer be paid.
func (s *CreateSessionStep) Compensate(ctx context.Context) error {
	if s.session.ID == "" {
		return nil
	}
	// The attempt may have been cancelled; expiring must still reach the gateway.
	if _, err := s.gateway.ExpireSession(context.WithoutCancel(ctx), s.session.ID); err != nil {
		return fmt.Errorf("expire session %s: %w", s.session.ID, err)
	}
	return nil
}

// Session is the session created by Execute.
func (s *CreateSessionStep) Session() gatewayrpc.Session { return s.session }

// --- RememberSessionStep ---

// RememberedSession is what the cache holds per idempotency key.
type RememberedSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	// Fingerprint identifies the request the session was created for.
	Fingerprint string `json:"fingerprint,omitempty"`
}

type RememberSessionStep struct {
	cache       cache.Cache
	key         string
	fingerprint string
	ttl         time.Duration
	created     *CreateSessionStep
}

// NewRememberSessionStep stores the session created by created under key.
// An empty key turns the step into a no-op.
func NewRememberSessionStep(c cache.Cache, key string, ttl time.Duration, created *CreateSessionStep) *RememberSessionStep {
	return &RememberSessionStep{cache: c, key: key, ttl: ttl, created: created}
}

// WithFingerprint stores fp next to the session so a replay can tell whether
// the key is reused for the same request.
func (s *RememberSessionStep) WithFingerprint(fp string) *RememberSessionStep {
	s.fingerprint = fp
	return s
}

func (s *RememberSessionStep) Name() string { return "Remember_Session_Step" }

func (s *RememberSessionStep) Execute(ctx context.Context) error {
	if s.key == "" {
		return nil
	}
	sess := s.created.Session()
	b, err := json.Marshal(RememberedSession{ID: sess.ID, URL: sess.URL, Fingerprint: s.fingerprint})
	if err != nil {
		return fmt.Errorf("encode remembered session: %w", err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey("session", s.key), string(b), s.ttl); err != nil {
		return fmt.Errorf("remember session: %w", err)
	}
	return nil
}

// Compensate is a no-op: this is the last step.
func (s *RememberSessionStep) Compensate(ctx context.Context) error {
	return nil
}

// LookupSession returns the session remembered for key, if any.
func LookupSession(ctx context.Context, c cache.Cache, key string) (RememberedSession, bool, error) {
	if key == "" {
		return RememberedSession{}, false, nil
	}
	raw, err := c.Get(ctx, c.GenerateKey("session", key))
	if err != nil {
		return RememberedSession{}, false, err
	}
	if raw == "" {
		return RememberedSession{}, false, nil
	}
	var rs RememberedSession
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		return RememberedSession{}, false, fmt.Errorf("decode remembered session: %w", err)
	}
	if rs.URL == "" {
		return RememberedSession{}, false, nil
	}
	return rs, true, nil
}
