package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
)

var (
	ErrIdentityMissing = errors.New("learner identity not available")
	ErrUnauthenticated = errors.New("learner is not authenticated")
)

const devicePrefix = "device-"

type Source string

const (
	SourcePersisted Source = "persisted"
	SourceSession   Source = "session"
	SourceToken     Source = "token"
	SourceDevice    Source = "device"
)

type Identity struct {
	Email  string `json:"email"`
	Source Source `json:"source"`
}

// IsDevice reports whether the identity is a per-device fallback rather than a learner.
func (i Identity) IsDevice() bool {
	return i.Source == SourceDevice
}

type Resolver interface {
	Resolve(ctx context.Context) (Identity, error)
	Persist(ctx context.Context, email string) error
	Forget(ctx context.Context) error
}

type resolver struct {
	kv             cache.KV
	session        *Session
	staticToken    string
	deviceFallback bool
}

func NewResolver(kv cache.KV, session *Session, cfg config.IdentityConfig) Resolver {
	return &resolver{
		kv:             kv,
		session:        session,
		staticToken:    cfg.AuthToken,
		deviceFallback: cfg.DeviceFallback,
	}
}

// Resolve checks, in order: the persisted value, the session value, the decoded
// auth token and, when enabled, the per-device fallback id.
func (r *resolver) Resolve(ctx context.Context) (Identity, error) {
	log := config.WithContext(ctx)

	if raw, err := r.kv.Get(ctx, cache.LearnerKey); err == nil {
		if email := strings.TrimSpace(string(raw)); email != "" {
			return Identity{Email: email, Source: SourcePersisted}, nil
		}
	} else if !errors.Is(err, cache.ErrNotFound) {
		log.WithError(err).Warn("Could not read persisted identity")
	}

	if email, ok := r.session.Email(); ok {
		return Identity{Email: email, Source: SourceSession}, nil
	}

	for _, tok := range []string{r.session.Token(), r.staticToken} {
		if tok == "" {
			continue
		}
		email, err := EmailFromToken(tok)
		if err != nil {
			log.WithError(err).Debug("Auth token did not yield an identity")
			continue
		}
		return Identity{Email: email, Source: SourceToken}, nil
	}

	if r.deviceFallback {
		id, err := r.deviceID(ctx)
		if err != nil {
			return Identity{}, err
		}
		return Identity{Email: id, Source: SourceDevice}, nil
	}
	return Identity{}, ErrIdentityMissing
}

func (r *resolver) deviceID(ctx context.Context) (string, error) {
	raw, err := r.kv.Get(ctx, cache.DeviceIDKey)
	if err == nil && strings.HasPrefix(string(raw), devicePrefix) {
		return string(raw), nil
	}
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		return "", err
	}

	id := devicePrefix + uuid.NewString()
	if err := r.kv.Set(ctx, cache.DeviceIDKey, []byte(id)); err != nil {
		return "", err
	}
	config.WithContext(ctx).WithFields(logrus.Fields{"device_id": id}).Info("Generated device identity")
	return id, nil
}

func (r *resolver) Persist(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrIdentityMissing
	}
	return r.kv.Set(ctx, cache.LearnerKey, []byte(email))
}

func (r *resolver) Forget(ctx context.Context) error {
	r.session.Clear()
	return r.kv.Delete(ctx, cache.LearnerKey)
}
