package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/progress"
)

// Envelope is the only persisted unit of learner progress.
type Envelope struct {
	Progress    *progress.Record `json:"progress"`
	ViewedPages []string         `json:"viewedPages"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	out := &Envelope{
		Progress:    e.Progress.Clone(),
		ViewedPages: append([]string(nil), e.ViewedPages...),
		LastUpdated: e.LastUpdated,
	}
	return out
}

type Store struct {
	kv     KV
	sealer *config.Sealer
}

// NewStore wraps kv. When sealer is non-nil the envelope is encrypted at rest.
func NewStore(kv KV, sealer *config.Sealer) *Store {
	return &Store{kv: kv, sealer: sealer}
}

func (s *Store) KV() KV { return s.kv }

// Load never fails: absent or unreadable data is a cold start and yields nil.
func (s *Store) Load(ctx context.Context) *Envelope {
	log := config.WithContext(ctx)

	raw, err := s.kv.Get(ctx, EnvelopeKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Warn("Cache read failed, starting cold")
		}
		return nil
	}

	if s.sealer != nil {
		raw, err = s.sealer.Open(raw)
		if err != nil {
			log.WithError(err).Warn("Cached envelope could not be decrypted, starting cold")
			return nil
		}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.WithError(err).Warn("Cached envelope is corrupt, starting cold")
		return nil
	}
	env.ViewedPages = progress.NewPageSet(env.ViewedPages...).Paths()
	return &env
}

// Save overwrites the whole envelope.
func (s *Store) Save(ctx context.Context, env *Envelope) error {
	if env == nil {
		return errors.New("nil envelope")
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if s.sealer != nil {
		if raw, err = s.sealer.Seal(raw); err != nil {
			return err
		}
	}
	return s.kv.Set(ctx, EnvelopeKey, raw)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, EnvelopeKey)
}
