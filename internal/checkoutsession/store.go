package checkoutsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/redis"
)

// Store persists checkout snapshots in Redis with a bounded lifetime, plus a
// capped per-user index of recent session ids for webhook-side recovery.
type Store struct {
	client   *redis.Client
	ttl      time.Duration
	indexCap int
}

// NewStore wires the snapshot store.
func NewStore(client *redis.Client, cfg config.CheckoutConfig) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if cfg.SessionIndexCap <= 0 {
		return nil, errors.New("session index cap must be positive")
	}
	return &Store{client: client, ttl: cfg.SessionTTL, indexCap: cfg.SessionIndexCap}, nil
}

// TTL returns the configured snapshot lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Save writes the snapshot and registers it in the owner's session index. Both
// keys carry the same TTL so the index cannot outlive its snapshots by much.
func (s *Store) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return errors.New("snapshot is required")
	}
	if snapshot.SessionID == "" {
		return errors.New("snapshot session id is required")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	key := s.client.CheckoutSessionKey(snapshot.SessionID)
	if err := s.client.Set(ctx, key, payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing checkout snapshot")
	}

	indexKey := s.client.UserSessionsKey(snapshot.UserID.String())
	if err := s.client.PushCapped(ctx, indexKey, snapshot.SessionID, s.indexCap, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "indexing checkout session")
	}
	return nil
}

// Get loads a snapshot by session id. A missing key means the session expired
// or never existed; both collapse to CHECKOUT_EXPIRED for the caller.
func (s *Store) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	raw, err := s.client.Get(ctx, s.client.CheckoutSessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeCheckoutExpired, "checkout session not found or expired").
				WithDetails(map[string]any{"session_id": sessionID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading checkout snapshot")
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding checkout snapshot")
	}
	return &snapshot, nil
}

// Delete removes a consumed snapshot. Missing keys are fine, the TTL may have
// fired first.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.client.CheckoutSessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting checkout snapshot")
	}
	return nil
}

// SessionsForUser returns the user's recent session ids, newest first. Ids
// whose snapshots already expired may still appear; callers must tolerate
// misses when dereferencing.
func (s *Store) SessionsForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	ids, err := s.client.ListRange(ctx, s.client.UserSessionsKey(userID.String()))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing checkout sessions")
	}
	return ids, nil
}
