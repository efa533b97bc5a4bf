package store

import (
	"fmt"
	"time"

	"nova-ai-bot/types"
)

// RedisStateStore keeps multi-step conversation state and the user's
// language choice. Both are checkpoints, not sources of truth: losing
// them only restarts the current form.
type RedisStateStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisStateStore(redisClient *RedisClient, ttlHours int) *RedisStateStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStateStore{client: redisClient, ttl: ttl}
}

func (s *RedisStateStore) stateKey(userID int64) string {
	return s.client.key("conv_state", fmt.Sprintf("%d", userID))
}

func (s *RedisStateStore) langKey(userID int64) string {
	return s.client.key("lang", fmt.Sprintf("%d", userID))
}

func (s *RedisStateStore) GetState(userID int64) (*types.ConvState, error) {
	var state types.ConvState
	if err := s.client.get(s.stateKey(userID), &state); err != nil {
		if err == errKeyNotFound {
			return &types.ConvState{UserID: userID, Step: types.StepNone}, nil
		}
		return nil, err
	}
	return &state, nil
}

func (s *RedisStateStore) SetState(state *types.ConvState) error {
	state.UpdatedAt = time.Now().UTC()
	return s.client.set(s.stateKey(state.UserID), state, s.ttl)
}

func (s *RedisStateStore) ClearState(userID int64) error {
	return s.client.del(s.stateKey(userID))
}

func (s *RedisStateStore) GetLang(userID int64) (string, error) {
	var lang string
	if err := s.client.get(s.langKey(userID), &lang); err != nil {
		if err == errKeyNotFound {
			return "", nil
		}
		return "", err
	}
	return lang, nil
}

func (s *RedisStateStore) SetLang(userID int64, lang string) error {
	// Language choice should outlive conversation state.
	return s.client.set(s.langKey(userID), lang, 0)
}
