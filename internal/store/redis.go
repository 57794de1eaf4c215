package store

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/ONSdigital/sdx-survey-sync/internal/redis"
)

// KeyPrefix namespaces every key written by RedisRepository.
const KeyPrefix = "sdx_survey"

// RedisRepository keeps documents in redis under
// sdx_survey:<survey> and sdx_survey:<survey>:answers:<answer>. Stored
// identifiers are indexed in the sets sdx_survey_index and
// sdx_survey:<survey>:answer_index.
type RedisRepository struct {
	pool *redis.Pool
}

// NewRedisRepository creates a repository backed by pool.
func NewRedisRepository(pool *redis.Pool) *RedisRepository {
	return &RedisRepository{pool: pool}
}

// SurveyKey is the redis key of a survey definition. Identifiers are escaped
// so that no identifier can produce another resource's key.
func SurveyKey(surveyID string) string {
	return KeyPrefix + ":" + url.QueryEscape(surveyID)
}

// SurveyIndexKey is the set of stored survey identifiers. No SurveyKey can
// collide with it.
const SurveyIndexKey = KeyPrefix + "_index"

// AnswerIndexKey is the set of answer set identifiers stored for a survey.
func AnswerIndexKey(surveyID string) string {
	return SurveyKey(surveyID) + ":answer_index"
}

// AnswersKey is the redis key of an answer set.
func AnswersKey(surveyID, answerID string) string {
	return SurveyKey(surveyID) + ":answers:" + url.QueryEscape(answerID)
}

// GetSurvey implements Repository.
func (r *RedisRepository) GetSurvey(ctx context.Context, surveyID string) ([]byte, error) {
	return r.get(ctx, SurveyKey(surveyID))
}

// PutSurvey implements Repository.
func (r *RedisRepository) PutSurvey(ctx context.Context, surveyID string, data []byte) error {
	if err := r.set(ctx, SurveyKey(surveyID), data); err != nil {
		return err
	}
	return r.index(SurveyIndexKey, surveyID)
}

// SurveyExists implements Repository.
func (r *RedisRepository) SurveyExists(ctx context.Context, surveyID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	conn := r.pool.Get()
	defer conn.Close()
	return redis.Exists(SurveyKey(surveyID), conn)
}

// GetAnswers implements Repository.
func (r *RedisRepository) GetAnswers(ctx context.Context, surveyID, answerID string) ([]byte, error) {
	return r.get(ctx, AnswersKey(surveyID, answerID))
}

// PutAnswers implements Repository.
func (r *RedisRepository) PutAnswers(ctx context.Context, surveyID, answerID string, data []byte) error {
	if err := r.set(ctx, AnswersKey(surveyID, answerID), data); err != nil {
		return err
	}
	return r.index(AnswerIndexKey(surveyID), answerID)
}

// ListSurveys implements Repository.
func (r *RedisRepository) ListSurveys(ctx context.Context) ([]string, error) {
	return r.members(ctx, SurveyIndexKey)
}

// ListAnswers implements Repository.
func (r *RedisRepository) ListAnswers(ctx context.Context, surveyID string) ([]string, error) {
	return r.members(ctx, AnswerIndexKey(surveyID))
}

// Ping implements Repository.
func (r *RedisRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return redis.Ping(r.pool.Get())
}

func (r *RedisRepository) get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn := r.pool.Get()
	defer conn.Close()

	data, err := redis.GetBytes(key, conn)
	if redis.IsNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

func (r *RedisRepository) set(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn := r.pool.Get()
	defer conn.Close()

	if err := redis.Set(key, string(data), conn); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) index(key, id string) error {
	conn := r.pool.Get()
	defer conn.Close()

	if err := redis.AddToSet(key, id, conn); err != nil {
		return fmt.Errorf("failed to index %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) members(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn := r.pool.Get()
	defer conn.Close()

	ids, err := redis.SetMembers(key, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", key, err)
	}
	if ids == nil {
		ids = []string{}
	}
	sort.Strings(ids)
	return ids, nil
}
