package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"fanfirst-engagement-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches quizzes in Redis and falls back to a loader on a miss.
// Answers live apart from the player-facing content so the content blob never
// carries them:
//
//	HSET quiz:{quizID}:answers {questionID} {correctAnswer}
//	SET  quiz:{quizID}:content {public quiz JSON}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.fromCache(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.fromCache(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.Put(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Put writes a quiz into the cache. Failures are ignored; the loader stays authoritative.
func (r *QuizRepository) Put(ctx context.Context, quiz domain.Quiz) {
	content, err := json.Marshal(quiz.Public())
	if err != nil {
		return
	}
	answerKey := answersKey(quiz.ID)
	ttl := r.ttlWithJitter()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, answerKey)
	for _, q := range quiz.Questions {
		pipe.HSet(ctx, answerKey, q.ID, q.CorrectAnswer)
	}
	pipe.Set(ctx, contentKey(quiz.ID), content, ttl)
	if ttl > 0 {
		pipe.Expire(ctx, answerKey, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

// Invalidate drops the cached copy of a quiz.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, answersKey(quizID), contentKey(quizID)).Err()
}

func (r *QuizRepository) fromCache(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, contentKey(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	answers, err := r.client.HGetAll(ctx, answersKey(quizID)).Result()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	for i := range quiz.Questions {
		answer, ok := answers[quiz.Questions[i].ID]
		if !ok {
			// partially expired entry, reload
			return domain.Quiz{}, false
		}
		quiz.Questions[i].CorrectAnswer = answer
	}
	return quiz, true
}

func answersKey(quizID string) string {
	return "quiz:" + quizID + ":answers"
}

func contentKey(quizID string) string {
	return "quiz:" + quizID + ":content"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
