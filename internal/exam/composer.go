package exam

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Composer assembles exam instances from a Pool.
//
// Each Compose call draws from its own *rand.Rand produced by the configured
// factory, so concurrent calls never share random state.
type Composer struct {
	pool    *Pool
	newRand func() *rand.Rand
	now     func() time.Time
	newID   func() string
}

type ComposerOption func(*Composer)

// WithSeed makes every Compose call use a source seeded with seed, so equal
// configurations produce equal exams.
func WithSeed(seed int64) ComposerOption {
	return func(c *Composer) {
		c.newRand = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
	}
}

func WithRandFactory(f func() *rand.Rand) ComposerOption {
	return func(c *Composer) { c.newRand = f }
}

func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) { c.now = now }
}

func WithIDGenerator(f func() string) ComposerOption {
	return func(c *Composer) { c.newID = f }
}

var seedCounter atomic.Int64

func timeSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano() + seedCounter.Add(1)))
}

func NewComposer(pool *Pool, opts ...ComposerOption) *Composer {
	c := &Composer{
		pool:    pool,
		newRand: timeSeededRand,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compose validates cfg and builds an exam with a request-scoped source.
func (c *Composer) Compose(cfg Config) (Exam, error) {
	return c.ComposeWith(c.newRand(), cfg)
}

// ComposeWith builds an exam drawing randomness from r only.
func (c *Composer) ComposeWith(r *rand.Rand, cfg Config) (Exam, error) {
	cfg, err := NewConfig(cfg)
	if err != nil {
		return Exam{}, err
	}
	selected := selectQuestions(r, c.pool.Filter(cfg.Difficulty, cfg.Topic), cfg.QuestionCount)

	views := make([]QuestionView, len(selected))
	for i, q := range selected {
		views[i] = q.View()
	}
	return Exam{
		ID:         c.newID(),
		Questions:  views,
		TimeLimit:  cfg.TimeLimit,
		Difficulty: cfg.Difficulty,
		Topic:      cfg.Topic,
		CreatedAt:  c.now().UTC(),
	}, nil
}

// selectQuestions samples count questions without replacement, then shuffles
// the sample in a second, independent pass. A short pool is used whole.
func selectQuestions(r *rand.Rand, pool []Question, count int) []Question {
	if len(pool) == 0 {
		return []Question{}
	}
	var out []Question
	if len(pool) <= count {
		out = append([]Question(nil), pool...)
	} else {
		out = make([]Question, 0, count)
		for _, i := range r.Perm(len(pool))[:count] {
			out = append(out, pool[i])
		}
	}
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
