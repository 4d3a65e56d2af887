package grading

// Q is the minimal view of a question needed for grading.
type Q struct {
	Type      string
	AnswerKey string
}

// Result is the outcome of grading a single response.
type Result struct {
	Correct  bool
	Feedback []string
}

// Strategy grades a single question type.
type Strategy interface {
	Grade(q Q, response string) Result
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q Q, response string) Result
}

type defaultGrader struct {
	strategies map[string]Strategy
	fallback   Strategy
}

func (g *defaultGrader) Grade(q Q, response string) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		s = g.fallback
	}
	return s.Grade(q, response)
}

type Option func(*config)

type config struct {
	MaxEditDistance int // fill_blank near-miss hint threshold; 0 disables
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// NewDefaultGrader installs the built-in strategies. Correctness is always an
// exact string comparison; fill_blank may add a near-miss hint.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{MaxEditDistance: 1}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			"multiple_choice": exactStrategy{},
			"true_false":      exactStrategy{},
			"fill_blank":      fillBlankStrategy{maxEdit: cfg.MaxEditDistance},
		},
		fallback: exactStrategy{},
	}
}

// --- Strategies ---

type exactStrategy struct{}

func (exactStrategy) Grade(q Q, response string) Result {
	return Result{Correct: response == q.AnswerKey}
}

type fillBlankStrategy struct{ maxEdit int }

func (s fillBlankStrategy) Grade(q Q, response string) Result {
	res := Result{Correct: response == q.AnswerKey}
	if res.Correct || s.maxEdit <= 0 || response == "" {
		return res
	}
	nk, nr := normalize(q.AnswerKey), normalize(response)
	if nk == nr || levenshtein(nk, nr) <= s.maxEdit {
		res.Feedback = append(res.Feedback, "close match")
	}
	return res
}
