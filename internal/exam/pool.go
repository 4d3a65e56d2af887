package exam

import (
	"fmt"
	"sort"
	"strings"
)

// Pool is an immutable question catalogue. Safe for concurrent reads.
type Pool struct {
	questions []Question
	byID      map[string]int
}

// NewPool validates every question and rejects duplicate ids.
func NewPool(questions []Question) (*Pool, error) {
	p := &Pool{
		questions: make([]Question, 0, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	for _, q := range questions {
		nq, err := NewQuestion(q)
		if err != nil {
			return nil, err
		}
		if _, dup := p.byID[nq.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidQuestion, nq.ID)
		}
		p.byID[nq.ID] = len(p.questions)
		p.questions = append(p.questions, nq)
	}
	return p, nil
}

func (p *Pool) Len() int { return len(p.questions) }

// All returns a copy of every question in catalogue order.
func (p *Pool) All() []Question {
	out := make([]Question, len(p.questions))
	for i, q := range p.questions {
		out[i] = q.clone()
	}
	return out
}

// Filter returns questions of exactly difficulty d. A non-empty topic narrows
// the set by case-insensitive match; if that leaves nothing, the topic is
// dropped and every question of d is returned.
func (p *Pool) Filter(d Difficulty, topic string) []Question {
	topic = strings.TrimSpace(topic)
	var byDiff, byTopic []Question
	for _, q := range p.questions {
		if q.Difficulty != d {
			continue
		}
		byDiff = append(byDiff, q.clone())
		if topic != "" && strings.EqualFold(q.Topic, topic) {
			byTopic = append(byTopic, q.clone())
		}
	}
	if topic == "" || len(byTopic) == 0 {
		return byDiff
	}
	return byTopic
}

// Topics returns the distinct topic labels, sorted.
func (p *Pool) Topics() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, q := range p.questions {
		if _, ok := seen[q.Topic]; ok {
			continue
		}
		seen[q.Topic] = struct{}{}
		out = append(out, q.Topic)
	}
	sort.Strings(out)
	return out
}

func (p *Pool) FindByID(id string) (Question, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Question{}, false
	}
	return p.questions[i].clone(), true
}
