package results

import (
	"context"

	"github.com/mind-engage/studyhub/internal/exam"
)

type Summary struct {
	TotalExams            int                         `json:"total_exams"`
	AverageScore          float64                     `json:"average_score"`
	BestScore             float64                     `json:"best_score"`
	WorstScore            float64                     `json:"worst_score"`
	TopicsPerformance     map[string]float64          `json:"topics_performance"`
	DifficultyPerformance map[exam.Difficulty]float64 `json:"difficulty_performance"`
}

// Summarize aggregates results. Every difficulty level is present in the
// output, with 0 for levels the user never attempted. topicOf resolves a
// question's topic for answer details stored without one; it may be nil.
func Summarize(rs []exam.Result, topicOf func(questionID string) string) Summary {
	sum := Summary{
		TopicsPerformance:     map[string]float64{},
		DifficultyPerformance: map[exam.Difficulty]float64{},
	}
	for _, d := range exam.Difficulties {
		sum.DifficultyPerformance[d] = 0
	}
	if len(rs) == 0 {
		return sum
	}

	type tally struct {
		total float64
		n     int
	}
	byDiff := map[exam.Difficulty]*tally{}
	byTopic := map[string]*tally{}
	var total float64
	sum.BestScore, sum.WorstScore = rs[0].Score, rs[0].Score
	for _, r := range rs {
		total += r.Score
		sum.BestScore = max(sum.BestScore, r.Score)
		sum.WorstScore = min(sum.WorstScore, r.Score)
		if r.Difficulty != "" {
			t := byDiff[r.Difficulty]
			if t == nil {
				t = &tally{}
				byDiff[r.Difficulty] = t
			}
			t.total += r.Score
			t.n++
		}
		for _, a := range r.Answers {
			topic := a.Topic
			if topic == "" && topicOf != nil {
				topic = topicOf(a.QuestionID)
			}
			if topic == "" {
				continue
			}
			t := byTopic[topic]
			if t == nil {
				t = &tally{}
				byTopic[topic] = t
			}
			t.n++
			if a.IsCorrect {
				t.total++
			}
		}
	}
	sum.TotalExams = len(rs)
	sum.AverageScore = exam.Round2(total / float64(len(rs)))
	for d, t := range byDiff {
		sum.DifficultyPerformance[d] = exam.Round2(t.total / float64(t.n))
	}
	for topic, t := range byTopic {
		sum.TopicsPerformance[topic] = exam.Round2(t.total / float64(t.n) * 100)
	}
	return sum
}

// Summary loads every result for userID and aggregates them.
func (s *Store) Summary(ctx context.Context, userID string, topicOf func(string) string) (Summary, error) {
	rs, err := s.all(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(rs, topicOf), nil
}
