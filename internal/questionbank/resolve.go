package questionbank

import (
	"context"
	"log"

	"github.com/mind-engage/studyhub/internal/exam"
)

// Source is anything that can produce a question catalogue.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]exam.Question, error)
}

// FileSource loads a YAML, JSON or XLSX bank from disk.
type FileSource struct{ Path string }

func (f FileSource) Name() string { return f.Path }

func (f FileSource) Load(context.Context) ([]exam.Question, error) { return LoadFile(f.Path) }

type seedSource struct{}

func (seedSource) Name() string                                  { return "built-in seed" }
func (seedSource) Load(context.Context) ([]exam.Question, error) { return Seed(), nil }

// Resolve builds a pool from the first source that loads a non-empty, valid
// catalogue. Failing sources are logged and skipped; the built-in seed is the
// last resort.
func Resolve(ctx context.Context, sources ...Source) *exam.Pool {
	for _, src := range append(sources, seedSource{}) {
		if src == nil {
			continue
		}
		qs, err := src.Load(ctx)
		if err != nil {
			log.Printf("questionbank: %s: %v", src.Name(), err)
			continue
		}
		if len(qs) == 0 {
			continue
		}
		pool, err := exam.NewPool(qs)
		if err != nil {
			log.Printf("questionbank: %s: %v", src.Name(), err)
			continue
		}
		log.Printf("questionbank: loaded %d questions from %s", pool.Len(), src.Name())
		return pool
	}
	// Unreachable while the seed is valid.
	pool, _ := exam.NewPool(nil)
	return pool
}
