// Package generator drives an external schema generator, typically a
// language model that writes Go struct source from a prompt, and confirms
// each candidate by importing its source.
package generator

import (
	"context"

	"go.uber.org/zap"

	"github.com/reoring/skemaforge/dsl"
	"github.com/reoring/skemaforge/errors"
	"github.com/reoring/skemaforge/importer"
)

// DefaultMaxAttempts bounds Loop.Run when MaxAttempts is unset.
const DefaultMaxAttempts = 5

// Candidate is one generator answer. Schema is optional; when present it is
// kept only if it matches what the source imports to.
type Candidate struct {
	Source []byte
	Schema *dsl.RecordSchema
}

// Generator produces a candidate for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Candidate, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, prompt string) (Candidate, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (Candidate, error) { return f(ctx, prompt) }

// Attempt records one failed try.
type Attempt struct {
	Number int
	Source []byte
	Err    error
}

// Result is the confirmed schema together with the source it came from and
// the attempts that failed before it.
type Result struct {
	Schema   *dsl.RecordSchema
	Source   []byte
	Attempts []Attempt
}

// Loop retries a generator until a candidate imports cleanly.
type Loop struct {
	Gen         Generator
	MaxAttempts int
	Import      []importer.Option
	Logger      *zap.SugaredLogger
}

// Run asks the generator for candidates until one is confirmed or the
// attempts run out. On exhaustion the error wraps ErrExhausted and the last
// failure; the returned Result still lists every attempt.
func (l Loop) Run(ctx context.Context, prompt string) (Result, error) {
	if l.Gen == nil {
		return Result{}, errors.New("generator: no generator configured")
	}
	limit := l.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	log := l.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var res Result
	var last error
	for n := 1; n <= limit; n++ {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "generator: cancelled")
		}
		cand, err := l.Gen.Generate(ctx, prompt)
		if err != nil {
			last = errors.Wrapf(err, "attempt %d: generate", n)
			res.Attempts = append(res.Attempts, Attempt{Number: n, Err: err})
			log.Warnw("generation failed", "attempt", n, "error", err)
			continue
		}
		s, err := importer.Confirm(ctx, cand.Source, cand.Schema, l.Import...)
		if err != nil {
			last = errors.Wrapf(err, "attempt %d: import", n)
			res.Attempts = append(res.Attempts, Attempt{Number: n, Source: cand.Source, Err: err})
			log.Warnw("candidate rejected", "attempt", n, "error", err)
			continue
		}
		log.Infow("candidate confirmed", "attempt", n, "schema", s.Name(), "fields", s.Len())
		res.Schema, res.Source = s, cand.Source
		return res, nil
	}
	return res, errors.Wrapf(errors.Mark(last, errors.ErrExhausted), "generator: gave up after %d attempts", limit)
}
