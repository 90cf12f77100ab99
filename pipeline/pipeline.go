package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/catalog"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/filter"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/graphql"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/llm"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/metric"
)

// Request is one natural-language query submitted for processing. SessionID
// may be empty; Process assigns a fresh one when it is.
type Request struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// Result carries the outputs of every step plus the identifiers needed to
// correlate logs and follow-up requests.
type Result struct {
	SessionID string `json:"session_id"`
	TraceID   string `json:"trace_id"`

	Parsed      *llm.ParsedQuery    `json:"parsed"`
	Candidates  []catalog.Candidate `json:"candidates"`
	Unmatched   []string            `json:"unmatched_terms,omitempty"`
	Resolution  *llm.Resolution     `json:"resolution"`
	Filter      *filter.GqlFilter   `json:"filter,omitempty"`
	Query       *graphql.Query      `json:"query"`
	Description string              `json:"description"`

	ProcessingTime time.Duration `json:"processing_time"`
}

// Pipeline orchestrates the five-step query workflow: parse the text, match
// catalog fields, resolve conflicts, compile the filter, render the query.
type Pipeline struct {
	index         *catalog.Index
	normalizer    *llm.Normalizer
	disambiguator *llm.Disambiguator
	builder       *graphql.Builder
	metrics       *metric.Metrics
	logger        *slog.Logger
}

// New creates a pipeline over the given components. metrics may be nil.
func New(index *catalog.Index, normalizer *llm.Normalizer, disambiguator *llm.Disambiguator, builder *graphql.Builder, metrics *metric.Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		index:         index,
		normalizer:    normalizer,
		disambiguator: disambiguator,
		builder:       builder,
		metrics:       metrics,
		logger:        logger.With("component", "Pipeline"),
	}
}

// Process runs one request through all five steps.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	traceID := uuid.NewString()
	logger := p.logger.With("session_id", sessionID, "trace_id", traceID)

	logger.Info("pipeline started", "query", req.Text)

	result, err := p.run(ctx, req.Text, logger)
	if err != nil {
		p.countRun("error")
		logger.Error("pipeline failed", "error", err)
		return nil, err
	}

	result.SessionID = sessionID
	result.TraceID = traceID
	result.ProcessingTime = time.Since(start)

	p.countRun("success")
	logger.Info("pipeline completed",
		"duration", result.ProcessingTime,
		"resolved_fields", len(result.Resolution.Resolved))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, text string, logger *slog.Logger) (*Result, error) {
	parsed, err := step(p, logger, "parse_query", func() (*llm.ParsedQuery, error) {
		return p.normalizer.ParseQuery(ctx, text)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline", "Process", "parse query")
	}

	matches, err := step(p, logger, "find_fields", func() (*fieldMatches, error) {
		return p.findFields(parsed)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline", "Process", "find matching fields")
	}

	resolution, err := step(p, logger, "resolve_conflicts", func() (*llm.Resolution, error) {
		return p.disambiguator.Resolve(ctx, matches.candidates, matches.unmatched, text), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline", "Process", "resolve conflicts")
	}

	compiled, err := step(p, logger, "build_filter", func() (*filter.GqlFilter, error) {
		state := graphql.ComposeState(resolution.Resolved, parsed.Logic, logger)
		return filter.Compile(state), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline", "Process", "build filter")
	}

	query, err := step(p, logger, "generate_query", func() (*graphql.Query, error) {
		return p.builder.BuildSubjectQuery(compiled)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline", "Process", "generate query")
	}
	query.Description = graphql.Describe(graphql.ComposeConstraints(resolution.Resolved), parsed.Logic)

	return &Result{
		Parsed:      parsed,
		Candidates:  matches.candidates,
		Unmatched:   matches.unmatched,
		Resolution:  resolution,
		Filter:      compiled,
		Query:       query,
		Description: query.Description,
	}, nil
}

// fieldMatches is the step-2 output: every candidate across all terms, plus
// the terms nothing matched.
type fieldMatches struct {
	candidates []catalog.Candidate
	unmatched  []string
}

func (p *Pipeline) findFields(parsed *llm.ParsedQuery) (*fieldMatches, error) {
	matches := &fieldMatches{}
	for _, term := range parsed.Terms {
		candidates, err := p.index.Search(term.Normalized)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			matches.unmatched = append(matches.unmatched, term.Original)
			continue
		}
		matches.candidates = append(matches.candidates, candidates...)
	}
	return matches, nil
}

// step times one pipeline step and records its duration.
func step[T any](p *Pipeline, logger *slog.Logger, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	elapsed := time.Since(start)

	if p.metrics != nil {
		p.metrics.ObserveStep(name, elapsed)
	}
	if err != nil {
		logger.Warn("pipeline step failed", "step", name, "duration", elapsed, "error", err)
	} else {
		logger.Debug("pipeline step completed", "step", name, "duration", elapsed)
	}
	return out, err
}

func (p *Pipeline) countRun(status string) {
	if p.metrics != nil {
		p.metrics.PipelineRuns.WithLabelValues(status).Inc()
	}
}
