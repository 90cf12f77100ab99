package catalog

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/pkg/cache"
)

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	defaultIndexOptions = IndexOptions{
		MinTermLength:  2,
		MaxCandidates:  5,
		FuzzyThreshold: 0.8,
		PartialFloor:   0.3,
		CacheSize:      256,
	}
)

// IndexOptions tune term matching. Zero values fall back to defaults.
type IndexOptions struct {
	MinTermLength  int
	MaxCandidates  int
	FuzzyThreshold float64
	PartialFloor   float64
	CacheSize      int
}

func (o IndexOptions) withDefaults() IndexOptions {
	d := defaultIndexOptions
	if o.MinTermLength > 0 {
		d.MinTermLength = o.MinTermLength
	}
	if o.MaxCandidates > 0 {
		d.MaxCandidates = o.MaxCandidates
	}
	if o.FuzzyThreshold > 0 {
		d.FuzzyThreshold = o.FuzzyThreshold
	}
	if o.PartialFloor > 0 {
		d.PartialFloor = o.PartialFloor
	}
	if o.CacheSize > 0 {
		d.CacheSize = o.CacheSize
	}
	return d
}

// Index resolves free-text terms to catalog fields using exact, partial, and
// fuzzy matching. Search results are memoized in an LRU cache keyed by the
// cleaned term.
type Index struct {
	loader  *Loader
	logger  *slog.Logger
	opts    IndexOptions
	results cache.Cache[[]Candidate]

	fields    []Field
	termIndex map[string][]int
	pathIndex map[string]int
	built     bool
}

// NewIndex creates a search index over the loader's fields. Build must be
// called before Search; Search builds lazily as a convenience.
func NewIndex(loader *Loader, opts IndexOptions, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	options := opts.withDefaults()

	results, err := cache.NewLRU[[]Candidate](options.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Index{
		loader:  loader,
		logger:  logger.With("component", "CatalogIndex"),
		opts:    options,
		results: results,
	}, nil
}

// Build loads the catalog and constructs the term and path indices.
func (idx *Index) Build(forceRebuild bool) error {
	if idx.built && !forceRebuild {
		return nil
	}

	fields, err := idx.loader.Load(forceRebuild)
	if err != nil {
		return err
	}

	termIndex := make(map[string][]int)
	pathIndex := make(map[string]int, len(fields))
	for i, field := range fields {
		pathIndex[field.Path] = i
		for _, term := range field.SearchTerms {
			clean := cleanTerm(term)
			if clean == "" {
				continue
			}
			termIndex[clean] = append(termIndex[clean], i)
			for _, word := range idx.tokenize(clean) {
				termIndex[word] = append(termIndex[word], i)
			}
		}
	}

	idx.fields = fields
	idx.termIndex = termIndex
	idx.pathIndex = pathIndex
	idx.built = true
	idx.results.Clear()

	idx.logger.Info("catalog index built",
		"fields", len(fields),
		"terms", len(termIndex))
	return nil
}

// Search returns ranked field candidates for one query term.
func (idx *Index) Search(term string) ([]Candidate, error) {
	if !idx.built {
		if err := idx.Build(false); err != nil {
			return nil, err
		}
	}

	clean := cleanTerm(term)
	if clean == "" {
		return nil, nil
	}

	if cached, ok := idx.results.Get(clean); ok {
		return cached, nil
	}

	var candidates []Candidate
	candidates = append(candidates, idx.exactMatches(clean)...)
	candidates = append(candidates, idx.partialMatches(clean)...)
	candidates = append(candidates, idx.fuzzyMatches(clean)...)

	candidates = dedupAndRank(candidates)
	if len(candidates) > idx.opts.MaxCandidates {
		candidates = candidates[:idx.opts.MaxCandidates]
	}

	idx.results.Set(clean, candidates)
	return candidates, nil
}

func (idx *Index) exactMatches(term string) []Candidate {
	var out []Candidate
	for _, fieldIdx := range idx.termIndex[term] {
		out = append(out, Candidate{
			Term:   term,
			Field:  &idx.fields[fieldIdx],
			Score:  1.0,
			Reason: "exact term match",
		})
	}
	return out
}

func (idx *Index) partialMatches(term string) []Candidate {
	words := idx.tokenize(term)
	if len(words) == 0 {
		return nil
	}

	matchedWords := make(map[int]int)
	var order []int
	for _, word := range words {
		for _, fieldIdx := range idx.termIndex[word] {
			if _, seen := matchedWords[fieldIdx]; !seen {
				order = append(order, fieldIdx)
			}
			matchedWords[fieldIdx]++
		}
	}

	var out []Candidate
	for _, fieldIdx := range order {
		score := float64(matchedWords[fieldIdx]) / float64(len(words))
		if score < idx.opts.PartialFloor {
			continue
		}
		out = append(out, Candidate{
			Term:   term,
			Field:  &idx.fields[fieldIdx],
			Score:  score * 0.8,
			Reason: fmt.Sprintf("partial match (%d/%d words)", matchedWords[fieldIdx], len(words)),
		})
	}
	return out
}

func (idx *Index) fuzzyMatches(term string) []Candidate {
	// Short terms produce too many false positives to be worth fuzzing.
	if len(term) < 3 {
		return nil
	}

	var out []Candidate
	for i := range idx.fields {
		field := &idx.fields[i]
		best := 0.0
		bestTerm := ""
		for _, searchTerm := range field.SearchTerms {
			if sim := similarity(term, searchTerm); sim > best {
				best = sim
				bestTerm = searchTerm
			}
		}
		if best >= idx.opts.FuzzyThreshold {
			out = append(out, Candidate{
				Term:   term,
				Field:  field,
				Score:  best * 0.6,
				Reason: fmt.Sprintf("fuzzy match with %q (similarity %.2f)", bestTerm, best),
			})
		}
	}
	return out
}

// FieldByPath returns the indexed field for a dotted path.
func (idx *Index) FieldByPath(path string) (*Field, bool) {
	if !idx.built {
		if err := idx.Build(false); err != nil {
			return nil, false
		}
	}
	fieldIdx, ok := idx.pathIndex[path]
	if !ok {
		return nil, false
	}
	return &idx.fields[fieldIdx], true
}

// Paths returns every indexed field path.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.pathIndex))
	for path := range idx.pathIndex {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Loaded reports whether the index holds at least one field.
func (idx *Index) Loaded() bool {
	return idx.built && len(idx.fields) > 0
}

func (idx *Index) tokenize(term string) []string {
	var words []string
	for _, word := range strings.Fields(term) {
		if len(word) >= idx.opts.MinTermLength {
			words = append(words, word)
		}
	}
	return words
}

// dedupAndRank keeps the best-scoring candidate per field path and orders
// the result by descending score, path ascending on ties.
func dedupAndRank(candidates []Candidate) []Candidate {
	best := make(map[string]Candidate)
	for _, c := range candidates {
		existing, seen := best[c.Field.Path]
		if !seen || c.Score > existing.Score {
			best[c.Field.Path] = c
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Field.Path < out[j].Field.Path
	})
	return out
}

// similarity is a normalized edit-distance ratio in [0, 1].
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

func cleanTerm(term string) string {
	clean := strings.ToLower(strings.TrimSpace(term))
	clean = nonAlnumRe.ReplaceAllString(clean, "")
	clean = whitespaceRe.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}
