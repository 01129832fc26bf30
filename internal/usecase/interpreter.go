package usecase

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
)

const interpreterSystemPrompt = `You are a shopping assistant. Your task is to convert natural language shopping queries into effective search terms.
Extract the core product information, including:
- Product name
- Important specifications
- Remove unnecessary words
- Correct spelling mistakes

Return ONLY the optimized search terms without any explanation.`

// Compiled patterns for constraint extraction from free-text queries.
var (
	// "under $1000", "below 500", "less than 1,200.50", "cheaper than $80"
	maxPricePattern = regexp.MustCompile(`(?i)\b(?:under|below|less\s+than|cheaper\s+than|up\s+to|max(?:imum)?)\s*\$?\s*([\d,]+(?:\.\d+)?)`)
	// "over $200", "above 100", "more than 50", "at least $30"
	minPricePattern = regexp.MustCompile(`(?i)\b(?:over|above|more\s+than|at\s+least|min(?:imum)?|from)\s*\$?\s*([\d,]+(?:\.\d+)?)`)
	// qualitative rating hints
	ratingHintPattern = regexp.MustCompile(`(?i)\b(?:good|great|best|top|high(?:ly)?)[\s-]*(?:rated|reviews?|rating)\b|\btop[\s-]*rated\b`)

	constraintStripPattern = regexp.MustCompile(`(?i)\b(?:under|below|less\s+than|cheaper\s+than|up\s+to|over|above|more\s+than|at\s+least|max(?:imum)?|min(?:imum)?)\s*\$?\s*[\d,]+(?:\.\d+)?`)
)

// interpreterStopWords are filler words dropped from the term list. Product
// tokens stay untouched so adapters receive the full search phrase.
var interpreterStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"for": true, "with": true, "of": true, "in": true, "on": true,
	"to": true, "me": true, "i": true, "want": true, "need": true,
	"find": true, "show": true, "get": true, "buy": true, "please": true,
	"some": true, "best": true, "good": true, "great": true, "cheap": true,
	"deal": true, "deals": true,
}

// QueryInterpreter turns a free-text query into a SearchIntent. The heuristic
// pass always runs; the optional chat-completion rewrite is time-bounded and
// falls back to the heuristic result on any failure, so a search can never
// abort at this stage.
type QueryInterpreter struct {
	chat    domain.ChatClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewQueryInterpreter creates an interpreter. chat may be nil, in which case
// only the heuristic pass runs.
func NewQueryInterpreter(chat domain.ChatClient, timeout time.Duration, logger *zap.Logger) *QueryInterpreter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryInterpreter{chat: chat, timeout: timeout, logger: logger}
}

// Interpret builds the SearchIntent for a query. When naturalLanguage is set
// and a chat client is available, the query text is rewritten by the model
// first; constraints are always extracted locally so they survive a rewrite
// failure.
func (qi *QueryInterpreter) Interpret(ctx context.Context, query string, naturalLanguage bool) domain.SearchIntent {
	intent := heuristicIntent(query)

	if !naturalLanguage || qi.chat == nil {
		return intent
	}

	rewriteCtx, cancel := context.WithTimeout(ctx, qi.timeout)
	defer cancel()

	rewritten, err := qi.chat.Complete(rewriteCtx, interpreterSystemPrompt, query)
	if err != nil {
		// Interpretation failure is recovered locally, never surfaced.
		qi.logger.Warn("natural language rewrite failed, using heuristic intent",
			zap.String("query", query), zap.Error(err))
		return intent
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return intent
	}

	qi.logger.Info("processed natural language query",
		zap.String("query", query), zap.String("processed", rewritten))

	// Keep the locally extracted constraints: the model returns search terms
	// only, and price bounds must not depend on it.
	intent.Query = rewritten
	intent.Terms = tokenizeQuery(rewritten)
	if len(intent.Terms) == 0 {
		intent.Terms = tokenizeQuery(query)
	}
	return intent
}

// heuristicIntent is the trivial, always-available interpretation: tokenized
// terms plus regex-extracted price and rating constraints.
func heuristicIntent(query string) domain.SearchIntent {
	intent := domain.SearchIntent{
		Query:    strings.TrimSpace(query),
		RawQuery: query,
	}

	if m := maxPricePattern.FindStringSubmatch(query); m != nil {
		if v, err := parsePriceValue(m[1]); err == nil {
			intent.MaxPrice = &v
		}
	}
	if m := minPricePattern.FindStringSubmatch(query); m != nil {
		if v, err := parsePriceValue(m[1]); err == nil {
			intent.MinPrice = &v
		}
	}
	if ratingHintPattern.MatchString(query) {
		minRating := 4.0
		intent.MinRating = &minRating
	}

	cleaned := constraintStripPattern.ReplaceAllString(query, " ")
	intent.Terms = tokenizeQuery(cleaned)
	if len(intent.Terms) == 0 {
		intent.Terms = tokenizeQuery(query)
	}

	return intent
}

// tokenizeQuery splits a query into lowercase search terms, dropping filler
// words and bare punctuation.
func tokenizeQuery(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	var terms []string
	for _, f := range fields {
		f = strings.Trim(f, ",.!?;:$\"'()")
		if f == "" || interpreterStopWords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func parsePriceValue(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
