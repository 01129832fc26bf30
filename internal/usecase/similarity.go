package usecase

import (
	"container/list"
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/powersearch/backend/internal/domain"
)

// SimilarityStrategy scores how likely two normalized titles refer to the
// same product, in [0, 1]. Strategies form an ordered fallback chain: the
// matcher uses the first strategy that returns without error for a pair.
type SimilarityStrategy interface {
	Name() string
	Score(ctx context.Context, a, b string) (float64, error)
}

// EmbeddingSimilarity scores pairs by cosine similarity of text embeddings.
// Embeddings are cached per request scope in a small LRU so each distinct
// title is embedded at most once.
type EmbeddingSimilarity struct {
	embedder domain.Embedder
	cache    *embeddingCache
}

// NewEmbeddingSimilarity creates the semantic strategy. cacheSize bounds the
// number of cached title embeddings.
func NewEmbeddingSimilarity(embedder domain.Embedder, cacheSize int) *EmbeddingSimilarity {
	if cacheSize <= 0 {
		cacheSize = 2048
	}
	return &EmbeddingSimilarity{
		embedder: embedder,
		cache:    newEmbeddingCache(cacheSize),
	}
}

// Name identifies this strategy in diagnostics.
func (s *EmbeddingSimilarity) Name() string { return "embedding" }

// Score embeds both titles and returns their cosine similarity. Any embedder
// failure is returned so the caller can degrade the pair to the next
// strategy.
func (s *EmbeddingSimilarity) Score(ctx context.Context, a, b string) (float64, error) {
	va, err := s.embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := s.embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return cosineSimilarity(va, vb), nil
}

func (s *EmbeddingSimilarity) embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.cache.get(text); ok {
		return v, nil
	}
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrOpenAIFailure)
	}
	s.cache.set(text, v)
	return v, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FuzzySimilarity is the lexical fallback: a blend of token-set Jaccard
// overlap and a normalized edit-distance ratio over the whole title. It never
// fails, so it terminates every fallback chain.
type FuzzySimilarity struct{}

// NewFuzzySimilarity creates the lexical strategy.
func NewFuzzySimilarity() *FuzzySimilarity { return &FuzzySimilarity{} }

// Name identifies this strategy in diagnostics.
func (s *FuzzySimilarity) Name() string { return "fuzzy" }

// Score blends token overlap (dominant, insensitive to word order) with a
// character-level ratio that catches variants like "WH-1000XM4" vs
// "WH1000XM4" once punctuation has been normalized away.
func (s *FuzzySimilarity) Score(_ context.Context, a, b string) (float64, error) {
	if a == b {
		return 1, nil
	}
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	jaccard := tokenJaccard(tokensA, tokensB)
	containment := tokenContainment(tokensA, tokensB)
	ratio := editRatio(strings.ReplaceAll(a, " ", ""), strings.ReplaceAll(b, " ", ""))

	// Containment keeps "sony wh1000xm4" close to "sony wh1000xm4
	// headphones": extra descriptor tokens on one side should not sink an
	// otherwise exact match.
	score := 0.35*jaccard + 0.35*containment + 0.30*ratio
	if score > 1 {
		score = 1
	}
	return score, nil
}

func tokenJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// tokenContainment is the intersection over the smaller token set.
func tokenContainment(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(inter) / float64(smaller)
}

// editRatio converts Levenshtein distance into a similarity in [0, 1].
func editRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 0
	}
	return 1 - float64(levenshteinDistance(a, b))/float64(longer)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// embeddingCache is an LRU cache for title embeddings.
type embeddingCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type embeddingEntry struct {
	key   string
	value []float32
}

func newEmbeddingCache(capacity int) *embeddingCache {
	return &embeddingCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

func (c *embeddingCache) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*embeddingEntry).value, true
	}
	return nil, false
}

func (c *embeddingCache) set(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*embeddingEntry).value = value
		return
	}

	elem := c.lru.PushFront(&embeddingEntry{key: key, value: value})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*embeddingEntry).key)
		}
	}
}
