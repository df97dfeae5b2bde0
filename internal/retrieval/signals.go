package retrieval

import (
	"strings"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/search"
)

// vectorSignalThreshold is the cosine-similarity floor for signal 6.
const vectorSignalThreshold = 0.40

// Signals holds the six boolean activation signals spec.md §4.2 computes
// for a candidate memory against the current user message, plus the
// per-signal strength a passing memory carries into importance ranking.
type Signals struct {
	Trigger bool
	Tags    bool
	Domain  bool
	Feature bool
	Content bool
	Vector  bool

	TriggerStrength float64
	TagCount        int
	VectorScore     float64
}

// Count returns how many of the six signals fired.
func (s Signals) Count() int {
	n := 0
	for _, fired := range []bool{s.Trigger, s.Tags, s.Domain, s.Feature, s.Content, s.Vector} {
		if fired {
			n++
		}
	}
	return n
}

// query bundles the precomputed state every signal needs: the lowercased
// message and its significant-token set, plus the optional query embedding.
type query struct {
	message    string
	lower      string
	tokens     map[string]bool
	embedding  []float32
}

func newQuery(message string, embedding []float32) query {
	return query{
		message:   message,
		lower:     strings.ToLower(message),
		tokens:    significantTokens(message),
		embedding: embedding,
	}
}

// computeSignals evaluates all six signals for m against q.
func computeSignals(m *models.Memory, q query) Signals {
	var s Signals

	s.Trigger, s.TriggerStrength = triggerSignal(m.TriggerPhrases, q)
	s.Tags, s.TagCount = tagsSignal(m.SemanticTags, q)
	s.Domain = m.Domain != "" && (q.tokens[strings.ToLower(m.Domain)] || containsSubstring(q.message, m.Domain))
	s.Feature = m.Feature != "" && (q.tokens[strings.ToLower(m.Feature)] || containsSubstring(q.message, m.Feature))
	s.Content = contentSignal(m.Content, q)
	s.Vector, s.VectorScore = vectorSignal(m.Embedding, q.embedding)

	return s
}

// triggerSignal implements signal 1: for each phrase, split into
// significant words, score = (exact + 0.8*singular/plural) / |words|;
// fires if any phrase scores >= 0.5. Records the max score across phrases.
func triggerSignal(phrases []string, q query) (bool, float64) {
	best := 0.0
	for _, phrase := range phrases {
		words := significantTokens(phrase)
		if len(words) == 0 {
			continue
		}
		score := 0.0
		for w := range words {
			if q.tokens[w] {
				score++
				continue
			}
			for qt := range q.tokens {
				if singularPlural(w, qt) {
					score += 0.8
					break
				}
			}
		}
		score /= float64(len(words))
		if score > best {
			best = score
		}
	}
	return best >= 0.5, best
}

// tagsSignal implements signal 2: count of semantic_tags present in the
// token set or as a substring of the message; fires at >= 2, or >= 1 when
// the memory carries at most 2 tags total.
func tagsSignal(tags []string, q query) (bool, int) {
	count := 0
	for _, tag := range tags {
		if q.tokens[strings.ToLower(tag)] || containsSubstring(q.message, tag) {
			count++
		}
	}
	threshold := 2
	if len(tags) <= 2 {
		threshold = 1
	}
	return count >= threshold && count > 0, count
}

// contentSignal implements signal 5: tokens of the first 200 chars of
// content vs. the message's token set; fires at overlap >= 3.
func contentSignal(content string, q query) bool {
	head := content
	if len(head) > 200 {
		head = head[:200]
	}
	overlap := 0
	for t := range significantTokens(head) {
		if q.tokens[t] {
			overlap++
		}
	}
	return overlap >= 3
}

// vectorSignal implements signal 6. A missing query or memory embedding
// means the signal simply cannot fire — other signals are still evaluated
// (spec.md §4.2, "Failure and observability").
func vectorSignal(memEmbedding, queryEmbedding []float32) (bool, float64) {
	if len(memEmbedding) == 0 || len(queryEmbedding) == 0 {
		return false, 0
	}
	sim := search.CosineSimilarity(queryEmbedding, memEmbedding)
	return sim >= vectorSignalThreshold, sim
}
