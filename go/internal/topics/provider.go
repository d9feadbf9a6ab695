package topics

import (
	"context"
	"math/rand"
	"strings"
	"unicode"

	"github.com/mcdev12/roomsync/go/clients/openai_client"
	"github.com/mcdev12/roomsync/go/internal/apperror"
	"github.com/rs/zerolog/log"
)

// Provider yields the next topic word for a round. Difficulty is an opaque
// hint; providers may ignore it.
type Provider interface {
	NextTopic(ctx context.Context, difficulty string) (string, error)
}

// AIProvider generates topics with a chat completion. The prompt asks for a
// single common noun most adults would know.
type AIProvider struct {
	client *openai_client.OpenAIClient
}

func NewAIProvider(client *openai_client.OpenAIClient) *AIProvider {
	return &AIProvider{client: client}
}

const systemPrompt = "You are a helpful topic generator."

func (p *AIProvider) NextTopic(ctx context.Context, difficulty string) (string, error) {
	prompt := "Give exactly one common noun that almost every adult knows. " +
		"Avoid proper nouns and technical terms. Output the word only, with no punctuation or explanation."
	if difficulty != "" {
		prompt += " Difficulty: " + difficulty + "."
	}

	completion, err := p.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", apperror.Upstream(err, "failed to generate topic")
	}

	topic := Sanitize(completion)
	if topic == "" {
		return "", apperror.Upstream(nil, "topic generator returned no usable word")
	}
	return topic, nil
}

// WordListProvider draws from a fixed word list. Serves as the offline
// fallback when no AI provider is configured or it fails.
type WordListProvider struct {
	words []string
	rng   func(n int) int
}

var defaultWords = []string{
	"apple", "coffee", "bicycle", "book", "clock",
	"bridge", "mountain", "ocean", "chair", "telephone",
}

func NewWordListProvider(words []string) *WordListProvider {
	if len(words) == 0 {
		words = defaultWords
	}
	return &WordListProvider{words: words, rng: rand.Intn}
}

func (p *WordListProvider) NextTopic(ctx context.Context, difficulty string) (string, error) {
	return p.words[p.rng(len(p.words))], nil
}

// FallbackProvider tries the primary provider and falls back on error.
type FallbackProvider struct {
	primary  Provider
	fallback Provider
}

func NewFallbackProvider(primary, fallback Provider) *FallbackProvider {
	return &FallbackProvider{primary: primary, fallback: fallback}
}

func (p *FallbackProvider) NextTopic(ctx context.Context, difficulty string) (string, error) {
	topic, err := p.primary.NextTopic(ctx, difficulty)
	if err == nil {
		return topic, nil
	}
	log.Warn().Err(err).Msg("primary topic provider failed, using fallback")
	return p.fallback.NextTopic(ctx, difficulty)
}

// Sanitize strips a completion down to a single word: letters and digits
// survive, everything else (punctuation, quotes, whitespace) is dropped.
func Sanitize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
