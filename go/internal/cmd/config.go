package main

import (
	"fmt"
	"os"

	"github.com/mcdev12/roomsync/go/clients"
	"github.com/mcdev12/roomsync/go/clients/openai_client"
	"github.com/mcdev12/roomsync/go/internal/topics"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Topics struct {
		EnabledSources []string                  `yaml:"enabled_sources"`
		Sources        map[string]map[string]any `yaml:"sources"`
	} `yaml:"topics"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// setupTopicProvider chains the enabled sources in config order: the first
// is primary, each later one backstops the chain so far. A source that
// cannot be built (a missing API key, say) is skipped with a warning; an
// unknown source name is a config error. With nothing usable the word list
// stands alone.
func setupTopicProvider(config *Config) (topics.Provider, error) {
	var provider topics.Provider
	for _, key := range config.Topics.EnabledSources {
		source := clients.TopicSource(key)
		if !clients.ValidateTopicSource(source) {
			return nil, fmt.Errorf("unknown topic source: %s", key)
		}

		next, err := buildTopicSource(source)
		if err != nil {
			log.Warn().Err(err).Str("source", key).Msg("skipping topic source")
			continue
		}
		if provider == nil {
			provider = next
		} else {
			provider = topics.NewFallbackProvider(provider, next)
		}
	}
	if provider == nil {
		provider = topics.NewWordListProvider(nil)
	}
	return provider, nil
}

func buildTopicSource(source clients.TopicSource) (topics.Provider, error) {
	switch source {
	case clients.TopicSourceOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		return topics.NewAIProvider(openai_client.NewOpenAIClient(apiKey)), nil
	case clients.TopicSourceWordList:
		return topics.NewWordListProvider(nil), nil
	default:
		return nil, fmt.Errorf("unknown topic source: %s", source)
	}
}
