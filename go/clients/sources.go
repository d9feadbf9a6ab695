package clients

// TopicSource represents different topic content providers
type TopicSource string

const (
	// TopicSourceOpenAI represents the OpenAI chat-completions client
	TopicSourceOpenAI TopicSource = "openai"

	// TopicSourceWordList represents the built-in static word list
	TopicSourceWordList TopicSource = "wordlist"
)

// TopicSourceConfig holds configuration for topic sources
type TopicSourceConfig struct {
	Source      TopicSource `json:"source"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Priority    int         `json:"priority"` // Higher priority sources are tried first
	Active      bool        `json:"active"`
}

// GetTopicSources returns all configured topic sources
func GetTopicSources() map[TopicSource]TopicSourceConfig {
	return map[TopicSource]TopicSourceConfig{
		TopicSourceOpenAI: {
			Source:      TopicSourceOpenAI,
			Name:        "OpenAI",
			Description: "OpenAI chat-completions topic generator",
			Priority:    100,
			Active:      true,
		},
		TopicSourceWordList: {
			Source:      TopicSourceWordList,
			Name:        "Word List",
			Description: "Built-in static word list",
			Priority:    10,
			Active:      true,
		},
	}
}

// ValidateTopicSource checks if the source is valid
func ValidateTopicSource(source TopicSource) bool {
	sources := GetTopicSources()
	_, exists := sources[source]
	return exists
}
