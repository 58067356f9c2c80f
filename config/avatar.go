package config

import "os"

// AvatarConfig carries the Tavus credentials. Read once at startup; an empty
// APIKey puts the whole system in mock-conversation mode.
type AvatarConfig struct {
	APIKey    string
	ReplicaID string
	BaseURL   string // empty means the public API endpoint
}

func LoadAvatarConfig() AvatarConfig {
	return AvatarConfig{
		APIKey:    os.Getenv("TAVUS_API_KEY"),
		ReplicaID: os.Getenv("TAVUS_REPLICA_ID"),
		BaseURL:   os.Getenv("TAVUS_BASE_URL"),
	}
}
