package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Service groups the app's secrets in the OS keychain.
const Service = "upjobs"

const openAIAccount = "openai_api_key"

// OpenAIKey returns the OpenAI API key from the environment, falling back to
// the OS keychain. An empty result means summarization runs as a no-op.
func OpenAIKey() string {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		return v
	}
	if v, err := keyring.Get(Service, openAIAccount); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

func SetOpenAIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("key is empty")
	}
	return keyring.Set(Service, openAIAccount, key)
}

func DeleteOpenAIKey() error {
	return keyring.Delete(Service, openAIAccount)
}

// AirtableKey reads the Airtable token from the environment.
func AirtableKey() string {
	return strings.TrimSpace(os.Getenv("AIRTABLE_API_KEY"))
}
