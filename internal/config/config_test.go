package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvIntDefault(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_INT", "42")
	assert.Equal(t, 42, EnvIntDefault("STOREFRONT_TEST_INT", 1))

	t.Setenv("STOREFRONT_TEST_INT", "nope")
	assert.Equal(t, 1, EnvIntDefault("STOREFRONT_TEST_INT", 1))

	assert.Equal(t, 7, EnvIntDefault("STOREFRONT_TEST_MISSING", 7))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_URL", "http://backend.local/")
	t.Setenv("RAZORPAY_KEY_ID", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()
	assert.Equal(t, "http://backend.local", cfg.APIURL)
	assert.Equal(t, DefaultScriptURL, cfg.RazorpayScriptURL)
	assert.Empty(t, cfg.RazorpayKeyID)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, "product", cfg.ESIndex)
}

func TestCheckBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in string
		ok bool
	}{
		{"https://api.nirmalhandloom.in", true},
		{"http://localhost:5000", true},
		{"localhost:5000", false},
		{"/api", false},
		{"ftp://files.example.com", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			err := CheckBaseURL(tt.in)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestEnvBoolDefault(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_FLAG", "true")
	assert.True(t, EnvBoolDefault("STOREFRONT_TEST_FLAG", false))

	t.Setenv("STOREFRONT_TEST_FLAG", "maybe")
	assert.False(t, EnvBoolDefault("STOREFRONT_TEST_FLAG", false))
	assert.True(t, EnvBoolDefault("STOREFRONT_TEST_MISSING", true))
}
