package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
)

// MustNonEmpty stops the process when a required setting is blank.
func MustNonEmpty(value, envName string) {
	if strings.TrimSpace(value) == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustBaseURL stops the process unless value is an absolute http(s) URL.
func MustBaseURL(value, envName string) {
	MustNonEmpty(value, envName)
	if err := CheckBaseURL(value); err != nil {
		log.Fatalf("env %s: %v", envName, err)
	}
}

func CheckBaseURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", value)
	}
	return nil
}
