package main

import (
	"strings"
	"testing"

	"bahikhata/backend/internal/config"
)

func TestValidateSecurityConfigRejectsShortSecret(t *testing.T) {
	cfg := config.Config{AuthSecret: "too-short"}
	if err := validateSecurityConfig(cfg); err == nil {
		t.Fatal("expected error for short AUTH_SECRET")
	}
}

func TestValidateSecurityConfigAcceptsStrongSecret(t *testing.T) {
	cfg := config.Config{AuthSecret: strings.Repeat("s", 32)}
	if err := validateSecurityConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
