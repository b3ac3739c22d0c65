package main

import (
	"strings"
	"testing"
)

type keyStubs struct {
	promptCalls int
	keyCalls    int
	envCalls    int
}

func withKeyStubs(t *testing.T, terminal bool, promptVal string, keychainVal string, envVal string) *keyStubs {
	t.Helper()
	stubs := &keyStubs{}

	prevIsTerminal := isTerminal
	prevPrompt := promptForKey
	prevGetKey := getKey
	prevGetEnv := getEnvKey
	t.Cleanup(func() {
		isTerminal = prevIsTerminal
		promptForKey = prevPrompt
		getKey = prevGetKey
		getEnvKey = prevGetEnv
	})

	isTerminal = func(_ int) bool { return terminal }
	promptForKey = func(_ string) (string, error) {
		stubs.promptCalls++
		return promptVal, nil
	}
	getKey = func(_ string, _ bool) (string, string) {
		stubs.keyCalls++
		if keychainVal == "" {
			return "", ""
		}
		return keychainVal, "Keychain"
	}
	getEnvKey = func(_ string) (string, bool) {
		stubs.envCalls++
		if envVal == "" {
			return "", false
		}
		return envVal, true
	}

	return stubs
}

func TestResolveAPIKey_KeychainFirst(t *testing.T) {
	stubs := withKeyStubs(t, true, "", "keychain-key", "env-key")

	key, source, err := resolveAPIKey("gemini", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "keychain-key" || source != "Keychain" {
		t.Fatalf("expected keychain key/source, got key=%q source=%q", key, source)
	}
	if stubs.envCalls != 0 {
		t.Fatalf("expected no env calls, got envCalls=%d", stubs.envCalls)
	}
}

func TestResolveAPIKey_EnvFallbackWhenAllowed(t *testing.T) {
	stubs := withKeyStubs(t, false, "", "", "env-key")

	key, source, err := resolveAPIKey("gemini", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "env-key" || source != "Environment Variable" {
		t.Fatalf("expected env key/source, got key=%q source=%q", key, source)
	}
	if stubs.envCalls == 0 {
		t.Fatal("expected env call")
	}
}

func TestResolveAPIKey_EnvIgnoredByDefault(t *testing.T) {
	withKeyStubs(t, false, "", "", "env-key")

	_, _, err := resolveAPIKey("gemini", false, false)
	if err == nil {
		t.Fatal("expected error when env disabled and keychain empty")
	}
	if !strings.Contains(err.Error(), "non-interactive") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveAPIKey_EnvOnly(t *testing.T) {
	stubs := withKeyStubs(t, true, "", "keychain-key", "env-key")

	key, source, err := resolveAPIKey("openai", false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "env-key" || source != "Environment Variable" {
		t.Fatalf("expected env key/source, got key=%q source=%q", key, source)
	}
	if stubs.keyCalls != 0 {
		t.Fatalf("env-only must not consult keychain, keyCalls=%d", stubs.keyCalls)
	}
}

func TestResolveAPIKey_EnvOnlyMissing(t *testing.T) {
	withKeyStubs(t, true, "", "", "")

	_, _, err := resolveAPIKey("openai", false, true)
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected env-only error naming the variable, got %v", err)
	}
}

func TestResolveAPIKey_TerminalPrompt(t *testing.T) {
	stubs := withKeyStubs(t, true, "  typed-key  ", "", "")

	key, source, err := resolveAPIKey("gemini", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "typed-key" || source != "Terminal Prompt" {
		t.Fatalf("expected trimmed prompt key, got key=%q source=%q", key, source)
	}
	if stubs.promptCalls != 1 {
		t.Fatalf("promptCalls = %d", stubs.promptCalls)
	}
}
