// Copyright 2026 The DataMate-Ops Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package secrets stores the DataMate platform token in the OS keychain.
// Supported platforms:
//   - macOS: Keychain Access
//   - Linux: Secret Service API (GNOME Keyring, KWallet)
//   - Windows: Credential Manager
//
// When the keychain is unavailable (headless CI, locked session), the
// DATAMATE_TOKEN environment variable serves as a read-only fallback.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// keychainService is the service name used for keychain entries.
	keychainService = "dmops"

	// tokenKey is the keychain key holding the platform token.
	tokenKey = "platform-token"

	// EnvToken is the environment fallback consulted when the keychain
	// has no token or is unavailable.
	EnvToken = "DATAMATE_TOKEN"
)

var (
	// ErrTokenNotFound indicates no token is stored anywhere.
	ErrTokenNotFound = errors.New("platform token not found")

	// ErrKeychainUnavailable indicates the OS keychain cannot be reached.
	ErrKeychainUnavailable = errors.New("keychain unavailable")
)

// Store reads and writes the platform token.
type Store struct {
	available bool
}

// NewStore creates a token store, probing keychain availability up front.
// Probing with a get of a key that never exists detects locked keychains
// and missing secret services early.
func NewStore() *Store {
	store := &Store{available: true}

	_, err := keyring.Get(keychainService, "__dmops_availability_test__")
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		store.available = false
	}

	return store
}

// Available reports whether the OS keychain is accessible.
func (s *Store) Available() bool {
	return s.available
}

// Token returns the platform token. The keychain is consulted first, then
// the DATAMATE_TOKEN environment variable. Returns ErrTokenNotFound when
// neither has one.
func (s *Store) Token() (string, error) {
	if s.available {
		value, err := keyring.Get(keychainService, tokenKey)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) && !isKeychainUnavailableError(err) {
			return "", fmt.Errorf("keychain error: %w", err)
		}
	}

	if token := os.Getenv(EnvToken); token != "" {
		return token, nil
	}

	return "", ErrTokenNotFound
}

// SetToken stores the platform token in the keychain.
func (s *Store) SetToken(value string) error {
	if !s.available {
		return fmt.Errorf("%w: set %s instead", ErrKeychainUnavailable, EnvToken)
	}

	if err := keyring.Set(keychainService, tokenKey, value); err != nil {
		if isKeychainUnavailableError(err) {
			return fmt.Errorf("%w: %s", ErrKeychainUnavailable, err.Error())
		}
		return fmt.Errorf("keychain error: %w", err)
	}

	return nil
}

// DeleteToken removes the platform token from the keychain.
func (s *Store) DeleteToken() error {
	if !s.available {
		return fmt.Errorf("%w: unset %s instead", ErrKeychainUnavailable, EnvToken)
	}

	if err := keyring.Delete(keychainService, tokenKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrTokenNotFound
		}
		if isKeychainUnavailableError(err) {
			return fmt.Errorf("%w: %s", ErrKeychainUnavailable, err.Error())
		}
		return fmt.Errorf("keychain error: %w", err)
	}

	return nil
}

// isKeychainUnavailableError checks if an error indicates the keychain is
// locked or inaccessible, covering common messages across platforms.
func isKeychainUnavailableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	unavailableIndicators := []string{
		"locked",
		"cannot access",
		"permission denied",
		"failed to unlock",
		"user interaction required",
		"secret service",
		"dbus",
		"user canceled",
	}

	for _, indicator := range unavailableIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
