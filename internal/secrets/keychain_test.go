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

package secrets

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestTokenRoundTrip(t *testing.T) {
	keyring.MockInit()

	store := NewStore()
	if !store.Available() {
		t.Fatal("mock keyring should be available")
	}

	if err := store.SetToken("tk-12345"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}

	got, err := store.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got != "tk-12345" {
		t.Errorf("Token() = %q, want %q", got, "tk-12345")
	}

	if err := store.DeleteToken(); err != nil {
		t.Fatalf("DeleteToken() error = %v", err)
	}

	if _, err := store.Token(); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Token() after delete error = %v, want ErrTokenNotFound", err)
	}
}

func TestTokenEnvFallback(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvToken, "tk-from-env")

	store := NewStore()

	got, err := store.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got != "tk-from-env" {
		t.Errorf("Token() = %q, want env fallback", got)
	}
}

func TestKeychainTakesPrecedenceOverEnv(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvToken, "tk-from-env")

	store := NewStore()
	if err := store.SetToken("tk-from-keychain"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}

	got, err := store.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got != "tk-from-keychain" {
		t.Errorf("Token() = %q, want keychain value", got)
	}
}

func TestDeleteMissingToken(t *testing.T) {
	keyring.MockInit()

	store := NewStore()
	if err := store.DeleteToken(); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("DeleteToken() error = %v, want ErrTokenNotFound", err)
	}
}

func TestIsKeychainUnavailableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked", errors.New("keychain is locked"), true},
		{"dbus", errors.New("dial unix /run/dbus: no such file"), true},
		{"other", errors.New("unexpected end of stream"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isKeychainUnavailableError(tt.err); got != tt.want {
				t.Errorf("isKeychainUnavailableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
