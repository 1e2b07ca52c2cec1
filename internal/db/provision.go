package db

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrSecretKeyImmutable is returned when an update tries to replace a bot's
// existing secret key with a different one.
var ErrSecretKeyImmutable = errors.New("secret key cannot be changed")

// SecretKeyBytes is the amount of randomness behind a generated secret key.
// The hex encoding doubles it, giving 64 characters.
const SecretKeyBytes = 32

// GenerateSecretKey returns a fresh 64-character lowercase hex secret.
// Uniqueness rests on the entropy of crypto/rand; no lookup is made.
func GenerateSecretKey() (string, error) {
	b := make([]byte, SecretKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// BeforeWrite fills in defaults on a bot that is about to be written.
//
// On create existing is nil and incoming is the full record: a missing
// secret key is generated and a missing status becomes active.
//
// On update existing is the stored row and incoming is the change set (zero
// fields are left untouched). A secret is generated only when neither the
// change set nor the stored row has one. An existing key is never replaced:
// a change set carrying a different key fails with ErrSecretKeyImmutable.
func BeforeWrite(existing, incoming *Bot) error {
	if existing == nil {
		if incoming.SecretKey == "" {
			key, err := GenerateSecretKey()
			if err != nil {
				return err
			}
			incoming.SecretKey = key
		}
		if incoming.Status == "" {
			incoming.Status = BotStatusActive
		}
		return nil
	}

	if existing.SecretKey != "" {
		if incoming.SecretKey != "" && incoming.SecretKey != existing.SecretKey {
			return ErrSecretKeyImmutable
		}
		return nil
	}
	if incoming.SecretKey == "" {
		key, err := GenerateSecretKey()
		if err != nil {
			return err
		}
		incoming.SecretKey = key
	}
	return nil
}
