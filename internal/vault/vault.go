// Package vault stores portal credentials encrypted at rest and only ever
// hands out plaintext inside a scoped callback. Key material is derived from
// the master passphrase per record and never stored alongside ciphertext.
package vault

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Argon2id parameters trading off derivation latency vs brute-force
// resistance on a stolen database.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	saltLen      = 16
)

// defaultKeyID names the first master key generation.
const defaultKeyID = "v1"

var (
	// ErrNotAuthorized means the candidate's authorization flag is unset.
	// Submission must refuse to proceed regardless of stored credentials.
	ErrNotAuthorized = errors.New("candidate has not authorized automated submission")
	// ErrNoCredential means no credential is stored for the candidate.
	ErrNoCredential = errors.New("no credential stored for candidate")
	// ErrKeyGeneration means the blob was sealed under a different master
	// key generation than the one this vault holds.
	ErrKeyGeneration = errors.New("credential sealed under a different key generation")
)

// Credential is a portal login. The password is a byte slice so it can be
// wiped after use.
type Credential struct {
	Username string `json:"username"`
	Password []byte `json:"password"`
}

// Vault encrypts credentials with XChaCha20-Poly1305 under a per-record
// argon2id-derived key. The blob layout is salt || nonce || ciphertext.
// Every blob is recorded with the key generation that sealed it, so a
// rotated master passphrase fails loudly instead of producing garbage.
type Vault struct {
	master []byte
	keyID  string
	store  Store
}

// New creates a Vault over the given store. The master passphrase is the
// only key material; losing it makes every stored credential unreadable.
// keyID names the current master key generation and defaults to "v1".
func New(master []byte, keyID string, store Store) (*Vault, error) {
	if len(master) == 0 {
		return nil, errors.New("vault master passphrase is empty")
	}
	if keyID == "" {
		keyID = defaultKeyID
	}
	return &Vault{master: master, keyID: keyID, store: store}, nil
}

// Store encrypts and persists the credential for the candidate. An existing
// credential is replaced.
func (v *Vault) Store(ctx context.Context, candidateID uuid.UUID, cred Credential) error {
	plaintext, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	defer Wipe(plaintext)

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	aead, err := v.aead(salt)
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, candidateID[:])

	return v.store.Put(ctx, candidateID, blob, v.keyID)
}

// Authorize sets the candidate's authorization flag.
func (v *Vault) Authorize(ctx context.Context, candidateID uuid.UUID) error {
	return v.store.SetAuthorization(ctx, candidateID, true)
}

// Revoke clears the candidate's authorization flag. The credential stays
// stored but WithCredential refuses to open it.
func (v *Vault) Revoke(ctx context.Context, candidateID uuid.UUID) error {
	return v.store.SetAuthorization(ctx, candidateID, false)
}

// Authorized reports the candidate's authorization flag.
func (v *Vault) Authorized(ctx context.Context, candidateID uuid.UUID) (bool, error) {
	return v.store.Authorization(ctx, candidateID)
}

// WithCredential decrypts the candidate's credential and invokes fn with it.
// The plaintext is wiped when fn returns, also on panic. It fails with
// ErrNotAuthorized before touching ciphertext if the flag is unset.
func (v *Vault) WithCredential(ctx context.Context, candidateID uuid.UUID, fn func(Credential) error) error {
	authorized, err := v.store.Authorization(ctx, candidateID)
	if err != nil {
		return err
	}
	if !authorized {
		return ErrNotAuthorized
	}

	blob, keyID, err := v.store.Get(ctx, candidateID)
	if err != nil {
		return err
	}
	if keyID != v.keyID {
		return fmt.Errorf("%w: blob sealed under %q, vault holds %q", ErrKeyGeneration, keyID, v.keyID)
	}

	plaintext, err := v.open(blob, candidateID)
	if err != nil {
		return err
	}
	defer Wipe(plaintext)

	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return fmt.Errorf("decode credential: %w", err)
	}
	defer Wipe(cred.Password)

	return fn(cred)
}

func (v *Vault) open(blob []byte, candidateID uuid.UUID) ([]byte, error) {
	if len(blob) < saltLen+chacha20poly1305.NonceSizeX {
		return nil, errors.New("credential blob truncated")
	}

	salt := blob[:saltLen]
	nonce := blob[saltLen : saltLen+chacha20poly1305.NonceSizeX]
	ciphertext := blob[saltLen+chacha20poly1305.NonceSizeX:]

	aead, err := v.aead(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, candidateID[:])
	if err != nil {
		return nil, fmt.Errorf("decrypt credential: %w", err)
	}
	return plaintext, nil
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(v.master, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	defer Wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("initialise cipher: %w", err)
	}
	return aead, nil
}

// Wipe zeroes the buffer in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
