package credential

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"
)

// Record is one encrypted credential row: name, cipher envelope, declared
// type/description, and bookkeeping timestamps.
type Record struct {
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Description    string    `json:"description,omitempty"`
	EncryptedValue string    `json:"-"`
	Salt           string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store manages named, encrypted-at-rest secrets (API keys, OAuth tokens,
// webhook HMAC secrets) used by domain tools and the webhook dispatcher.
// Reads/writes are serialized through the backing database's own
// transaction isolation; no additional in-process locking is needed.
type Store interface {
	Put(ctx context.Context, name, credType, description, plaintext string) error
	Get(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, name string) error
}

// PGStore implements Store over Postgres using the encryption primitive
// in crypto.go. The passphrase is the server's master credential key,
// supplied at boot and never persisted.
type PGStore struct {
	db         *sql.DB
	passphrase string
}

func NewPGStore(db *sql.DB, passphrase string) *PGStore {
	return &PGStore{db: db, passphrase: passphrase}
}

func (s *PGStore) Put(ctx context.Context, name, credType, description, plaintext string) error {
	if s.passphrase == "" {
		return fmt.Errorf("credential: no master key configured")
	}
	encoded, err := Encrypt(plaintext, s.passphrase)
	if err != nil {
		return err
	}
	// The salt is embedded in the encoded envelope; store.go expects a
	// separate salt column per the schema, so the first 16 bytes are
	// surfaced again for operational visibility (key rotation tooling).
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}
	salt := base64.StdEncoding.EncodeToString(raw[:saltSize])

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (name, encrypted_value, salt, type, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (name) DO UPDATE SET
			encrypted_value = EXCLUDED.encrypted_value,
			salt = EXCLUDED.salt,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at`,
		name, encoded, salt, credType, description, now,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, name string) (string, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT encrypted_value FROM credentials WHERE name = $1`, name,
	).Scan(&encoded)
	if err != nil {
		return "", err
	}
	return Decrypt(encoded, s.passphrase)
}

func (s *PGStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, description, created_at, updated_at FROM credentials ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.Type, &r.Description, &r.CreatedAt, &r.UpdatedAt); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *PGStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE name = $1`, name)
	return err
}
