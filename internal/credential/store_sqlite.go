package credential

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"
)

// SQLiteStore implements Store over an embedded sqlite database, giving
// standalone (non-Postgres) deployments the same encrypted-credential CRUD
// a managed deployment gets from PGStore. Schema and encryption envelope
// are identical; only the placeholder syntax and upsert clause differ.
type SQLiteStore struct {
	db         *sql.DB
	passphrase string
}

func NewSQLiteStore(db *sql.DB, passphrase string) *SQLiteStore {
	return &SQLiteStore{db: db, passphrase: passphrase}
}

func (s *SQLiteStore) Put(ctx context.Context, name, credType, description, plaintext string) error {
	if s.passphrase == "" {
		return fmt.Errorf("credential: no master key configured")
	}
	encoded, err := Encrypt(plaintext, s.passphrase)
	if err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}
	salt := base64.StdEncoding.EncodeToString(raw[:saltSize])

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (name, encrypted_value, salt, type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			encrypted_value = excluded.encrypted_value,
			salt = excluded.salt,
			type = excluded.type,
			description = excluded.description,
			updated_at = excluded.updated_at`,
		name, encoded, salt, credType, description, now, now,
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (string, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT encrypted_value FROM credentials WHERE name = ?`, name,
	).Scan(&encoded)
	if err != nil {
		return "", err
	}
	return Decrypt(encoded, s.passphrase)
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, description, created_at, updated_at FROM credentials ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var description sql.NullString
		if err := rows.Scan(&r.Name, &r.Type, &description, &r.CreatedAt, &r.UpdatedAt); err != nil {
			continue
		}
		r.Description = description.String
		out = append(out, r)
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE name = ?`, name)
	return err
}
