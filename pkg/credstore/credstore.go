package credstore

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gtank/cryptopasta"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var bktTokens = []byte("tokens")

var (
	keyAccessToken  = []byte("access_token")
	keyRefreshToken = []byte("refresh_token")
)

// Store persists the token pair between runs. Tokens are opaque strings:
// nothing here inspects or validates them.
type Store interface {
	SetTokens(accessToken, refreshToken string) error
	SetAccessToken(accessToken string) error
	AccessToken() string
	RefreshToken() string
	Clear() error
}

// BoltStore keeps the token pair in a local bbolt file, encrypted at rest.
type BoltStore struct {
	db        *bolt.DB
	secret    *[32]byte
	closeFunc func() error
}

func NewBoltStore(path, secret string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening credential store")
	}
	key := &[32]byte{}
	copy(key[:], secret)
	return &BoltStore{
		db:        db,
		secret:    key,
		closeFunc: db.Close,
	}, nil
}

// NewTempStore creates a store backed by a throwaway file. The file is
// removed on Close.
func NewTempStore() (*BoltStore, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("fraud-dashboard-%s.db", uuid.New().String()))
	store, err := NewBoltStore(path, uuid.New().String())
	if err != nil {
		return nil, err
	}
	originalCloseFunc := store.closeFunc
	store.closeFunc = func() error {
		if err := originalCloseFunc(); err != nil {
			return err
		}
		return os.Remove(path)
	}
	return store, nil
}

func (s *BoltStore) Close() error {
	return s.closeFunc()
}

func (s *BoltStore) SetTokens(accessToken, refreshToken string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktTokens)
		if err != nil {
			return err
		}
		if err := s.put(b, keyAccessToken, accessToken); err != nil {
			return err
		}
		return s.put(b, keyRefreshToken, refreshToken)
	})
}

// SetAccessToken overwrites only the access token. The refresh token is
// reused until it expires itself.
func (s *BoltStore) SetAccessToken(accessToken string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktTokens)
		if err != nil {
			return err
		}
		return s.put(b, keyAccessToken, accessToken)
	})
}

// AccessToken returns the stored access token or "" when absent.
// Storage or decryption failures degrade to absent.
func (s *BoltStore) AccessToken() string {
	return s.get(keyAccessToken)
}

func (s *BoltStore) RefreshToken() string {
	return s.get(keyRefreshToken)
}

// Clear removes both tokens. Safe to call when the store is already empty.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktTokens)
		if b == nil {
			return nil
		}
		if err := b.Delete(keyAccessToken); err != nil {
			return err
		}
		return b.Delete(keyRefreshToken)
	})
}

func (s *BoltStore) put(b *bolt.Bucket, key []byte, token string) error {
	encrypted, err := cryptopasta.Encrypt([]byte(token), s.secret)
	if err != nil {
		return errors.Wrap(err, "encrypting token")
	}
	return b.Put(key, []byte(base64.StdEncoding.EncodeToString(encrypted)))
}

func (s *BoltStore) get(key []byte) string {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktTokens)
		if b == nil {
			return nil
		}
		raw := b.Get(key)
		if raw == nil {
			return nil
		}
		decoded, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return errors.Wrap(err, "decoding token")
		}
		decrypted, err := cryptopasta.Decrypt(decoded, s.secret)
		if err != nil {
			return errors.Wrap(err, "decrypting token")
		}
		token = string(decrypted)
		return nil
	})
	if err != nil {
		return ""
	}
	return token
}

// Noop is a Store for environments without persistent storage.
// Writes are discarded and reads always report absent tokens.
type Noop struct{}

func (Noop) SetTokens(accessToken, refreshToken string) error { return nil }
func (Noop) SetAccessToken(accessToken string) error          { return nil }
func (Noop) AccessToken() string                              { return "" }
func (Noop) RefreshToken() string                             { return "" }
func (Noop) Clear() error                                     { return nil }
