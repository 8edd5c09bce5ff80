package tokenstore

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	errs "github.com/jrsteele09/go-auth-client/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// sealedMagic prefixes a sealed token file: magic | salt | nonce | box.
var sealedMagic = []byte("GACS1")

const (
	saltLen  = 16
	nonceLen = 24
	keyLen   = 32
)

// FileRepo keeps the tokens in a JSON file, the on-disk counterpart of a
// browser's local storage. Writes go through a temp file and a rename so a
// crash never leaves half a pair behind.
type FileRepo struct {
	mu         sync.Mutex
	path       string
	passphrase string
	closed     bool
}

var _ Repo = (*FileRepo)(nil)

// NewFileRepo stores tokens at path. A non-empty passphrase seals the file
// with secretbox under an argon2id derived key.
func NewFileRepo(path, passphrase string) *FileRepo {
	return &FileRepo{path: path, passphrase: passphrase}
}

func (f *FileRepo) Load(ctx context.Context) (Tokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Tokens{}, errs.ErrStoreClosed
	}

	data, err := os.ReadFile(f.path)
	if errs.Is(err, fs.ErrNotExist) {
		return Tokens{}, nil
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("read token file: %w", err)
	}

	if bytes.HasPrefix(data, sealedMagic) {
		if data, err = f.open(data); err != nil {
			return Tokens{}, err
		}
	}

	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return Tokens{}, fmt.Errorf("decode token file: %w", err)
	}
	return t, nil
}

func (f *FileRepo) Save(ctx context.Context, tokens Tokens) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errs.ErrStoreClosed
	}

	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	if f.passphrase != "" {
		if data, err = f.seal(data); err != nil {
			return err
		}
	}
	return f.writeAtomic(data)
}

func (f *FileRepo) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errs.ErrStoreClosed
	}
	if err := os.Remove(f.path); err != nil && !errs.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func (f *FileRepo) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileRepo) writeAtomic(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (f *FileRepo) deriveKey(salt []byte) *[keyLen]byte {
	var key [keyLen]byte
	copy(key[:], argon2.IDKey([]byte(f.passphrase), salt, 1, 64*1024, 4, keyLen))
	return &key
}

func (f *FileRepo) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(sealedMagic)+saltLen+nonceLen+len(plain)+secretbox.Overhead)
	out = append(out, sealedMagic...)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, f.deriveKey(salt)), nil
}

func (f *FileRepo) open(data []byte) ([]byte, error) {
	if f.passphrase == "" {
		return nil, errs.Wrapf(errs.ErrSealedStorage, "no passphrase configured")
	}
	data = data[len(sealedMagic):]
	if len(data) < saltLen+nonceLen+secretbox.Overhead {
		return nil, errs.Wrapf(errs.ErrSealedStorage, "truncated token file")
	}

	salt := data[:saltLen]
	var nonce [nonceLen]byte
	copy(nonce[:], data[saltLen:saltLen+nonceLen])

	plain, ok := secretbox.Open(nil, data[saltLen+nonceLen:], &nonce, f.deriveKey(salt))
	if !ok {
		return nil, errs.Wrapf(errs.ErrSealedStorage, "wrong passphrase or corrupt file")
	}
	return plain, nil
}
