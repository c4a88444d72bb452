// Package archive exports collection snapshots as compressed, optionally
// encrypted JSON objects.
//
// An export is one JSON document, zstd-compressed and, when recipients are
// configured, age-encrypted. Objects are keyed by collection, UTC date and
// a BLAKE3 digest of the plaintext, so exporting an unchanged snapshot twice
// on the same day overwrites the same object.
package archive

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const (
	contentTypePlain     = "application/zstd"
	contentTypeEncrypted = "application/age-encryption"

	digestPrefixLen = 16
)

var (
	ErrEmptyCollection = errors.New("archive: empty collection name")
	ErrNoIdentity      = errors.New("archive: object is encrypted but no identity was given")
)

// Sink stores exported objects.
type Sink interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Result describes one stored export.
type Result struct {
	Key       string
	Digest    string
	Size      int
	Encrypted bool
}

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return encoder, decoder, codecErr
}

type Exporter struct {
	sink       Sink
	recipients []age.Recipient
	now        func() time.Time
}

type Option func(*Exporter)

// WithRecipients encrypts every export to the given recipients.
func WithRecipients(r ...age.Recipient) Option {
	return func(e *Exporter) { e.recipients = append(e.recipients, r...) }
}

func WithNow(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func NewExporter(sink Sink, opts ...Option) *Exporter {
	e := &Exporter{sink: sink, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ParseRecipients parses age X25519 public keys ("age1...").
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	out := make([]age.Recipient, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		r, err := age.ParseX25519Recipient(k)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient %q: %w", k, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Export serializes snapshot and hands it to the sink.
func (e *Exporter) Export(ctx context.Context, collection string, snapshot any) (Result, error) {
	if strings.TrimSpace(collection) == "" {
		return Result{}, ErrEmptyCollection
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return Result{}, fmt.Errorf("encoding %s snapshot: %w", collection, err)
	}

	sum := blake3.Sum256(raw)
	digest := hex.EncodeToString(sum[:])

	enc, _, err := codecs()
	if err != nil {
		return Result{}, fmt.Errorf("zstd init: %w", err)
	}
	body := enc.EncodeAll(raw, nil)

	contentType := contentTypePlain
	encrypted := len(e.recipients) > 0
	if encrypted {
		body, err = seal(body, e.recipients)
		if err != nil {
			return Result{}, err
		}
		contentType = contentTypeEncrypted
	}

	key := objectKey(collection, e.now(), digest, encrypted)
	if err := e.sink.Put(ctx, key, body, contentType); err != nil {
		return Result{}, fmt.Errorf("storing %s: %w", key, err)
	}

	return Result{Key: key, Digest: digest, Size: len(body), Encrypted: encrypted}, nil
}

func objectKey(collection string, at time.Time, digest string, encrypted bool) string {
	key := fmt.Sprintf("%s/%s/%s.json.zst", collection, at.UTC().Format("2006-01-02"), digest[:digestPrefixLen])
	if encrypted {
		key += ".age"
	}
	return key
}

func seal(plain []byte, recipients []age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return nil, fmt.Errorf("encrypting export: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Export and returns the JSON document. Identities are
// required when the object was encrypted.
func Decode(body []byte, encrypted bool, identities ...age.Identity) ([]byte, error) {
	if encrypted {
		if len(identities) == 0 {
			return nil, ErrNoIdentity
		}
		r, err := age.Decrypt(bytes.NewReader(body), identities...)
		if err != nil {
			return nil, fmt.Errorf("decrypting export: %w", err)
		}
		body, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading decrypted export: %w", err)
		}
	}

	_, dec, err := codecs()
	if err != nil {
		return nil, fmt.Errorf("zstd init: %w", err)
	}
	raw, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing export: %w", err)
	}
	return raw, nil
}
