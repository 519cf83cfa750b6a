package student

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	tokenSalt = []byte("nudge.core.student.unsubscribe")
	b32       = base32.StdEncoding.WithPadding(base32.NoPadding)

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenGenerator makes and checks the tokens of one-click unsubscribe links.
// A token is bound to the student's id and email, and expires after ttl.
type TokenGenerator struct {
	key [sha256.Size]byte
	ttl time.Duration
	now func() time.Time // mockable
}

func NewTokenGenerator(secretKey string, ttl time.Duration) *TokenGenerator {
	return &TokenGenerator{
		key: sha256.Sum256(append(append([]byte(nil), tokenSalt...), secretKey...)),
		ttl: ttl,
		now: time.Now,
	}
}

// EncodeUID base64 encodes the student's id for use in a URL.
func EncodeUID(s Student) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s.ID))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(id), nil
}

// Make returns a fresh token for s.
func (gen *TokenGenerator) Make(s Student) string {
	return gen.makeWithTimestamp(s, numDaysSince2001(gen.now()))
}

// Path returns "<uid>/<token>", the tail of the unsubscribe link of s.
func (gen *TokenGenerator) Path(s Student) string {
	return EncodeUID(s) + "/" + gen.Make(s)
}

// Verify checks that token was made for s and has not expired.
func (gen *TokenGenerator) Verify(s Student, token string) error {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return ErrInvalidToken
	}

	data, err := b32.DecodeString(parts[0])
	if err != nil {
		return ErrInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return ErrInvalidToken
	}

	// check that token has not been tampered with
	if subtle.ConstantTimeCompare([]byte(gen.makeWithTimestamp(s, ts)), []byte(token)) == 0 {
		return ErrInvalidToken
	}

	// check that the timestamp is within limit
	if numDaysSince2001(gen.now())-ts > int(gen.ttl/(24*time.Hour)) {
		return ErrTokenExpired
	}
	return nil
}

func (gen *TokenGenerator) makeWithTimestamp(s Student, ts int) string {
	tsB32 := b32.EncodeToString([]byte(strconv.Itoa(ts)))
	return fmt.Sprintf("%s-%s", tsB32, gen.sign(hashValue(s, ts)))
}

func (gen *TokenGenerator) sign(val []byte) string {
	h := hmac.New(sha256.New, gen.key[:])
	h.Write(val) // never fails
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func hashValue(s Student, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(s.ID)
	val.WriteString(s.Email)
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
