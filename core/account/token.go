package account

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	salt = []byte("homeschool.core.account.token")

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// tokenGenerator makes single-use password reset tokens: any password change or login invalidates them.
type tokenGenerator struct {
	secretKey []byte
	timeout   time.Duration
	nowFunc   func() time.Time // mockable
}

// EncodeUID base64 encodes the Account ID
func EncodeUID(acc Account) string {
	return base64.RawURLEncoding.EncodeToString([]byte(acc.ID))
}

func decodeUID(uid string) (string, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(idBytes), nil
}

func (gen tokenGenerator) makeToken(acc Account) (string, error) {
	return gen.makeTokenWithTimestamp(acc, numDaysSince2001(gen.nowFunc()))
}

func (gen tokenGenerator) verifyToken(acc Account, token string) error {
	if token == "" {
		return errInvalidToken
	}

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}
	data, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	newToken, err := gen.makeTokenWithTimestamp(acc, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(token)) == 0 {
		return errInvalidToken
	}

	if (numDaysSince2001(gen.nowFunc()) - ts) > int(gen.timeout/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func (gen tokenGenerator) makeTokenWithTimestamp(acc Account, ts int) (string, error) {
	tsB32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(strconv.Itoa(ts)))
	sig, err := gen.sign(hashValue(acc, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsB32, sig), nil
}

func (gen tokenGenerator) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(salt, gen.secretKey...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func hashValue(acc Account, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(acc.ID)
	val.Write(acc.PasswordHash)
	if !acc.LastLogin.IsZero() {
		val.WriteString(acc.LastLogin.UTC().Format(time.RFC3339Nano))
	}
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
