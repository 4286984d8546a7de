package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMakeVerifyToken(t *testing.T) {
	gen := tokenGenerator{secretKey: []byte("secret"), timeout: 3 * 24 * time.Hour, nowFunc: time.Now}

	now := time.Now().UTC()
	acc := Account{ID: "4f1c2b8e-5d6a-4e3f-9b0c-1a2d3e4f5a6b", Name: "T", Email: "t@test.test", CreatedAt: now, UpdatedAt: now, LastLogin: now}
	_ = acc.SetPassword("pwd")

	validToken, _ := gen.makeToken(acc)

	// generate an expired token
	dayLate := gen.timeout + (24 * time.Hour)
	late := gen
	late.nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, _ := late.makeToken(acc)

	loggedIn := acc
	loggedIn.LastLogin = now.Add(time.Minute)

	tests := []struct {
		name    string
		acc     Account
		token   string
		wantErr error
	}{
		{name: "no token", acc: acc, wantErr: errInvalidToken},
		{name: "invalid parts len", acc: acc, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", acc: acc, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", acc: acc, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", acc: acc, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", acc: acc, token: expiredToken, wantErr: errTokenExpired},
		{name: "used token", acc: loggedIn, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", acc: acc, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, gen.verifyToken(tt.acc, tt.token))
		})
	}

	t.Run("clock past timeout", func(t *testing.T) {
		later := gen
		later.nowFunc = func() time.Time { return time.Now().Add(dayLate) }
		assert.Equal(t, errTokenExpired, later.verifyToken(acc, validToken))
	})
}

func TestEncodeUID(t *testing.T) {
	acc := Account{ID: "4f1c2b8e-5d6a-4e3f-9b0c-1a2d3e4f5a6b"}
	id, err := decodeUID(EncodeUID(acc))
	assert.NoError(t, err)
	assert.Equal(t, acc.ID, id)

	_, err = decodeUID("not base64!")
	assert.Error(t, err)
}
