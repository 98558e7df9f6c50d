package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/polkiloo/withdrawals/internal/domain/model"
)

var ErrInvalidToken = errors.New("invalid auth token")

// HMACStrategy verifies HMAC signed tokens.
// A token is base64("subject:role:expires:signature").
type HMACStrategy struct {
	secret []byte
	now    func() time.Time
}

func NewHMACStrategy(secret string) *HMACStrategy {
	return &HMACStrategy{secret: []byte(secret), now: time.Now}
}

// ParseToken validates token and returns the encoded caller.
func (s *HMACStrategy) ParseToken(token string) (model.Caller, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return model.Caller{}, ErrInvalidToken
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 4 {
		return model.Caller{}, ErrInvalidToken
	}

	payload := strings.Join(parts[:3], ":")
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[3])) {
		return model.Caller{}, ErrInvalidToken
	}

	caller := model.Caller{ID: parts[0], Role: model.Role(parts[1])}
	if caller.ID == "" || !caller.Role.Valid() {
		return model.Caller{}, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return model.Caller{}, ErrInvalidToken
	}
	if time.Unix(expires, 0).Before(s.now()) {
		return model.Caller{}, ErrInvalidToken
	}

	return caller, nil
}

func (s *HMACStrategy) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
