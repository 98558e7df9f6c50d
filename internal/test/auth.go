package test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	pkgAuth "github.com/polkiloo/withdrawals/internal/pkg/auth"
)

// StrategyStub parses tokens via function override.
type StrategyStub struct {
	ParseFn func(string) (model.Caller, error)
}

// ParseToken returns the default user caller unless overridden.
func (s StrategyStub) ParseToken(token string) (model.Caller, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return model.Caller{ID: "u1", Role: model.RoleUser}, nil
}

// MintToken signs a caller token the way the identity provider does.
func MintToken(secret string, caller model.Caller, expires time.Time) string {
	payload := fmt.Sprintf("%s:%s:%d", caller.ID, caller.Role, expires.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return base64.StdEncoding.EncodeToString([]byte(payload + ":" + sig))
}

// TokenParserStub implements middleware token parsing contract.
type TokenParserStub struct {
	Caller  model.Caller
	Err     error
	ParseFn func(string) (model.Caller, error)
}

// ParseToken either delegates to override or returns predefined result.
func (s TokenParserStub) ParseToken(token string) (model.Caller, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	if s.Err != nil {
		return model.Caller{}, s.Err
	}
	return s.Caller, nil
}

var _ pkgAuth.Strategy = StrategyStub{}
