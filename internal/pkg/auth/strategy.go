package auth

import "github.com/polkiloo/withdrawals/internal/domain/model"

// Strategy verifies bearer tokens carrying the caller identity. Tokens are
// issued by the identity provider that shares the secret.
type Strategy interface {
	ParseToken(token string) (model.Caller, error)
}
