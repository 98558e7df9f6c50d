package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/polkiloo/withdrawals/internal/domain/model"
)

var reviewer = model.Caller{ID: "admin-1", Role: model.RoleAdmin}

func signed(s *HMACStrategy, payload string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", payload, s.sign(payload))))
}

func tokenFor(s *HMACStrategy, caller model.Caller, expires time.Time) string {
	return signed(s, fmt.Sprintf("%s:%s:%d", caller.ID, caller.Role, expires.Unix()))
}

func TestNewHMACStrategy(t *testing.T) {
	strategy := NewHMACStrategy("secret")
	if string(strategy.secret) != "secret" {
		t.Fatalf("unexpected secret: %q", string(strategy.secret))
	}
	if strategy.now == nil {
		t.Fatal("expected clock")
	}
}

func TestHMACStrategy_Parse(t *testing.T) {
	strategy := NewHMACStrategy("secret")
	for _, caller := range []model.Caller{reviewer, {ID: "u-42", Role: model.RoleUser}} {
		got, err := strategy.ParseToken(tokenFor(strategy, caller, time.Now().Add(time.Minute)))
		if err != nil {
			t.Fatalf("parse token: %v", err)
		}
		if got != caller {
			t.Fatalf("unexpected caller: %+v", got)
		}
	}
}

func TestHMACStrategy_ParseUsesClock(t *testing.T) {
	strategy := NewHMACStrategy("secret")
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	token := tokenFor(strategy, reviewer, issued.Add(time.Hour))

	strategy.now = func() time.Time { return issued.Add(30 * time.Minute) }
	if _, err := strategy.ParseToken(token); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}
	strategy.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := strategy.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestHMACStrategy_ParseInvalidBase64(t *testing.T) {
	strategy := NewHMACStrategy("secret")
	if _, err := strategy.ParseToken("not-base64"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACStrategy_ParseInvalidParts(t *testing.T) {
	strategy := NewHMACStrategy("secret")
	token := base64.StdEncoding.EncodeToString([]byte("only:two"))
	if _, err := strategy.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACStrategy_ParseInvalidSignature(t *testing.T) {
	strategy := NewHMACStrategy("secret")
	token := tokenFor(strategy, reviewer, time.Now().Add(time.Minute))
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 4 {
		t.Fatalf("unexpected parts count: %d", len(parts))
	}
	parts[3] = "tampered"
	tamperedToken := base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, ":")))
	if _, err := strategy.ParseToken(tamperedToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	other := NewHMACStrategy("other-secret")
	if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token from another secret to be rejected, got %v", err)
	}
}

func TestHMACStrategy_ParseRoleEscalation(t *testing.T) {
	strategy := NewHMACStrategy("secret")
	token := tokenFor(strategy, model.Caller{ID: "u1", Role: model.RoleUser}, time.Now().Add(time.Minute))
	raw, _ := base64.StdEncoding.DecodeString(token)
	forged := strings.Replace(string(raw), ":user:", ":admin:", 1)
	if _, err := strategy.ParseToken(base64.StdEncoding.EncodeToString([]byte(forged))); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected forged role to be rejected, got %v", err)
	}
}

func TestHMACStrategy_ParseInvalidClaims(t *testing.T) {
	strategy := NewHMACStrategy("secret")
	future := time.Now().Add(time.Minute).Unix()
	for _, payload := range []string{
		fmt.Sprintf(":user:%d", future),
		fmt.Sprintf("u1:root:%d", future),
		"u1:user:not-a-number",
		fmt.Sprintf("u1:user:%d", time.Now().Add(-time.Minute).Unix()),
	} {
		if _, err := strategy.ParseToken(signed(strategy, payload)); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", payload, err)
		}
	}
}
