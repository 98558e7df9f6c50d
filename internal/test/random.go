package test

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/polkiloo/withdrawals/internal/domain/model"
)

const asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomASCIIString returns a string of length in [minLen, maxLen].
func RandomASCIIString(minLen, maxLen int) string {
	minLen = max(minLen, 1)
	maxLen = max(maxLen, minLen)
	length := minLen + randomIntn(maxLen-minLen+1)
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = asciiLetters[randomIntn(len(asciiLetters))]
	}
	return string(buf)
}

// RandomSourcePool builds n source transactions for requesterID with amounts
// in [1, maxAmount], a random share of each already spent, and earn dates
// spread over n days. Some dates repeat so ties by id are exercised.
func RandomSourcePool(requesterID string, n int, maxAmount int64) []model.SourceTransaction {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	maxAmount = max(maxAmount, 1)
	out := make([]model.SourceTransaction, 0, n)
	for i := range n {
		total := 1 + randomInt63n(maxAmount)
		out = append(out, model.SourceTransaction{
			ID:            fmt.Sprintf("%s-src-%03d", requesterID, i),
			RequesterID:   requesterID,
			TotalAmount:   total,
			UnspentAmount: total - randomInt63n(total+1),
			EarnedAt:      base.Add(time.Duration(randomIntn(n)) * 24 * time.Hour),
		})
	}
	return out
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}

func randomInt63n(n int64) int64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Int63n(n)
}
