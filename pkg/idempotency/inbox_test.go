package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyDeterministic(t *testing.T) {
	ts := time.Date(2025, 3, 1, 9, 14, 22, 0, time.UTC)

	k1 := GenerateKey("o-77", "morph-10", "lot-9", ts)
	k2 := GenerateKey("o-77", "morph-10", "lot-9", ts.Add(30*time.Second))

	assert.Equal(t, k1, k2, "timestamps within the same minute produce the same key")
	assert.Len(t, k1, 64)
}

func TestGenerateKeyDistinguishesComponents(t *testing.T) {
	ts := time.Date(2025, 3, 1, 9, 14, 0, 0, time.UTC)
	base := GenerateKey("o-77", "morph-10", "lot-9", ts)

	assert.NotEqual(t, base, GenerateKey("o-78", "morph-10", "lot-9", ts))
	assert.NotEqual(t, base, GenerateKey("o-77", "petha-25", "lot-9", ts))
	assert.NotEqual(t, base, GenerateKey("o-77", "morph-10", "lot-10", ts))
	assert.NotEqual(t, base, GenerateKey("o-77", "morph-10", "lot-9", ts.Add(2*time.Minute)))
}

func TestIsTerminalError(t *testing.T) {
	assert.True(t, isTerminalError(errMsg("invalid register entry payload")))
	assert.True(t, isTerminalError(errMsg("json: cannot unmarshal string")))
	assert.False(t, isTerminalError(errMsg("connection timed out")))
}

type errMsg string

func (e errMsg) Error() string { return string(e) }
