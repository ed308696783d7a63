package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	JobID string `json:"job_id"`
	Force bool   `json:"force"`
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[payload](json.RawMessage(`{"job_id":"a","force":true}`))
	require.NoError(t, err)
	assert.Equal(t, payload{JobID: "a", Force: true}, *p)

	p, err = ParsePayload[payload](map[string]interface{}{"job_id": "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", p.JobID)

	p, err = ParsePayload[payload](payload{JobID: "c"})
	require.NoError(t, err)
	assert.Equal(t, "c", p.JobID)

	_, err = ParsePayload[payload](42)
	assert.Error(t, err)
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad data")
	err := fmt.Errorf("train: %w", Permanent(base))
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
	assert.NoError(t, Permanent(nil))
}
