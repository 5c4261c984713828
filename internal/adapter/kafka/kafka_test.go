package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	loadedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := domain.Record{
		Entity: "Brazil",
		Year:   2010,
		Values: map[string]float64{"coverage": 42.5},
	}

	msg, err := serializeToMessage("marine-protected-areas", loadedAt, record)
	require.NoError(t, err)

	assert.Equal(t, []byte("marine-protected-areas"), msg.Key)
	assert.JSONEq(t,
		`{"dataset":"marine-protected-areas","entity":"Brazil","year":2010,"values":{"coverage":42.5}}`,
		string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "dataset", msg.Headers[0].Key)
	assert.Equal(t, []byte("marine-protected-areas"), msg.Headers[0].Value)
	assert.Equal(t, "loaded_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(loadedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}
