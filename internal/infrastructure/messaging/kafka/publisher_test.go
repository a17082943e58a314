package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
)

type fakeWriter struct {
	err     error
	lastMsg kafka.Message
	calls   int
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.lastMsg = msgs[0]
	return nil
}
func (f *fakeWriter) Close() error { return nil }

func TestPublishMirrorFailure_SendsEnvelopeOnTopic(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w, "irae.mirror-reconcile", logging.NewNop())

	err := p.PublishMirrorFailure(context.Background(), ingredient.IngredientRecord{CanonicalName: "glycerin"}, errors.New("minio unreachable"))
	require.NoError(t, err)

	assert.Equal(t, "irae.mirror-reconcile", w.lastMsg.Topic)
	assert.Equal(t, "glycerin", string(w.lastMsg.Key))

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(w.lastMsg.Value, &env))
	assert.Equal(t, EventTypeMirrorWriteFailed, env.EventType)

	payload, err := DecodeMirrorWriteFailed(env)
	require.NoError(t, err)
	assert.Equal(t, "glycerin", payload.CanonicalName)
	assert.Equal(t, "minio unreachable", payload.Error)
}

func TestPublishMirrorFailure_PropagatesWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unreachable")}
	p := NewPublisherWithWriter(w, "irae.mirror-reconcile", logging.NewNop())

	err := p.PublishMirrorFailure(context.Background(), ingredient.IngredientRecord{CanonicalName: "water"}, errors.New("x"))
	require.Error(t, err)
}
