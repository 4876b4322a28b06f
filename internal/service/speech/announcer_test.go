package speech

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoshilog/backend/internal/eventbus"
)

func TestSpeakReplacesCurrentUtterance(t *testing.T) {
	bus := eventbus.NewSessionEventBus()
	var received []Utterance
	bus.Subscribe(eventbus.SessionEventSpeak, func(ctx context.Context, event eventbus.SessionEvent) error {
		received = append(received, event.Payload.(Utterance))
		return nil
	})
	a := NewAnnouncer(bus)

	first := a.Speak(context.Background(), "作業を開始します。安全第一でお願いします。")
	second := a.Speak(context.Background(), "よし！吸込バルブ確認OK。")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Zero(t, first.Cancels)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, first.Seq, second.Cancels)
	assert.Equal(t, Lang, second.Lang)

	require.Len(t, received, 2)
	assert.Equal(t, "よし！吸込バルブ確認OK。", received[1].Text)
	assert.Equal(t, "よし！吸込バルブ確認OK。", a.Current().Text)
}

func TestSpeakIgnoresEmptyText(t *testing.T) {
	a := NewAnnouncer(nil)
	assert.Nil(t, a.Speak(context.Background(), ""))
	assert.Nil(t, a.Current())
}
