package lark

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct {
	receiveIDType string
	receiveID     string
	msgType       string
	content       string
}

type fakeMessages struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]error
}

func (f *fakeMessages) CreateMessage(_ context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{receiveIDType, receiveID, msgType, content})
	if err, ok := f.fail[receiveID]; ok {
		return "", err
	}
	return "om_" + receiveID, nil
}

func TestSender_FansOutPerRecipient(t *testing.T) {
	fake := &fakeMessages{}
	sender := NewSender(fake, 2, zap.NewNop())

	msg := notification.Generate(notification.EventApprovalRequired, map[string]interface{}{
		"workflowType": "claims",
		"amount":       2500000.0,
		"recipients":   []string{"a@broker.ng", "ou_123", "b@broker.ng"},
	})

	result, err := sender.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.MessageIDs, 3)
	assert.Empty(t, result.FailedTo)

	require.Len(t, fake.calls, 3)
	types := map[string]string{}
	for _, c := range fake.calls {
		types[c.receiveID] = c.receiveIDType
		assert.Equal(t, "post", c.msgType)
	}
	assert.Equal(t, "email", types["a@broker.ng"])
	assert.Equal(t, "open_id", types["ou_123"])
}

func TestSender_PartialFailure(t *testing.T) {
	fake := &fakeMessages{fail: map[string]error{"b@broker.ng": errors.New("user not found")}}
	sender := NewSender(fake, 0, zap.NewNop())

	result, err := sender.Send(context.Background(), notification.Template{
		Event:      notification.EventClaimUpdate,
		Subject:    "Claim Update",
		Template:   "body",
		Recipients: []string{"a@broker.ng", "b@broker.ng"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{"b@broker.ng"}, result.FailedTo)
	assert.Contains(t, result.ErrorMessage, "user not found")
	assert.Len(t, fake.calls, 2, "a failed recipient does not stop the others")
}

func TestSender_NoRecipients(t *testing.T) {
	sender := NewSender(&fakeMessages{}, 1, zap.NewNop())

	_, err := sender.Send(context.Background(), notification.Template{Event: notification.EventClaimUpdate})
	assert.Error(t, err)
}

func TestPostContent(t *testing.T) {
	content, err := postContent(notification.Template{
		Subject:  "Compliance Alert: AML",
		Template: "line one\nline \"two\"",
		Priority: notification.PriorityUrgent,
	})
	require.NoError(t, err)

	var decoded map[string]post
	require.NoError(t, json.Unmarshal([]byte(content), &decoded))

	p := decoded["en_us"]
	assert.Equal(t, "[URGENT] Compliance Alert: AML", p.Title)
	require.Len(t, p.Content, 2)
	assert.Equal(t, "line one", p.Content[0][0].Text)
	assert.Equal(t, `line "two"`, p.Content[1][0].Text)
}
