package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	receiveIDTypeEmail  = "email"
	receiveIDTypeOpenID = "open_id"
	openIDPrefix        = "ou_"

	defaultConcurrency = 4
)

// Sender delivers email-channel notifications as Lark rich-text posts,
// one message per recipient.
type Sender struct {
	messages    MessageCreator
	concurrency int
	logger      *zap.Logger
}

// NewSender creates a Lark notification sender. concurrency bounds parallel sends per notification.
func NewSender(messages MessageCreator, concurrency int, logger *zap.Logger) *Sender {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Sender{
		messages:    messages,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Send posts msg to every recipient. One failed recipient does not stop the others;
// the result lists who was missed.
func (s *Sender) Send(ctx context.Context, msg notification.Template) (*entity.DeliveryResult, error) {
	if len(msg.Recipients) == 0 {
		return nil, fmt.Errorf("no recipients for %s", msg.Event)
	}

	content, err := postContent(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to build message content: %w", err)
	}

	var (
		mu       sync.Mutex
		ids      = make([]string, 0, len(msg.Recipients))
		failedTo = make([]string, 0)
		errs     = make([]string, 0)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, recipient := range msg.Recipients {
		g.Go(func() error {
			id, err := s.messages.CreateMessage(gctx, receiveIDType(recipient), recipient, "post", content)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failedTo = append(failedTo, recipient)
				errs = append(errs, fmt.Sprintf("%s: %v", recipient, err))
				return nil
			}
			ids = append(ids, id)
			return nil
		})
	}
	_ = g.Wait()

	result := &entity.DeliveryResult{
		Success:    len(failedTo) == 0,
		MessageIDs: ids,
		FailedTo:   failedTo,
	}
	if len(errs) > 0 {
		result.ErrorMessage = strings.Join(errs, "; ")
	}

	s.logger.Info("Lark notification delivered",
		zap.String("event", msg.Event.String()),
		zap.Int("sent", len(ids)),
		zap.Int("failed", len(failedTo)))

	return result, nil
}

func receiveIDType(recipient string) string {
	if strings.HasPrefix(recipient, openIDPrefix) {
		return receiveIDTypeOpenID
	}
	return receiveIDTypeEmail
}

type postElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

type post struct {
	Title   string          `json:"title"`
	Content [][]postElement `json:"content"`
}

// postContent renders a template as the JSON body of a Lark "post" message
func postContent(msg notification.Template) (string, error) {
	title := msg.Subject
	if msg.Priority == notification.PriorityUrgent {
		title = "[URGENT] " + title
	}

	lines := strings.Split(msg.Template, "\n")
	paragraphs := make([][]postElement, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, []postElement{{Tag: "text", Text: line}})
	}

	b, err := json.Marshal(map[string]post{
		"en_us": {Title: title, Content: paragraphs},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ port.NotificationSender = (*Sender)(nil)
