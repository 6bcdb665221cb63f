//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"duo-chat/contract"
	"duo-chat/domain"
	"duo-chat/moderation"
	"duo-chat/observability"
	"duo-chat/repositories"
)

type IChatService interface {
	HandleInbound(conn *domain.Connection, raw []byte)
	Conversation(a, b string) ([]domain.Message, error)
	Search(ctx context.Context, participant, query string, limit int) ([]repositories.SearchHit, error)
}

// ChatService is the message router. It validates inbound chat frames,
// persists them through the message repository, stores attachments through
// the blob store and fans the result out to the recipient's live
// connections. Everything is best-effort and at-most-once; a failure is
// scoped to the frame that caused it and never terminates the connection,
// let alone the process.
type ChatService struct {
	log      *slog.Logger
	registry contract.IRegistry
	messages repositories.IMessageRepository
	blobs    contract.IBlobStore
	censor   *moderation.Censor
	monitor  *observability.Monitor
	validate *validator.Validate
}

func NewChatService(
	log *slog.Logger,
	registry contract.IRegistry,
	messages repositories.IMessageRepository,
	blobs contract.IBlobStore,
	censor *moderation.Censor,
	monitor *observability.Monitor,
) *ChatService {
	return &ChatService{
		log:      log,
		registry: registry,
		messages: messages,
		blobs:    blobs,
		censor:   censor,
		monitor:  monitor,
		validate: validator.New(),
	}
}

// HandleInbound processes one chat frame from a live connection.
// The sender identity always comes from the connection, never from the
// payload. Frames are processed sequentially per connection, so a single
// sender/recipient pair keeps arrival order.
func (s *ChatService) HandleInbound(conn *domain.Connection, raw []byte) {
	var frame domain.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		// Protocol error: drop the frame, keep the connection.
		s.log.Warn("Dropping malformed frame", "connection", conn.ID, "err", err)
		s.monitor.IncrMalformedFrames()
		return
	}

	if err := s.validate.Struct(frame); err != nil || !frame.HasContent() {
		// Best-effort semantics: an empty or incomplete frame is silently
		// ignored, no response goes back to the sender.
		s.log.Debug("Ignoring frame without routable content", "connection", conn.ID)
		return
	}

	attachmentRef, ok := s.storeAttachment(conn, frame)
	if !ok {
		s.reportFailure(conn, frame.Recipient)
		return
	}

	message, err := s.messages.Create(
		conn.UserID,
		frame.Recipient,
		frame.Text,
		attachmentRef,
		moderation.DetectLanguage(frame.Text),
	)
	if err != nil {
		s.log.Error("Failed to persist message", "connection", conn.ID, "err", err)
		s.reportFailure(conn, frame.Recipient)
		return
	}

	s.deliver(conn, message)
	s.monitor.IncrMessagesRouted()
}

// deliver pushes the payload to every live connection of the recipient,
// excluding the submitting connection itself: the sender already holds
// local optimistic state. Enqueueing never blocks, so one slow recipient
// cannot stall delivery to the others.
func (s *ChatService) deliver(from *domain.Connection, message domain.Message) {
	text := message.Text
	if text != "" {
		if censored, changed := s.censor.Apply(text); changed {
			s.log.Debug("Outbound text censored", "message", message.ID)
			text = censored
		}
	}

	var attachmentRef *string
	if message.AttachmentRef != "" {
		attachmentRef = &message.AttachmentRef
	}
	payload, err := json.Marshal(domain.DeliveryFrame{
		Text:          text,
		Sender:        message.Sender,
		Recipient:     message.Recipient,
		AttachmentRef: attachmentRef,
		ID:            message.ID.String(),
	})
	if err != nil {
		s.log.Error("Failed to encode delivery frame", "message", message.ID, "err", err)
		return
	}

	for _, conn := range s.registry.ByUser(message.Recipient) {
		if conn.ID == from.ID {
			continue
		}
		if !conn.Transport.Push(payload) {
			s.log.Debug("Delivery frame dropped", "connection", conn.ID)
			s.monitor.IncrDroppedFrames()
		}
	}
}

// storeAttachment hands the decoded attachment bytes to the blob store and
// returns the stored reference. The empty reference with ok=true means the
// frame simply carried no attachment.
func (s *ChatService) storeAttachment(conn *domain.Connection, frame domain.InboundFrame) (string, bool) {
	if frame.Attachment == nil {
		return "", true
	}

	data := frame.Attachment.Data
	// Browsers submit data-URLs; everything before the comma is header.
	if idx := strings.IndexByte(data, ','); idx >= 0 {
		data = data[idx+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		s.log.Warn("Dropping frame with undecodable attachment", "connection", conn.ID, "err", err)
		s.monitor.IncrMalformedFrames()
		return "", false
	}

	ref, err := s.blobs.Save(frame.Attachment.Name, decoded)
	if err != nil {
		s.log.Error("Failed to store attachment", "connection", conn.ID, "err", err)
		return "", false
	}
	return ref, true
}

// reportFailure tells the submitting connection that its message was
// neither persisted nor delivered, instead of losing it silently.
func (s *ChatService) reportFailure(conn *domain.Connection, recipient string) {
	payload, err := json.Marshal(domain.FailureFrame{
		Error:     "delivery failed",
		Recipient: recipient,
	})
	if err != nil {
		return
	}
	if !conn.Transport.Push(payload) {
		s.monitor.IncrDroppedFrames()
	}
}

func (s *ChatService) Conversation(a, b string) ([]domain.Message, error) {
	return s.messages.Conversation(a, b)
}

func (s *ChatService) Search(ctx context.Context, participant, query string, limit int) ([]repositories.SearchHit, error) {
	return s.messages.Search(ctx, participant, query, limit)
}
