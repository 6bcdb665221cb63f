//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"duo-chat/domain"
)

type IMessageRepository interface {
	Create(sender, recipient, text, attachmentRef, lang string) (domain.Message, error)
	Conversation(a, b string) ([]domain.Message, error)
	Search(ctx context.Context, participant, query string, limit int) ([]SearchHit, error)
}

// SearchHit is one full-text match from the Bluge index.
type SearchHit struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

type MessageRepository struct {
	db            *badger.DB
	index         *bluge.Writer
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, index: index, log: log, limitMessages: limitMessages}
}

// ConversationKey joins the two participant ids in lexicographic order so
// both directions of a conversation share one key prefix.
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Create persists a message in BadgerDB and returns it with its assigned id.
// The key is formatted as "msg:{conversation}:{timestamp_padded}:{uuid}" to:
//  1. Group both directions of a conversation under one prefix.
//  2. Ensure chronological sorting using 19-digit zero padding.
//  3. Use the UUID as a collision disconnector if two messages arrive at
//     the same nanosecond.
func (m MessageRepository) Create(sender, recipient, text, attachmentRef, lang string) (domain.Message, error) {
	message := domain.Message{
		ID:            uuid.New(),
		Sender:        sender,
		Recipient:     recipient,
		Text:          text,
		AttachmentRef: attachmentRef,
		Lang:          lang,
		At:            time.Now().UTC(),
	}

	key := fmt.Sprintf("msg:%s:%019d:%s",
		ConversationKey(sender, recipient),
		message.At.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}

	// Indexing is secondary to durability: a failed index update loses a
	// search hit, not the message.
	if err := m.indexMessage(message); err != nil {
		m.log.Warn("Failed to index message", "id", message.ID, "err", err)
	}
	return message, nil
}

// Conversation retrieves the messages exchanged between two users in
// chronological order. Thanks to the padded timestamp in the key, a plain
// prefix scan comes back already sorted; when a limit is configured, only
// the most recent messages are kept.
func (m MessageRepository) Conversation(a, b string) ([]domain.Message, error) {
	var messages []domain.Message
	prefix := []byte(fmt.Sprintf("msg:%s:", ConversationKey(a, b)))

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var message domain.Message
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.limitMessages != nil && len(messages) > *m.limitMessages {
		m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
		messages = messages[len(messages)-*m.limitMessages:]
	}
	return messages, nil
}

// Search runs a full-text match over the message index, restricted to
// conversations the participant takes part in.
func (m MessageRepository) Search(ctx context.Context, participant, query string, limit int) ([]SearchHit, error) {
	reader, err := m.index.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("text")).
		AddShould(bluge.NewTermQuery(participant).SetField("sender")).
		AddShould(bluge.NewTermQuery(participant).SetField("recipient")).
		SetMinShould(1)

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for match, err := iterator.Next(); match != nil; match, err = iterator.Next() {
		if err != nil {
			return nil, err
		}
		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case "sender":
				hit.Sender = string(value)
			case "recipient":
				hit.Recipient = string(value)
			case "text":
				hit.Text = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (m MessageRepository) indexMessage(message domain.Message) error {
	if strings.TrimSpace(message.Text) == "" {
		return nil
	}
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("sender", message.Sender).StoreValue()).
		AddField(bluge.NewKeywordField("recipient", message.Recipient).StoreValue()).
		AddField(bluge.NewTextField("text", message.Text).StoreValue())
	return m.index.Update(doc.ID(), doc)
}
