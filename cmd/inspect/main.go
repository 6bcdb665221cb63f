package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"

	"duo-chat/domain"
	"duo-chat/repositories"
)

// Operator tool: dumps persisted chat rows straight from BadgerDB.
// Opens the store read-only with BypassLockGuard so it works while the
// server holds the lock.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headerFor(*prefix))
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				row, err := rowFor(*prefix, string(item.Key()), v)
				if err != nil {
					// Log and keep scanning instead of stopping the dump.
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}
				table.Append(row)
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
	color.Green.Printf("\n%d rows under prefix %q\n", count, *prefix)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}

func headerFor(prefix string) []string {
	if prefix == "user:" {
		return []string{"ID", "Username", "Created At"}
	}
	return []string{"ID", "Conversation", "Sender", "Text", "Attachment", "Lang", "At"}
}

func rowFor(prefix, key string, value []byte) ([]string, error) {
	if prefix == "user:" {
		var user repositories.User
		if err := json.Unmarshal(value, &user); err != nil {
			return nil, err
		}
		return []string{user.ID, user.Username, user.CreatedAt.Format(time.RFC822)}, nil
	}

	var message domain.Message
	if err := json.Unmarshal(value, &message); err != nil {
		return nil, err
	}
	return []string{
		message.ID.String(),
		repositories.ConversationKey(message.Sender, message.Recipient),
		message.Sender,
		message.Text,
		message.AttachmentRef,
		message.Lang,
		message.At.Format(time.RFC822),
	}, nil
}
