package main

import (
	"devconnect/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

const previewLength = 40

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB, the BADGER_FILEPATH of the server")
	prefix := flag.String("prefix", repositories.MessagePrefix, "Prefix to scan (msg: or ntf:id:)")
	flag.Parse()

	var render func(key string, value []byte) ([]string, error)
	var header []string
	switch {
	case strings.HasPrefix(*prefix, repositories.MessagePrefix):
		header = []string{"Key", "Seq", "Timestamp", "Sender", "Receiver", "Body"}
		render = messageRow
	case strings.HasPrefix(*prefix, repositories.NotificationPrefix):
		header = []string{"Key", "Target", "Kind", "Read", "Created", "Payload"}
		render = notificationRow
	default:
		log.Fatalf("Unsupported prefix %q, use %s or %s", *prefix,
			repositories.MessagePrefix, repositories.NotificationPrefix)
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				row, err := render(key, v)
				if err != nil {
					// A bad record should not hide the rest of the scan
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				table.Append(row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
}

func messageRow(key string, value []byte) ([]string, error) {
	message, err := repositories.DecodeMessage(value)
	if err != nil {
		return nil, err
	}
	return []string{
		key,
		strconv.FormatUint(message.Seq, 10),
		message.CreatedAt.Format("2006-01-02 15:04:05.000"),
		message.Sender.String(),
		message.Receiver.String(),
		truncate(message.Body),
	}, nil
}

func notificationRow(key string, value []byte) ([]string, error) {
	notification, err := repositories.DecodeNotification(value)
	if err != nil {
		return nil, err
	}
	return []string{
		key,
		notification.Target.String(),
		string(notification.Kind),
		strconv.FormatBool(notification.Read),
		notification.CreatedAt.Format("2006-01-02 15:04:05"),
		truncate(fmt.Sprint(notification.Payload)),
	}, nil
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLength {
		return s
	}
	return string(runes[:previewLength]) + "…"
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
