package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"baatchit/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./badger", "Path to badger DB")
	// Default to "msg:" to avoid tripping over msgid: and user: entries
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" baatchit store inspector "))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Time", "Chat ID", "From", "To", "Detail"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			// Skip the secondary id index explicitly
			if strings.HasPrefix(string(item.Key()), "msgid:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				message, err := repositories.DecodeDocument(v)
				if err != nil {
					// Log and keep going instead of stopping the whole scan
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}

				kind := "TEXT"
				detail := message.Text
				if len(message.Attachments) > 0 {
					kind = "IMAGE"
					detail = fmt.Sprintf("%s (%d bytes)",
						message.Attachments[0].Filename, message.Attachments[0].SizeBytes)
				}
				if message.IsDeleted {
					kind = "DELETED"
				}
				if len(detail) > 48 {
					detail = detail[:48] + "..."
				}

				table.Append([]string{
					string(item.Key()),
					kind,
					message.CreatedAt.Format("15:04:05"),
					string(message.ChatID),
					message.SenderName,
					string(message.RecipientID),
					detail,
				})
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

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return db, nil
}
