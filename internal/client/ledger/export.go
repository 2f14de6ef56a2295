package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"coin-wallet/internal/client/fetch"
	"coin-wallet/internal/client/walleterr"
	"coin-wallet/internal/domain/transaction"
)

// CSVHeader エクスポートファイルの見出し行
var CSVHeader = []string{"date", "type", "coins", "rupees", "status", "description"}

const exportDateLayout = "2006-01-02 15:04:05"

var freeTextReplacer = strings.NewReplacer(",", ";", "\r\n", " ", "\n", " ", "\r", " ")

// Export 条件に一致する履歴をCSVで書き出す
func (l *Ledger) Export(ctx context.Context, filter transaction.Filter, w io.Writer) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, walleterr.New(walleterr.KindValidation, "Please check the filter", err)
	}

	page, err := fetch.Do(ctx, l.policy, func(ctx context.Context) (*Page, error) {
		return l.source.ListTransactions(ctx, filter, 1, ExportLimit)
	})
	if err != nil {
		l.logger.Warn(ctx, "Failed to export transactions", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, toLedgerError(err)
	}

	var txs []*transaction.Transaction
	if page != nil {
		txs = page.Transactions
	}
	sortNewestFirst(txs)

	if err := WriteCSV(w, txs); err != nil {
		return 0, walleterr.New(walleterr.KindLedgerFetch, "Unable to export transactions. Please try again.", err)
	}
	return len(txs), nil
}

// WriteCSV 取引をCSVとして書き出す。自由記述の区切り文字と改行は置き換えて常に6列にする
func WriteCSV(w io.Writer, txs []*transaction.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, tx := range txs {
		if err := cw.Write(csvRecord(tx)); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", tx.TransactionID(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(tx *transaction.Transaction) []string {
	rupees := ""
	if r := tx.RupeeAmount(); r != nil {
		rupees = r.StringFixed(2)
	}
	return []string{
		tx.CreatedAt().UTC().Format(exportDateLayout),
		tx.TransactionType().String(),
		strconv.FormatInt(tx.SignedAmount(), 10),
		rupees,
		tx.Status().String(),
		sanitizeFreeText(tx.Description()),
	}
}

func sanitizeFreeText(s string) string {
	return strings.TrimSpace(freeTextReplacer.Replace(s))
}

// ExportFileName エクスポートファイルの既定の名前
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("transactions-%s.csv", now.UTC().Format("2006-01-02"))
}
