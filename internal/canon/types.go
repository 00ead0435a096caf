package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Transaction is the source-agnostic normalized transaction record.
//
// Field names and order match the canonical JSONL interchange format
// exactly; do not rename the JSON tags.
type Transaction struct {
	// Date in YYYY-MM-DD form.
	Date string `json:"date"`

	// Amount as a fixed-point decimal string, positive = outflow.
	Amount string `json:"amount"`

	// Payee as exported by the institution, uncleansed.
	Payee string `json:"payee"`

	// Memo carries any additional description. Excluded from identity.
	Memo string `json:"memo"`

	// Account is the ledger account path of the source account,
	// e.g. "Liabilities:CreditCard:Chase".
	Account string `json:"account"`

	// SourceID is the institution's own reference id, if any.
	SourceID string `json:"source_id"`

	// Institution tags which source produced this record, e.g. "chase".
	Institution string `json:"institution"`
}

// MarshalLine serializes the transaction as one canonical JSONL line
// (without the trailing newline).
func (t Transaction) MarshalLine() ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}
	return data, nil
}

// ParseLine parses one canonical JSONL line back into a Transaction.
func ParseLine(line []byte) (Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(line, &t); err != nil {
		return Transaction{}, fmt.Errorf("parse transaction line: %w", err)
	}
	return t, nil
}

// AppendJSONL appends transactions to a canonical JSONL file, creating
// parent directories and the file as needed. The file is append-only:
// repeated ingestion runs accumulate lines.
func AppendJSONL(path string, txns []Transaction) error {
	var buf bytes.Buffer
	for _, txn := range txns {
		line, err := txn.MarshalLine()
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create canonical dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open canonical file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("append canonical file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close canonical file: %w", err)
	}
	return nil
}
