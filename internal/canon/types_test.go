package canon

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalLineRoundTrip(t *testing.T) {
	txn := Transaction{
		Date:        "2026-02-15",
		Amount:      "-42.50",
		Payee:       "TRADER JOE'S #123",
		Memo:        "POS PURCHASE TERMINAL 4",
		Account:     "Assets:Chase:Checking",
		SourceID:    "txn-8891",
		Institution: "chase",
	}

	line, err := txn.MarshalLine()
	require.NoError(t, err)
	assert.NotContains(t, string(line), "\n", "a line holds exactly one record")

	back, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, txn, back)
}

func TestParseLineRejectsMalformed(t *testing.T) {
	_, err := ParseLine([]byte(`{"date": "2026-02-15"`))
	assert.Error(t, err)
}

func TestAppendJSONLAccumulates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2026-02", "chase.jsonl")

	first := []Transaction{
		{Date: "2026-02-15", Amount: "-42.50", Payee: "TRADER JOE'S", Account: "Assets:Chase:Checking", Institution: "chase"},
	}
	second := []Transaction{
		{Date: "2026-02-16", Amount: "-12.00", Payee: "BLUE BOTTLE", Account: "Assets:Chase:Checking", Institution: "chase"},
		{Date: "2026-02-17", Amount: "1500.00", Payee: "PAYROLL", Account: "Assets:Chase:Checking", Institution: "chase"},
	}

	require.NoError(t, AppendJSONL(path, first))
	require.NoError(t, AppendJSONL(path, second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []Transaction
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		txn, err := ParseLine(sc.Bytes())
		require.NoError(t, err)
		got = append(got, txn)
	}
	require.NoError(t, sc.Err())

	require.Len(t, got, 3, "appends accumulate, never overwrite")
	assert.Equal(t, "TRADER JOE'S", got[0].Payee)
	assert.Equal(t, "PAYROLL", got[2].Payee)
}

func TestAppendJSONLEmptyBatchCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2026-02", "chase.jsonl")

	require.NoError(t, AppendJSONL(path, nil))

	_, err := os.Stat(path)
	assert.NoError(t, err, "file exists and is empty after a zero-record append")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
