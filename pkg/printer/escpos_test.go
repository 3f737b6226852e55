package printer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textLines drops the init sequence and splits the text on LF.
func textLines(data []byte) []string {
	data = bytes.TrimPrefix(data, []byte{ESC, '@'})
	var out []string
	for _, l := range strings.Split(string(data), "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestDocumentStartsWithInit(t *testing.T) {
	doc := NewDocument(32)
	assert.Equal(t, []byte{ESC, '@'}, doc.Bytes())
}

func TestKeyValueFillsWidth(t *testing.T) {
	doc := NewDocument(20).KeyValue("Total:", "KES 10.00")
	lines := textLines(doc.Bytes())
	require.Len(t, lines, 1)
	assert.Len(t, lines[0], 20)
	assert.True(t, strings.HasPrefix(lines[0], "Total:"))
	assert.True(t, strings.HasSuffix(lines[0], "KES 10.00"))
}

func TestKeyValueOverflowKeepsOneSpace(t *testing.T) {
	doc := NewDocument(10).KeyValue("Customer:", "Walking Customer")
	assert.Equal(t, []string{"Customer: Walking Customer"}, textLines(doc.Bytes()))
}

func TestItemLineWrapsLongNames(t *testing.T) {
	doc := NewDocument(24).ItemLine(2, "Extra long product name here", "360.00")
	lines := textLines(doc.Bytes())
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2x Extra long"))
	assert.True(t, strings.HasSuffix(lines[0], "360.00"))
	assert.Len(t, lines[0], 24)
	assert.Equal(t, "   product name here", lines[1])
}

func TestSplitAt(t *testing.T) {
	head, tail := splitAt("abc", 5)
	assert.Equal(t, "abc", head)
	assert.Empty(t, tail)

	head, tail = splitAt("abcdefgh", 3)
	assert.Equal(t, "abc", head)
	assert.Equal(t, "defgh", tail)
}

func TestNewSelectsPrinter(t *testing.T) {
	p, err := New(Config{Type: "none"})
	require.NoError(t, err)
	assert.False(t, p.IsConnected())

	p, err = New(Config{Type: "memory"})
	require.NoError(t, err)
	assert.True(t, p.IsConnected())

	_, err = New(Config{Type: "usb"})
	assert.Error(t, err)

	_, err = New(Config{Type: "network"})
	assert.Error(t, err)

	_, err = New(Config{Type: "bluetooth"})
	assert.Error(t, err)
}

func TestMemoryPrinterRecordsJobs(t *testing.T) {
	p := NewMemoryPrinter()
	require.NoError(t, p.Print([]byte("one")))

	p.FailWith(ErrPrinterOffline)
	assert.True(t, errors.Is(p.Print([]byte("two")), ErrPrinterOffline))
	assert.False(t, p.IsConnected())

	p.FailWith(nil)
	require.NoError(t, p.Print([]byte("three")))
	assert.Equal(t, [][]byte{[]byte("one"), []byte("three")}, p.Jobs())
}
