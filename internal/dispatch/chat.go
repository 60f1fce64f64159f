package dispatch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// maxChatLineBytes caps a single transcript line. Claude transcripts can
// carry large tool outputs; lines beyond this are skipped, not fatal.
const maxChatLineBytes = 1 << 20

// ReadChatFile loads a conversation transcript from a line-delimited JSON
// file. Each line is parsed independently: a line that fails to parse is
// skipped and counted, never fatal. Returns the parsed entries in file
// order and the number of skipped lines.
func ReadChatFile(path string) ([]map[string]any, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open chat file: %w", err)
	}
	defer f.Close()

	var (
		entries []map[string]any
		skipped int
	)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxChatLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		// Partial reads still count: return what parsed so far.
		return entries, skipped, fmt.Errorf("read chat file: %w", err)
	}

	return entries, skipped, nil
}
