package journal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nutrihelper/backend/internal/domain"
)

// TimeLayout is the minute-resolution timestamp used by both logs
const TimeLayout = "2006-01-02 15:04"

const entrySeparator = " - "

// FileJournal appends lookup history and generative failures to plain-text files
type FileJournal struct {
	mu          sync.Mutex
	historyPath string
	errorPath   string
	logger      *zap.Logger
}

// NewFileJournal creates a journal writing to the given history and error log paths
func NewFileJournal(historyPath, errorPath string, logger *zap.Logger) *FileJournal {
	return &FileJournal{
		historyPath: historyPath,
		errorPath:   errorPath,
		logger:      logger.Named("journal"),
	}
}

// AppendHistory writes "<ts> - <food>" with a " (<source>)" suffix when the source is tagged
func (j *FileJournal) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	return j.appendLine(j.historyPath, FormatHistoryLine(entry))
}

// AppendError writes "<ts> - OpenAI error: <message>"
func (j *FileJournal) AppendError(ctx context.Context, entry domain.ErrorLogEntry) error {
	return j.appendLine(j.errorPath, FormatErrorLine(entry))
}

// History returns up to limit of the most recent history entries, oldest first.
// A limit <= 0 returns everything. Lines that do not parse are skipped.
func (j *FileJournal) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.HistoryEntry{}, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	entries := []domain.HistoryEntry{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := ParseHistoryLine(scanner.Text())
		if !ok {
			j.logger.Debug("skipping unparseable history line", zap.String("line", scanner.Text()))
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (j *FileJournal) appendLine(path, line string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// FormatHistoryLine renders one history log line without the trailing newline
func FormatHistoryLine(entry domain.HistoryEntry) string {
	line := entry.Timestamp.Format(TimeLayout) + entrySeparator + oneLine(entry.Food)
	if entry.Source != "" {
		line += " (" + entry.Source + ")"
	}
	return line
}

// FormatErrorLine renders one error log line without the trailing newline
func FormatErrorLine(entry domain.ErrorLogEntry) string {
	return entry.Timestamp.Format(TimeLayout) + entrySeparator + "OpenAI error: " + oneLine(entry.Message)
}

var knownSources = []string{domain.SourceRemote, domain.SourceLocal, domain.SourceLocalFallback}

// ParseHistoryLine reverses FormatHistoryLine. A trailing parenthesised word
// is read as the source tag only when it is one of the known tags.
func ParseHistoryLine(line string) (domain.HistoryEntry, bool) {
	if len(line) < len(TimeLayout)+len(entrySeparator) {
		return domain.HistoryEntry{}, false
	}
	ts, err := time.ParseInLocation(TimeLayout, line[:len(TimeLayout)], time.Local)
	if err != nil {
		return domain.HistoryEntry{}, false
	}
	rest, ok := strings.CutPrefix(line[len(TimeLayout):], entrySeparator)
	if !ok {
		return domain.HistoryEntry{}, false
	}

	entry := domain.HistoryEntry{Timestamp: ts, Food: rest}
	for _, src := range knownSources {
		if food, found := strings.CutSuffix(rest, " ("+src+")"); found {
			entry.Food = food
			entry.Source = src
			break
		}
	}
	return entry, true
}

// oneLine keeps a value from breaking the one-entry-per-line format
func oneLine(s string) string {
	return newlineReplacer.Replace(s)
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
