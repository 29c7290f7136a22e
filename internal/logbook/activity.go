package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ActivityFile is the human-readable per-project event log.
const ActivityFile = "LOG.txt"

const stampLayout = "2006-01-02 15:04"

// EnsureActivityLog creates the project's LOG.txt with its header if it
// does not exist yet, and returns its path.
func EnsureActivityLog(projectPath string) (string, error) {
	p := filepath.Join(projectPath, ActivityFile)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	if err := os.WriteFile(p, []byte(ActivityFile+"\n\n"), 0o644); err != nil {
		return "", fmt.Errorf("logbook: create %s: %w", ActivityFile, err)
	}
	return p, nil
}

// AppendEvent appends one line to the project's LOG.txt:
//
//	<YYYY-MM-DD HH:MM> | <EVENT> | <message>[ | by <user>]
func AppendEvent(projectPath, event, msg, user string, now time.Time) error {
	p, err := EnsureActivityLog(projectPath)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s | %s | %s", now.Format(stampLayout), event, msg)
	if user != "" {
		line += " | by " + user
	}

	f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logbook: open %s: %w", ActivityFile, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("logbook: append event: %w", err)
	}
	return nil
}

// TailActivity returns the last n event lines of the project's LOG.txt.
// Lines without a field separator (the header) are skipped; a missing
// file yields an empty slice.
func TailActivity(projectPath string, n int) ([]string, error) {
	f, err := os.Open(filepath.Join(projectPath, ActivityFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("logbook: open %s: %w", ActivityFile, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.Contains(line, "|") {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("logbook: read %s: %w", ActivityFile, err)
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
