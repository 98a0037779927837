package export

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/asifrahman2003/devpulse/internal/store"
)

var csvHeader = []string{"Date", "Session ID", "Minutes", "Project", "Tags", "Mode"}

// ToCSV writes one row per session. Every cell is quoted and tags are
// joined with "|".
func ToCSV(sessions []store.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeRow(w, csvHeader); err != nil {
		return err
	}
	for _, s := range sessions {
		row := []string{
			s.Date,
			s.ID,
			strconv.Itoa(s.Minutes),
			s.Project,
			strings.Join(s.Tags, "|"),
			string(s.Mode),
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write csv file: %w", err)
	}
	return nil
}

// writeRow quotes every cell, doubling embedded quotes.
func writeRow(w *bufio.Writer, cells []string) error {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	if _, err := w.WriteString(strings.Join(quoted, ",") + "\n"); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}
