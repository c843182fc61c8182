package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"kanbanflow/internal/board"
	"kanbanflow/internal/client"
	"kanbanflow/internal/flow"
)

func FormatError(output Output, status int, message string) string {
	if output == OutputJSON {
		payload, _ := json.Marshal(map[string]any{"status": status, "error": message})
		return string(payload)
	}
	return fmt.Sprintf("error (%d): %s", status, message)
}

// FormatWatchLine renders one realtime event.
func FormatWatchLine(output Output, event map[string]any) (string, error) {
	if output == OutputJSON {
		payload, err := json.Marshal(event)
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}

	parts := []string{fmt.Sprint(event["type"])}
	if at, ok := event["at"].(string); ok {
		parts = append([]string{at}, parts...)
	}
	if data, ok := event["data"].(map[string]any); ok {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
		}
	}
	return strings.Join(parts, " "), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBoards(output Output, w io.Writer, boards []client.BoardSummary) error {
	if output == OutputJSON {
		return writeJSON(w, boards)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE")
	for _, b := range boards {
		fmt.Fprintf(tw, "%s\t%s\n", b.ID, b.Title)
	}
	return tw.Flush()
}

type cardView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Position    int        `json:"position"`
	Priority    string     `json:"priority"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Comments    int        `json:"comments"`
	Attachments int        `json:"attachments"`
}

type columnView struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   string     `json:"status"`
	Position int        `json:"position"`
	Version  int64      `json:"version"`
	Capacity int        `json:"capacity"`
	Cards    []cardView `json:"cards"`
}

type boardView struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Columns []columnView `json:"columns"`
}

func viewOf(b *board.Board) boardView {
	snap := b.Snapshot()
	view := boardView{ID: b.ID.String(), Name: b.Name, Columns: make([]columnView, len(snap))}
	for i, col := range snap {
		cv := columnView{
			ID:       col.ID.String(),
			Name:     col.Name,
			Status:   string(col.Status),
			Position: col.Position,
			Version:  col.Version,
			Capacity: flow.Capacity(col.Status),
			Cards:    make([]cardView, len(col.Cards)),
		}
		for j, card := range col.Cards {
			cv.Cards[j] = cardOf(*card)
		}
		view.Columns[i] = cv
	}
	return view
}

func cardOf(card board.Card) cardView {
	v := cardView{
		ID:          card.ID.String(),
		Title:       card.Title,
		Position:    card.Position,
		Priority:    string(card.Priority),
		DueDate:     card.DueDate,
		Comments:    card.Comments,
		Attachments: card.Attachments,
	}
	if card.Assignee != nil {
		v.Assignee = card.Assignee.Name
	}
	return v
}

func printBoard(output Output, w io.Writer, b *board.Board) error {
	view := viewOf(b)
	if output == OutputJSON {
		return writeJSON(w, view)
	}

	fmt.Fprintf(w, "%s (%s)\n", view.Name, view.ID)
	for _, col := range view.Columns {
		fmt.Fprintf(w, "\n%d. %s [%s] %d/%d v%d\n", col.Position, col.Name, col.Status, len(col.Cards), col.Capacity, col.Version)
		for _, card := range col.Cards {
			line := fmt.Sprintf("   %d) %s  %s", card.Position, card.Title, card.ID)
			if card.Priority != "" && card.Priority != string(board.PriorityNone) {
				line += "  !" + card.Priority
			}
			if card.Assignee != "" {
				line += "  @" + card.Assignee
			}
			if card.DueDate != nil {
				line += "  due " + card.DueDate.Format(time.DateOnly)
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

func printCard(output Output, w io.Writer, card board.Card) error {
	v := cardOf(card)
	if output == OutputJSON {
		return writeJSON(w, v)
	}
	_, err := fmt.Fprintf(w, "%s  %s (position %d)\n", v.ID, v.Title, v.Position)
	return err
}
