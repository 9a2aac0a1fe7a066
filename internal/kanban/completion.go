package kanban

import (
	"strings"
	"time"

	"kanban/internal/models"
)

var completedTitles = map[string]struct{}{
	"done":      {},
	"completed": {},
}

// IsCompletedTitle reports whether a board title marks completed work. The
// match is exact after trimming and case folding.
func IsCompletedTitle(title string) bool {
	_, ok := completedTitles[strings.ToLower(strings.TrimSpace(title))]
	return ok
}

// IsCompletedBoard reports whether cards on b count as completed. An explicit
// IsTerminal flag wins over the title.
func IsCompletedBoard(b models.Board) bool {
	if b.IsTerminal != nil {
		return *b.IsTerminal
	}
	return IsCompletedTitle(b.Title)
}

// NextCompletedAt returns the completion timestamp a card gets when it is
// moved onto target. Re-entering a completed board keeps the earlier stamp;
// any other board clears it.
func NextCompletedAt(target models.Board, previous *time.Time, now time.Time) *time.Time {
	if !IsCompletedBoard(target) {
		return nil
	}
	if previous != nil {
		return previous
	}
	return &now
}
