package kanban

import (
	"time"
	"unicode/utf8"

	"kanban/internal/apperr"
	"kanban/internal/models"
)

const maxTitleLen = 255

func checkTitle(field, title string) error {
	switch {
	case title == "":
		return apperr.Field(field, "is required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		return apperr.Field(field, "must be at most 255 characters")
	}
	return nil
}

func checkPosition(field string, p *int) error {
	if p != nil && *p < 0 {
		return apperr.Field(field, "must be zero or greater")
	}
	return nil
}

func checkPriority(p models.Priority) error {
	if _, ok := models.ValidPriorities[p]; !ok {
		return apperr.Field("priority", "must be one of low, medium, high, urgent")
	}
	return nil
}

func checkDates(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return apperr.Field("dueDate", "must not be before startDate")
	}
	return nil
}
