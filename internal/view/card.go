package view

import (
	"strings"

	"example.com/timestats/internal/stats"
)

// FallbackIcon is used for categories outside the known set.
const FallbackIcon = "activity"

var icons = map[string]string{
	"work":      "work",
	"play":      "play",
	"study":     "study",
	"exercise":  "exercise",
	"social":    "social",
	"self-care": "self-care",
}

// CardData is the display projection of one record under one timeframe.
type CardData struct {
	Title         string  `json:"title"`
	Icon          string  `json:"icon"`
	CurrentHours  float64 `json:"currentHours"`
	PreviousLabel string  `json:"previousLabel"`
	PreviousHours float64 `json:"previousHours"`
	Missing       bool    `json:"missing,omitempty"`
}

// PreviousLabel names the comparison period for tf.
func PreviousLabel(tf stats.Timeframe) string {
	switch tf {
	case stats.Daily:
		return "Yesterday"
	case stats.Weekly:
		return "Last Week"
	case stats.Monthly:
		return "Last Month"
	default:
		return "Previous"
	}
}

// IconFor resolves the icon slug for a category title, case-insensitively.
func IconFor(title string) string {
	if icon, ok := icons[Slug(title)]; ok {
		return icon
	}
	return FallbackIcon
}

// Slug lowercases title and joins its words with hyphens ("Self Care" -> "self-care").
func Slug(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

// DeriveCard projects record under tf. A missing timeframe yields a zero metric with Missing set.
func DeriveCard(record stats.ActivityRecord, tf stats.Timeframe) CardData {
	card := CardData{
		Title:         record.Title,
		Icon:          IconFor(record.Title),
		PreviousLabel: PreviousLabel(tf),
	}
	metric, err := record.Metric(tf)
	if err != nil {
		card.Missing = true
		return card
	}
	card.CurrentHours = metric.Current
	card.PreviousHours = metric.Previous
	return card
}
