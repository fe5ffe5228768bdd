package card

import (
	"strings"
	"unicode/utf8"

	"github.com/chxlky/trello-ringcentral-relay/internal/models"
)

const (
	CommentLimit     = 600
	DescriptionLimit = 800

	noColorName = "No color"
	noColorIcon = "nocolor"
)

// FormattedLabel is a label ready for display.
type FormattedLabel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon"`
}

// FormatLabel names a label by its name, then its color, then "No color",
// and derives its icon as {iconBase}/{color}.png.
func FormatLabel(label models.TrelloLabel, iconBase string) FormattedLabel {
	name := label.Name
	if name == "" {
		name = label.Color
	}
	if name == "" {
		name = noColorName
	}
	icon := label.Color
	if icon == "" {
		icon = noColorIcon
	}
	return FormattedLabel{
		ID:    label.ID,
		Name:  name,
		Color: label.Color,
		Icon:  strings.TrimSuffix(iconBase, "/") + "/" + icon + ".png",
	}
}

func FormatLabels(labels []models.TrelloLabel, iconBase string) []FormattedLabel {
	out := make([]FormattedLabel, 0, len(labels))
	for _, l := range labels {
		out = append(out, FormatLabel(l, iconBase))
	}
	return out
}

// Truncate cuts s to limit characters and appends "..." when anything was cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

// unselectedLabels returns the board labels the card does not carry yet.
func unselectedLabels(board, selected []models.TrelloLabel) []models.TrelloLabel {
	onCard := make(map[string]struct{}, len(selected))
	for _, l := range selected {
		onCard[l.ID] = struct{}{}
	}
	var out []models.TrelloLabel
	for _, l := range board {
		if _, ok := onCard[l.ID]; !ok {
			out = append(out, l)
		}
	}
	return out
}
