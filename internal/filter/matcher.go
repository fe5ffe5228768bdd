package filter

import (
	"slices"

	"github.com/chxlky/trello-ringcentral-relay/internal/models"
)

// Match reports the first filter of filtersCSV that the action satisfies.
// Unknown ids are skipped, so stale stored selections keep working.
func Match(action *models.TrelloAction, filtersCSV string) (string, bool) {
	if action == nil || action.Type == "" || filtersCSV == "" {
		return "", false
	}

	for _, id := range ParseIDs(filtersCSV) {
		item, ok := itemsByID[id]
		if !ok || item.ActionType != action.Type {
			continue
		}
		if len(item.ActionList) == 0 {
			return item.ID, true
		}
		if action.Display == nil {
			continue
		}
		if slices.Contains(item.ActionList, action.Display.TranslationKey) {
			return item.ID, true
		}
	}
	return "", false
}
