// Package filter holds the catalog of notification filters a subscriber can
// pick from and decides whether a Trello action passes a stored selection.
package filter

import "strings"

// Item maps a Trello action type, optionally narrowed by display
// translation keys, to a stable filter id.
type Item struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ActionType string   `json:"actionType"`
	ActionList []string `json:"actionList,omitempty"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Display order is category order, then item order.
var categories = []Category{
	{
		ID:   "list",
		Name: "Lists",
		Items: []Item{
			{ID: "createList", Name: "List created", ActionType: "createList"},
			{ID: "archiveUnarchiveList", Name: "List archived/unarchived", ActionType: "updateList",
				ActionList: []string{"action_archived_list", "action_sent_list_to_board"}},
			{ID: "renameList", Name: "List renamed", ActionType: "updateList",
				ActionList: []string{"action_renamed_list"}},
			{ID: "moveListFromBoard", Name: "List moved to other board", ActionType: "moveListFromBoard"},
		},
	},
	{
		ID:   "card",
		Name: "Cards",
		Items: []Item{
			{ID: "createCard", Name: "Card created", ActionType: "createCard"},
			{ID: "changeCardDescription", Name: "Card description changed", ActionType: "updateCard",
				ActionList: []string{"action_changed_description_of_card"}},
			{ID: "moveCard", Name: "Card moved", ActionType: "updateCard",
				ActionList: []string{"action_move_card_from_list_to_list"}},
			{ID: "renameCard", Name: "Card renamed", ActionType: "updateCard",
				ActionList: []string{"action_renamed_card"}},
			{ID: "archiveUnarchiveCard", Name: "Card archived/unarchived", ActionType: "updateCard",
				ActionList: []string{"action_archived_card", "action_sent_card_to_board"}},
			{ID: "changeCardDueDate", Name: "Card due date changed", ActionType: "updateCard",
				ActionList: []string{"action_added_a_due_date", "action_changed_a_due_date", "action_removed_a_due_date"}},
			{ID: "commentCard", Name: "Comment added to card", ActionType: "commentCard"},
			{ID: "addAttachmentToCard", Name: "Attachment added to card", ActionType: "addAttachmentToCard"},
			{ID: "addLabelToCard", Name: "Label added to card", ActionType: "addLabelToCard"},
			{ID: "removeLabelFromCard", Name: "Label removed from card", ActionType: "removeLabelFromCard"},
			{ID: "addMemberToCard", Name: "Member added to card", ActionType: "addMemberToCard"},
			{ID: "removeMemberFromCard", Name: "Member removed from card", ActionType: "removeMemberFromCard"},
		},
	},
	{
		ID:   "checklist",
		Name: "Checklists",
		Items: []Item{
			{ID: "addChecklistToCard", Name: "Checklist added to card", ActionType: "addChecklistToCard"},
			{ID: "createCheckItem", Name: "Checklist item created", ActionType: "createCheckItem"},
			{ID: "updateCheckItemStateOnCard", Name: "Checklist item marked complete/incomplete",
				ActionType: "updateCheckItemStateOnCard",
				ActionList: []string{"action_completed_checkitem", "action_marked_checkitem_incomplete"}},
		},
	},
	{
		ID:   "board",
		Name: "Board",
		Items: []Item{
			{ID: "addMemberToBoard", Name: "Member added to board", ActionType: "addMemberToBoard"},
			{ID: "renameBoard", Name: "Board renamed", ActionType: "updateBoard",
				ActionList: []string{"action_update_board_name"}},
		},
	},
}

var itemsByID = func() map[string]Item {
	m := make(map[string]Item)
	for _, c := range categories {
		for _, it := range c.Items {
			m[it.ID] = it
		}
	}
	return m
}()

// Categories returns a copy of the catalog in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{ID: c.ID, Name: c.Name, Items: append([]Item(nil), c.Items...)}
	}
	return out
}

// Lookup resolves a filter id.
func Lookup(id string) (Item, bool) {
	it, ok := itemsByID[id]
	return it, ok
}

// AllIDs returns every filter id in display order.
func AllIDs() []string {
	var ids []string
	for _, c := range categories {
		for _, it := range c.Items {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// IDsInCategory returns the ids of filtersCSV that belong to the category.
// An empty selection yields every id of the category, which is how the
// settings page pre-checks a brand new subscription.
func IDsInCategory(filtersCSV, categoryID string) []string {
	var cat *Category
	for i := range categories {
		if categories[i].ID == categoryID {
			cat = &categories[i]
			break
		}
	}
	if cat == nil {
		return nil
	}

	selected := ParseIDs(filtersCSV)
	if len(selected) == 0 {
		ids := make([]string, 0, len(cat.Items))
		for _, it := range cat.Items {
			ids = append(ids, it.ID)
		}
		return ids
	}

	want := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		want[id] = struct{}{}
	}
	var ids []string
	for _, it := range cat.Items {
		if _, ok := want[it.ID]; ok {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// ParseIDs splits a comma-joined filter string, dropping blanks.
func ParseIDs(filtersCSV string) []string {
	var ids []string
	for _, part := range strings.Split(filtersCSV, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// JoinIDs keeps only known ids, in the given order, and joins them for storage.
func JoinIDs(ids []string) string {
	known := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := itemsByID[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		known = append(known, id)
	}
	return strings.Join(known, ",")
}
