package card

import (
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
)

const trelloURL = "https://trello.com"

// subject is the headline of a notification, as markdown for the card and
// as plain text for fallback clients.
type subject struct {
	markdown string
	plain    string
}

func link(text, url string) string { return "[" + text + "](" + url + ")" }

func bold(text string) string { return "**" + text + "**" }

func boardURL(b models.TrelloBoardData) string { return trelloURL + "/b/" + b.ShortLink }

func cardURL(c models.TrelloCardData) string { return trelloURL + "/c/" + c.ShortLink }

func memberURL(m models.TrelloMember) string { return trelloURL + "/" + m.Username }

func boardLink(b models.TrelloBoardData) string { return link(b.Name, boardURL(b)) }

func cardLink(c models.TrelloCardData) string { return link(c.Name, cardURL(c)) }

func memberLink(m models.TrelloMember) string { return link(m.FullName, memberURL(m)) }

// dueToken lets the client render the due date in the reader's locale.
func dueToken(due string) string {
	return "{{DATE(" + due + ", SHORT)}} {{TIME(" + due + ")}}"
}

func (e *boardEvent) subject() (subject, error) {
	b := e.board
	switch e.actionType {
	case "addMemberToBoard":
		if e.member == nil {
			return subject{}, e.missing("member")
		}
		return subject{
			markdown: "Added " + memberLink(*e.member) + " to " + boardLink(b),
			plain:    "Added " + e.member.FullName + " to " + b.Name,
		}, nil
	case "moveListFromBoard":
		if e.list == nil {
			return subject{}, e.missing("list")
		}
		return subject{
			markdown: "List " + bold(e.list.Name) + " moved from " + boardLink(b),
			plain:    "List " + e.list.Name + " moved from " + b.Name,
		}, nil
	case "updateBoard":
		if e.key == "action_update_board_name" {
			return subject{
				markdown: "Renamed " + e.oldName + " to " + boardLink(b),
				plain:    "Renamed " + e.oldName + " to " + b.Name,
			}, nil
		}
	}
	return subject{}, e.unsupported()
}

func (e *listEvent) subject() (subject, error) {
	name := e.list.Name
	switch {
	case e.actionType == "createList":
		return subject{markdown: "Created " + bold(name), plain: "Created " + name}, nil
	case e.actionType != "updateList":
	case e.key == "action_renamed_list":
		return subject{
			markdown: "Renamed " + e.oldName + " to " + bold(name),
			plain:    "Renamed " + e.oldName + " to " + name,
		}, nil
	case e.key == "action_archived_list":
		return subject{markdown: "Archived " + bold(name), plain: "Archived " + name}, nil
	case e.key == "action_sent_list_to_board":
		return subject{markdown: "Unarchived " + bold(name), plain: "Unarchived " + name}, nil
	}
	return subject{}, e.unsupported()
}

func (e *cardEvent) subject() (subject, error) {
	c := e.card
	md, plain := cardLink(c), c.Name
	switch e.actionType {
	case "createCard":
		return subject{markdown: "New card created: " + md, plain: "New card created: " + plain}, nil
	case "commentCard":
		return subject{markdown: "Added a comment to " + md, plain: "Added a comment to " + plain}, nil
	case "addMemberToCard", "removeMemberFromCard":
		if e.member == nil {
			return subject{}, e.missing("member")
		}
		verb, prep := "Added ", " into "
		if e.actionType == "removeMemberFromCard" {
			verb, prep = "Removed ", " from "
		}
		return subject{
			markdown: verb + memberLink(*e.member) + prep + md,
			plain:    verb + e.member.FullName + prep + plain,
		}, nil
	case "addAttachmentToCard":
		if e.attachment == nil {
			return subject{}, e.missing("attachment")
		}
		a := e.attachment
		return subject{
			markdown: "Added attachment into " + md + "\n" + link(a.Name, a.URL),
			plain:    "Added attachment into " + plain + ": " + a.Name + " (" + a.URL + ")",
		}, nil
	case "addLabelToCard", "removeLabelFromCard":
		if e.label == nil {
			return subject{}, e.missing("label")
		}
		name := FormatLabel(*e.label, "").Name
		verb, prep := "Added label ", " into "
		if e.actionType == "removeLabelFromCard" {
			verb, prep = "Removed label ", " from "
		}
		return subject{
			markdown: verb + bold(name) + prep + md,
			plain:    verb + name + prep + plain,
		}, nil
	case "updateCard":
		return e.updateSubject(md, plain)
	}
	return subject{}, e.unsupported()
}

func (e *cardEvent) updateSubject(md, plain string) (subject, error) {
	switch e.key {
	case "action_archived_card":
		return subject{markdown: "Archived " + md, plain: "Archived " + plain}, nil
	case "action_sent_card_to_board":
		return subject{markdown: "Unarchived " + md, plain: "Unarchived " + plain}, nil
	case "action_changed_description_of_card":
		return subject{markdown: "Updated description of " + md, plain: "Updated description of " + plain}, nil
	case "action_added_a_due_date", "action_changed_a_due_date":
		verb := "Added"
		if e.key == "action_changed_a_due_date" {
			verb = "Changed"
		}
		due := e.card.Due
		return subject{
			markdown: verb + " due date into " + md + ": " + dueToken(due),
			plain:    verb + " due date into " + plain + ": " + due,
		}, nil
	case "action_removed_a_due_date":
		return subject{markdown: "Removed due date from " + md, plain: "Removed due date from " + plain}, nil
	case "action_move_card_from_list_to_list":
		if e.listBefore == nil || e.listAfter == nil {
			return subject{}, e.missing("listBefore/listAfter")
		}
		return subject{
			markdown: "Moved " + md + " from " + bold(e.listBefore.Name) + " to " + bold(e.listAfter.Name),
			plain:    "Moved " + plain + " from " + e.listBefore.Name + " to " + e.listAfter.Name,
		}, nil
	case "action_renamed_card":
		return subject{
			markdown: "Renamed " + e.old.Name + " into " + md,
			plain:    "Renamed " + e.old.Name + " into " + plain,
		}, nil
	}
	return subject{}, e.unsupported()
}

func (e *checklistEvent) subject() (subject, error) {
	checklist := e.checklist.Name
	if e.actionType == "addChecklistToCard" {
		return subject{markdown: "Added " + bold(checklist) + ".", plain: "Added " + checklist + "."}, nil
	}

	if e.checkItem == nil {
		return subject{}, e.missing("checkItem")
	}
	item := e.checkItem.Name
	switch {
	case e.actionType == "createCheckItem":
		return subject{
			markdown: "Created check item " + bold(item) + " in " + bold(checklist) + ".",
			plain:    "Created check item " + item + " in " + checklist + ".",
		}, nil
	case e.actionType != "updateCheckItemStateOnCard":
	case e.key == "action_completed_checkitem":
		return subject{markdown: "Marked ~~" + item + "~~ completed.", plain: "Marked " + item + " completed."}, nil
	case e.key == "action_marked_checkitem_incomplete":
		return subject{markdown: "Marked " + bold(item) + " incomplete.", plain: "Marked " + item + " incomplete."}, nil
	}
	return subject{}, e.unsupported()
}
