package card

import (
	"strings"

	"github.com/chxlky/trello-ringcentral-relay/internal/models"
)

const migrationWarningText = "This notification is delivered through an incoming webhook. " +
	"Add the Trello bot to this conversation to act on cards without leaving RingCentral."

func newDocument(body ...*Element) *Element {
	return &Element{
		Schema:  adaptiveCardSchema,
		Type:    "AdaptiveCard",
		Version: adaptiveCardVersion,
		Body:    body,
	}
}

func textBlock(id, text string) *Element {
	return &Element{Type: "TextBlock", ID: id, Text: text, Wrap: true}
}

func caption(id, text string) *Element {
	return &Element{Type: "TextBlock", ID: id, Text: text, IsSubtle: true, Size: "Small", Weight: "Bolder"}
}

func hidden(e *Element) *Element {
	e.IsVisible = invisible()
	return e
}

func container(id string, items ...*Element) *Element {
	return &Element{Type: "Container", ID: id, Items: items}
}

func column(id, width string, items ...*Element) *Element {
	return &Element{Type: "Column", ID: id, Width: width, Items: items}
}

func columnSet(id string, columns ...*Element) *Element {
	return &Element{Type: "ColumnSet", ID: id, Columns: columns}
}

func actionSet(id string, actions ...*Element) *Element {
	return &Element{Type: "ActionSet", ID: id, Actions: actions}
}

func submit(title string, data map[string]string) *Element {
	return &Element{Type: "Action.Submit", Title: title, Data: data}
}

func openURL(title, url string) *Element {
	return &Element{Type: "Action.OpenUrl", Title: title, URL: url}
}

// field is a labelled value; its label node is {id}Label and its value node {id}Value.
func field(id, label, value string) *Element {
	return column(id, "stretch", caption(id+"Label", label), textBlock(id+"Value", value))
}

func header(s subject, avatar, actor string) *Element {
	return columnSet("header",
		column("", "auto", &Element{Type: "Image", URL: avatar, AltText: actor, Size: "Small", Style: "Person"}),
		column("", "stretch", textBlock("subject", s.markdown)),
	)
}

func migrationWarning() *Element {
	w := textBlock("migrationWarning", migrationWarningText)
	w.Size = "Small"
	w.IsSubtle = true
	return hidden(w)
}

func boardTemplate(e *boardEvent, s subject, avatar string) *Element {
	return newDocument(
		header(s, avatar, e.actor.FullName),
		columnSet("fields", field("board", "Board", boardLink(e.board))),
		migrationWarning(),
	)
}

func listTemplate(e *listEvent, s subject, avatar string) *Element {
	return newDocument(
		header(s, avatar, e.actor.FullName),
		columnSet("fields",
			field("list", "List", e.list.Name),
			field("board", "Board", boardLink(e.board)),
		),
		migrationWarning(),
	)
}

func checklistTemplate(e *checklistEvent, s subject, avatar string) *Element {
	return newDocument(
		header(s, avatar, e.actor.FullName),
		columnSet("fields",
			field("card", "Card", cardLink(e.card)),
			field("checklist", "Checklist", e.checklist.Name),
			field("board", "Board", boardLink(e.board)),
		),
		migrationWarning(),
	)
}

func cardTemplate(e *cardEvent, s subject, avatar string, cv *cardView, c Context) *Element {
	data := func(action string) map[string]string {
		return map[string]string{
			"action":    action,
			"webhookId": c.WebhookID,
			"botId":     c.BotID,
			"boardId":   e.board.ID,
			"cardId":    cv.id,
		}
	}

	var members []string
	for _, m := range cv.members {
		members = append(members, memberLink(m))
	}

	var labelChips []*Element
	for _, l := range cv.selected {
		labelChips = append(labelChips, column("", "auto",
			&Element{Type: "Image", URL: l.Icon, AltText: l.Name, Size: "Small"},
			textBlock("", l.Name),
		))
	}

	addLabel := &Element{Type: "Input.ChoiceSet", ID: "addLabelId", Placeholder: "Select a label", Choices: choices(cv.unselected)}
	if len(cv.unselected) > 0 {
		addLabel.Value = cv.unselected[0].ID
	}
	removeLabel := &Element{Type: "Input.ChoiceSet", ID: "removeLabelId", Placeholder: "Select a label", Choices: choices(cv.selected)}
	if len(cv.selected) > 0 {
		removeLabel.Value = cv.selected[0].ID
	}

	return newDocument(
		header(s, avatar, e.actor.FullName),
		hidden(container("commentArea", textBlock("comment", cv.comment))),
		hidden(container("descriptionArea",
			caption("descriptionLabel", "Description"),
			textBlock("description", cv.description),
		)),
		columnSet("fields",
			field("list", "List", cv.listName),
			field("board", "Board", boardLink(e.board)),
			field("dueDate", "Due date", dueToken(cv.due)),
		),
		container("members",
			caption("membersLabel", "Members"),
			textBlock("memberNames", strings.Join(members, ", ")),
		),
		container("selectedLabels",
			caption("selectedLabelsLabel", "Labels"),
			columnSet("labelChips", labelChips...),
		),
		migrationWarning(),
		actionSet("primaryActions",
			submit("Join", data("joinCard")),
			openURL("Open in Trello", cv.url),
		),
		container("secondaryActions",
			container("addLabelForm", addLabel, actionSet("", submit("Add label", data("addLabel")))),
			container("removeLabelForm", removeLabel, actionSet("", submit("Remove label", data("removeLabel")))),
		),
	)
}

func choices(labels []FormattedLabel) []Choice {
	out := make([]Choice, 0, len(labels))
	for _, l := range labels {
		out = append(out, Choice{Title: l.Name, Value: l.ID})
	}
	return out
}

// memberNames lists members in plain text for the legacy card.
func memberNames(members []models.TrelloMember) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.FullName)
	}
	return strings.Join(names, ", ")
}
