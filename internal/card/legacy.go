package card

import (
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
)

const (
	legacyActivity = "Trello"
	legacyColor    = "#0079BF"
)

// LegacyMessage is the single-attachment Glip card accepted by RingCentral
// incoming webhooks before Adaptive Cards were supported.
type LegacyMessage struct {
	Activity    string             `json:"activity"`
	Icon        string             `json:"icon,omitempty"`
	Attachments []LegacyAttachment `json:"attachments"`
}

type LegacyAttachment struct {
	Type     string          `json:"type"`
	Fallback string          `json:"fallback"`
	Color    string          `json:"color"`
	Author   LegacyAuthor    `json:"author"`
	Text     string          `json:"text"`
	Fields   []LegacyField   `json:"fields,omitempty"`
	Footnote *LegacyFootnote `json:"footnote,omitempty"`
}

type LegacyAuthor struct {
	Name    string `json:"name"`
	URI     string `json:"uri,omitempty"`
	IconURI string `json:"iconUri,omitempty"`
}

type LegacyField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Style string `json:"style,omitempty"` // "Short" or "Long"
}

type LegacyFootnote struct {
	Text string `json:"text"`
	Time string `json:"time,omitempty"`
}

// Summary returns the plain-text rendering of the message.
func (m *LegacyMessage) Summary() string {
	if len(m.Attachments) == 0 {
		return ""
	}
	return m.Attachments[0].Fallback
}

// RenderLegacy builds the legacy Glip card for an action. Errors are the
// same as Render's.
func (r *Renderer) RenderLegacy(action *models.TrelloAction, c Context) (*LegacyMessage, error) {
	ev, err := narrow(action, c.BoardModel)
	if err != nil {
		return nil, err
	}
	subj, err := ev.subject()
	if err != nil {
		return nil, err
	}
	b := ev.base()

	att := LegacyAttachment{
		Type:     "Card",
		Fallback: subj.plain,
		Color:    legacyColor,
		Author: LegacyAuthor{
			Name:    b.actor.FullName,
			IconURI: r.avatar(b.actor),
		},
		Text: subj.markdown,
		Fields: []LegacyField{
			{Title: "Board", Value: boardLink(b.board), Style: "Short"},
		},
		Footnote: &LegacyFootnote{Text: "Trello", Time: b.date},
	}
	if b.actor.Username != "" {
		att.Author.URI = memberURL(b.actor)
	}

	switch e := ev.(type) {
	case *listEvent:
		att.Fields = append(att.Fields, LegacyField{Title: "List", Value: e.list.Name, Style: "Short"})
	case *checklistEvent:
		att.Fields = append(att.Fields,
			LegacyField{Title: "Card", Value: cardLink(e.card), Style: "Short"},
			LegacyField{Title: "Checklist", Value: e.checklist.Name, Style: "Short"},
		)
	case *cardEvent:
		cv := r.newCardView(e, c)
		listTitle := "List"
		if !cv.hasList {
			listTitle = "Card"
		}
		att.Fields = append(att.Fields, LegacyField{Title: listTitle, Value: cv.listName, Style: "Short"})
		if e.actionType == "commentCard" && cv.comment != "" {
			att.Fields = append(att.Fields, LegacyField{Title: "Comment", Value: cv.comment, Style: "Long"})
		}
		if e.key == "action_changed_description_of_card" && cv.description != "" {
			att.Fields = append(att.Fields, LegacyField{Title: "Description", Value: cv.description, Style: "Long"})
		}
		if len(cv.members) > 0 {
			att.Fields = append(att.Fields, LegacyField{Title: "Members", Value: memberNames(cv.members), Style: "Long"})
		}
	}

	return &LegacyMessage{
		Activity:    legacyActivity,
		Icon:        r.fallbackIcon,
		Attachments: []LegacyAttachment{att},
	}, nil
}
