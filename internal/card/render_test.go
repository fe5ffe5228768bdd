package card_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/chxlky/trello-ringcentral-relay/internal/card"
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/gt"
)

var (
	testBoard = &models.TrelloBoardData{ID: "b1", Name: "Roadmap", ShortLink: "bShort"}
	testActor = models.TrelloMember{ID: "m1", Username: "alice", FullName: "Alice Doe", AvatarURL: "https://trello-members.s3.amazonaws.com/m1/abc"}
	testCard  = &models.TrelloCardData{ID: "c1", Name: "Ship it", ShortLink: "cShort"}
	testList  = &models.TrelloListData{ID: "l1", Name: "Doing"}

	red   = models.TrelloLabel{ID: "lab-red", Name: "Bug", Color: "red"}
	green = models.TrelloLabel{ID: "lab-green", Color: "green"}
)

func cardAction(actionType, key string) *models.TrelloAction {
	a := &models.TrelloAction{
		Type:          actionType,
		MemberCreator: testActor,
		Data: models.TrelloActionData{
			Board: testBoard,
			Card:  testCard,
			List:  testList,
		},
	}
	if key != "" {
		a.Display = &models.TrelloDisplay{TranslationKey: key}
	}
	return a
}

func region(t *testing.T, doc *card.Element, id string) *card.Element {
	t.Helper()
	node := card.Find(doc, id)
	gt.Value(t, node).NotNil().Required()
	return node
}

func hiddenFlag(node *card.Element) bool {
	return node.IsVisible != nil && !*node.IsVisible
}

func TestRenderCardRegions(t *testing.T) {
	r := card.NewRenderer(card.WithIconBaseURL("https://icons.test"))

	t.Run("label forms follow board and card labels", func(t *testing.T) {
		doc, err := r.Render(cardAction("createCard", ""), card.Context{
			BotID:       "bot",
			BoardLabels: []models.TrelloLabel{red},
			FetchedCard: &models.TrelloCardData{ID: "c1", Labels: []models.TrelloLabel{red}},
		})
		gt.NoError(t, err).Required()

		gt.Bool(t, hiddenFlag(region(t, doc, "addLabelForm"))).True()
		gt.Bool(t, hiddenFlag(region(t, doc, "removeLabelForm"))).False()
		gt.Bool(t, hiddenFlag(region(t, doc, "selectedLabels"))).False()
		gt.Value(t, region(t, doc, "removeLabelId").Value).Equal("lab-red")
	})

	t.Run("card without labels hides remove form and label display", func(t *testing.T) {
		doc, err := r.Render(cardAction("createCard", ""), card.Context{
			BotID:       "bot",
			BoardLabels: []models.TrelloLabel{red, green},
			FetchedCard: &models.TrelloCardData{ID: "c1"},
		})
		gt.NoError(t, err).Required()

		gt.Bool(t, hiddenFlag(region(t, doc, "removeLabelForm"))).True()
		gt.Bool(t, hiddenFlag(region(t, doc, "selectedLabels"))).True()
		gt.Bool(t, hiddenFlag(region(t, doc, "addLabelForm"))).False()

		add := region(t, doc, "addLabelId")
		gt.Value(t, add.Value).Equal("lab-red")
		gt.Array(t, add.Choices).Length(2)
		gt.Value(t, add.Choices[1].Title).Equal("green")
	})

	t.Run("comment area is revealed by removing the flag", func(t *testing.T) {
		action := cardAction("commentCard", "action_comment_on_card")
		action.Data.Text = strings.Repeat("a", 1000)

		doc, err := r.Render(action, card.Context{BotID: "bot"})
		gt.NoError(t, err).Required()

		area := region(t, doc, "commentArea")
		gt.Bool(t, area.IsVisible == nil).True()
		raw, err := json.Marshal(area)
		gt.NoError(t, err).Required()
		gt.Bool(t, strings.Contains(string(raw), "isVisible")).False()

		gt.Value(t, region(t, doc, "comment").Text).Equal(strings.Repeat("a", 600) + "...")
		gt.Bool(t, hiddenFlag(region(t, doc, "descriptionArea"))).True()
	})

	t.Run("description area only for description changes", func(t *testing.T) {
		action := cardAction("updateCard", "action_changed_description_of_card")
		c := *testCard
		c.Desc = strings.Repeat("d", 1000)
		action.Data.Card = &c

		doc, err := r.Render(action, card.Context{BotID: "bot"})
		gt.NoError(t, err).Required()

		gt.Bool(t, region(t, doc, "descriptionArea").IsVisible == nil).True()
		gt.Value(t, region(t, doc, "description").Text).Equal(strings.Repeat("d", 800) + "...")
		gt.Bool(t, hiddenFlag(region(t, doc, "commentArea"))).True()
	})

	t.Run("card-level events relabel the list field", func(t *testing.T) {
		action := cardAction("addMemberToCard", "")
		action.Data.List = nil
		action.Member = &models.TrelloMember{Username: "bob", FullName: "Bob Roe"}

		doc, err := r.Render(action, card.Context{BotID: "bot"})
		gt.NoError(t, err).Required()
		gt.Value(t, region(t, doc, "listLabel").Text).Equal("Card")
		gt.String(t, region(t, doc, "listValue").Text).Contains("Ship it")
	})

	t.Run("list field keeps its label when the action has a list", func(t *testing.T) {
		doc, err := r.Render(cardAction("createCard", ""), card.Context{BotID: "bot"})
		gt.NoError(t, err).Required()
		gt.Value(t, region(t, doc, "listLabel").Text).Equal("List")
		gt.Value(t, region(t, doc, "listValue").Text).Equal("Doing")
	})

	t.Run("buttons hidden when disabled", func(t *testing.T) {
		doc, err := r.Render(cardAction("createCard", ""), card.Context{BotID: "bot", DisableButtons: true})
		gt.NoError(t, err).Required()
		gt.Bool(t, hiddenFlag(region(t, doc, "primaryActions"))).True()
		gt.Bool(t, hiddenFlag(region(t, doc, "secondaryActions"))).True()
	})

	t.Run("buttons hidden for archived cards", func(t *testing.T) {
		doc, err := r.Render(cardAction("updateCard", "action_archived_card"), card.Context{BotID: "bot"})
		gt.NoError(t, err).Required()
		gt.Bool(t, hiddenFlag(region(t, doc, "primaryActions"))).True()
		gt.Bool(t, hiddenFlag(region(t, doc, "secondaryActions"))).True()
	})

	t.Run("buttons shown otherwise", func(t *testing.T) {
		doc, err := r.Render(cardAction("createCard", ""), card.Context{BotID: "bot", WebhookID: "sub-1"})
		gt.NoError(t, err).Required()
		actions := region(t, doc, "primaryActions")
		gt.Bool(t, hiddenFlag(actions)).False()
		gt.Value(t, actions.Actions[0].Data["webhookId"]).Equal("sub-1")
		gt.Value(t, actions.Actions[0].Data["cardId"]).Equal("c1")
	})

	t.Run("migration warning only without a bot", func(t *testing.T) {
		doc, err := r.Render(cardAction("createCard", ""), card.Context{})
		gt.NoError(t, err).Required()
		gt.Bool(t, region(t, doc, "migrationWarning").IsVisible == nil).True()

		doc, err = r.Render(cardAction("createCard", ""), card.Context{BotID: "bot"})
		gt.NoError(t, err).Required()
		gt.Bool(t, hiddenFlag(region(t, doc, "migrationWarning"))).True()
	})

	t.Run("due date and members", func(t *testing.T) {
		doc, err := r.Render(cardAction("createCard", ""), card.Context{BotID: "bot"})
		gt.NoError(t, err).Required()
		gt.Bool(t, hiddenFlag(region(t, doc, "dueDate"))).True()
		gt.Bool(t, hiddenFlag(region(t, doc, "members"))).True()

		doc, err = r.Render(cardAction("createCard", ""), card.Context{
			BotID:       "bot",
			FetchedCard: &models.TrelloCardData{ID: "c1", Due: "2026-10-20T12:00:00.000Z"},
			CardMembers: []models.TrelloMember{{Username: "bob", FullName: "Bob Roe"}},
		})
		gt.NoError(t, err).Required()
		gt.Bool(t, hiddenFlag(region(t, doc, "dueDate"))).False()
		gt.String(t, region(t, doc, "dueDateValue").Text).Contains("2026-10-20T12:00:00.000Z")
		gt.String(t, region(t, doc, "memberNames").Text).Contains("Bob Roe")
	})
}

func TestRenderAvatar(t *testing.T) {
	r := card.NewRenderer(card.WithFallbackAvatar("https://fallback.test/icon.png"))
	avatarOf := func(doc *card.Element) string {
		return region(t, doc, "header").Columns[0].Items[0].URL
	}

	doc, err := r.Render(cardAction("createCard", ""), card.Context{})
	gt.NoError(t, err).Required()
	gt.Value(t, avatarOf(doc)).Equal(testActor.AvatarURL + "/50.png")

	action := cardAction("createCard", "")
	action.MemberCreator.AvatarURL = ""
	doc, err = r.Render(action, card.Context{})
	gt.NoError(t, err).Required()
	gt.Value(t, avatarOf(doc)).Equal("https://fallback.test/icon.png")
}

func TestRenderSubjects(t *testing.T) {
	r := card.NewRenderer()
	member := &models.TrelloMember{Username: "bob", FullName: "Bob Roe"}

	testCases := []struct {
		name     string
		action   *models.TrelloAction
		markdown string
		fallback string
	}{
		{
			name: "member added to board",
			action: &models.TrelloAction{Type: "addMemberToBoard", Member: member,
				Data: models.TrelloActionData{Board: testBoard}},
			markdown: "Added [Bob Roe](https://trello.com/bob) to [Roadmap](https://trello.com/b/bShort)",
			fallback: "Added Bob Roe to Roadmap",
		},
		{
			name: "list moved from board",
			action: &models.TrelloAction{Type: "moveListFromBoard",
				Data: models.TrelloActionData{Board: testBoard, List: testList}},
			markdown: "List **Doing** moved from [Roadmap](https://trello.com/b/bShort)",
			fallback: "List Doing moved from Roadmap",
		},
		{
			name: "board renamed",
			action: &models.TrelloAction{Type: "updateBoard", Display: &models.TrelloDisplay{TranslationKey: "action_update_board_name"},
				Data: models.TrelloActionData{Board: testBoard, Old: &models.TrelloOldData{Name: "Plans"}}},
			markdown: "Renamed Plans to [Roadmap](https://trello.com/b/bShort)",
			fallback: "Renamed Plans to Roadmap",
		},
		{
			name: "list created",
			action: &models.TrelloAction{Type: "createList",
				Data: models.TrelloActionData{Board: testBoard, List: testList}},
			markdown: "Created **Doing**",
			fallback: "Created Doing",
		},
		{
			name: "list archived",
			action: &models.TrelloAction{Type: "updateList", Display: &models.TrelloDisplay{TranslationKey: "action_archived_list"},
				Data: models.TrelloActionData{Board: testBoard, List: testList}},
			markdown: "Archived **Doing**",
			fallback: "Archived Doing",
		},
		{
			name:     "card created",
			action:   cardAction("createCard", ""),
			markdown: "New card created: [Ship it](https://trello.com/c/cShort)",
			fallback: "New card created: Ship it",
		},
		{
			name: "label removed",
			action: func() *models.TrelloAction {
				a := cardAction("removeLabelFromCard", "")
				a.Data.Label = &models.TrelloLabel{ID: "x"}
				return a
			}(),
			markdown: "Removed label **No color** from [Ship it](https://trello.com/c/cShort)",
			fallback: "Removed label No color from Ship it",
		},
		{
			name: "card moved",
			action: func() *models.TrelloAction {
				a := cardAction("updateCard", "action_move_card_from_list_to_list")
				a.Data.List = nil
				a.Data.ListBefore = &models.TrelloListData{Name: "Todo"}
				a.Data.ListAfter = testList
				return a
			}(),
			markdown: "Moved [Ship it](https://trello.com/c/cShort) from **Todo** to **Doing**",
			fallback: "Moved Ship it from Todo to Doing",
		},
		{
			name: "due date added",
			action: func() *models.TrelloAction {
				a := cardAction("updateCard", "action_added_a_due_date")
				c := *testCard
				c.Due = "2026-10-20T12:00:00.000Z"
				a.Data.Card = &c
				return a
			}(),
			markdown: "Added due date into [Ship it](https://trello.com/c/cShort): {{DATE(2026-10-20T12:00:00.000Z, SHORT)}} {{TIME(2026-10-20T12:00:00.000Z)}}",
			fallback: "Added due date into Ship it: 2026-10-20T12:00:00.000Z",
		},
		{
			name:     "due date removed",
			action:   cardAction("updateCard", "action_removed_a_due_date"),
			markdown: "Removed due date from [Ship it](https://trello.com/c/cShort)",
			fallback: "Removed due date from Ship it",
		},
		{
			name: "check item completed",
			action: &models.TrelloAction{Type: "updateCheckItemStateOnCard", Display: &models.TrelloDisplay{TranslationKey: "action_completed_checkitem"},
				Data: models.TrelloActionData{Board: testBoard, Card: testCard,
					Checklist: &models.TrelloChecklistData{Name: "Release"}, CheckItem: &models.TrelloCheckItemData{Name: "Tag"}}},
			markdown: "Marked ~~Tag~~ completed.",
			fallback: "Marked Tag completed.",
		},
		{
			name: "check item created",
			action: &models.TrelloAction{Type: "createCheckItem",
				Data: models.TrelloActionData{Board: testBoard, Card: testCard,
					Checklist: &models.TrelloChecklistData{Name: "Release"}, CheckItem: &models.TrelloCheckItemData{Name: "Tag"}}},
			markdown: "Created check item **Tag** in **Release**.",
			fallback: "Created check item Tag in Release.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := r.Render(tc.action, card.Context{})
			gt.NoError(t, err).Required()
			gt.Value(t, region(t, doc, "subject").Text).Equal(tc.markdown)
			gt.Value(t, doc.Summary()).Equal(tc.fallback)
		})
	}
}

func TestRenderRejects(t *testing.T) {
	r := card.NewRenderer()

	t.Run("unknown action type", func(t *testing.T) {
		_, err := r.Render(&models.TrelloAction{Type: "createLabel", Data: models.TrelloActionData{Board: testBoard}}, card.Context{})
		gt.Error(t, err).Is(card.ErrUnsupportedAction)
	})

	t.Run("unknown translation key", func(t *testing.T) {
		_, err := r.Render(cardAction("updateCard", "action_something_new"), card.Context{})
		gt.Error(t, err).Is(card.ErrUnsupportedAction)
	})

	t.Run("gated type without display", func(t *testing.T) {
		_, err := r.Render(cardAction("updateCard", ""), card.Context{})
		gt.Error(t, err).Is(card.ErrUnsupportedAction)
	})

	t.Run("card action without card", func(t *testing.T) {
		action := cardAction("createCard", "")
		action.Data.Card = nil
		_, err := r.Render(action, card.Context{})
		gt.Error(t, err).Is(card.ErrMalformedPayload)
	})

	t.Run("board falls back to the webhook model", func(t *testing.T) {
		action := cardAction("createCard", "")
		action.Data.Board = nil
		doc, err := r.Render(action, card.Context{BoardModel: testBoard})
		gt.NoError(t, err).Required()
		gt.String(t, region(t, doc, "boardValue").Text).Contains("https://trello.com/b/bShort")

		_, err = r.Render(action, card.Context{})
		gt.Error(t, err).Is(card.ErrMalformedPayload)
	})
}

func TestRenderLegacy(t *testing.T) {
	r := card.NewRenderer()

	action := cardAction("commentCard", "action_comment_on_card")
	action.Data.List = nil
	action.Data.Text = "looks good"

	msg, err := r.RenderLegacy(action, card.Context{})
	gt.NoError(t, err).Required()
	gt.Array(t, msg.Attachments).Length(1).Required()

	att := msg.Attachments[0]
	gt.Value(t, msg.Summary()).Equal("Added a comment to Ship it")
	gt.Value(t, att.Text).Equal("Added a comment to [Ship it](https://trello.com/c/cShort)")
	gt.Value(t, att.Author.Name).Equal("Alice Doe")

	titles := map[string]string{}
	for _, f := range att.Fields {
		titles[f.Title] = f.Value
	}
	gt.Map(t, titles).HasKey("Card")
	gt.Value(t, titles["Comment"]).Equal("looks good")
}
