package card_test

import (
	"strings"
	"testing"

	"github.com/chxlky/trello-ringcentral-relay/internal/card"
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/gt"
)

func TestFormatLabel(t *testing.T) {
	t.Run("colorless unnamed label", func(t *testing.T) {
		l := card.FormatLabel(models.TrelloLabel{ID: "l1"}, "https://example.com/icons")
		gt.Value(t, l.Name).Equal("No color")
		gt.Bool(t, strings.HasSuffix(l.Icon, "nocolor.png")).True()
	})

	t.Run("unnamed label is named after its color", func(t *testing.T) {
		l := card.FormatLabel(models.TrelloLabel{ID: "l2", Color: "green"}, "https://example.com/icons/")
		gt.Value(t, l.Name).Equal("green")
		gt.Value(t, l.Icon).Equal("https://example.com/icons/green.png")
	})

	t.Run("name wins over color", func(t *testing.T) {
		l := card.FormatLabel(models.TrelloLabel{ID: "l3", Name: "Urgent", Color: "red"}, "/icons")
		gt.Value(t, l.Name).Equal("Urgent")
		gt.Value(t, l.Icon).Equal("/icons/red.png")
	})
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 1000)

	t.Run("comment limit", func(t *testing.T) {
		gt.Value(t, card.Truncate(long, card.CommentLimit)).Equal(strings.Repeat("a", 600) + "...")
	})

	t.Run("description limit", func(t *testing.T) {
		gt.Value(t, card.Truncate(long, card.DescriptionLimit)).Equal(strings.Repeat("a", 800) + "...")
	})

	t.Run("short text passes through", func(t *testing.T) {
		gt.Value(t, card.Truncate("hello", card.CommentLimit)).Equal("hello")
		exact := strings.Repeat("b", 600)
		gt.Value(t, card.Truncate(exact, card.CommentLimit)).Equal(exact)
	})

	t.Run("counts characters, not bytes", func(t *testing.T) {
		gt.Value(t, card.Truncate("ééé", 2)).Equal("éé...")
	})
}

func TestFind(t *testing.T) {
	target := &card.Element{Type: "TextBlock", ID: "deep", Text: "x"}
	doc := &card.Element{
		Type: "AdaptiveCard",
		Body: []*card.Element{
			{Type: "ColumnSet", ID: "cols", Columns: []*card.Element{
				{Type: "Column", Items: []*card.Element{target}},
			}},
			{Type: "ActionSet", Actions: []*card.Element{{Type: "Action.Submit", ID: "go"}}},
			{Type: "TextBlock", ID: "deep", Text: "second"},
		},
	}

	t.Run("finds first match in document order", func(t *testing.T) {
		found := card.Find(doc, "deep")
		gt.Value(t, found).NotNil().Required()
		gt.Value(t, found.Text).Equal("x")
	})

	t.Run("searches actions", func(t *testing.T) {
		gt.Value(t, card.Find(doc, "go")).NotNil()
	})

	t.Run("returns nil when absent", func(t *testing.T) {
		gt.Bool(t, card.Find(doc, "missing") == nil).True()
		gt.Bool(t, card.Find(nil, "deep") == nil).True()
	})

	t.Run("returned node is the document node", func(t *testing.T) {
		card.Find(doc, "deep").Text = "changed"
		gt.Value(t, target.Text).Equal("changed")
	})
}
