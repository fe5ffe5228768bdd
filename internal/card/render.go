package card

import (
	"strings"

	"github.com/chxlky/trello-ringcentral-relay/internal/models"
)

const (
	DefaultIconBaseURL = "/static/icons"
	DefaultAvatarURL   = "https://trello.com/favicon.ico"
)

// Context is what the dispatcher knows about an action beyond its payload.
type Context struct {
	BoardModel     *models.TrelloBoardData
	WebhookID      string
	BotID          string
	DisableButtons bool
	BoardLabels    []models.TrelloLabel
	FetchedCard    *models.TrelloCardData
	CardMembers    []models.TrelloMember
}

// Payload is a rendered notification ready for a channel.
type Payload interface {
	Summary() string
}

type Renderer struct {
	iconBaseURL  string
	fallbackIcon string
}

type Option func(*Renderer)

// WithIconBaseURL sets where label color icons are served from.
func WithIconBaseURL(url string) Option {
	return func(r *Renderer) {
		if url != "" {
			r.iconBaseURL = url
		}
	}
}

// WithFallbackAvatar sets the image shown for actors without an avatar.
func WithFallbackAvatar(url string) Option {
	return func(r *Renderer) {
		if url != "" {
			r.fallbackIcon = url
		}
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		iconBaseURL:  DefaultIconBaseURL,
		fallbackIcon: DefaultAvatarURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render builds the Adaptive Card for an action. It returns
// ErrUnsupportedAction when the action has no template and
// ErrMalformedPayload when the payload lacks what the template needs.
func (r *Renderer) Render(action *models.TrelloAction, c Context) (*Element, error) {
	ev, err := narrow(action, c.BoardModel)
	if err != nil {
		return nil, err
	}
	subj, err := ev.subject()
	if err != nil {
		return nil, err
	}

	v := &view{
		actionType:     ev.base().actionType,
		key:            ev.base().key,
		botID:          c.BotID,
		disableButtons: c.DisableButtons,
	}
	avatar := r.avatar(ev.base().actor)

	var doc *Element
	rules := commonRules
	switch e := ev.(type) {
	case *boardEvent:
		doc = boardTemplate(e, subj, avatar)
	case *listEvent:
		doc = listTemplate(e, subj, avatar)
	case *cardEvent:
		v.card = r.newCardView(e, c)
		doc = cardTemplate(e, subj, avatar, v.card, c)
		rules = append(append([]regionRule(nil), commonRules...), cardRules...)
	case *checklistEvent:
		doc = checklistTemplate(e, subj, avatar)
	default:
		return nil, ev.base().unsupported()
	}
	doc.FallbackText = subj.plain
	applyRules(doc, rules, v)
	return doc, nil
}

// FormatLabels formats labels with the renderer's icon location.
func (r *Renderer) FormatLabels(labels []models.TrelloLabel) []FormattedLabel {
	return FormatLabels(labels, r.iconBaseURL)
}

// avatar returns the 50px rendition of the actor's Trello avatar.
func (r *Renderer) avatar(m models.TrelloMember) string {
	if strings.HasPrefix(m.AvatarURL, "http") {
		return m.AvatarURL + "/50.png"
	}
	return r.fallbackIcon
}

// view is the render-time state the region rules are evaluated against.
type view struct {
	actionType     string
	key            string
	botID          string
	disableButtons bool
	card           *cardView
}

type cardView struct {
	id          string
	name        string
	url         string
	listName    string
	hasList     bool
	due         string
	description string
	comment     string
	selected    []FormattedLabel
	unselected  []FormattedLabel
	members     []models.TrelloMember
}

// newCardView merges the webhook's lean card with the live card fetched
// from Trello and precomputes everything the card template shows.
func (r *Renderer) newCardView(e *cardEvent, c Context) *cardView {
	current := e.card
	if f := c.FetchedCard; f != nil {
		if current.Name == "" {
			current.Name = f.Name
		}
		if current.ShortLink == "" {
			current.ShortLink = f.ShortLink
		}
		if current.Desc == "" {
			current.Desc = f.Desc
		}
		if current.Due == "" {
			current.Due = f.Due
		}
		current.Labels = f.Labels
	}

	cv := &cardView{
		id:          current.ID,
		name:        current.Name,
		url:         cardURL(current),
		due:         current.Due,
		description: Truncate(current.Desc, DescriptionLimit),
		comment:     Truncate(e.text, CommentLimit),
		selected:    FormatLabels(current.Labels, r.iconBaseURL),
		unselected:  FormatLabels(unselectedLabels(c.BoardLabels, current.Labels), r.iconBaseURL),
		members:     c.CardMembers,
	}

	list := e.list
	if list == nil {
		list = e.listAfter
	}
	if list != nil {
		cv.hasList = true
		cv.listName = list.Name
	} else {
		cv.listName = link(current.Name, cv.url)
	}
	return cv
}

type effect int

const (
	reveal effect = iota
	hide
	relabel
)

// regionRule shows, hides or renames one region when its predicate holds.
// Templates declare regions that start hidden with isVisible=false; reveal
// removes the flag so the client default applies.
type regionRule struct {
	region string
	effect effect
	text   string
	when   func(v *view) bool
}

var commonRules = []regionRule{
	{region: "migrationWarning", effect: reveal, when: func(v *view) bool { return v.botID == "" }},
}

var cardRules = []regionRule{
	{region: "addLabelForm", effect: hide, when: func(v *view) bool { return len(v.card.unselected) == 0 }},
	{region: "removeLabelForm", effect: hide, when: func(v *view) bool { return len(v.card.selected) == 0 }},
	{region: "selectedLabels", effect: hide, when: func(v *view) bool { return len(v.card.selected) == 0 }},
	{region: "commentArea", effect: reveal, when: func(v *view) bool { return v.actionType == "commentCard" }},
	{region: "descriptionArea", effect: reveal, when: func(v *view) bool { return v.key == "action_changed_description_of_card" }},
	{region: "listLabel", effect: relabel, text: "Card", when: func(v *view) bool { return !v.card.hasList }},
	{region: "dueDate", effect: hide, when: func(v *view) bool { return v.card.due == "" }},
	{region: "members", effect: hide, when: func(v *view) bool { return len(v.card.members) == 0 }},
	{region: "primaryActions", effect: hide, when: buttonsDisabled},
	{region: "secondaryActions", effect: hide, when: buttonsDisabled},
}

func buttonsDisabled(v *view) bool {
	return v.disableButtons || v.key == "action_archived_card"
}

// applyRules evaluates every predicate against the view before touching the
// document, so the outcome does not depend on rule order.
func applyRules(doc *Element, rules []regionRule, v *view) {
	type change struct {
		node *Element
		rule regionRule
	}
	var changes []change
	for _, rule := range rules {
		if !rule.when(v) {
			continue
		}
		if node := Find(doc, rule.region); node != nil {
			changes = append(changes, change{node: node, rule: rule})
		}
	}

	for _, c := range changes {
		switch c.rule.effect {
		case reveal:
			c.node.IsVisible = nil
		case hide:
			c.node.IsVisible = invisible()
		case relabel:
			c.node.Text = c.rule.text
		}
	}
}

func invisible() *bool {
	f := false
	return &f
}
