// Package card turns Trello actions into RingCentral notification payloads:
// Adaptive Cards for bots and incoming webhooks, and the older Glip
// attachment card for webhooks that have not migrated.
package card

const (
	adaptiveCardSchema  = "http://adaptivecards.io/schemas/adaptive-card.json"
	adaptiveCardVersion = "1.3"
)

// Element is one node of an Adaptive Card document. Only the properties the
// templates use are modelled. A nil IsVisible means the node uses the
// client's default (visible).
type Element struct {
	Schema       string `json:"$schema,omitempty"`
	Type         string `json:"type"`
	Version      string `json:"version,omitempty"`
	FallbackText string `json:"fallbackText,omitempty"`

	ID        string `json:"id,omitempty"`
	IsVisible *bool  `json:"isVisible,omitempty"`

	Text        string            `json:"text,omitempty"`
	Title       string            `json:"title,omitempty"`
	URL         string            `json:"url,omitempty"`
	AltText     string            `json:"altText,omitempty"`
	Size        string            `json:"size,omitempty"`
	Weight      string            `json:"weight,omitempty"`
	Style       string            `json:"style,omitempty"`
	Width       string            `json:"width,omitempty"`
	Spacing     string            `json:"spacing,omitempty"`
	Wrap        bool              `json:"wrap,omitempty"`
	IsSubtle    bool              `json:"isSubtle,omitempty"`
	Value       string            `json:"value,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Choices     []Choice          `json:"choices,omitempty"`
	Data        map[string]string `json:"data,omitempty"`

	Body    []*Element `json:"body,omitempty"`
	Items   []*Element `json:"items,omitempty"`
	Columns []*Element `json:"columns,omitempty"`
	Actions []*Element `json:"actions,omitempty"`
}

type Choice struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Summary returns the plain-text rendering of the card.
func (e *Element) Summary() string {
	return e.FallbackText
}

// Visible reports whether the node would be shown by a client.
func (e *Element) Visible() bool {
	return e.IsVisible == nil || *e.IsVisible
}

// Find returns the first node with the given id in document order, searching
// body, items, columns and actions depth first. The returned node is part of
// the document, so callers may modify it in place.
func Find(node *Element, id string) *Element {
	if node == nil {
		return nil
	}
	if node.ID == id {
		return node
	}
	for _, children := range [][]*Element{node.Body, node.Items, node.Columns, node.Actions} {
		for _, child := range children {
			if found := Find(child, id); found != nil {
				return found
			}
		}
	}
	return nil
}
