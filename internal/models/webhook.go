package models

type TrelloMember struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// TrelloLabel is a board label. Trello sends a null color for colorless
// labels, which decodes to the empty string.
type TrelloLabel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type TrelloCardData struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Desc      string        `json:"desc"`
	Due       string        `json:"due"`
	ShortLink string        `json:"shortLink"`
	Closed    bool          `json:"closed"`
	IDList    string        `json:"idList"`
	Labels    []TrelloLabel `json:"labels"`
}

type TrelloBoardData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortLink string `json:"shortLink"`
}

type TrelloListData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

type TrelloChecklistData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloCheckItemData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

type TrelloAttachmentData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TrelloOldData holds the previous values of fields changed by an update action.
type TrelloOldData struct {
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Due    string `json:"due"`
	Closed bool   `json:"closed"`
	IDList string `json:"idList"`
}

type TrelloDisplay struct {
	TranslationKey string `json:"translationKey"`
}

type TrelloActionData struct {
	Board      *TrelloBoardData      `json:"board,omitempty"`
	List       *TrelloListData       `json:"list,omitempty"`
	ListBefore *TrelloListData       `json:"listBefore,omitempty"`
	ListAfter  *TrelloListData       `json:"listAfter,omitempty"`
	Card       *TrelloCardData       `json:"card,omitempty"`
	Label      *TrelloLabel          `json:"label,omitempty"`
	Checklist  *TrelloChecklistData  `json:"checklist,omitempty"`
	CheckItem  *TrelloCheckItemData  `json:"checkItem,omitempty"`
	Attachment *TrelloAttachmentData `json:"attachment,omitempty"`
	Old        *TrelloOldData        `json:"old,omitempty"`
	Text       string                `json:"text,omitempty"`
}

type TrelloAction struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"` // e.g., "updateCard"
	Date          string           `json:"date"`
	Display       *TrelloDisplay   `json:"display,omitempty"`
	Data          TrelloActionData `json:"data"`
	MemberCreator TrelloMember     `json:"memberCreator"`
	Member        *TrelloMember    `json:"member,omitempty"`
}

// TranslationKey returns the display sub-classifier, or "" when the action
// carries no display block.
func (a *TrelloAction) TranslationKey() string {
	if a == nil || a.Display == nil {
		return ""
	}
	return a.Display.TranslationKey
}

// TrelloWebhookPayload is the body Trello posts to a webhook callback. Model
// is the watched board.
type TrelloWebhookPayload struct {
	Action TrelloAction    `json:"action"`
	Model  TrelloBoardData `json:"model"`
}
