package card

import (
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrUnsupportedAction means no template exists for the action's type or
	// translation key. The action is acknowledged without a notification.
	ErrUnsupportedAction = goerr.New("no notification template for action")
	// ErrMalformedPayload means an entity the template needs is missing.
	ErrMalformedPayload = goerr.New("malformed trello action payload")
)

// Family groups action types that share a card layout.
type Family int

const (
	FamilyNone Family = iota
	FamilyBoard
	FamilyList
	FamilyCard
	FamilyChecklist
)

func (f Family) String() string {
	switch f {
	case FamilyBoard:
		return "board"
	case FamilyList:
		return "list"
	case FamilyCard:
		return "card"
	case FamilyChecklist:
		return "checklist"
	default:
		return "none"
	}
}

// Classify returns the family of a Trello action type.
func Classify(actionType string) Family {
	switch actionType {
	case "addMemberToBoard", "moveListFromBoard", "updateBoard":
		return FamilyBoard
	case "createList", "updateList":
		return FamilyList
	case "createCard", "commentCard", "addMemberToCard", "removeMemberFromCard",
		"addAttachmentToCard", "addLabelToCard", "removeLabelFromCard", "updateCard":
		return FamilyCard
	case "addChecklistToCard", "createCheckItem", "updateCheckItemStateOnCard":
		return FamilyChecklist
	default:
		return FamilyNone
	}
}

// event is an action narrowed to the fields its family's template reads.
type event interface {
	family() Family
	base() *eventBase
	subject() (subject, error)
}

type eventBase struct {
	actionType string
	key        string
	date       string
	actor      models.TrelloMember
	board      models.TrelloBoardData
}

func (b *eventBase) base() *eventBase { return b }

func (b *eventBase) unsupported() error {
	return goerr.Wrap(ErrUnsupportedAction, "no subject for action",
		goerr.V("type", b.actionType), goerr.V("translationKey", b.key))
}

func (b *eventBase) missing(field string) error {
	return goerr.Wrap(ErrMalformedPayload, "action is missing "+field,
		goerr.V("type", b.actionType), goerr.V("translationKey", b.key))
}

type boardEvent struct {
	eventBase
	member  *models.TrelloMember
	list    *models.TrelloListData
	oldName string
}

func (*boardEvent) family() Family { return FamilyBoard }

type listEvent struct {
	eventBase
	list    models.TrelloListData
	oldName string
}

func (*listEvent) family() Family { return FamilyList }

type cardEvent struct {
	eventBase
	card       models.TrelloCardData
	list       *models.TrelloListData
	listBefore *models.TrelloListData
	listAfter  *models.TrelloListData
	member     *models.TrelloMember
	label      *models.TrelloLabel
	attachment *models.TrelloAttachmentData
	old        models.TrelloOldData
	text       string
}

func (*cardEvent) family() Family { return FamilyCard }

type checklistEvent struct {
	eventBase
	card      models.TrelloCardData
	checklist models.TrelloChecklistData
	checkItem *models.TrelloCheckItemData
}

func (*checklistEvent) family() Family { return FamilyChecklist }

// narrow validates the action once and picks its family variant. boardModel
// stands in for data.board, which some Trello payloads omit.
func narrow(action *models.TrelloAction, boardModel *models.TrelloBoardData) (event, error) {
	if action == nil || action.Type == "" {
		return nil, goerr.Wrap(ErrMalformedPayload, "action has no type")
	}
	fam := Classify(action.Type)
	if fam == FamilyNone {
		return nil, goerr.Wrap(ErrUnsupportedAction, "unknown action type", goerr.V("type", action.Type))
	}

	base := eventBase{
		actionType: action.Type,
		key:        action.TranslationKey(),
		date:       action.Date,
		actor:      action.MemberCreator,
	}
	data := action.Data
	switch {
	case data.Board != nil:
		base.board = *data.Board
	case boardModel != nil:
		base.board = *boardModel
	default:
		return nil, base.missing("board")
	}
	if base.board.ShortLink == "" && boardModel != nil && boardModel.ID == base.board.ID {
		base.board.ShortLink = boardModel.ShortLink
	}

	var old models.TrelloOldData
	if data.Old != nil {
		old = *data.Old
	}

	switch fam {
	case FamilyBoard:
		return &boardEvent{eventBase: base, member: action.Member, list: data.List, oldName: old.Name}, nil
	case FamilyList:
		if data.List == nil {
			return nil, base.missing("list")
		}
		return &listEvent{eventBase: base, list: *data.List, oldName: old.Name}, nil
	case FamilyCard:
		if data.Card == nil {
			return nil, base.missing("card")
		}
		return &cardEvent{
			eventBase:  base,
			card:       *data.Card,
			list:       data.List,
			listBefore: data.ListBefore,
			listAfter:  data.ListAfter,
			member:     action.Member,
			label:      data.Label,
			attachment: data.Attachment,
			old:        old,
			text:       data.Text,
		}, nil
	case FamilyChecklist:
		if data.Card == nil {
			return nil, base.missing("card")
		}
		if data.Checklist == nil {
			return nil, base.missing("checklist")
		}
		return &checklistEvent{eventBase: base, card: *data.Card, checklist: *data.Checklist, checkItem: data.CheckItem}, nil
	}
	return nil, base.unsupported()
}
