package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
)

const defaultTrelloBaseURL = "https://api.trello.com/1"

// cardFields are the card properties the notification card shows.
const cardFields = "name,desc,due,shortLink,closed,idList,labels"

type TrelloClient struct {
	Client  *http.Client
	APIKey  string
	BaseURL string
}

func NewTrelloClient(key string) *TrelloClient {
	return &TrelloClient{
		Client:  &http.Client{Timeout: 15 * time.Second},
		APIKey:  key,
		BaseURL: defaultTrelloBaseURL,
	}
}

func (tc *TrelloClient) authValues(token string) url.Values {
	v := url.Values{}
	v.Set("key", tc.APIKey)
	v.Set("token", token)
	return v
}

// get decodes the JSON answer of a Trello GET request into out.
func (tc *TrelloClient) get(ctx context.Context, token, path string, query url.Values, out any) error {
	q := tc.authValues(token)
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tc.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create get request", goerr.V("path", path))
	}
	resp, err := tc.Client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send get request", goerr.V("path", path))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return goerr.Wrap(newAPIError("trello", resp), "trello request failed", goerr.V("path", path))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode Trello response", goerr.V("path", path))
	}
	return nil
}

// GetCard fetches the live state of a card, including its labels.
func (tc *TrelloClient) GetCard(ctx context.Context, token, cardID string) (*models.TrelloCardData, error) {
	var card models.TrelloCardData
	q := url.Values{}
	q.Set("fields", cardFields)
	if err := tc.get(ctx, token, "/cards/"+url.PathEscape(cardID), q, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (tc *TrelloClient) GetCardMembers(ctx context.Context, token, cardID string) ([]models.TrelloMember, error) {
	var members []models.TrelloMember
	q := url.Values{}
	q.Set("fields", "username,fullName,avatarUrl")
	if err := tc.get(ctx, token, "/cards/"+url.PathEscape(cardID)+"/members", q, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (tc *TrelloClient) GetLabels(ctx context.Context, token, boardID string) ([]models.TrelloLabel, error) {
	var labels []models.TrelloLabel
	q := url.Values{}
	q.Set("fields", "name,color")
	q.Set("limit", "1000")
	if err := tc.get(ctx, token, "/boards/"+url.PathEscape(boardID)+"/labels", q, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// GetMe returns the member who granted the token.
func (tc *TrelloClient) GetMe(ctx context.Context, token string) (*models.TrelloMember, error) {
	var me models.TrelloMember
	q := url.Values{}
	q.Set("fields", "username,fullName,avatarUrl")
	if err := tc.get(ctx, token, "/members/me", q, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (tc *TrelloClient) RegisterWebhook(ctx context.Context, token, boardID, callbackURL string) (string, error) {
	formData := tc.authValues(token)
	formData.Set("callbackURL", callbackURL)
	formData.Set("idModel", boardID)
	formData.Set("description", "RingCentral notifications")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.BaseURL+"/webhooks/", bytes.NewBufferString(formData.Encode()))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create post request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tc.Client.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to send post request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", goerr.Wrap(newAPIError("trello", resp), "failed to register webhook", goerr.V("boardID", boardID))
	}

	var webhook struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&webhook); err != nil {
		return "", goerr.Wrap(err, "failed to decode Trello response")
	}

	zap.L().Info("Registered Trello webhook", zap.String("webhookID", webhook.ID), zap.String("boardID", boardID))
	return webhook.ID, nil
}

func (tc *TrelloClient) DeleteWebhook(ctx context.Context, token, webhookID string) error {
	apiURL := tc.BaseURL + "/webhooks/" + url.PathEscape(webhookID) + "?" + tc.authValues(token).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, apiURL, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create delete request")
	}

	resp, err := tc.Client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send delete request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return goerr.Wrap(newAPIError("trello", resp), "failed to delete webhook", goerr.V("webhookID", webhookID))
	}

	zap.L().Info("Deleted Trello webhook", zap.String("webhookID", webhookID))
	return nil
}
