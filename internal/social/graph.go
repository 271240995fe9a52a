package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// OAuthScopes requested when a salon connects its pages.
var OAuthScopes = []string{
	"pages_show_list",
	"pages_manage_posts",
	"pages_read_engagement",
	"pages_messaging",
	"instagram_basic",
	"instagram_content_publish",
	"instagram_manage_messages",
}

// ErrTokenInvalid is returned when the platform rejects an access token.
var ErrTokenInvalid = errors.New("social access token is invalid or expired")

// GraphError is an error payload returned by the Graph API.
type GraphError struct {
	Status  int
	Code    int64
	Type    string
	Message string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api %d (code %d %s): %s", e.Status, e.Code, e.Type, e.Message)
}

// Is lets errors.Is match token failures.
func (e *GraphError) Is(target error) bool {
	return target == ErrTokenInvalid && (e.Code == 190 || e.Type == "OAuthException" && e.Status == http.StatusUnauthorized)
}

type Token struct {
	AccessToken string
	ExpiresAt   *time.Time
}

// Page is a Facebook page the user manages, with its linked Instagram business account if any.
type Page struct {
	ID                string
	Name              string
	AccessToken       string
	InstagramID       string
	InstagramUsername string
}

type GraphClient struct {
	graphURL  string
	dialogURL string
	appID     string
	appSecret string
	http      *http.Client
}

func NewGraphClient(graphURL, dialogURL, appID, appSecret string, client *http.Client) *GraphClient {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &GraphClient{
		graphURL:  strings.TrimRight(graphURL, "/"),
		dialogURL: dialogURL,
		appID:     appID,
		appSecret: appSecret,
		http:      client,
	}
}

// AuthorizeURL is where the browser is sent to grant page access.
func (g *GraphClient) AuthorizeURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", g.appID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(OAuthScopes, ","))
	return g.dialogURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for a short-lived user token.
func (g *GraphClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	q := url.Values{}
	q.Set("client_id", g.appID)
	q.Set("client_secret", g.appSecret)
	q.Set("redirect_uri", redirectURI)
	q.Set("code", code)
	return g.token(ctx, q)
}

// LongLivedToken exchanges a short-lived user token for a long-lived one.
func (g *GraphClient) LongLivedToken(ctx context.Context, shortLived string) (*Token, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", g.appID)
	q.Set("client_secret", g.appSecret)
	q.Set("fb_exchange_token", shortLived)
	return g.token(ctx, q)
}

func (g *GraphClient) token(ctx context.Context, q url.Values) (*Token, error) {
	body, err := g.do(ctx, http.MethodGet, "/oauth/access_token", q, nil)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(body)
	tok := &Token{AccessToken: res.Get("access_token").String()}
	if tok.AccessToken == "" {
		return nil, errors.New("graph api returned no access token")
	}
	if secs := res.Get("expires_in").Int(); secs > 0 {
		exp := time.Now().Add(time.Duration(secs) * time.Second).UTC()
		tok.ExpiresAt = &exp
	}
	return tok, nil
}

// ListPages returns the pages granted to the app.
func (g *GraphClient) ListPages(ctx context.Context, userToken string) ([]Page, error) {
	q := url.Values{}
	q.Set("fields", "id,name,access_token,instagram_business_account{id,username}")
	q.Set("access_token", userToken)
	body, err := g.do(ctx, http.MethodGet, "/me/accounts", q, nil)
	if err != nil {
		return nil, err
	}

	var pages []Page
	gjson.GetBytes(body, "data").ForEach(func(_, p gjson.Result) bool {
		pages = append(pages, Page{
			ID:                p.Get("id").String(),
			Name:              p.Get("name").String(),
			AccessToken:       p.Get("access_token").String(),
			InstagramID:       p.Get("instagram_business_account.id").String(),
			InstagramUsername: p.Get("instagram_business_account.username").String(),
		})
		return true
	})
	return pages, nil
}

// PublishPage posts to a Facebook page feed, or as a photo when imageURL is set.
func (g *GraphClient) PublishPage(ctx context.Context, pageID, pageToken, message, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("access_token", pageToken)
	path := "/" + url.PathEscape(pageID) + "/feed"
	if imageURL != "" {
		path = "/" + url.PathEscape(pageID) + "/photos"
		form.Set("url", imageURL)
		form.Set("caption", message)
	} else {
		form.Set("message", message)
	}

	body, err := g.do(ctx, http.MethodPost, path, nil, form)
	if err != nil {
		return "", err
	}
	res := gjson.ParseBytes(body)
	// Photo posts return the feed story as post_id.
	if id := res.Get("post_id").String(); id != "" {
		return id, nil
	}
	return res.Get("id").String(), nil
}

// PublishInstagram creates and publishes an image container. Instagram has no text-only posts.
func (g *GraphClient) PublishInstagram(ctx context.Context, igUserID, pageToken, caption, imageURL string) (string, error) {
	if imageURL == "" {
		return "", errors.New("instagram posts require an image")
	}
	form := url.Values{}
	form.Set("access_token", pageToken)
	form.Set("image_url", imageURL)
	form.Set("caption", caption)
	body, err := g.do(ctx, http.MethodPost, "/"+url.PathEscape(igUserID)+"/media", nil, form)
	if err != nil {
		return "", err
	}
	creationID := gjson.GetBytes(body, "id").String()

	publish := url.Values{}
	publish.Set("access_token", pageToken)
	publish.Set("creation_id", creationID)
	body, err = g.do(ctx, http.MethodPost, "/"+url.PathEscape(igUserID)+"/media_publish", nil, publish)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "id").String(), nil
}

// SendMessage replies to a user through the Send API and returns the platform message id.
func (g *GraphClient) SendMessage(ctx context.Context, pageToken, recipientID, text string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"recipient":      map[string]string{"id": recipientID},
		"message":        map[string]string{"text": text},
		"messaging_type": "RESPONSE",
	})
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("access_token", pageToken)
	body, err := g.doJSON(ctx, "/me/messages", q, payload)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "message_id").String(), nil
}

func (g *GraphClient) do(ctx context.Context, method, path string, query, form url.Values) ([]byte, error) {
	endpoint := g.graphURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return g.send(req)
}

func (g *GraphClient) doJSON(ctx context.Context, path string, query url.Values, payload []byte) ([]byte, error) {
	endpoint := g.graphURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return g.send(req)
}

func (g *GraphClient) send(req *http.Request) ([]byte, error) {
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		res := gjson.GetBytes(body, "error")
		return nil, &GraphError{
			Status:  resp.StatusCode,
			Code:    res.Get("code").Int(),
			Type:    res.Get("type").String(),
			Message: res.Get("message").String(),
		}
	}
	return body, nil
}
