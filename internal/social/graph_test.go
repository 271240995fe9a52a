package social

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T, handler http.HandlerFunc) *GraphClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGraphClient(server.URL, "https://dialog.example/oauth", "app-1", "secret-1", server.Client())
}

func TestAuthorizeURL(t *testing.T) {
	g := NewGraphClient("https://graph.example", "https://dialog.example/oauth", "app-1", "secret-1", nil)

	u, err := url.Parse(g.AuthorizeURL("https://api.example/social/oauth/callback", "st-1"))
	require.NoError(t, err)
	assert.Equal(t, "dialog.example", u.Host)
	assert.Equal(t, "app-1", u.Query().Get("client_id"))
	assert.Equal(t, "st-1", u.Query().Get("state"))
	assert.Contains(t, u.Query().Get("scope"), "pages_messaging")
}

func TestExchangeCode(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		assert.Equal(t, "the-code", r.URL.Query().Get("code"))
		assert.Equal(t, "secret-1", r.URL.Query().Get("client_secret"))
		_, _ = io.WriteString(w, `{"access_token":"short","token_type":"bearer","expires_in":3600}`)
	})

	tok, err := g.ExchangeCode(context.Background(), "the-code", "https://cb")
	require.NoError(t, err)
	assert.Equal(t, "short", tok.AccessToken)
	require.NotNil(t, tok.ExpiresAt)
}

func TestListPages(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/accounts", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[
			{"id":"p1","name":"Glow Nails","access_token":"pt1","instagram_business_account":{"id":"ig1","username":"glownails"}},
			{"id":"p2","name":"Glow Spa","access_token":"pt2"}
		]}`)
	})

	pages, err := g.ListPages(context.Background(), "long")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "ig1", pages[0].InstagramID)
	assert.Equal(t, "glownails", pages[0].InstagramUsername)
	assert.Empty(t, pages[1].InstagramID)
}

func TestPublishPage_Photo(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/p1/photos", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://img/x.jpg", r.PostForm.Get("url"))
		assert.Equal(t, "New art", r.PostForm.Get("caption"))
		_, _ = io.WriteString(w, `{"id":"photo-1","post_id":"p1_99"}`)
	})

	id, err := g.PublishPage(context.Background(), "p1", "pt", "New art", "https://img/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "p1_99", id)
}

func TestSendMessage(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "pt", r.URL.Query().Get("access_token"))
		var body struct {
			Recipient struct {
				ID string `json:"id"`
			} `json:"recipient"`
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
			MessagingType string `json:"messaging_type"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u-1", body.Recipient.ID)
		assert.Equal(t, "See you then", body.Message.Text)
		assert.Equal(t, "RESPONSE", body.MessagingType)
		_, _ = io.WriteString(w, `{"recipient_id":"u-1","message_id":"m-9"}`)
	})

	mid, err := g.SendMessage(context.Background(), "pt", "u-1", "See you then")
	require.NoError(t, err)
	assert.Equal(t, "m-9", mid)
}

func TestGraphError_TokenInvalid(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Session has expired","type":"OAuthException","code":190}}`)
	})

	_, err := g.SendMessage(context.Background(), "pt", "u-1", "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))

	var gerr *GraphError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Session has expired", gerr.Message)
}
