package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"glowdesk/internal/caching"
	"glowdesk/internal/logging"
	"glowdesk/internal/models"
	"glowdesk/internal/social"
	"glowdesk/testhelpers"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testRedirect = "https://api.glowdesk.test/social/oauth/callback"

type SocialServiceTestSuite struct {
	suite.Suite
	repo      *MockSocialRepository
	cache     *testhelpers.MockCacheService
	graph     *MockGraphAPI
	publisher *MockPublisher
	service   SocialService
	tenantID  uuid.UUID
	ctx       context.Context
}

func (suite *SocialServiceTestSuite) SetupTest() {
	suite.repo = &MockSocialRepository{}
	suite.cache = &testhelpers.MockCacheService{}
	suite.graph = &MockGraphAPI{}
	suite.publisher = &MockPublisher{}
	suite.service = NewSocialService(suite.repo, suite.cache, suite.graph, suite.publisher,
		"app-secret", "verify-me", testRedirect, logging.Discard())
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func TestSocialServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SocialServiceTestSuite))
}

func (suite *SocialServiceTestSuite) TestStartOAuth_StoresState() {
	userID := uuid.New()
	var storedKey, storedState string
	suite.cache.On("SetString", suite.ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), oauthStateTTL).
		Run(func(args mock.Arguments) {
			storedKey = args.String(1)
			storedState = args.String(2)
		}).Return(nil)
	suite.graph.On("AuthorizeURL", testRedirect, mock.AnythingOfType("string")).Return("https://dialog/oauth")

	url, err := suite.service.StartOAuth(suite.ctx, suite.tenantID, userID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "https://dialog/oauth", url)
	state := suite.graph.Calls[0].Arguments.String(1)
	assert.Equal(suite.T(), caching.OAuthStateKey(state), storedKey)

	var st models.OAuthState
	require.NoError(suite.T(), json.Unmarshal([]byte(storedState), &st))
	assert.Equal(suite.T(), suite.tenantID, st.TenantID)
	assert.Equal(suite.T(), userID, st.UserID)
}

func (suite *SocialServiceTestSuite) TestCompleteOAuth_StateIsSingleUse() {
	suite.cache.On("TakeString", suite.ctx, caching.OAuthStateKey("used")).Return("", nil)

	_, err := suite.service.CompleteOAuth(suite.ctx, "code", "used")

	assert.ErrorIs(suite.T(), err, ErrInvalidState)
	suite.graph.AssertNotCalled(suite.T(), "ExchangeCode", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SocialServiceTestSuite) TestCompleteOAuth_StoresPagesAndInstagram() {
	raw, _ := json.Marshal(models.OAuthState{TenantID: suite.tenantID, UserID: uuid.New(), Platform: models.PlatformFacebook})
	suite.cache.On("TakeString", suite.ctx, caching.OAuthStateKey("st")).Return(string(raw), nil)
	suite.graph.On("ExchangeCode", suite.ctx, "code", testRedirect).Return(&social.Token{AccessToken: "short"}, nil)
	suite.graph.On("LongLivedToken", suite.ctx, "short").Return(&social.Token{AccessToken: "long"}, nil)
	suite.graph.On("ListPages", suite.ctx, "long").Return([]social.Page{
		{ID: "p1", Name: "Luna", AccessToken: "pt1", InstagramID: "ig1", InstagramUsername: "luna.studio"},
		{ID: "p2", Name: "Taken", AccessToken: "pt2"},
	}, nil)
	suite.repo.On("UpsertAccount", suite.ctx, mock.MatchedBy(func(a *models.SocialAccount) bool { return a.PageID != "p2" })).Return(nil)
	suite.repo.On("UpsertAccount", suite.ctx, mock.MatchedBy(func(a *models.SocialAccount) bool { return a.PageID == "p2" })).Return(pgx.ErrNoRows)

	accounts, err := suite.service.CompleteOAuth(suite.ctx, "code", "st")

	require.NoError(suite.T(), err)
	require.Len(suite.T(), accounts, 2)
	assert.Equal(suite.T(), models.PlatformFacebook, accounts[0].Platform)
	assert.Equal(suite.T(), models.PlatformInstagram, accounts[1].Platform)
	assert.Equal(suite.T(), "luna.studio", accounts[1].PageName)
	assert.Equal(suite.T(), "pt1", accounts[1].AccessToken)
	assert.Equal(suite.T(), suite.tenantID, accounts[1].TenantID)
}

func (suite *SocialServiceTestSuite) TestCreatePost_InstagramNeedsImage() {
	acctID := uuid.New()
	suite.repo.On("GetAccount", suite.ctx, suite.tenantID, acctID).Return(&models.SocialAccount{
		ID: acctID, TenantID: suite.tenantID, Platform: models.PlatformInstagram, Status: models.SocialConnected,
	}, nil)

	_, err := suite.service.CreatePost(suite.ctx, suite.tenantID, uuid.New(), acctID, &SocialPostRequest{Message: "New look!"})

	var verr *ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Equal(suite.T(), "image_url", verr.Field)
}

func (suite *SocialServiceTestSuite) TestCreatePost_ExpiredTokenFlagsAccount() {
	acctID := uuid.New()
	acct := &models.SocialAccount{ID: acctID, TenantID: suite.tenantID, Platform: models.PlatformFacebook, PageID: "p1", AccessToken: "pt", Status: models.SocialConnected}
	suite.repo.On("GetAccount", suite.ctx, suite.tenantID, acctID).Return(acct, nil)
	suite.graph.On("PublishPage", suite.ctx, "p1", "pt", "Open today", "").
		Return("", fmt.Errorf("publish: %w", &social.GraphError{Status: 400, Code: 190, Message: "expired"}))
	suite.repo.On("SetAccountStatus", suite.ctx, suite.tenantID, acctID, models.SocialExpired).Return(nil)

	_, err := suite.service.CreatePost(suite.ctx, suite.tenantID, uuid.New(), acctID, &SocialPostRequest{Message: "Open today"})

	assert.ErrorIs(suite.T(), err, ErrUpstream)
	suite.repo.AssertCalled(suite.T(), "SetAccountStatus", suite.ctx, suite.tenantID, acctID, models.SocialExpired)
}

func (suite *SocialServiceTestSuite) TestSendMessage_TooLong() {
	_, err := suite.service.SendMessage(suite.ctx, suite.tenantID, uuid.New(), &SocialMessageRequest{
		RecipientID: "u1", Text: strings.Repeat("a", maxSocialTextSize+1),
	})

	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *SocialServiceTestSuite) TestSendMessage_StoresOutbound() {
	acctID := uuid.New()
	acct := &models.SocialAccount{ID: acctID, TenantID: suite.tenantID, PageID: "p1", AccessToken: "pt", Status: models.SocialConnected}
	suite.repo.On("GetAccount", suite.ctx, suite.tenantID, acctID).Return(acct, nil)
	suite.graph.On("SendMessage", suite.ctx, "pt", "u1", "See you at 5").Return("mid.1", nil)
	suite.repo.On("CreateMessage", suite.ctx, mock.AnythingOfType("*models.SocialMessage")).Return(true, nil)

	msg, err := suite.service.SendMessage(suite.ctx, suite.tenantID, acctID, &SocialMessageRequest{RecipientID: "u1", Text: " See you at 5 "})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.DirectionOutbound, msg.Direction)
	assert.Equal(suite.T(), "mid.1", msg.PlatformMessageID)
	assert.Equal(suite.T(), "p1", msg.SenderID)
}

func (suite *SocialServiceTestSuite) TestVerifyChallenge() {
	challenge, ok := suite.service.VerifyChallenge("subscribe", "verify-me", "42")
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "42", challenge)

	_, ok = suite.service.VerifyChallenge("subscribe", "wrong", "42")
	assert.False(suite.T(), ok)
	_, ok = suite.service.VerifyChallenge("unsubscribe", "verify-me", "42")
	assert.False(suite.T(), ok)
}

func (suite *SocialServiceTestSuite) TestVerifySignature() {
	body := []byte(`{"object":"page"}`)
	assert.True(suite.T(), suite.service.VerifySignature(body, social.Sign("app-secret", body)))
	assert.False(suite.T(), suite.service.VerifySignature(body, social.Sign("other", body)))
}

func (suite *SocialServiceTestSuite) TestHandleWebhook_RoutesByPageAndDedups() {
	body := []byte(`{"object":"page","entry":[
		{"id":"p1","messaging":[
			{"sender":{"id":"u1"},"recipient":{"id":"p1"},"timestamp":1767225600000,"message":{"mid":"m1","text":"hi"}},
			{"sender":{"id":"u1"},"recipient":{"id":"p1"},"timestamp":1767225601000,"message":{"mid":"m0","text":"again"}}]},
		{"id":"unknown","messaging":[
			{"sender":{"id":"u2"},"recipient":{"id":"unknown"},"timestamp":1767225600000,"message":{"mid":"m2","text":"lost"}}]}
	]}`)
	acct := &models.SocialAccount{ID: uuid.New(), TenantID: suite.tenantID, PageID: "p1"}
	suite.repo.On("GetAccountByPageID", suite.ctx, models.PlatformFacebook, "p1").Return(acct, nil).Once()
	suite.repo.On("GetAccountByPageID", suite.ctx, models.PlatformFacebook, "unknown").Return(nil, pgx.ErrNoRows).Once()
	suite.repo.On("CreateMessage", suite.ctx, mock.MatchedBy(func(m *models.SocialMessage) bool {
		return m.PlatformMessageID == "m1"
	})).Return(true, nil)
	suite.repo.On("CreateMessage", suite.ctx, mock.MatchedBy(func(m *models.SocialMessage) bool {
		return m.PlatformMessageID == "m0"
	})).Return(false, nil)
	suite.publisher.On("Publish", suite.ctx, mock.MatchedBy(func(e models.DomainEvent) bool {
		return e.Type == models.EventSocialMessageReceived && e.TenantID == suite.tenantID
	})).Return(nil).Once()

	stored, err := suite.service.HandleWebhook(suite.ctx, body)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, stored)
	suite.repo.AssertExpectations(suite.T())
	suite.publisher.AssertExpectations(suite.T())
}

func (suite *SocialServiceTestSuite) TestHandleWebhook_InstagramLooksUpInstagramAccount() {
	body := []byte(`{"object":"instagram","entry":[
		{"id":"shared-id","messaging":[
			{"sender":{"id":"u9"},"recipient":{"id":"shared-id"},"timestamp":1767225600000,"message":{"mid":"ig1","text":"hola"}}]}
	]}`)
	suite.repo.On("GetAccountByPageID", suite.ctx, models.PlatformInstagram, "shared-id").Return(nil, pgx.ErrNoRows).Once()

	stored, err := suite.service.HandleWebhook(suite.ctx, body)

	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), stored)
	suite.repo.AssertNotCalled(suite.T(), "GetAccountByPageID", suite.ctx, models.PlatformFacebook, "shared-id")
	suite.repo.AssertExpectations(suite.T())
}
