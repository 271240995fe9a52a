package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"glowdesk/internal/caching"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"
	"glowdesk/internal/social"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	oauthStateTTL     = 10 * time.Minute
	maxSocialTextSize = 2000
)

// GraphAPI is the part of the platform client the service uses.
type GraphAPI interface {
	AuthorizeURL(redirectURI, state string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*social.Token, error)
	LongLivedToken(ctx context.Context, shortLived string) (*social.Token, error)
	ListPages(ctx context.Context, userToken string) ([]social.Page, error)
	PublishPage(ctx context.Context, pageID, pageToken, message, imageURL string) (string, error)
	PublishInstagram(ctx context.Context, igUserID, pageToken, caption, imageURL string) (string, error)
	SendMessage(ctx context.Context, pageToken, recipientID, text string) (string, error)
}

type SocialService interface {
	// StartOAuth returns the platform authorize URL for a new connection.
	StartOAuth(ctx context.Context, tenantID, userID uuid.UUID) (string, error)
	// CompleteOAuth consumes the state, exchanges the code and stores every granted page.
	CompleteOAuth(ctx context.Context, code, state string) ([]*models.SocialAccount, error)
	ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, tenantID, accountID uuid.UUID) error

	CreatePost(ctx context.Context, tenantID, userID, accountID uuid.UUID, req *SocialPostRequest) (*models.SocialPost, error)
	ListPosts(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.SocialPost, error)

	ListConversations(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.Conversation, error)
	ListMessages(ctx context.Context, tenantID, accountID uuid.UUID, participantID string, limit, offset int) ([]*models.SocialMessage, error)
	SendMessage(ctx context.Context, tenantID, accountID uuid.UUID, req *SocialMessageRequest) (*models.SocialMessage, error)

	// VerifyChallenge answers the subscription handshake.
	VerifyChallenge(mode, token, challenge string) (string, bool)
	VerifySignature(body []byte, header string) bool
	// HandleWebhook stores inbound messages from a verified delivery. Unknown pages are ignored.
	HandleWebhook(ctx context.Context, body []byte) (int, error)

	ExpireTokens(ctx context.Context) (int64, error)
}

type SocialPostRequest struct {
	Message  string  `json:"message"`
	ImageURL *string `json:"image_url"`
}

type SocialMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

type socialService struct {
	socialRepo  repositories.SocialRepository
	cacheSvc    caching.CacheService
	graph       GraphAPI
	publisher   EventPublisher
	appSecret   string
	verifyToken string
	redirectURI string
	log         *logrus.Logger
}

func NewSocialService(
	socialRepo repositories.SocialRepository,
	cacheSvc caching.CacheService,
	graph GraphAPI,
	publisher EventPublisher,
	appSecret, verifyToken, redirectURI string,
	log *logrus.Logger,
) SocialService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &socialService{
		socialRepo:  socialRepo,
		cacheSvc:    cacheSvc,
		graph:       graph,
		publisher:   publisher,
		appSecret:   appSecret,
		verifyToken: verifyToken,
		redirectURI: redirectURI,
		log:         log,
	}
}

func (s *socialService) StartOAuth(ctx context.Context, tenantID, userID uuid.UUID) (string, error) {
	state := generateSecureToken()
	data, err := json.Marshal(models.OAuthState{TenantID: tenantID, UserID: userID, Platform: models.PlatformFacebook})
	if err != nil {
		return "", err
	}
	if err := s.cacheSvc.SetString(ctx, caching.OAuthStateKey(state), string(data), oauthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return s.graph.AuthorizeURL(s.redirectURI, state), nil
}

func (s *socialService) CompleteOAuth(ctx context.Context, code, state string) ([]*models.SocialAccount, error) {
	if code == "" || state == "" {
		return nil, ErrInvalidState
	}

	raw, err := s.cacheSvc.TakeString(ctx, caching.OAuthStateKey(state))
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth state: %w", err)
	}
	if raw == "" {
		return nil, ErrInvalidState
	}
	var st models.OAuthState
	if err := json.Unmarshal([]byte(raw), &st); err != nil || st.TenantID == uuid.Nil {
		return nil, ErrInvalidState
	}

	logger := s.log.WithFields(logrus.Fields{"tenant_id": st.TenantID, "user_id": st.UserID})

	short, err := s.graph.ExchangeCode(ctx, code, s.redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", ErrUpstream, err)
	}
	long, err := s.graph.LongLivedToken(ctx, short.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: long-lived token: %v", ErrUpstream, err)
	}
	pages, err := s.graph.ListPages(ctx, long.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: list pages: %v", ErrUpstream, err)
	}

	now := time.Now().UTC()
	var accounts []*models.SocialAccount
	for _, p := range pages {
		candidates := []*models.SocialAccount{{
			Platform: models.PlatformFacebook, PageID: p.ID, PageName: p.Name,
		}}
		if p.InstagramID != "" {
			name := p.InstagramUsername
			if name == "" {
				name = p.Name
			}
			candidates = append(candidates, &models.SocialAccount{
				Platform: models.PlatformInstagram, PageID: p.InstagramID, PageName: name,
			})
		}

		for _, acct := range candidates {
			acct.ID = uuid.New()
			acct.TenantID = st.TenantID
			// Page tokens derived from a long-lived user token do not expire.
			acct.AccessToken = p.AccessToken
			acct.ConnectedAt = now
			acct.Status = models.SocialConnected
			if err := s.socialRepo.UpsertAccount(ctx, acct); err != nil {
				if repositories.IsNotFound(err) {
					// Connected by another salon.
					logger.WithField("page_id", acct.PageID).Warn("Page already connected to another tenant")
					continue
				}
				return nil, err
			}
			accounts = append(accounts, acct)
		}
	}

	logger.WithField("accounts", len(accounts)).Info("Social accounts connected")
	return accounts, nil
}

func (s *socialService) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.SocialAccount, error) {
	return s.socialRepo.ListAccounts(ctx, tenantID)
}

func (s *socialService) Disconnect(ctx context.Context, tenantID, accountID uuid.UUID) error {
	return repoError(s.socialRepo.SetAccountStatus(ctx, tenantID, accountID, models.SocialRevoked), "social account")
}

func (s *socialService) connectedAccount(ctx context.Context, tenantID, accountID uuid.UUID) (*models.SocialAccount, error) {
	acct, err := s.socialRepo.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, repoError(err, "social account")
	}
	if acct.Status != models.SocialConnected {
		return nil, invalid("account_id", "account is not connected")
	}
	return acct, nil
}

// graphFailure flags the account when the platform rejected its token.
func (s *socialService) graphFailure(ctx context.Context, acct *models.SocialAccount, err error) error {
	if errors.Is(err, social.ErrTokenInvalid) {
		if setErr := s.socialRepo.SetAccountStatus(ctx, acct.TenantID, acct.ID, models.SocialExpired); setErr != nil {
			s.log.WithError(setErr).WithField("account_id", acct.ID).Error("Failed to flag expired social account")
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func (s *socialService) CreatePost(ctx context.Context, tenantID, userID, accountID uuid.UUID, req *SocialPostRequest) (*models.SocialPost, error) {
	req.Message = strings.TrimSpace(req.Message)
	imageURL := ""
	if req.ImageURL != nil {
		imageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Message == "" && imageURL == "" {
		return nil, invalid("message", "message or image_url is required")
	}
	if len(req.Message) > 63206 {
		return nil, invalid("message", "message is too long")
	}
	if imageURL != "" && !strings.HasPrefix(imageURL, "https://") && !strings.HasPrefix(imageURL, "http://") {
		return nil, invalid("image_url", "image_url must be an absolute URL")
	}

	acct, err := s.connectedAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	if acct.Platform == models.PlatformInstagram && imageURL == "" {
		return nil, invalid("image_url", "instagram posts require an image")
	}

	var platformID string
	if acct.Platform == models.PlatformInstagram {
		platformID, err = s.graph.PublishInstagram(ctx, acct.PageID, acct.AccessToken, req.Message, imageURL)
	} else {
		platformID, err = s.graph.PublishPage(ctx, acct.PageID, acct.AccessToken, req.Message, imageURL)
	}
	if err != nil {
		return nil, s.graphFailure(ctx, acct, err)
	}

	post := &models.SocialPost{
		ID:             uuid.New(),
		TenantID:       tenantID,
		AccountID:      accountID,
		Message:        req.Message,
		PlatformPostID: platformID,
		PostedBy:       &userID,
	}
	if imageURL != "" {
		post.ImageURL = &imageURL
	}
	if err := s.socialRepo.CreatePost(ctx, post); err != nil {
		return nil, repoError(err, "social post")
	}
	return post, nil
}

func (s *socialService) ListPosts(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.SocialPost, error) {
	return s.socialRepo.ListPosts(ctx, tenantID, accountID, limit, offset)
}

func (s *socialService) ListConversations(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	if _, err := s.socialRepo.GetAccount(ctx, tenantID, accountID); err != nil {
		return nil, repoError(err, "social account")
	}
	return s.socialRepo.ListConversations(ctx, tenantID, accountID, limit, offset)
}

func (s *socialService) ListMessages(ctx context.Context, tenantID, accountID uuid.UUID, participantID string, limit, offset int) ([]*models.SocialMessage, error) {
	if _, err := s.socialRepo.GetAccount(ctx, tenantID, accountID); err != nil {
		return nil, repoError(err, "social account")
	}
	return s.socialRepo.ListMessages(ctx, tenantID, accountID, participantID, limit, offset)
}

func (s *socialService) SendMessage(ctx context.Context, tenantID, accountID uuid.UUID, req *SocialMessageRequest) (*models.SocialMessage, error) {
	req.RecipientID = strings.TrimSpace(req.RecipientID)
	req.Text = strings.TrimSpace(req.Text)
	if req.RecipientID == "" {
		return nil, invalid("recipient_id", "recipient_id is required")
	}
	if req.Text == "" || len(req.Text) > maxSocialTextSize {
		return nil, invalid("text", "text must be between 1 and 2000 characters")
	}

	acct, err := s.connectedAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	mid, err := s.graph.SendMessage(ctx, acct.AccessToken, req.RecipientID, req.Text)
	if err != nil {
		return nil, s.graphFailure(ctx, acct, err)
	}

	msg := &models.SocialMessage{
		ID:                uuid.New(),
		TenantID:          tenantID,
		AccountID:         accountID,
		Direction:         models.DirectionOutbound,
		SenderID:          acct.PageID,
		RecipientID:       req.RecipientID,
		Text:              req.Text,
		PlatformMessageID: mid,
		SentAt:            time.Now().UTC(),
	}
	if _, err := s.socialRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *socialService) VerifyChallenge(mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || s.verifyToken == "" {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.verifyToken)) != 1 {
		return "", false
	}
	return challenge, true
}

func (s *socialService) VerifySignature(body []byte, header string) bool {
	return social.VerifySignature(s.appSecret, body, header)
}

func (s *socialService) HandleWebhook(ctx context.Context, body []byte) (int, error) {
	platform, inbound := social.ParseMessages(body)

	stored := 0
	accounts := map[string]*models.SocialAccount{}
	for _, in := range inbound {
		acct, seen := accounts[in.PageID]
		if !seen {
			found, err := s.socialRepo.GetAccountByPageID(ctx, platform, in.PageID)
			if err != nil && !repositories.IsNotFound(err) {
				return stored, err
			}
			acct = found
			accounts[in.PageID] = found
		}
		if acct == nil {
			s.log.WithFields(logrus.Fields{"page_id": in.PageID, "platform": platform}).Debug("Webhook for unknown page ignored")
			continue
		}

		msg := &models.SocialMessage{
			ID:                uuid.New(),
			TenantID:          acct.TenantID,
			AccountID:         acct.ID,
			Direction:         models.DirectionInbound,
			SenderID:          in.SenderID,
			RecipientID:       in.RecipientID,
			Text:              in.Text,
			PlatformMessageID: in.MessageID,
			SentAt:            in.Timestamp,
		}
		inserted, err := s.socialRepo.CreateMessage(ctx, msg)
		if err != nil {
			return stored, err
		}
		if !inserted {
			continue
		}
		stored++

		if err := s.publisher.Publish(ctx, newEvent(models.EventSocialMessageReceived, acct.TenantID, msg.ID, msg)); err != nil {
			s.log.WithError(err).WithField("message_id", msg.ID).Warn("Failed to publish social message event")
		}
	}
	return stored, nil
}

func (s *socialService) ExpireTokens(ctx context.Context) (int64, error) {
	return s.socialRepo.ExpireAccounts(ctx)
}
