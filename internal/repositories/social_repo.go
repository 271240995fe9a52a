package repositories

import (
	"context"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type SocialRepository interface {
	UpsertAccount(ctx context.Context, account *models.SocialAccount) error
	GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.SocialAccount, error)
	// GetAccountByPageID resolves the owning tenant of a page for webhook deliveries.
	GetAccountByPageID(ctx context.Context, platform, pageID string) (*models.SocialAccount, error)
	ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.SocialAccount, error)
	SetAccountStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
	// ExpireAccounts flags connected accounts whose token expiry has passed.
	ExpireAccounts(ctx context.Context) (int64, error)

	CreatePost(ctx context.Context, post *models.SocialPost) error
	ListPosts(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.SocialPost, error)

	// CreateMessage stores a message; redelivered platform message ids are ignored.
	CreateMessage(ctx context.Context, msg *models.SocialMessage) (bool, error)
	ListConversations(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.Conversation, error)
	ListMessages(ctx context.Context, tenantID, accountID uuid.UUID, participantID string, limit, offset int) ([]*models.SocialMessage, error)
}

type socialRepo struct {
	db DBTX
}

func NewSocialRepo(db DBTX) SocialRepository {
	return &socialRepo{db: db}
}

const socialAccountColumns = `id, tenant_id, platform, page_id, page_name, access_token, token_expires_at, connected_at, status`

func scanSocialAccount(row rowScanner) (*models.SocialAccount, error) {
	a := &models.SocialAccount{}
	if err := row.Scan(&a.ID, &a.TenantID, &a.Platform, &a.PageID, &a.PageName, &a.AccessToken, &a.TokenExpiresAt, &a.ConnectedAt, &a.Status); err != nil {
		return nil, err
	}
	return a, nil
}

// UpsertAccount reconnects an existing page in place. A page owned by another tenant is not taken over.
func (r *socialRepo) UpsertAccount(ctx context.Context, a *models.SocialAccount) error {
	query := `
		INSERT INTO social_accounts (id, tenant_id, platform, page_id, page_name, access_token, token_expires_at, connected_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), 'connected')
		ON CONFLICT (platform, page_id) DO UPDATE
		SET page_name = EXCLUDED.page_name,
		    access_token = EXCLUDED.access_token,
		    token_expires_at = EXCLUDED.token_expires_at,
		    connected_at = NOW(),
		    status = 'connected'
		WHERE social_accounts.tenant_id = EXCLUDED.tenant_id
		RETURNING id, connected_at, status
	`
	return r.db.QueryRow(ctx, query, a.ID, a.TenantID, a.Platform, a.PageID, a.PageName, a.AccessToken, a.TokenExpiresAt).
		Scan(&a.ID, &a.ConnectedAt, &a.Status)
}

func (r *socialRepo) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE tenant_id = $1 AND id = $2`
	return scanSocialAccount(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *socialRepo) GetAccountByPageID(ctx context.Context, platform, pageID string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE platform = $1 AND page_id = $2 AND status <> 'revoked' LIMIT 1`
	return scanSocialAccount(r.db.QueryRow(ctx, query, platform, pageID))
}

func (r *socialRepo) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE tenant_id = $1 ORDER BY platform, page_name`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []*models.SocialAccount{}
	for rows.Next() {
		a, err := scanSocialAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *socialRepo) SetAccountStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	query := `UPDATE social_accounts SET status = $1 WHERE tenant_id = $2 AND id = $3`
	return affectedOne(r.db.Exec(ctx, query, status, tenantID, id))
}

func (r *socialRepo) ExpireAccounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE social_accounts
		SET status = 'expired'
		WHERE status = 'connected' AND token_expires_at IS NOT NULL AND token_expires_at <= NOW()
	`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *socialRepo) CreatePost(ctx context.Context, p *models.SocialPost) error {
	query := `
		INSERT INTO social_posts (id, tenant_id, account_id, message, image_url, platform_post_id, posted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, p.ID, p.TenantID, p.AccountID, p.Message, p.ImageURL, p.PlatformPostID, p.PostedBy).Scan(&p.CreatedAt)
}

func (r *socialRepo) ListPosts(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.SocialPost, error) {
	query := `
		SELECT id, tenant_id, account_id, message, image_url, platform_post_id, posted_by, created_at
		FROM social_posts
		WHERE tenant_id = $1 AND account_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*models.SocialPost{}
	for rows.Next() {
		p := &models.SocialPost{}
		if err := rows.Scan(&p.ID, &p.TenantID, &p.AccountID, &p.Message, &p.ImageURL, &p.PlatformPostID, &p.PostedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *socialRepo) CreateMessage(ctx context.Context, m *models.SocialMessage) (bool, error) {
	query := `
		INSERT INTO social_messages (id, tenant_id, account_id, direction, sender_id, recipient_id, text, platform_message_id, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (account_id, platform_message_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, m.ID, m.TenantID, m.AccountID, m.Direction, m.SenderID, m.RecipientID, m.Text, m.PlatformMessageID, m.SentAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *socialRepo) ListConversations(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	query := `
		SELECT participant, COUNT(*), MAX(sent_at),
		       (ARRAY_AGG(text ORDER BY sent_at DESC))[1]
		FROM (
			SELECT CASE WHEN direction = 'inbound' THEN sender_id ELSE recipient_id END AS participant, text, sent_at
			FROM social_messages
			WHERE tenant_id = $1 AND account_id = $2
		) m
		GROUP BY participant
		ORDER BY MAX(sent_at) DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []*models.Conversation{}
	for rows.Next() {
		c := &models.Conversation{AccountID: accountID}
		if err := rows.Scan(&c.ParticipantID, &c.MessageCount, &c.LastAt, &c.LastText); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (r *socialRepo) ListMessages(ctx context.Context, tenantID, accountID uuid.UUID, participantID string, limit, offset int) ([]*models.SocialMessage, error) {
	query := `
		SELECT id, tenant_id, account_id, direction, sender_id, recipient_id, text, platform_message_id, sent_at, created_at
		FROM social_messages
		WHERE tenant_id = $1 AND account_id = $2
		  AND ($3 = '' OR sender_id = $3 OR recipient_id = $3)
		ORDER BY sent_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query, tenantID, accountID, participantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.SocialMessage{}
	for rows.Next() {
		m := &models.SocialMessage{}
		if err := rows.Scan(&m.ID, &m.TenantID, &m.AccountID, &m.Direction, &m.SenderID, &m.RecipientID, &m.Text, &m.PlatformMessageID, &m.SentAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
