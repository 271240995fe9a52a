package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"glowdesk/internal/config"
	"glowdesk/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ClientIndex keeps the client search index in sync and queries it.
type ClientIndex interface {
	IndexClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id uuid.UUID) error
	SearchClients(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]uuid.UUID, error)
	Ping(ctx context.Context) error
}

// clientDocument is the indexed shape of a client. Notes stay out of the index.
type clientDocument struct {
	TenantID  string   `json:"tenant_id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone"`
	Status    string   `json:"status"`
	Tags      []string `json:"tags"`
}

type elasticsearchIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchIndex(cfg config.ElasticsearchConfig, transport http.RoundTripper) (ClientIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &elasticsearchIndex{client: es, index: cfg.Index}, nil
}

func (e *elasticsearchIndex) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

func (e *elasticsearchIndex) IndexClient(ctx context.Context, client *models.Client) error {
	doc := clientDocument{
		TenantID:  client.TenantID.String(),
		FirstName: client.FirstName,
		LastName:  client.LastName,
		Phone:     client.Phone,
		Status:    client.Status,
		Tags:      client.Tags,
	}
	if client.Email != nil {
		doc.Email = *client.Email
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: client.ID.String(),
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (e *elasticsearchIndex) DeleteClient(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: id.String(),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// searchQuery matches names, email and phone within one tenant.
func searchQuery(tenantID uuid.UUID, query string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"type":      "bool_prefix",
						"fields":    []string{"first_name", "last_name", "email", "phone", "tags"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"tenant_id": tenantID.String()},
				},
			},
		},
	}
}

func (e *elasticsearchIndex) SearchClients(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]uuid.UUID, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchQuery(tenantID, query, limit)); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	ids := []uuid.UUID{}
	for _, hit := range gjson.GetBytes(body, "hits.hits.#._id").Array() {
		id, err := uuid.Parse(hit.String())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
