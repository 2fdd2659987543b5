package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/medisearch-pro/backend/pkg/config"
	"github.com/medisearch-pro/backend/pkg/retry"
)

const (
	MedicinesCollection = "medicines"
	DoctorsCollection   = "doctors"
	HospitalsCollection = "hospitals"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Schemas returns the collection schemas of the three directories. Searched
// fields are infix-indexed so a query can match inside a word.
func Schemas() []*api.CollectionSchema {
	return []*api.CollectionSchema{
		{
			Name: MedicinesCollection,
			Fields: []api.Field{
				{Name: "name", Type: "string", Infix: pointer.True()},
				{Name: "genericName", Type: "string", Infix: pointer.True()},
				{Name: "uses", Type: "string[]", Optional: pointer.True()},
				{Name: "dataSource", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			},
		},
		{
			Name: DoctorsCollection,
			Fields: []api.Field{
				{Name: "name", Type: "string", Infix: pointer.True()},
				{Name: "specialty", Type: "string", Facet: pointer.True(), Infix: pointer.True()},
				{Name: "location", Type: "string", Facet: pointer.True(), Infix: pointer.True()},
				{Name: "experienceYears", Type: "int32", Optional: pointer.True()},
			},
		},
		{
			Name: HospitalsCollection,
			Fields: []api.Field{
				{Name: "name", Type: "string", Infix: pointer.True()},
				{Name: "location", Type: "string", Facet: pointer.True(), Infix: pointer.True()},
				{Name: "services", Type: "string[]", Optional: pointer.True()},
			},
		},
	}
}

// InitSchema ensures every directory collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	existing := make(map[string]bool, len(collections))
	for _, col := range collections {
		existing[col.Name] = true
	}

	for _, schema := range Schemas() {
		if existing[schema.Name] {
			log.Debug().Str("collection", schema.Name).Msg("Typesense collection already exists")
			continue
		}
		if _, err := c.client.Collections().Create(ctx, schema); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", schema.Name, err)
		}
		log.Info().Str("collection", schema.Name).Msg("Created Typesense collection")
	}
	return nil
}

// Upsert indexes a single document into a collection
func (c *Client) Upsert(ctx context.Context, collection string, document map[string]interface{}) error {
	_, err := c.client.Collection(collection).Documents().Upsert(ctx, document)
	return err
}

// NewClientFromTypesense wraps an already configured client without a health check.
func NewClientFromTypesense(client *typesense.Client) *Client {
	return &Client{client: client}
}
