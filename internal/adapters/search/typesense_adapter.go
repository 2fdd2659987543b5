package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"golang.org/x/sync/errgroup"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	tsclient "github.com/medisearch-pro/backend/internal/infrastructure/clients/typesense"
	"github.com/medisearch-pro/backend/pkg/utils"
)

// SourceTypesense labels results served from the index.
const SourceTypesense = "typesense"

// queryBy mirrors the fields the in-memory catalog matches on.
var queryBy = map[string]string{
	tsclient.MedicinesCollection: "name,genericName",
	tsclient.DoctorsCollection:   "name,specialty,location",
	tsclient.HospitalsCollection: "name,location",
}

func matchMedicine(q string, m *entities.Medicine) bool {
	return utils.MatchesAny(q, m.Name, m.GenericName)
}

func matchDoctor(q string, d *entities.Doctor) bool {
	return utils.MatchesAny(q, d.Name, d.Specialty, d.Location)
}

func matchHospital(q string, h *entities.Hospital) bool {
	return utils.MatchesAny(q, h.Name, h.Location)
}

// TypesenseAdapter implements directory search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.DirectoryIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// IndexMedicines upserts medicines into the index
func (a *TypesenseAdapter) IndexMedicines(ctx context.Context, items []*entities.Medicine) error {
	for _, m := range items {
		if err := a.upsert(ctx, tsclient.MedicinesCollection, m.ID, m); err != nil {
			return err
		}
	}
	return nil
}

// IndexDoctors upserts doctors into the index
func (a *TypesenseAdapter) IndexDoctors(ctx context.Context, items []*entities.Doctor) error {
	for _, d := range items {
		if err := a.upsert(ctx, tsclient.DoctorsCollection, d.ID, d); err != nil {
			return err
		}
	}
	return nil
}

// IndexHospitals upserts hospitals into the index
func (a *TypesenseAdapter) IndexHospitals(ctx context.Context, items []*entities.Hospital) error {
	for _, h := range items {
		if err := a.upsert(ctx, tsclient.HospitalsCollection, h.ID, h); err != nil {
			return err
		}
	}
	return nil
}

func (a *TypesenseAdapter) upsert(ctx context.Context, collection, id string, item interface{}) error {
	document, err := toDocument(item)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", collection, id, err)
	}
	if err := a.client.Upsert(ctx, collection, document); err != nil {
		return fmt.Errorf("failed to index %s %s: %w", collection, id, err)
	}
	return nil
}

// Search queries the three collections concurrently
func (a *TypesenseAdapter) Search(ctx context.Context, query string, perDirectory int) (*entities.DirectorySearchResult, error) {
	if perDirectory <= 0 {
		perDirectory = 10
	}
	result := &entities.DirectorySearchResult{Query: query, Source: SourceTypesense}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result.Medicines, result.TotalMedicines, err = searchCollection(gctx, a.client, tsclient.MedicinesCollection, query, perDirectory, matchMedicine)
		return err
	})
	g.Go(func() error {
		var err error
		result.Doctors, result.TotalDoctors, err = searchCollection(gctx, a.client, tsclient.DoctorsCollection, query, perDirectory, matchDoctor)
		return err
	})
	g.Go(func() error {
		var err error
		result.Hospitals, result.TotalHospitals, err = searchCollection(gctx, a.client, tsclient.HospitalsCollection, query, perDirectory, matchHospital)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// searchParams asks for substring semantics: infix matching on every field,
// no typo tolerance and no dropped tokens.
func searchParams(collection, query string, perPage int) *api.SearchCollectionParams {
	q := utils.NormalizeQuery(query)
	if q == "" {
		q = "*"
	}
	fields := queryBy[collection]
	infix := strings.TrimSuffix(strings.Repeat("always,", strings.Count(fields, ",")+1), ",")
	return &api.SearchCollectionParams{
		Q:                   pointer.String(q),
		QueryBy:             pointer.String(fields),
		PerPage:             pointer.Int(perPage),
		Infix:               pointer.String(infix),
		NumTypos:            pointer.String("0"),
		DropTokensThreshold: pointer.Int(0),
	}
}

// searchCollection decodes the hits and keeps only those match accepts, so
// the index never returns a record the catalog filter would reject.
func searchCollection[T any](ctx context.Context, client *tsclient.Client, collection, query string, perPage int, match func(string, *T) bool) ([]*T, int, error) {
	params := searchParams(collection, query, perPage)
	normalized := utils.NormalizeQuery(query)

	res, err := client.Client().Collection(collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search %s: %w", collection, err)
	}

	items := make([]*T, 0)
	rejected := 0
	if res.Hits != nil {
		for _, hit := range *res.Hits {
			if hit.Document == nil {
				continue
			}
			item, err := fromDocument[T](*hit.Document)
			if err != nil {
				log.Warn().Err(err).Str("collection", collection).Msg("Skipping undecodable search hit")
				continue
			}
			if !match(normalized, item) {
				rejected++
				continue
			}
			items = append(items, item)
		}
	}

	total := len(items)
	if res.Found != nil && *res.Found-rejected > total {
		total = *res.Found - rejected
	}
	return items, total, nil
}

// toDocument reuses the entity JSON tags so index fields match the API shape.
func toDocument(item interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument[T any](doc map[string]interface{}) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
