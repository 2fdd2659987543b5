package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

const (
	medicinesTable = "medicines"
	doctorsTable   = "doctors"
	hospitalsTable = "hospitals"
)

var (
	medicineColumns = []interface{}{
		"id", "name", "generic_name", "description", "uses", "side_effects", "dosages", "interactions", "data_source",
	}
	doctorColumns = []interface{}{
		"id", "name", "specialty", "location", "qualifications", "experience_years", "insurances",
		"review_count", "review_rating", "image_url", "image_hint", "data_source",
	}
	hospitalColumns = []interface{}{
		"id", "name", "location", "contact", "services",
		"review_count", "review_rating", "image_url", "image_hint", "data_source",
	}
)

// CatalogAdapter serves the three directories from Postgres tables. Matching
// uses ILIKE so it requires the postgres dialect.
type CatalogAdapter struct {
	client SQLClient
	db     *goqu.Database
}

// NewCatalogAdapter creates a new catalog adapter
func NewCatalogAdapter(client SQLClient) *CatalogAdapter {
	return &CatalogAdapter{
		client: client,
		db:     newQueryBuilder(client),
	}
}

// Medicines returns the medicine repository view
func (a *CatalogAdapter) Medicines() repositories.MedicineRepository { return medicineTable{a} }

// Doctors returns the doctor repository view
func (a *CatalogAdapter) Doctors() repositories.DoctorRepository { return doctorTable{a} }

// Hospitals returns the hospital repository view
func (a *CatalogAdapter) Hospitals() repositories.HospitalRepository { return hospitalTable{a} }

// likePattern escapes LIKE wildcards in the user query.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(query)) + "%"
}

func matchAny(query string, columns ...string) exp.Expression {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	pattern := likePattern(query)
	ors := make([]exp.Expression, 0, len(columns))
	for _, c := range columns {
		ors = append(ors, goqu.C(c).ILike(pattern))
	}
	return goqu.Or(ors...)
}

func (a *CatalogAdapter) count(ctx context.Context, table string, where exp.Expression) (int, error) {
	ds := a.db.From(table).Select(goqu.COUNT("*")).Prepared(true)
	if where != nil {
		ds = ds.Where(where)
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, apperrors.NewInternalError(fmt.Sprintf("failed to count %s", table), err)
	}
	return total, nil
}

func (a *CatalogAdapter) listQuery(table string, columns []interface{}, where exp.Expression, filter repositories.DirectoryFilter) (string, []interface{}, error) {
	ds := a.db.Select(columns...).From(table).Order(goqu.I("name").Asc()).Prepared(true)
	if where != nil {
		ds = ds.Where(where)
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	return ds.ToSQL()
}

type medicineTable struct{ a *CatalogAdapter }

func (t medicineTable) GetByID(ctx context.Context, id string) (*entities.Medicine, error) {
	query, args, err := t.a.db.Select(medicineColumns...).From(medicinesTable).
		Where(goqu.Ex{"id": id}).Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	m, err := scanMedicine(t.a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("medicine with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get medicine", err)
	}
	return m, nil
}

func (t medicineTable) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Medicine, int, error) {
	where := matchAny(filter.Query, "name", "generic_name")
	total, err := t.a.count(ctx, medicinesTable, where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := t.a.listQuery(medicinesTable, medicineColumns, where, filter)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build query", err)
	}
	rows, err := t.a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list medicines", err)
	}
	defer rows.Close()

	items := make([]*entities.Medicine, 0)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan medicine", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list medicines", err)
	}
	return items, total, nil
}

type doctorTable struct{ a *CatalogAdapter }

func (t doctorTable) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := t.a.db.Select(doctorColumns...).From(doctorsTable).
		Where(goqu.Ex{"id": id}).Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	d, err := scanDoctor(t.a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return d, nil
}

func (t doctorTable) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Doctor, int, error) {
	where := matchAny(filter.Query, "name", "specialty", "location")
	total, err := t.a.count(ctx, doctorsTable, where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := t.a.listQuery(doctorsTable, doctorColumns, where, filter)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build query", err)
	}
	rows, err := t.a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	items := make([]*entities.Doctor, 0)
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan doctor", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list doctors", err)
	}
	return items, total, nil
}

type hospitalTable struct{ a *CatalogAdapter }

func (t hospitalTable) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	query, args, err := t.a.db.Select(hospitalColumns...).From(hospitalsTable).
		Where(goqu.Ex{"id": id}).Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	h, err := scanHospital(t.a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}
	return h, nil
}

func (t hospitalTable) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Hospital, int, error) {
	where := matchAny(filter.Query, "name", "location")
	total, err := t.a.count(ctx, hospitalsTable, where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := t.a.listQuery(hospitalsTable, hospitalColumns, where, filter)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build query", err)
	}
	rows, err := t.a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list hospitals", err)
	}
	defer rows.Close()

	items := make([]*entities.Hospital, 0)
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan hospital", err)
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list hospitals", err)
	}
	return items, total, nil
}

// UpsertMedicines inserts or replaces medicines by id
func (a *CatalogAdapter) UpsertMedicines(ctx context.Context, items []*entities.Medicine) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(items))
	for _, m := range items {
		rows = append(rows, goqu.Record{
			"id":           m.ID,
			"name":         m.Name,
			"generic_name": m.GenericName,
			"description":  m.Description,
			"uses":         pq.Array(m.Uses),
			"side_effects": pq.Array(m.SideEffects),
			"dosages":      m.Dosages,
			"interactions": m.Interactions,
			"data_source":  string(m.DataSource),
		})
	}
	return a.upsert(ctx, medicinesTable, medicineColumns, rows)
}

// UpsertDoctors inserts or replaces doctors by id
func (a *CatalogAdapter) UpsertDoctors(ctx context.Context, items []*entities.Doctor) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(items))
	for _, d := range items {
		rows = append(rows, goqu.Record{
			"id":               d.ID,
			"name":             d.Name,
			"specialty":        d.Specialty,
			"location":         d.Location,
			"qualifications":   pq.Array(d.Qualifications),
			"experience_years": d.ExperienceYears,
			"insurances":       pq.Array(d.Insurances),
			"review_count":     d.Reviews.Count,
			"review_rating":    d.Reviews.Rating,
			"image_url":        d.Image.URL,
			"image_hint":       d.Image.Hint,
			"data_source":      string(d.DataSource),
		})
	}
	return a.upsert(ctx, doctorsTable, doctorColumns, rows)
}

// UpsertHospitals inserts or replaces hospitals by id
func (a *CatalogAdapter) UpsertHospitals(ctx context.Context, items []*entities.Hospital) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(items))
	for _, h := range items {
		rows = append(rows, goqu.Record{
			"id":            h.ID,
			"name":          h.Name,
			"location":      h.Location,
			"contact":       h.Contact,
			"services":      pq.Array(h.Services),
			"review_count":  h.Reviews.Count,
			"review_rating": h.Reviews.Rating,
			"image_url":     h.Image.URL,
			"image_hint":    h.Image.Hint,
			"data_source":   string(h.DataSource),
		})
	}
	return a.upsert(ctx, hospitalsTable, hospitalColumns, rows)
}

func (a *CatalogAdapter) upsert(ctx context.Context, table string, columns []interface{}, rows []interface{}) error {
	set := goqu.Record{}
	for _, c := range columns {
		name := c.(string)
		if name == "id" {
			continue
		}
		set[name] = goqu.L("EXCLUDED." + name)
	}

	query, args, err := a.db.Insert(table).
		Rows(rows...).
		OnConflict(goqu.DoUpdate("id", set)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to upsert %s", table), err)
	}
	return nil
}

func scanMedicine(row rowScanner) (*entities.Medicine, error) {
	m := &entities.Medicine{}
	var source string
	err := row.Scan(
		&m.ID, &m.Name, &m.GenericName, &m.Description,
		pq.Array(&m.Uses), pq.Array(&m.SideEffects),
		&m.Dosages, &m.Interactions, &source,
	)
	if err != nil {
		return nil, err
	}
	m.DataSource = entities.DataSource(source)
	return m, nil
}

func scanDoctor(row rowScanner) (*entities.Doctor, error) {
	d := &entities.Doctor{}
	var source string
	err := row.Scan(
		&d.ID, &d.Name, &d.Specialty, &d.Location,
		pq.Array(&d.Qualifications), &d.ExperienceYears, pq.Array(&d.Insurances),
		&d.Reviews.Count, &d.Reviews.Rating, &d.Image.URL, &d.Image.Hint, &source,
	)
	if err != nil {
		return nil, err
	}
	d.DataSource = entities.DataSource(source)
	return d, nil
}

func scanHospital(row rowScanner) (*entities.Hospital, error) {
	h := &entities.Hospital{}
	var source string
	err := row.Scan(
		&h.ID, &h.Name, &h.Location, &h.Contact, pq.Array(&h.Services),
		&h.Reviews.Count, &h.Reviews.Rating, &h.Image.URL, &h.Image.Hint, &source,
	)
	if err != nil {
		return nil, err
	}
	h.DataSource = entities.DataSource(source)
	return h, nil
}
