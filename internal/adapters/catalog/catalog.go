package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
	"github.com/medisearch-pro/backend/pkg/utils"
)

//go:embed data/catalog.yaml
var bundledCatalog []byte

// Data is the on-disk shape of a catalog file.
type Data struct {
	Medicines []*entities.Medicine `yaml:"medicines"`
	Doctors   []*entities.Doctor   `yaml:"doctors"`
	Hospitals []*entities.Hospital `yaml:"hospitals"`
}

// Bundled returns the catalog shipped with the binary.
func Bundled() (*Data, error) {
	return Parse(bundledCatalog)
}

// Parse decodes and validates catalog YAML.
func Parse(raw []byte) (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

func (d *Data) validate() error {
	if len(d.Medicines)+len(d.Doctors)+len(d.Hospitals) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := map[string]bool{}
	check := func(kind, id, name string) error {
		if id == "" || name == "" {
			return fmt.Errorf("catalog %s entry needs id and name (id=%q)", kind, id)
		}
		key := kind + "/" + id
		if seen[key] {
			return fmt.Errorf("duplicate %s id %q", kind, id)
		}
		seen[key] = true
		return nil
	}
	for _, m := range d.Medicines {
		if err := check("medicine", m.ID, m.Name); err != nil {
			return err
		}
	}
	for _, doc := range d.Doctors {
		if err := check("doctor", doc.ID, doc.Name); err != nil {
			return err
		}
	}
	for _, h := range d.Hospitals {
		if err := check("hospital", h.ID, h.Name); err != nil {
			return err
		}
	}
	return nil
}

// Catalog serves the three directories from memory. Lookups are linear
// substring scans in source order; the data set is small and static.
type Catalog struct {
	mu   sync.RWMutex
	data *Data
}

// New returns a catalog over data.
func New(data *Data) *Catalog {
	return &Catalog{data: data}
}

// Load reads the catalog from path, or the bundled copy when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		data, err := Bundled()
		if err != nil {
			return nil, err
		}
		return New(data), nil
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return New(data), nil
}

func readFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(raw)
}

// Replace swaps the served data atomically.
func (c *Catalog) Replace(data *Data) {
	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
}

// Snapshot returns the data currently served.
func (c *Catalog) Snapshot() *Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// Medicines returns the medicines repository view.
func (c *Catalog) Medicines() repositories.MedicineRepository { return medicineView{c} }

// Doctors returns the doctors repository view.
func (c *Catalog) Doctors() repositories.DoctorRepository { return doctorView{c} }

// Hospitals returns the hospitals repository view.
func (c *Catalog) Hospitals() repositories.HospitalRepository { return hospitalView{c} }

type medicineView struct{ c *Catalog }

func (v medicineView) GetByID(ctx context.Context, id string) (*entities.Medicine, error) {
	for _, m := range v.c.Snapshot().Medicines {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("medicine with id %s not found", id))
}

func (v medicineView) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Medicine, int, error) {
	q := utils.NormalizeQuery(filter.Query)
	out := []*entities.Medicine{}
	for _, m := range v.c.Snapshot().Medicines {
		if utils.MatchesAny(q, m.Name, m.GenericName) {
			out = append(out, m)
		}
	}
	return utils.Paginate(out, filter.Limit, filter.Offset), len(out), nil
}

type doctorView struct{ c *Catalog }

func (v doctorView) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	for _, d := range v.c.Snapshot().Doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
}

func (v doctorView) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Doctor, int, error) {
	q := utils.NormalizeQuery(filter.Query)
	out := []*entities.Doctor{}
	for _, d := range v.c.Snapshot().Doctors {
		if utils.MatchesAny(q, d.Name, d.Specialty, d.Location) {
			out = append(out, d)
		}
	}
	return utils.Paginate(out, filter.Limit, filter.Offset), len(out), nil
}

type hospitalView struct{ c *Catalog }

func (v hospitalView) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	for _, h := range v.c.Snapshot().Hospitals {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id))
}

func (v hospitalView) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Hospital, int, error) {
	q := utils.NormalizeQuery(filter.Query)
	out := []*entities.Hospital{}
	for _, h := range v.c.Snapshot().Hospitals {
		if utils.MatchesAny(q, h.Name, h.Location) {
			out = append(out, h)
		}
	}
	return utils.Paginate(out, filter.Limit, filter.Offset), len(out), nil
}
