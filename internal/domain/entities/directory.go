package entities

// DataSource names where a directory record came from.
type DataSource string

const (
	DataSourceSample  DataSource = "sample"
	DataSourceCurated DataSource = "curated"
	DataSourceOpenFDA DataSource = "openfda"
	DataSourceNPPES   DataSource = "nppes"
	DataSourceUser    DataSource = "user"
)

// Reviews is an aggregate rating.
type Reviews struct {
	Count  int     `json:"count" yaml:"count" db:"review_count"`
	Rating float64 `json:"rating" yaml:"rating" db:"review_rating"`
}

// Image is a picture with a short hint for image search or alt text.
type Image struct {
	URL  string `json:"url" yaml:"url" db:"image_url"`
	Hint string `json:"hint" yaml:"hint" db:"image_hint"`
}

// Medicine is a drug reference entry.
type Medicine struct {
	ID           string     `json:"id" yaml:"id" db:"id"`
	Name         string     `json:"name" yaml:"name" db:"name"`
	GenericName  string     `json:"genericName" yaml:"genericName" db:"generic_name"`
	Description  string     `json:"description" yaml:"description" db:"description"`
	Uses         []string   `json:"uses" yaml:"uses" db:"uses"`
	SideEffects  []string   `json:"sideEffects" yaml:"sideEffects" db:"side_effects"`
	Dosages      string     `json:"dosages" yaml:"dosages" db:"dosages"`
	Interactions string     `json:"interactions" yaml:"interactions" db:"interactions"`
	DataSource   DataSource `json:"dataSource" yaml:"dataSource" db:"data_source"`
}

// Doctor is a practitioner listing.
type Doctor struct {
	ID              string     `json:"id" yaml:"id" db:"id"`
	Name            string     `json:"name" yaml:"name" db:"name"`
	Specialty       string     `json:"specialty" yaml:"specialty" db:"specialty"`
	Location        string     `json:"location" yaml:"location" db:"location"`
	Qualifications  []string   `json:"qualifications" yaml:"qualifications" db:"qualifications"`
	ExperienceYears int        `json:"experienceYears" yaml:"experienceYears" db:"experience_years"`
	Insurances      []string   `json:"insurances" yaml:"insurances" db:"insurances"`
	Reviews         Reviews    `json:"reviews" yaml:"reviews"`
	Image           Image      `json:"image" yaml:"image"`
	DataSource      DataSource `json:"dataSource" yaml:"dataSource" db:"data_source"`
}

// Hospital is a facility listing.
type Hospital struct {
	ID         string     `json:"id" yaml:"id" db:"id"`
	Name       string     `json:"name" yaml:"name" db:"name"`
	Location   string     `json:"location" yaml:"location" db:"location"`
	Contact    string     `json:"contact" yaml:"contact" db:"contact"`
	Services   []string   `json:"services" yaml:"services" db:"services"`
	Reviews    Reviews    `json:"reviews" yaml:"reviews"`
	Image      Image      `json:"image" yaml:"image"`
	DataSource DataSource `json:"dataSource" yaml:"dataSource" db:"data_source"`
}

// DirectoryKind identifies one of the three directories.
type DirectoryKind string

const (
	DirectoryMedicines DirectoryKind = "medicines"
	DirectoryDoctors   DirectoryKind = "doctors"
	DirectoryHospitals DirectoryKind = "hospitals"
	// DirectoryAll marks a search across every directory.
	DirectoryAll DirectoryKind = "all"
)

// DirectorySearchResult is the combined answer of a search across all directories.
type DirectorySearchResult struct {
	Query          string      `json:"query"`
	Medicines      []*Medicine `json:"medicines"`
	Doctors        []*Doctor   `json:"doctors"`
	Hospitals      []*Hospital `json:"hospitals"`
	TotalMedicines int         `json:"totalMedicines"`
	TotalDoctors   int         `json:"totalDoctors"`
	TotalHospitals int         `json:"totalHospitals"`
	Source         string      `json:"source"`
}

// Total is the number of matches across the three directories.
func (r *DirectorySearchResult) Total() int {
	return r.TotalMedicines + r.TotalDoctors + r.TotalHospitals
}
