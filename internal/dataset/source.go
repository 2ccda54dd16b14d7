package dataset

import (
	"encoding/csv"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"biasaudit/domain/audit"
	"biasaudit/internal/errors"
	"biasaudit/internal/testkit"
)

// Origin says where a dataset's records came from.
type Origin string

const (
	OriginGenerated Origin = "generated"
	OriginUploaded  Origin = "uploaded"
)

// Column names an uploaded table must carry.
const (
	ColumnRace      = "race"
	ColumnGender    = "gender"
	ColumnAgeGroup  = "ageGroup"
	ColumnRiskScore = "riskScore"
)

// RequiredColumns are validated after header parsing.
var RequiredColumns = []string{ColumnRace, ColumnGender, ColumnAgeGroup, ColumnRiskScore}

// UploadedBadRate is the probability used to simulate ground truth for
// uploaded rows. Uploaded FPR/FNR are therefore not meaningful.
const UploadedBadRate = 0.25

// Dataset is an immutable set of records plus where they came from.
type Dataset struct {
	Origin  Origin         `json:"origin"`
	Name    string         `json:"name,omitempty"`
	Records []audit.Record `json:"-"`
	// GroundTruthSimulated is set when ActualBad was drawn at random rather
	// than observed.
	GroundTruthSimulated bool      `json:"groundTruthSimulated"`
	LoadedAt             time.Time `json:"loadedAt"`
}

// Len is the record count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Categories returns the ordering used to group d by dim: the closed set,
// followed for uploaded data by any other values in first-seen order.
func (d *Dataset) Categories(dim audit.Dimension) []string {
	cats := dim.Categories()
	if d == nil || d.Origin != OriginUploaded {
		return cats
	}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		seen[c] = true
	}
	for _, r := range d.Records {
		v := dim.Value(r)
		if !seen[v] {
			seen[v] = true
			cats = append(cats, v)
		}
	}
	return cats
}

// Source unifies generated and uploaded records into Datasets. It shares
// one random stream between the generator and the simulated ground truth
// and is not safe for concurrent use.
type Source struct {
	generator *testkit.PopulationGenerator
	rng       *rand.Rand
	now       func() time.Time
}

// NewSource creates a source seeded with seed. A zero seed uses the clock.
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Source{
		generator: testkit.NewPopulationGeneratorWithRand(rng),
		rng:       rng,
		now:       time.Now,
	}
}

// Generated produces a synthetic dataset of n records.
func (s *Source) Generated(n int) *Dataset {
	return &Dataset{
		Origin:   OriginGenerated,
		Records:  s.generator.Generate(n),
		LoadedAt: s.now(),
	}
}

// FromTable converts an ingested table into a dataset. Missing required
// columns, missing required cells and non-numeric scores fail ingestion.
func (s *Source) FromTable(name string, t *Table) (*Dataset, error) {
	var missing []string
	for _, col := range RequiredColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.IngestionFailedf("missing required columns: %s (need %s)",
			strings.Join(missing, ", "), strings.Join(RequiredColumns, ", "))
	}

	records := make([]audit.Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		values := make(map[string]string, 3)
		for _, col := range []string{ColumnRace, ColumnGender, ColumnAgeGroup} {
			cell, ok := row.Get(col)
			if !ok || strings.TrimSpace(cell.Text) == "" {
				return nil, errors.IngestionFailedf("line %d: missing value for column %s", row.Line, col)
			}
			values[col] = cell.Text
		}

		score, ok := row.Get(ColumnRiskScore)
		if !ok {
			return nil, errors.IngestionFailedf("line %d: missing value for column %s", row.Line, ColumnRiskScore)
		}
		if !score.IsNumber() {
			return nil, errors.IngestionFailedf("line %d: %s %q is not a number", row.Line, ColumnRiskScore, score.Text)
		}

		records = append(records, audit.NewRecord(
			i,
			values[ColumnRace],
			values[ColumnGender],
			values[ColumnAgeGroup],
			score.Number,
			s.rng.Float64() < UploadedBadRate,
		))
	}

	return &Dataset{
		Origin:               OriginUploaded,
		Name:                 name,
		Records:              records,
		GroundTruthSimulated: true,
		LoadedAt:             s.now(),
	}, nil
}

// WriteCSV writes records in the upload format, so a generated dataset can
// be fed back through ParseCSV.
func WriteCSV(w io.Writer, records []audit.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", ColumnRace, ColumnGender, ColumnAgeGroup, ColumnRiskScore}); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.ID),
			r.Race,
			r.Gender,
			r.AgeGroup,
			strconv.FormatFloat(r.RiskScore, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write record %d", r.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
