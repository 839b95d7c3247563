package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingColumn = goerr.New("required column is missing")
	ErrInvalidTable  = goerr.New("invalid BigQuery table name")
)

// FoodSource yields the food records of the catalog.
type FoodSource interface {
	LoadFoods(ctx context.Context) ([]*model.Food, error)
}

// ExerciseSource yields the exercise records of the catalog.
type ExerciseSource interface {
	LoadExercises(ctx context.Context) ([]*model.Exercise, error)
}

// Opener resolves a source file name to its content.
type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// LocalOpener opens files from the local filesystem.
type LocalOpener struct{}

func (LocalOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(name))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open source file", goerr.V("path", name))
	}
	return f, nil
}

// BucketOpener opens objects under a prefix of a Cloud Storage bucket.
type BucketOpener struct {
	storage adapter.Storage
	prefix  string
}

func NewBucketOpener(storage adapter.Storage, prefix string) *BucketOpener {
	return &BucketOpener{storage: storage, prefix: prefix}
}

func (b *BucketOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return b.storage.Get(ctx, path.Join(b.prefix, name))
}

type foodField int

const (
	fieldName foodField = iota
	fieldCalories
	fieldProtein
	fieldFat
	fieldCarbs
	fieldReference
)

// foodColumns lists accepted header names per field. The Korean food composition table headers
// come first.
var foodColumns = map[foodField][]string{
	fieldName:      {"식품명", "name", "food", "food_name"},
	fieldCalories:  {"에너지(kcal)", "calories", "kcal", "energy_kcal"},
	fieldProtein:   {"단백질(g)", "protein", "protein_g"},
	fieldFat:       {"지방(g)", "fat", "fat_g"},
	fieldCarbs:     {"탄수화물(g)", "carbs", "carbohydrate", "carbs_g"},
	fieldReference: {"기준량(g)", "serving_g", "reference_grams"},
}

// foodRow is one source row keyed by normalized column name.
type foodRow map[string]string

func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

func (r foodRow) get(field foodField) (string, bool) {
	for _, col := range foodColumns[field] {
		if v, ok := r[normalizeColumn(col)]; ok {
			return v, true
		}
	}
	return "", false
}

func (r foodRow) measure(field foodField) float64 {
	v, _ := r.get(field)
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	v = strings.TrimSuffix(strings.TrimSuffix(v, "g"), "ml")
	return model.ParseMeasure(v).Float()
}

// food converts the row, returning nil for rows without a name.
func (r foodRow) food() *model.Food {
	name, _ := r.get(fieldName)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	ref := r.measure(fieldReference)
	if ref <= 0 {
		ref = model.DefaultReferenceGrams
	}
	return &model.Food{
		Name:           name,
		Calories:       r.measure(fieldCalories),
		Protein:        r.measure(fieldProtein),
		Fat:            r.measure(fieldFat),
		Carbs:          r.measure(fieldCarbs),
		ReferenceGrams: ref,
	}
}

func hasColumn(columns map[string]struct{}, field foodField) bool {
	for _, col := range foodColumns[field] {
		if _, ok := columns[normalizeColumn(col)]; ok {
			return true
		}
	}
	return false
}

// ParseFoodCSV reads a food composition table. The name column is required; missing or
// unparseable numeric cells read as zero and a missing reference column means per 100 g.
func ParseFoodCSV(r io.Reader) ([]*model.Food, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read CSV header")
	}

	columns := make(map[string]struct{}, len(header))
	for i := range header {
		header[i] = normalizeColumn(header[i])
		columns[header[i]] = struct{}{}
	}
	if !hasColumn(columns, fieldName) {
		return nil, goerr.Wrap(ErrMissingColumn, "food name column not found", goerr.V("header", header))
	}

	var foods []*model.Food
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read CSV row", goerr.V("line", line))
		}

		row := make(foodRow, len(header))
		for i, v := range record {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		if f := row.food(); f != nil {
			foods = append(foods, f)
		}
	}
	return foods, nil
}

// CSVFoods loads foods from a CSV file.
type CSVFoods struct {
	opener Opener
	name   string
}

func NewCSVFoods(opener Opener, name string) *CSVFoods {
	return &CSVFoods{opener: opener, name: name}
}

func (s *CSVFoods) LoadFoods(ctx context.Context) ([]*model.Food, error) {
	r, err := s.opener.Open(ctx, s.name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open food database", goerr.V("name", s.name))
	}
	defer r.Close()

	foods, err := ParseFoodCSV(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse food database", goerr.V("name", s.name))
	}
	return foods, nil
}

var tablePattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-]+){1,2}$`)

// BigQueryFoods loads foods from a warehouse table using the same column names as the CSV.
type BigQueryFoods struct {
	client adapter.BigQuery
	table  string
}

// NewBigQueryFoods creates a source for table, given as dataset.table or project.dataset.table.
func NewBigQueryFoods(client adapter.BigQuery, table string) (*BigQueryFoods, error) {
	if !tablePattern.MatchString(table) {
		return nil, goerr.Wrap(ErrInvalidTable, "table must be dataset.table or project.dataset.table", goerr.V("table", table))
	}
	return &BigQueryFoods{client: client, table: table}, nil
}

func (s *BigQueryFoods) LoadFoods(ctx context.Context) ([]*model.Food, error) {
	rows, err := s.client.QueryRows(ctx, fmt.Sprintf("SELECT * FROM `%s`", s.table))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query food table", goerr.V("table", s.table))
	}

	var foods []*model.Food
	for _, values := range rows {
		row := make(foodRow, len(values))
		for k, v := range values {
			if v == nil {
				continue
			}
			row[normalizeColumn(k)] = fmt.Sprint(v)
		}
		if f := row.food(); f != nil {
			foods = append(foods, f)
		}
	}
	return foods, nil
}

// FileExercises loads exercises from a JSON or YAML list of {name, target-muscle, youtube_link}.
type FileExercises struct {
	opener Opener
	name   string
}

func NewFileExercises(opener Opener, name string) *FileExercises {
	return &FileExercises{opener: opener, name: name}
}

func (s *FileExercises) LoadExercises(ctx context.Context) ([]*model.Exercise, error) {
	r, err := s.opener.Open(ctx, s.name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open exercise database", goerr.V("name", s.name))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read exercise database", goerr.V("name", s.name))
	}

	exercises, err := ParseExercises(data, strings.EqualFold(path.Ext(s.name), ".json"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse exercise database", goerr.V("name", s.name))
	}
	return exercises, nil
}

// ParseExercises decodes an exercise list, dropping entries without a name.
func ParseExercises(data []byte, isJSON bool) ([]*model.Exercise, error) {
	var raw []*model.Exercise
	if isJSON {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, goerr.Wrap(err, "invalid exercise JSON")
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "invalid exercise YAML")
	}

	exercises := make([]*model.Exercise, 0, len(raw))
	for _, ex := range raw {
		if ex == nil || strings.TrimSpace(ex.Name) == "" {
			continue
		}
		ex.Name = strings.TrimSpace(ex.Name)
		exercises = append(exercises, ex)
	}
	return exercises, nil
}
