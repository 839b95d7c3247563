package catalog_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mifdirfan/PocketCoach/pkg/catalog"
)

func TestParseFoodCSV(t *testing.T) {
	t.Run("english headers with BOM", func(t *testing.T) {
		input := "\ufeffName,Calories,Protein,Fat,Carbs,serving_g\nChicken Breast,165,31,3.6,0,\nOatmeal,150,5,2.5,27,40\n"
		foods, err := catalog.ParseFoodCSV(strings.NewReader(input))
		gt.NoError(t, err)
		gt.A(t, foods).Length(2)
		gt.V(t, foods[0].Name).Equal("Chicken Breast")
		gt.V(t, foods[0].ReferenceGrams).Equal(100.0)
		gt.V(t, foods[1].ReferenceGrams).Equal(40.0)
		gt.V(t, foods[1].Carbs).Equal(27.0)
	})

	t.Run("unparseable cells read as zero", func(t *testing.T) {
		input := "식품명,에너지(kcal),단백질(g)\n김치,-,1.5\n"
		foods, err := catalog.ParseFoodCSV(strings.NewReader(input))
		gt.NoError(t, err)
		gt.A(t, foods).Length(1)
		gt.V(t, foods[0].Calories).Equal(0.0)
		gt.V(t, foods[0].Protein).Equal(1.5)
	})

	t.Run("name column required", func(t *testing.T) {
		_, err := catalog.ParseFoodCSV(strings.NewReader("calories,protein\n100,2\n"))
		gt.True(t, errors.Is(err, catalog.ErrMissingColumn))
	})

	t.Run("empty input", func(t *testing.T) {
		foods, err := catalog.ParseFoodCSV(strings.NewReader(""))
		gt.NoError(t, err)
		gt.A(t, foods).Length(0)
	})
}

func TestFileExercisesYAML(t *testing.T) {
	src := catalog.NewFileExercises(catalog.LocalOpener{}, "testdata/exercise_db.yaml")
	exercises, err := src.LoadExercises(context.Background())
	gt.NoError(t, err)
	gt.A(t, exercises).Length(2)
	gt.V(t, exercises[0].TargetMuscle).Equal("Chest")
	gt.V(t, exercises[1].Name).Equal("Deadlift")
	gt.V(t, exercises[1].EmbeddingText()).Equal("Deadlift (Targets: Back)")
}

func TestParseExercisesInvalid(t *testing.T) {
	_, err := catalog.ParseExercises([]byte(`{"name": "not a list"}`), true)
	gt.Error(t, err)
}

type mockBigQuery struct {
	queryRowsFunc func(ctx context.Context, query string) ([]map[string]any, error)
}

func (m *mockBigQuery) QueryRows(ctx context.Context, query string) ([]map[string]any, error) {
	return m.queryRowsFunc(ctx, query)
}

func TestBigQueryFoods(t *testing.T) {
	var received string
	client := &mockBigQuery{
		queryRowsFunc: func(ctx context.Context, query string) ([]map[string]any, error) {
			received = query
			return []map[string]any{
				{"식품명": "닭가슴살", "에너지(kcal)": int64(165), "단백질(g)": 31.0, "지방(g)": 3.6, "탄수화물(g)": nil},
				{"식품명": nil, "에너지(kcal)": 10.0},
			}, nil
		},
	}

	src, err := catalog.NewBigQueryFoods(client, "nutrition.food_db")
	gt.NoError(t, err)

	foods, err := src.LoadFoods(context.Background())
	gt.NoError(t, err)
	gt.V(t, received).Equal("SELECT * FROM `nutrition.food_db`")
	gt.A(t, foods).Length(1)
	gt.V(t, foods[0].Calories).Equal(165.0)
	gt.V(t, foods[0].Carbs).Equal(0.0)
	gt.V(t, foods[0].ReferenceGrams).Equal(100.0)
}

func TestBigQueryFoodsRejectsTableName(t *testing.T) {
	for _, table := range []string{"food_db", "a.b; DROP TABLE x", "a.b.c.d", "`a.b`"} {
		_, err := catalog.NewBigQueryFoods(&mockBigQuery{}, table)
		gt.True(t, errors.Is(err, catalog.ErrInvalidTable))
	}
}

type mockStorage struct {
	objects map[string]string
}

func (m *mockStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func TestBucketOpener(t *testing.T) {
	data, err := os.ReadFile("testdata/food_db.csv")
	gt.NoError(t, err)

	storage := &mockStorage{objects: map[string]string{"knowledge/food_db.csv": string(data)}}
	src := catalog.NewCSVFoods(catalog.NewBucketOpener(storage, "knowledge"), "food_db.csv")

	foods, err := src.LoadFoods(context.Background())
	gt.NoError(t, err)
	gt.A(t, foods).Length(3)
	gt.V(t, foods[0].Name).Equal("닭가슴살")

	missing := catalog.NewCSVFoods(catalog.NewBucketOpener(storage, "other"), "food_db.csv")
	_, err = missing.LoadFoods(context.Background())
	gt.Error(t, err)
}
