package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/model"
)

const (
	ProfileFileName = "user_profile.json"
	MealLogFileName = "meal_logs.json"
)

// File stores the profile and the meal log as two JSON documents in a directory. Writes go to
// a temporary file that is renamed over the target.
type File struct {
	dir       string
	profileMu sync.Mutex
	mealsMu   sync.Mutex
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
	}
	return &File{dir: dir}, nil
}

func (r *File) path(name string) string {
	return filepath.Join(r.dir, name)
}

// mealLog is the on-disk shape: date -> entries.
type mealLog map[string][]*model.MealLogEntry

func (r *File) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	r.profileMu.Lock()
	defer r.profileMu.Unlock()

	var profile model.UserProfile
	found, err := readJSON(r.path(ProfileFileName), &profile)
	if err != nil {
		return nil, err
	}
	if !found {
		return model.NewUserProfile(), nil
	}
	return &profile, nil
}

func (r *File) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	r.profileMu.Lock()
	defer r.profileMu.Unlock()
	return writeJSON(r.path(ProfileFileName), profile)
}

func (r *File) AppendMeal(ctx context.Context, date string, entry *model.MealLogEntry) error {
	if err := validateDate(date); err != nil {
		return err
	}

	r.mealsMu.Lock()
	defer r.mealsMu.Unlock()

	logs := mealLog{}
	if _, err := readJSON(r.path(MealLogFileName), &logs); err != nil {
		return err
	}
	logs[date] = append(logs[date], entry)
	return writeJSON(r.path(MealLogFileName), logs)
}

func (r *File) ListMeals(ctx context.Context, date string) ([]*model.MealLogEntry, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	r.mealsMu.Lock()
	defer r.mealsMu.Unlock()

	logs := mealLog{}
	if _, err := readJSON(r.path(MealLogFileName), &logs); err != nil {
		return nil, err
	}
	return cloneEntries(logs[date]), nil
}

// readJSON decodes path into v. It reports false when the file does not exist.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to read data file", goerr.V("path", path))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, goerr.Wrap(err, "failed to decode data file", goerr.V("path", path))
	}
	return true, nil
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to encode data file", goerr.V("path", path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("path", path))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write temporary file", goerr.V("path", tmp.Name()))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to sync temporary file", goerr.V("path", tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", tmp.Name()))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return goerr.Wrap(err, "failed to replace data file", goerr.V("path", path))
	}
	return nil
}
