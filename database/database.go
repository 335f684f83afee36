package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/logger"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

const (
	definitionExtension = ".yaml"
	dataExtension       = ".jsonl"
)

var (
	ErrViewNotFound      = errors.New("view not found")
	ErrViewAlreadyExists = errors.New("view already exists")
)

type Config struct {
	Dir     string
	Options collection.Options
}

// Database keeps every view of a data directory open. A view is stored as a
// YAML definition <name>.yaml next to its command log <name>.jsonl.
type Database struct {
	Config *Config
	logger *slog.Logger

	mutex  sync.RWMutex
	status string
	views  map[string]*collection.Collection
	exit   chan struct{}
}

func NewDatabase(config *Config) *Database {
	return &Database{
		Config: config,
		logger: logger.WithComponent("database"),
		status: StatusOpening,
		views:  map[string]*collection.Collection{},
		exit:   make(chan struct{}),
	}
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	db.status = status
	db.mutex.Unlock()
}

func (db *Database) definitionFile(name string) string {
	return filepath.Join(db.Config.Dir, name+definitionExtension)
}

func (db *Database) dataFile(name string) string {
	return filepath.Join(db.Config.Dir, name+dataExtension)
}

// ReadDefinition parses a YAML view definition.
func ReadDefinition(filename string) (*collection.Definition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	def := &collection.Definition{}
	err = yaml.Unmarshal(data, def)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", collection.ErrInvalidDefinition, filename, err)
	}
	return def, nil
}

func writeDefinition(filename string, def *collection.Definition) error {
	data, err := yaml.Marshal(def)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func (db *Database) CreateView(def *collection.Definition) (*collection.Collection, error) {

	err := def.Validate()
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(def.Name, `/\`) {
		return nil, fmt.Errorf("%w: name '%s'", collection.ErrInvalidDefinition, def.Name)
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, exists := db.views[def.Name]; exists {
		return nil, fmt.Errorf("%w: '%s'", ErrViewAlreadyExists, def.Name)
	}

	err = writeDefinition(db.definitionFile(def.Name), def)
	if err != nil {
		return nil, fmt.Errorf("write definition: %w", err)
	}

	view, err := collection.Open(db.dataFile(def.Name), def, db.Config.Options)
	if err != nil {
		os.Remove(db.definitionFile(def.Name))
		return nil, err
	}

	db.views[def.Name] = view
	db.logger.Info("view created", "view", def.Name, "columns", len(def.Columns))

	return view, nil
}

func (db *Database) GetView(name string) (*collection.Collection, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	view, exists := db.views[name]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrViewNotFound, name)
	}
	return view, nil
}

// ListViews returns the view names sorted.
func (db *Database) ListViews() []string {
	db.mutex.RLock()
	names := make([]string, 0, len(db.views))
	for name := range db.views {
		names = append(names, name)
	}
	db.mutex.RUnlock()

	sort.Strings(names)
	return names
}

func (db *Database) DropView(name string) error {

	db.mutex.Lock()
	view, exists := db.views[name]
	delete(db.views, name)
	db.mutex.Unlock()

	if !exists {
		return fmt.Errorf("%w: '%s'", ErrViewNotFound, name)
	}

	err := view.Drop()
	if err != nil {
		return err
	}

	err = os.Remove(db.definitionFile(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	db.logger.Info("view dropped", "view", name)
	return nil
}

// Load opens every view defined in the data directory, several at a time.
func (db *Database) Load() error {

	dir := db.Config.Dir
	db.logger.Info("loading database", "dir", dir)

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	definitions, err := filepath.Glob(filepath.Join(dir, "*"+definitionExtension))
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())

	for _, filename := range definitions {
		g.Go(func() error {
			return db.loadView(filename)
		})
	}

	err = g.Wait()
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	db.setStatus(StatusOperating)
	return nil
}

func (db *Database) loadView(filename string) error {

	t0 := time.Now()
	def, err := ReadDefinition(filename)
	if err != nil {
		db.logger.Error("read definition", "file", filename, "error", err)
		return err
	}

	// the file name wins over the name inside
	name := strings.TrimSuffix(filepath.Base(filename), definitionExtension)
	def.Name = name

	view, err := collection.Open(db.dataFile(name), def, db.Config.Options)
	if err != nil {
		db.logger.Error("open view", "view", name, "error", err)
		return err
	}
	db.logger.Info("view loaded", "view", name, "documents", view.Len(), "elapsed", time.Since(t0))

	db.mutex.Lock()
	db.views[name] = view
	db.mutex.Unlock()

	return nil
}

func (db *Database) Start() error {

	go db.Load()

	<-db.exit

	return nil
}

func (db *Database) Stop() error {

	defer close(db.exit)

	db.mutex.Lock()
	db.status = StatusClosing
	views := db.views
	db.views = map[string]*collection.Collection{}
	db.mutex.Unlock()

	var errs []error
	for name, view := range views {
		db.logger.Info("closing view", "view", name)
		err := view.Close()
		if err != nil {
			db.logger.Error("close view", "view", name, "error", err)
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
