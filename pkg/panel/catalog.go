package panel

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

//go:embed tables/*.yaml
var builtinTables embed.FS

// DefaultTable is the name of the builtin table matching the original
// three panel template.
const DefaultTable = "classic"

// Catalog holds classification tables by name.
// It is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables: make(map[string]*Table),
	}
}

// NewBuiltinCatalog returns a Catalog preloaded with the builtin tables.
func NewBuiltinCatalog() (*Catalog, error) {
	c := NewCatalog()
	if err := c.loadFS(builtinTables, "tables"); err != nil {
		return nil, fmt.Errorf("failed to load builtin tables: %w", err)
	}
	return c, nil
}

// Register adds a validated table under its name.
// Returns an error if the name is already registered or the table is invalid.
func (c *Catalog) Register(t *Table) error {
	if t == nil {
		return fmt.Errorf("table must not be nil")
	}
	if err := t.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[t.Name]; exists {
		return fmt.Errorf("table %q is already registered", t.Name)
	}
	c.tables[t.Name] = t
	return nil
}

// Get returns the table registered under name.
func (c *Catalog) Get(name string) (*Table, error) {
	c.mu.RLock()
	t, exists := c.tables[name]
	c.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown table %q", name)
	}
	return t, nil
}

// Names returns the registered table names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir registers every *.yaml and *.yml table found directly in dir.
// Files are loaded in name order; the first failing file aborts the load.
func (c *Catalog) LoadDir(dir string, logger *logrus.Logger) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("directory %s does not exist", dir)
	}

	if err := c.loadFS(os.DirFS(dir), "."); err != nil {
		return fmt.Errorf("failed to load tables from %s: %w", dir, err)
	}
	logger.Debugf("Loaded tables from %s, catalog now holds %d table(s).", dir, len(c.Names()))
	return nil
}

func (c *Catalog) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		t, err := ParseTable(data)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if err := c.Register(t); err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
	}
	return nil
}
