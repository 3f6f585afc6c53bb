package views

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"taskdesk/backend"
)

// View is a named, saved filter state.
type View struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Search      string         `yaml:"search,omitempty" json:"search,omitempty"`
	Status      backend.Status `yaml:"status,omitempty" json:"status,omitempty"`
	User        string         `yaml:"user,omitempty" json:"user,omitempty"`
	Sort        SortOption     `yaml:"sort,omitempty" json:"sort,omitempty"`
	PageSize    int            `yaml:"page_size,omitempty" json:"pageSize,omitempty"`
}

// ViewInfo describes a view for listing.
type ViewInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BuiltIn     bool   `json:"builtIn"`
}

// State turns the view into a pipeline state on page 1. A zero page size in
// the view keeps fallbackPageSize.
func (v *View) State(fallbackPageSize int) FilterState {
	s := NewState(fallbackPageSize)
	if v.PageSize > 0 {
		s.PageSize = v.PageSize
	}
	s.SearchQuery = v.Search
	s.StatusFilter = v.Status
	s.UserFilter = v.User
	s.SortOption = v.Sort
	return s
}

// FromState captures a filter state as a view.
func FromState(name, description string, s FilterState) *View {
	return &View{
		Name:        name,
		Description: description,
		Search:      s.SearchQuery,
		Status:      s.StatusFilter,
		User:        s.UserFilter,
		Sort:        s.SortOption,
	}
}

// builtInViews are available without any file on disk.
func builtInViews() map[string]*View {
	return map[string]*View{
		"all":  {Name: "all", Description: "Every task in fetched order"},
		"open": {Name: "open", Description: "Tasks still to do", Status: backend.StatusTodo, Sort: SortDueDate},
		"done": {Name: "done", Description: "Completed tasks", Status: backend.StatusDone},
	}
}

// Loader handles loading views from disk and built-in sources
type Loader struct {
	viewsDir string
}

// NewLoader creates a new view loader
func NewLoader(viewsDir string) *Loader {
	return &Loader{viewsDir: viewsDir}
}

// ValidateViewName checks if a view name is safe to use in file paths.
func ValidateViewName(name string) error {
	if name == "" {
		return fmt.Errorf("view name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid view name '%s': contains path separator", name)
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid view name '%s': contains path traversal sequence", name)
	}

	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid view name '%s': cannot start with '.'", name)
	}

	return nil
}

func (l *Loader) path(name string) string {
	return filepath.Join(l.viewsDir, name+".yaml")
}

// LoadView loads a view by name. Files on disk override built-in views.
func (l *Loader) LoadView(name string) (*View, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))
	if err := ValidateViewName(normalizedName); err != nil {
		return nil, err
	}

	if l.viewsDir != "" {
		if _, err := os.Stat(l.path(normalizedName)); err == nil {
			return l.loadFromDisk(normalizedName)
		}
	}

	if v, ok := builtInViews()[normalizedName]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("view '%s' not found", name)
}

func (l *Loader) loadFromDisk(name string) (*View, error) {
	data, err := os.ReadFile(l.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read view file: %w", err)
	}

	var v View
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid YAML in view '%s': %w", name, err)
	}
	if v.Name == "" {
		v.Name = name
	}
	if err := validateView(&v); err != nil {
		return nil, fmt.Errorf("invalid view '%s': %w", name, err)
	}
	return &v, nil
}

// SaveView writes a view to disk, replacing any existing file.
func (l *Loader) SaveView(v *View) error {
	v.Name = strings.ToLower(strings.TrimSpace(v.Name))
	if err := ValidateViewName(v.Name); err != nil {
		return err
	}
	if err := validateView(v); err != nil {
		return err
	}
	if l.viewsDir == "" {
		return fmt.Errorf("no views directory configured")
	}
	if err := os.MkdirAll(l.viewsDir, 0755); err != nil {
		return fmt.Errorf("failed to create views directory: %w", err)
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path(v.Name), data, 0644)
}

// DeleteView removes a saved view. Built-in views cannot be deleted.
func (l *Loader) DeleteView(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if err := ValidateViewName(name); err != nil {
		return err
	}
	err := os.Remove(l.path(name))
	if os.IsNotExist(err) {
		if _, ok := builtInViews()[name]; ok {
			return fmt.Errorf("view '%s' is built in and cannot be deleted", name)
		}
		return fmt.Errorf("view '%s' not found", name)
	}
	return err
}

// ListViews returns built-in and saved views sorted by name.
func (l *Loader) ListViews() ([]ViewInfo, error) {
	infos := map[string]ViewInfo{}
	for name, v := range builtInViews() {
		infos[name] = ViewInfo{Name: name, Description: v.Description, BuiltIn: true}
	}

	if l.viewsDir != "" {
		entries, err := os.ReadDir(l.viewsDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".yaml")
			v, err := l.loadFromDisk(name)
			if err != nil {
				continue
			}
			infos[name] = ViewInfo{Name: name, Description: v.Description}
		}
	}

	result := make([]ViewInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// validateView checks a view and canonicalizes its status and sort.
func validateView(v *View) error {
	if v.Status != "" {
		st, err := backend.ParseStatus(string(v.Status))
		if err != nil {
			return err
		}
		v.Status = st
	}
	opt, err := ParseSortOption(string(v.Sort))
	if err != nil {
		return err
	}
	v.Sort = opt
	if v.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative")
	}
	return nil
}
