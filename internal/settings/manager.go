package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmspanish/studytrack/internal/logger"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	ErrUnknownSection = errors.New("unknown settings section")
	ErrInvalid        = errors.New("invalid settings")
)

// Manager owns the settings document. The raw JSON document is kept so that
// keys this version does not know about survive a load/save cycle.
type Manager struct {
	path string
	log  *logger.Logger

	mu    sync.Mutex
	doc   []byte
	typed Settings
}

func NewManager(path string, log *logger.Logger) *Manager {
	m := &Manager{path: path, log: log.With("component", "settings")}
	m.resetLocked()
	return m
}

func (m *Manager) Path() string {
	return m.path
}

// Load reads the settings file. A missing file is replaced by the defaults;
// an unreadable or invalid one leaves the defaults in memory and returns
// false.
func (m *Manager) Load() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		m.resetLocked()
		if err := m.saveLocked(); err != nil {
			m.log.Warn("write default settings", "path", m.path, "error", err)
		}
		m.log.Info("using default settings", "path", m.path)
		return true
	}
	if err != nil {
		m.log.Error("read settings", "path", m.path, "error", err)
		m.resetLocked()
		return false
	}

	doc, typed, err := mergeDocument(data)
	if err != nil {
		m.log.Error("load settings", "path", m.path, "error", err)
		m.resetLocked()
		return false
	}
	m.doc, m.typed = doc, typed
	m.log.Info("settings loaded", "path", m.path)
	return true
}

func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	if err := writeDocument(m.path, m.doc); err != nil {
		return err
	}
	m.log.Debug("settings saved", "path", m.path)
	return nil
}

// Typed returns the decoded settings. Keys missing from the document hold
// their default values.
func (m *Manager) Typed() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typed
}

// Document returns a copy of the raw settings JSON.
func (m *Manager) Document() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.doc...)
}

// Get looks up a dotted path such as "appearance.theme". Flat legacy keys
// are migrated first.
func (m *Manager) Get(path string) gjson.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gjson.GetBytes(m.doc, MigrateLegacyKey(path))
}

func (m *Manager) Has(path string) bool {
	return m.Get(path).Exists()
}

// Set stores value at a dotted path. Values that do not fit the typed
// settings (for example a string for appearance.opacity) are rejected.
func (m *Manager) Set(path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = MigrateLegacyKey(path)
	doc, err := sjson.SetBytes(m.doc, path, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	if err := m.commitLocked(doc); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	m.log.Debug("setting updated", "key", path, "value", value)
	return nil
}

func (m *Manager) Remove(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = MigrateLegacyKey(path)
	if !gjson.GetBytes(m.doc, path).Exists() {
		return false
	}
	doc, err := sjson.DeleteBytes(m.doc, path)
	if err != nil {
		m.log.Error("remove setting", "key", path, "error", err)
		return false
	}
	if err := m.commitLocked(doc); err != nil {
		m.log.Error("remove setting", "key", path, "error", err)
		return false
	}
	m.log.Debug("setting removed", "key", path)
	return true
}

// ResetToDefaults discards every setting, including unknown keys, and saves.
func (m *Manager) ResetToDefaults() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	if err := m.saveLocked(); err != nil {
		return err
	}
	m.log.Info("settings reset to defaults")
	return nil
}

// ResetSection restores one section to its defaults without saving.
func (m *Manager) ResetSection(section string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := defaultsMap()[section]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	doc, err := sjson.SetBytes(m.doc, section, def)
	if err != nil {
		return err
	}
	if err := m.commitLocked(doc); err != nil {
		return err
	}
	m.log.Info("settings section reset", "section", section)
	return nil
}

func (m *Manager) Section(section string) map[string]any {
	res := m.Get(section)
	if out, ok := res.Value().(map[string]any); ok {
		return out
	}
	return map[string]any{}
}

// UpdateSection sets several keys of one section at once. Either all values
// are applied or none.
func (m *Manager) UpdateSection(section string, values map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.doc
	var err error
	for k, v := range values {
		doc, err = sjson.SetBytes(doc, section+"."+k, v)
		if err != nil {
			return fmt.Errorf("update %s.%s: %w", section, k, err)
		}
	}
	return m.commitLocked(doc)
}

func (m *Manager) Export(path string) error {
	doc := m.Document()
	if err := writeDocument(path, doc); err != nil {
		return fmt.Errorf("export settings: %w", err)
	}
	m.log.Info("settings exported", "path", path)
	return nil
}

// Import merges the document at path over the defaults and saves it.
// The current settings are kept if anything fails before the save.
func (m *Manager) Import(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("import settings: %w", err)
	}
	doc, typed, err := mergeDocument(data)
	if err != nil {
		return fmt.Errorf("import settings: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	prevDoc, prevTyped := m.doc, m.typed
	m.doc, m.typed = doc, typed
	if err := m.saveLocked(); err != nil {
		m.doc, m.typed = prevDoc, prevTyped
		return fmt.Errorf("import settings: %w", err)
	}
	m.log.Info("settings imported", "path", path)
	return nil
}

// Backup exports the settings next to the settings file unless path is set.
func (m *Manager) Backup(path string) (string, error) {
	if path == "" {
		path = filepath.Join(filepath.Dir(m.path), fmt.Sprintf("config_backup_%d.json", time.Now().Unix()))
	}
	return path, m.Export(path)
}

// Validate checks required sections and the ranges of numeric settings.
func (m *Manager) Validate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, section := range requiredSections {
		if !gjson.GetBytes(m.doc, section).IsObject() {
			return fmt.Errorf("%w: missing section %s", ErrInvalid, section)
		}
	}

	opacity := gjson.GetBytes(m.doc, "appearance.opacity")
	if opacity.Type != gjson.Number {
		return fmt.Errorf("%w: appearance.opacity must be a number", ErrInvalid)
	}
	if v := opacity.Float(); v < 0.1 || v > 1.0 {
		return fmt.Errorf("%w: appearance.opacity %v outside 0.1..1.0", ErrInvalid, v)
	}

	interval := gjson.GetBytes(m.doc, "behavior.save_interval")
	if interval.Type != gjson.Number || interval.Float() != float64(interval.Int()) {
		return fmt.Errorf("%w: behavior.save_interval must be an integer", ErrInvalid)
	}
	if v := interval.Int(); v < 1 || v > 60 {
		return fmt.Errorf("%w: behavior.save_interval %d outside 1..60", ErrInvalid, v)
	}
	return nil
}

func (m *Manager) commitLocked(doc []byte) error {
	typed, err := decodeTyped(doc)
	if err != nil {
		return err
	}
	m.doc, m.typed = doc, typed
	return nil
}

func (m *Manager) resetLocked() {
	data, err := json.Marshal(Defaults())
	if err != nil {
		panic(err)
	}
	m.doc = data
	m.typed = Defaults()
}

func mergeDocument(data []byte) ([]byte, Settings, error) {
	var loaded map[string]any
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, Settings{}, err
	}
	doc, err := json.Marshal(Merge(defaultsMap(), loaded))
	if err != nil {
		return nil, Settings{}, err
	}
	typed, err := decodeTyped(doc)
	if err != nil {
		return nil, Settings{}, err
	}
	return doc, typed, nil
}

func decodeTyped(doc []byte) (Settings, error) {
	typed := Defaults()
	if err := json.Unmarshal(doc, &typed); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return typed, nil
}

func writeDocument(path string, doc []byte) error {
	var compact, out bytes.Buffer
	if err := json.Compact(&compact, doc); err != nil {
		return err
	}
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	return os.WriteFile(path, out.Bytes(), 0o644)
}
