package host

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"
	"sync"

	display "github.com/BeatGlow/display-fsw"
)

// Table manager errors.
var (
	ErrNotRegistered = errors.New("host: table is not registered")
	ErrNoTable       = errors.New("host: no active table")
)

// Validator vetoes a candidate table by returning an error.
type Validator func(*display.Table) error

// TableManager holds the active device table. A candidate is only activated after it decodes
// and passes the registered validator, otherwise the previously active table stays in service.
type TableManager struct {
	mu       sync.Mutex
	name     string
	validate Validator
	logger   *slog.Logger

	active *display.Table
	image  []byte
	crc    uint32
}

// NewTableManager returns a manager that logs events to logger.
func NewTableManager(logger *slog.Logger) *TableManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TableManager{logger: logger}
}

// Register names the table and installs its validation callback.
func (m *TableManager) Register(name string, validate Validator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	m.validate = validate
}

// Name of the registered table.
func (m *TableManager) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Load reads a table image from a file and activates it.
func (m *TableManager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		m.reject(path, err)
		return err
	}
	return m.LoadImage(data)
}

// LoadImage decodes, validates and activates a table image.
func (m *TableManager) LoadImage(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.validate == nil {
		return ErrNotRegistered
	}

	t, err := display.DecodeTable(data)
	if err == nil {
		err = m.validate(t)
	}
	if err != nil {
		m.reject(m.name, err)
		return fmt.Errorf("host: table %s: %w", m.name, err)
	}

	m.active = t
	m.image = append([]byte(nil), data...)
	m.crc = crc32.ChecksumIEEE(m.image)
	m.logger.Info("table activated", "table", m.name, "device", t.DevicePath, "crc", fmt.Sprintf("%#08x", m.crc))
	return nil
}

func (m *TableManager) reject(what string, err error) {
	event(m.logger, EventTableError, "table rejected", "table", what, "error", err)
}

// Active returns a copy of the active table.
func (m *TableManager) Active() (display.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return display.Table{}, ErrNoTable
	}
	return *m.active, nil
}

// CRC returns the CRC-32 (IEEE) of the active table image, zero if there is none.
func (m *TableManager) CRC() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.crc
}
