// Package backup writes the transaction list to timestamped JSON files and
// restores it from them.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	filePrefix      = "backup_"
	fileSuffix      = ".json"
	timestampLayout = "20060102_150405"
	displayLayout   = "02 Jan 2006, 15:04"

	maxNameAttempts = 60
)

var (
	ErrNothingToBackup = errors.New("no transactions to back up")
	ErrMalformedBackup = errors.New("malformed backup")
	ErrInvalidName     = errors.New("invalid backup name")
)

// Ledger is the part of the ledger a backup reads from and restores into.
// ReplaceTransactions must be all-or-nothing.
type Ledger interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ReplaceTransactions(ctx context.Context, txns []core.Transaction) error
}

// Info describes a backup file on disk.
type Info struct {
	Name      string
	CreatedAt time.Time
	Size      int64
}

func (i Info) DisplayName() string {
	return DisplayName(i.Name)
}

type Manager struct {
	dir    string
	ledger Ledger
	now    func() time.Time
}

func NewManager(dir string, ledger Ledger) *Manager {
	return &Manager{dir: dir, ledger: ledger, now: time.Now}
}

// record is the on-disk shape of one transaction. Amount accepts either a
// JSON number or a numeric string.
type record struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      core.Date       `json:"date"`
	IsExpense bool            `json:"isExpense"`
	Notes     string          `json:"notes"`
}

// Create snapshots every transaction into a new backup file.
func (m *Manager) Create(ctx context.Context) (Info, error) {
	txns, err := m.ledger.ListTransactions(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("list transactions: %w", err)
	}
	if len(txns) == 0 {
		return Info{}, ErrNothingToBackup
	}

	records := make([]record, len(txns))
	for i, t := range txns {
		records[i] = record{
			ID:        t.ID,
			Title:     t.Title,
			Amount:    t.Amount.Decimal(),
			Category:  t.Category,
			Date:      t.Date,
			IsExpense: t.IsExpense,
			Notes:     t.Notes,
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("encode backup: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return Info{}, fmt.Errorf("create backup directory: %w", err)
	}

	// Names carry whole seconds; a taken name moves the stamp forward so an
	// earlier backup is never overwritten.
	createdAt := m.now().Truncate(time.Second)
	var name string
	for attempt := 0; ; attempt++ {
		name = filePrefix + createdAt.Format(timestampLayout) + fileSuffix
		err := writeFileExclusive(filepath.Join(m.dir, name), data)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return Info{}, err
		}
		if attempt == maxNameAttempts {
			return Info{}, fmt.Errorf("no free backup name after %s: %w", name, err)
		}
		createdAt = createdAt.Add(time.Second)
	}

	slog.InfoContext(ctx, "Backup created",
		"name", name,
		"transactions", len(txns),
		"bytes", len(data))

	return Info{Name: name, CreatedAt: createdAt, Size: int64(len(data))}, nil
}

// writeFileExclusive writes data to a temp file and links it into place,
// failing with os.ErrExist when path is already taken.
func writeFileExclusive(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		return fmt.Errorf("link backup: %w", err)
	}
	return nil
}

// List returns the backups in the directory, newest first. A missing
// directory yields an empty list.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() || !isBackupName(e.Name()) {
			continue
		}
		created, err := BackupTime(e.Name())
		if err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: e.Name(), CreatedAt: created, Size: fi.Size()})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// Load parses and validates a backup without touching the ledger.
func (m *Manager) Load(name string) ([]core.Transaction, error) {
	path, err := m.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", name, err)
	}
	return decode(data)
}

// Restore replaces every transaction with the contents of the backup. The
// file is fully parsed and validated first; on any problem the current
// transactions are left untouched.
func (m *Manager) Restore(ctx context.Context, name string) (int, error) {
	txns, err := m.Load(name)
	if err != nil {
		return 0, err
	}
	if err := m.ledger.ReplaceTransactions(ctx, txns); err != nil {
		return 0, fmt.Errorf("restore %s: %w", name, err)
	}

	slog.InfoContext(ctx, "Backup restored", "name", name, "transactions", len(txns))
	return len(txns), nil
}

func decode(data []byte) ([]core.Transaction, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	// Create never writes an empty backup, so an empty list means the file is damaged.
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no transactions", ErrMalformedBackup)
	}

	seen := make(map[string]bool, len(records))
	txns := make([]core.Transaction, 0, len(records))
	for i, r := range records {
		amount, err := core.FromDecimal(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedBackup, i, err)
		}
		t := core.Transaction{
			ID:        strings.TrimSpace(r.ID),
			Title:     strings.TrimSpace(r.Title),
			Amount:    amount,
			Category:  strings.TrimSpace(r.Category),
			Date:      r.Date,
			IsExpense: r.IsExpense,
			Notes:     r.Notes,
		}
		if t.ID == "" {
			t.ID = core.NewID()
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: entry %d: duplicate id %s", ErrMalformedBackup, i, t.ID)
		}
		seen[t.ID] = true

		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedBackup, i, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func (m *Manager) path(name string) (string, error) {
	if name != filepath.Base(name) || !isBackupName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(m.dir, name), nil
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// BackupTime extracts the creation time encoded in a backup file name.
func BackupTime(name string) (time.Time, error) {
	if !isBackupName(name) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	t, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return t, nil
}

// DisplayName renders a backup name as "02 Jan 2006, 15:04", falling back to
// the raw name when it carries no timestamp.
func DisplayName(name string) string {
	t, err := BackupTime(name)
	if err != nil {
		return name
	}
	return t.Format(displayLayout)
}
