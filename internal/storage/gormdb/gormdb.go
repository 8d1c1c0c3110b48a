// internal/storage/gormdb/gormdb.go
package gormdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pitchside/tacticsboard/internal/database"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// SessionModel is the sessions table. Rosters are stored as a JSON
// column rather than a relation; they are read-only catalog data.
type SessionModel struct {
	ID      uint   `gorm:"primarykey"`
	Name    string `gorm:"uniqueIndex"`
	SavedAt time.Time
	Roster  datatypes.JSON
}

func (SessionModel) TableName() string { return "sessions" }

// BoardModel is one board slot of a session.
type BoardModel struct {
	ID        uint `gorm:"primarykey"`
	SessionID uint `gorm:"index"`
	Slot      string
	State     datatypes.JSON
	Camera    datatypes.JSON
}

func (BoardModel) TableName() string { return "session_boards" }

// MarkModel is one timeline mark of a session.
type MarkModel struct {
	ID        uint `gorm:"primarykey"`
	SessionID uint `gorm:"index"`
	Board     string
	Clock     float64
	Label     string
	State     datatypes.JSON
}

func (MarkModel) TableName() string { return "session_marks" }

// Backend persists sessions through a gorm connection. The connection
// comes from the database manager, so Postgres and the SQLite fallback
// both work unchanged.
type Backend struct {
	mgr *database.Manager
}

// New creates a gorm-backed session store.
func New(mgr *database.Manager) *Backend {
	return &Backend{mgr: mgr}
}

// Init connects and migrates the session tables. A manager flagged for
// local saving opens SQLite directly instead of attempting Postgres.
func (b *Backend) Init() error {
	if b.mgr.DB == nil {
		if b.mgr.ShouldSaveLocal {
			db, err := b.mgr.GetSqliteDB(b.mgr.SqliteFilePath)
			if err != nil {
				return err
			}
			b.mgr.DB = db
			b.mgr.IsValid = true
		} else if err := b.mgr.Connect(); err != nil {
			return err
		}
	}
	return b.mgr.Setup(&SessionModel{}, &BoardModel{}, &MarkModel{})
}

// DumpToDisk persists an in-memory fallback database to the configured
// sqlite file. File-backed and remote connections are a no-op.
func (b *Backend) DumpToDisk() error {
	if !b.mgr.InMemory || b.mgr.SqliteFilePath == "" {
		return nil
	}
	return b.mgr.DumpMemoryToDisk()
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	if b.mgr.SqlDB != nil {
		return b.mgr.SqlDB.Close()
	}
	return nil
}

// SaveSession upserts a session by name, replacing its boards and marks.
func (b *Backend) SaveSession(s *core.Session) error {
	if s.Name == "" {
		return fmt.Errorf("session name is empty")
	}

	return b.mgr.DB.Transaction(func(tx *gorm.DB) error {
		var existing SessionModel
		err := tx.Where("name = ?", s.Name).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("session_id = ?", existing.ID).Delete(&BoardModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("session_id = ?", existing.ID).Delete(&MarkModel{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first save under this name
		default:
			return err
		}

		roster, err := json.Marshal(s.Roster)
		if err != nil {
			return fmt.Errorf("encoding roster: %w", err)
		}
		row := SessionModel{Name: s.Name, SavedAt: s.SavedAt, Roster: roster}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("creating session row: %w", err)
		}

		for slot, board := range s.Boards {
			state, err := json.Marshal(board.State)
			if err != nil {
				return fmt.Errorf("encoding board %s: %w", slot, err)
			}
			camera, err := json.Marshal(board.Camera)
			if err != nil {
				return fmt.Errorf("encoding camera %s: %w", slot, err)
			}
			if err := tx.Create(&BoardModel{
				SessionID: row.ID,
				Slot:      slot,
				State:     state,
				Camera:    camera,
			}).Error; err != nil {
				return fmt.Errorf("creating board row: %w", err)
			}
		}

		for _, mark := range s.Marks {
			state, err := json.Marshal(mark.State)
			if err != nil {
				return fmt.Errorf("encoding mark state: %w", err)
			}
			if err := tx.Create(&MarkModel{
				SessionID: row.ID,
				Board:     mark.Board,
				Clock:     mark.Clock,
				Label:     mark.Label,
				State:     state,
			}).Error; err != nil {
				return fmt.Errorf("creating mark row: %w", err)
			}
		}

		return nil
	})
}

// LoadSession reassembles a session from its rows.
func (b *Backend) LoadSession(name string) (*core.Session, error) {
	var row SessionModel
	if err := b.mgr.DB.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", core.ErrSessionNotFound, name)
		}
		return nil, err
	}

	s := &core.Session{
		Name:    row.Name,
		SavedAt: row.SavedAt,
		Boards:  make(map[string]core.BoardSave),
	}
	if len(row.Roster) > 0 {
		if err := json.Unmarshal(row.Roster, &s.Roster); err != nil {
			return nil, fmt.Errorf("decoding roster: %w", err)
		}
	}

	var boards []BoardModel
	if err := b.mgr.DB.Where("session_id = ?", row.ID).Find(&boards).Error; err != nil {
		return nil, err
	}
	for _, board := range boards {
		var bs core.BoardSave
		if err := json.Unmarshal(board.State, &bs.State); err != nil {
			return nil, fmt.Errorf("decoding board %s: %w", board.Slot, err)
		}
		if len(board.Camera) > 0 {
			if err := json.Unmarshal(board.Camera, &bs.Camera); err != nil {
				return nil, fmt.Errorf("decoding camera %s: %w", board.Slot, err)
			}
		} else {
			bs.Camera = core.DefaultCamera()
		}
		s.Boards[board.Slot] = bs
	}

	var marks []MarkModel
	if err := b.mgr.DB.Where("session_id = ?", row.ID).Order("id").Find(&marks).Error; err != nil {
		return nil, err
	}
	for _, mark := range marks {
		m := core.MarkSave{Board: mark.Board, Clock: mark.Clock, Label: mark.Label}
		if err := json.Unmarshal(mark.State, &m.State); err != nil {
			return nil, fmt.Errorf("decoding mark state: %w", err)
		}
		s.Marks = append(s.Marks, m)
	}

	return s, nil
}

// ListSessions lists saved sessions sorted by name.
func (b *Backend) ListSessions() ([]core.SessionInfo, error) {
	var rows []SessionModel
	if err := b.mgr.DB.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}

	infos := make([]core.SessionInfo, 0, len(rows))
	for _, row := range rows {
		var boards, marks int64
		if err := b.mgr.DB.Model(&BoardModel{}).Where("session_id = ?", row.ID).Count(&boards).Error; err != nil {
			return nil, err
		}
		if err := b.mgr.DB.Model(&MarkModel{}).Where("session_id = ?", row.ID).Count(&marks).Error; err != nil {
			return nil, err
		}
		infos = append(infos, core.SessionInfo{
			Name:    row.Name,
			SavedAt: row.SavedAt,
			Boards:  int(boards),
			Marks:   int(marks),
		})
	}
	return infos, nil
}

// DeleteSession removes a session and its rows.
func (b *Backend) DeleteSession(name string) error {
	var row SessionModel
	if err := b.mgr.DB.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %q", core.ErrSessionNotFound, name)
		}
		return err
	}

	return b.mgr.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", row.ID).Delete(&BoardModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", row.ID).Delete(&MarkModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
}
