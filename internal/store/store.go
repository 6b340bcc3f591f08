package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gym-occupancy-backend/internal/model"
)

// ErrNotFound is returned by point reads for absent ids.
var ErrNotFound = errors.New("store: record not found")

// ErrConflict is returned when a conditional update finds its precondition
// no longer holds (another writer got there first).
var ErrConflict = errors.New("store: conditional update conflict")

// Store defines the data-access contract for the equipment registry and the
// session ledger. Reads always hit the database; the one-session-per-user
// rule depends on read freshness, so there is no caching layer here.
type Store interface {
	DB() *gorm.DB

	// Equipment registry.
	ListEquipment(ctx context.Context) ([]model.Equipment, error)
	GetEquipment(ctx context.Context, id string) (*model.Equipment, error)
	CreateEquipment(ctx context.Context, eq *model.Equipment) error
	PatchEquipment(ctx context.Context, id string, fields map[string]any) error
	ActiveEquipmentForUser(ctx context.Context, user string) (*model.Equipment, error)

	// Occupancy transitions. Both run guard and mutation in one
	// transaction with a conditional write on the unit row.
	ClaimAvailable(ctx context.Context, zone, user string, now time.Time) (*model.Equipment, error)
	Release(ctx context.Context, zone, user string) (*model.Equipment, error)

	// Session ledger (append-only).
	AppendUsage(ctx context.Context, rec *model.UsageRecord) error
	UsageByEquipment(ctx context.Context, equipmentID string) ([]model.UsageRecord, error)
	UsageByZone(ctx context.Context, zone string) ([]model.UsageRecord, error)
	SetAvgDuration(ctx context.Context, id string, avg int) error

	// Workout catalog.
	ListExercises(ctx context.Context) ([]model.Exercise, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) ListEquipment(ctx context.Context) ([]model.Equipment, error) {
	var units []model.Equipment
	if err := s.db.WithContext(ctx).Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (s *gormStore) GetEquipment(ctx context.Context, id string) (*model.Equipment, error) {
	var eq model.Equipment
	err := s.db.WithContext(ctx).First(&eq, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

func (s *gormStore) CreateEquipment(ctx context.Context, eq *model.Equipment) error {
	if eq.Status == "" {
		eq.Status = model.StatusAvailable
	}
	return s.db.WithContext(ctx).Create(eq).Error
}

func (s *gormStore) PatchEquipment(ctx context.Context, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.Equipment{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) ActiveEquipmentForUser(ctx context.Context, user string) (*model.Equipment, error) {
	var eq model.Equipment
	err := s.db.WithContext(ctx).
		Where(`"current_user" = ? AND status = ?`, user, model.StatusInUse).
		First(&eq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

// ClaimAvailable picks an available unit in the zone and flips it to
// in_use for the user. Which unit wins when several are free is an
// arbitrary, unspecified tie-break (default iteration order). The write is
// conditional on the unit still being available; if every candidate was
// claimed concurrently, ErrConflict comes back and the caller treats the
// zone as full.
func (s *gormStore) ClaimAvailable(ctx context.Context, zone, user string, now time.Time) (*model.Equipment, error) {
	var claimed *model.Equipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []model.Equipment
		if err := tx.Where("zone = ? AND status = ?", zone, model.StatusAvailable).
			Find(&candidates).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return ErrNotFound
		}

		for i := range candidates {
			res := tx.Model(&model.Equipment{}).
				Where("id = ? AND status = ?", candidates[i].ID, model.StatusAvailable).
				Updates(map[string]any{
					"status":       model.StatusInUse,
					"current_user": user,
					"start_time":   now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				c := candidates[i]
				c.Status = model.StatusInUse
				c.CurrentUser = user
				c.StartTime = &now
				claimed = &c
				return nil
			}
			// Lost the race for this unit, try the next one.
		}
		return ErrConflict
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Release flips the unit the user occupies in the zone back to available.
// An empty user releases the first in_use unit in the zone instead; the
// compatibility shim is the only caller that does that.
func (s *gormStore) Release(ctx context.Context, zone, user string) (*model.Equipment, error) {
	var released *model.Equipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("zone = ? AND status = ?", zone, model.StatusInUse)
		if user != "" {
			q = q.Where(`"current_user" = ?`, user)
		}
		var eq model.Equipment
		if err := q.First(&eq).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		res := tx.Model(&model.Equipment{}).
			Where(`id = ? AND status = ? AND "current_user" = ?`,
				eq.ID, model.StatusInUse, eq.CurrentUser).
			Updates(map[string]any{
				"status":       model.StatusAvailable,
				"current_user": "",
				"start_time":   nil,
				"usage_count":  gorm.Expr("usage_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		released = &eq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

func (s *gormStore) AppendUsage(ctx context.Context, rec *model.UsageRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *gormStore) UsageByEquipment(ctx context.Context, equipmentID string) ([]model.UsageRecord, error) {
	var recs []model.UsageRecord
	if err := s.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *gormStore) UsageByZone(ctx context.Context, zone string) ([]model.UsageRecord, error) {
	var recs []model.UsageRecord
	if err := s.db.WithContext(ctx).
		Where("zone = ?", zone).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *gormStore) SetAvgDuration(ctx context.Context, id string, avg int) error {
	return s.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("id = ?", id).
		Update("avg_duration", avg).Error
}

func (s *gormStore) ListExercises(ctx context.Context) ([]model.Exercise, error) {
	var exs []model.Exercise
	if err := s.db.WithContext(ctx).Find(&exs).Error; err != nil {
		return nil, err
	}
	return exs, nil
}
