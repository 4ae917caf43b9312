package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/erp/carrier-sync/internal/domain/carrier"
	"github.com/erp/carrier-sync/internal/infrastructure/persistence/models"
)

// carrierTableLock serialises concurrent sync passes on PostgreSQL.
// SHARE ROW EXCLUSIVE conflicts with itself but not with the ACCESS SHARE
// lock taken by plain SELECTs, so readers keep working during a pass.
const carrierTableLock = "LOCK TABLE carriers IN SHARE ROW EXCLUSIVE MODE"

// GormCarrierRepository implements carrier.Repository using GORM
type GormCarrierRepository struct {
	db *gorm.DB
}

// NewGormCarrierRepository creates a new GormCarrierRepository
func NewGormCarrierRepository(db *gorm.DB) *GormCarrierRepository {
	return &GormCarrierRepository{db: db}
}

// AllIDs returns every carrier ID, deleted ones included
func (r *GormCarrierRepository) AllIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	if err := r.db.WithContext(ctx).
		Model(&models.CarrierModel{}).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ActiveByCountry returns the (id, name) pairs of non-deleted carriers for a country
func (r *GormCarrierRepository) ActiveByCountry(ctx context.Context, country string) ([]carrier.Summary, error) {
	var rows []models.CarrierModel
	if err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("country = ? AND deleted = ?", country, false).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]carrier.Summary, 0, len(rows))
	for i := range rows {
		result = append(result, carrier.Summary{ID: rows[i].ID, Name: rows[i].Name})
	}
	return result, nil
}

// FindByID finds a carrier by its ID, whether deleted or not
func (r *GormCarrierRepository) FindByID(ctx context.Context, id int64) (*carrier.Carrier, error) {
	var model models.CarrierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, carrier.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Insert creates a carrier row. Inside a transaction it runs under its own
// savepoint so a failure leaves the surrounding transaction usable.
func (r *GormCarrierRepository) Insert(ctx context.Context, c *carrier.Carrier) error {
	model := models.CarrierModelFromDomain(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		return fmt.Errorf("%w: insert carrier %d: %v", carrier.ErrWriteFailure, c.ID, err)
	}
	return nil
}

// Update overwrites every column of the carrier row with the given ID
func (r *GormCarrierRepository) Update(ctx context.Context, c *carrier.Carrier, id int64) error {
	model := models.CarrierModelFromDomain(c)
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CarrierModel{}).
			Where("id = ?", id).
			Updates(model.UpdateColumns())
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return fmt.Errorf("%w: update carrier %d: %v", carrier.ErrWriteFailure, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: update carrier %d", carrier.ErrNotFound, id)
	}
	return nil
}

// MarkDeletedExcept flags every active carrier not listed in keepIDs as deleted.
// The IDs are sent as bound parameters.
func (r *GormCarrierRepository) MarkDeletedExcept(ctx context.Context, keepIDs []int64) (int64, error) {
	if len(keepIDs) == 0 {
		return 0, carrier.ErrEmptyKeepSet
	}

	result := r.db.WithContext(ctx).
		Model(&models.CarrierModel{}).
		Where("id NOT IN ? AND deleted = ?", keepIDs, false).
		Update("deleted", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Transaction runs fn inside a database transaction. On PostgreSQL the
// carriers table is locked first so that two passes cannot interleave.
func (r *GormCarrierRepository) Transaction(ctx context.Context, fn func(tx carrier.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(carrierTableLock).Error; err != nil {
				return fmt.Errorf("failed to lock carriers table: %w", err)
			}
		}
		return fn(&GormCarrierRepository{db: tx})
	})
}

// EnsureTable creates the carriers table when it does not exist yet
func (r *GormCarrierRepository) EnsureTable(ctx context.Context) error {
	m := r.db.WithContext(ctx).Migrator()
	if m.HasTable(&models.CarrierModel{}) {
		return nil
	}
	return m.CreateTable(&models.CarrierModel{})
}

// DropTable removes the carriers table if it exists
func (r *GormCarrierRepository) DropTable(ctx context.Context) error {
	return r.db.WithContext(ctx).Migrator().DropTable(&models.CarrierModel{})
}

// Ensure GormCarrierRepository implements carrier.Repository
var _ carrier.Repository = (*GormCarrierRepository)(nil)
