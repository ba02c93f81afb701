package repository

import (
	"context"
	"fmt"

	"bricklink/inventory/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryRepository interface {
	SaveInventory(ctx context.Context, inv *domain.Inventory) error
}

type inventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) InventoryRepository {
	return &inventoryRepository{
		db: db,
	}
}

func (r *inventoryRepository) SaveInventory(ctx context.Context, inv *domain.Inventory) error {
	query := `
	INSERT INTO inventories (set_number, name, data)
	VALUES ($1, $2, $3)
	ON CONFLICT (set_number)
	DO UPDATE SET name = $2, data = $3`
	_, err := r.db.Exec(ctx, query, inv.SetNumber, inv.Name, inv)
	if err != nil {
		return fmt.Errorf("failed to save inventory for set %s: %w", inv.SetNumber, err)
	}

	return nil
}
