package store

import (
	"context"

	"techstore/internal/models"
)

// GetSales retrieves all recorded orders. A missing sales file is an empty
// history, matching the legacy server behavior.
func (s *Store) GetSales(ctx context.Context) ([]models.Order, error) {
	s.salesMu.Lock()
	defer s.salesMu.Unlock()
	return s.readSales()
}

func (s *Store) readSales() ([]models.Order, error) {
	var sales []models.Order
	if err := s.readDocument(salesFile, "sales", &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// AppendSale appends one order to the sales history. Orders are immutable
// once written.
func (s *Store) AppendSale(ctx context.Context, order *models.Order) error {
	s.salesMu.Lock()
	defer s.salesMu.Unlock()

	sales, err := s.readSales()
	if err != nil {
		return err
	}

	sales = append(sales, *order)
	return s.writeDocument(salesFile, "", sales)
}

// ClearSales wipes the entire sales history. Irreversible.
func (s *Store) ClearSales(ctx context.Context) error {
	s.salesMu.Lock()
	defer s.salesMu.Unlock()
	return s.writeDocument(salesFile, "", []models.Order{})
}

// SaleNumberExists reports whether an order with the given number is already
// recorded.
func (s *Store) SaleNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	sales, err := s.GetSales(ctx)
	if err != nil {
		return false, err
	}
	for i := range sales {
		if sales[i].OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}
