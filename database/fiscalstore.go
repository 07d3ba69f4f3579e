package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"esa-billing-backend/fiscal"
	"esa-billing-backend/models"
)

// The fiscal engine only knows its MarkerStore/LiveStore/ArchiveStore
// contracts; these are the GORM-backed implementations the server wires in.

// The marker is a single row.
const markerRowID = 1

// MarkerStore persists the transition marker and the per-year invoice
// sequence in the fiscal_markers table.
type MarkerStore struct {
	DB *gorm.DB
}

func (s *MarkerStore) Label() (string, bool, error) {
	var m models.FiscalMarker
	err := s.DB.First(&m, markerRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if m.LastCheckedLabel == "" {
		return "", false, nil
	}
	return m.LastCheckedLabel, true, nil
}

func (s *MarkerStore) SetLabel(label string) error {
	if err := s.ensureRow(); err != nil {
		return err
	}
	return s.DB.Model(&models.FiscalMarker{}).
		Where("id = ?", markerRowID).
		Update("last_checked_label", label).Error
}

func (s *MarkerStore) ResetSequence() error {
	if err := s.ensureRow(); err != nil {
		return err
	}
	return s.DB.Model(&models.FiscalMarker{}).
		Where("id = ?", markerRowID).
		Update("invoice_seq", 0).Error
}

// NextSequence atomically claims the next invoice number for the year.
func (s *MarkerStore) NextSequence() (int, error) {
	if err := s.ensureRow(); err != nil {
		return 0, err
	}
	var seq int
	err := s.DB.Raw(
		`UPDATE fiscal_markers SET invoice_seq = invoice_seq + 1, updated_at = ? WHERE id = ? RETURNING invoice_seq`,
		time.Now().UTC(), markerRowID,
	).Scan(&seq).Error
	return seq, err
}

func (s *MarkerStore) ensureRow() error {
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.FiscalMarker{ID: markerRowID}).Error
}

// LiveStore exposes the working invoice/payment tables to the transition
// controller as dated, serialized records.
type LiveStore struct {
	DB *gorm.DB
}

func (s *LiveStore) All() ([]fiscal.Record, []fiscal.Record, error) {
	var invoices []models.Invoice
	if err := s.DB.Preload("Items").Find(&invoices).Error; err != nil {
		return nil, nil, err
	}
	var payments []models.Payment
	if err := s.DB.Find(&payments).Error; err != nil {
		return nil, nil, err
	}

	invRecords := make([]fiscal.Record, 0, len(invoices))
	for _, inv := range invoices {
		doc, err := json.Marshal(inv)
		if err != nil {
			return nil, nil, fmt.Errorf("serializing invoice %d: %w", inv.ID, err)
		}
		invRecords = append(invRecords, fiscal.Record{
			ID:   strconv.FormatUint(uint64(inv.ID), 10),
			Date: inv.InvoiceDate,
			Doc:  doc,
		})
	}
	payRecords := make([]fiscal.Record, 0, len(payments))
	for _, p := range payments {
		doc, err := json.Marshal(p)
		if err != nil {
			return nil, nil, fmt.Errorf("serializing payment %d: %w", p.ID, err)
		}
		payRecords = append(payRecords, fiscal.Record{
			ID:   strconv.FormatUint(uint64(p.ID), 10),
			Date: p.PaidAt,
			Doc:  doc,
		})
	}
	return invRecords, payRecords, nil
}

func (s *LiveStore) Remove(invoiceIDs, paymentIDs []string) error {
	if ids, err := parseIDs(paymentIDs); err != nil {
		return err
	} else if len(ids) > 0 {
		if err := s.DB.Delete(&models.Payment{}, ids).Error; err != nil {
			return err
		}
	}
	ids, err := parseIDs(invoiceIDs)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		// Line items go with their invoice (ON DELETE CASCADE).
		if err := s.DB.Delete(&models.Invoice{}, ids).Error; err != nil {
			return err
		}
	}
	return nil
}

func parseIDs(raw []string) ([]uint, error) {
	ids := make([]uint, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseUint(r, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad record id %q: %w", r, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// ArchiveStore keeps one fiscal_archives row per FY label, the archived
// set serialized as jsonb. Append merges by record id inside a transaction
// so a retried transition never stores duplicates.
type ArchiveStore struct {
	DB *gorm.DB
}

func (s *ArchiveStore) Append(set fiscal.ArchivedSet) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var row models.FiscalArchive
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("label = ?", set.Label).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			merged := set
			merged.Invoices = fiscal.MergeRecords(nil, set.Invoices)
			merged.Payments = fiscal.MergeRecords(nil, set.Payments)
			snapshot, mErr := json.Marshal(merged)
			if mErr != nil {
				return mErr
			}
			return tx.Create(&models.FiscalArchive{
				Label:     set.Label,
				StartDate: set.Start,
				EndDate:   set.End,
				Snapshot:  datatypes.JSON(snapshot),
			}).Error
		}
		if err != nil {
			return err
		}

		var stored fiscal.ArchivedSet
		if err := json.Unmarshal(row.Snapshot, &stored); err != nil {
			return fmt.Errorf("corrupt archive snapshot for %s: %w", set.Label, err)
		}
		stored.Invoices = fiscal.MergeRecords(stored.Invoices, set.Invoices)
		stored.Payments = fiscal.MergeRecords(stored.Payments, set.Payments)
		snapshot, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return tx.Model(&row).Update("snapshot", datatypes.JSON(snapshot)).Error
	})
}

func (s *ArchiveStore) Labels() ([]string, error) {
	var labels []string
	err := s.DB.Model(&models.FiscalArchive{}).
		Order("label DESC").
		Pluck("label", &labels).Error
	return labels, err
}

func (s *ArchiveStore) Read(label string) (*fiscal.ArchivedSet, error) {
	var row models.FiscalArchive
	err := s.DB.Where("label = ?", label).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiscal.ErrArchiveNotFound
	}
	if err != nil {
		return nil, err
	}
	var set fiscal.ArchivedSet
	if err := json.Unmarshal(row.Snapshot, &set); err != nil {
		return nil, fmt.Errorf("corrupt archive snapshot for %s: %w", label, err)
	}
	return &set, nil
}

// NewFiscalController wires the GORM stores into the transition controller.
func NewFiscalController(db *gorm.DB, now func() time.Time) *fiscal.Controller {
	return &fiscal.Controller{
		Marker:  &MarkerStore{DB: db},
		Live:    &LiveStore{DB: db},
		Archive: &ArchiveStore{DB: db},
		Now:     now,
	}
}
