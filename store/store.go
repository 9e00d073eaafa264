// Package store persists draft DDOs and admin tokens in sqlite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("draft not found")

// Open opens (or creates) the sqlite database and migrates the models.
func Open(dbName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	// sqlite allows a single writer; one connection keeps concurrent
	// requests from failing with "database is locked".
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Draft{}, &models.Token{}); err != nil {
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	return db, nil
}

type DraftStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *DraftStore {
	return &DraftStore{
		db: db,
	}
}

func draftFor(doc ddo.Document) (*models.Draft, error) {
	if ddo.IsUnresolved(doc) || doc.GetDID() == "" {
		return nil, fmt.Errorf("cannot store a document without a did")
	}

	b, err := json.Marshal(ddo.AsDictionary(doc))
	if err != nil {
		return nil, err
	}

	d := &models.Draft{
		Did:     doc.GetDID(),
		Version: doc.SchemaVersion(),
		Value:   b,
	}

	if a, ok := doc.(*ddo.Asset); ok {
		d.ChainID = a.ChainID
		d.NftAddress = a.NFTAddress
	}

	return d, nil
}

// Save inserts doc or replaces the stored draft with the same did.
func (s *DraftStore) Save(ctx context.Context, doc ddo.Document) error {
	d, err := draftFor(doc)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "did"}},
		DoUpdates: clause.AssignmentColumns([]string{"chain_id", "nft_address", "version", "value", "updated_at"}),
	}).Create(d).Error; err != nil {
		return err
	}

	return nil
}

func (s *DraftStore) Get(ctx context.Context, did string) (ddo.Document, error) {
	var d models.Draft
	if err := s.db.WithContext(ctx).Raw("SELECT * FROM drafts WHERE did = ?", did).Scan(&d).Error; err != nil {
		return nil, err
	}

	if d.Did == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, did)
	}

	doc, err := ddo.Decode(d.Value)
	if err != nil {
		return nil, fmt.Errorf("error decoding draft %s: %w", did, err)
	}

	return doc, nil
}

// List returns the stored drafts, most recently updated first. A zero
// chainID lists drafts of every chain.
func (s *DraftStore) List(ctx context.Context, chainID int64) ([]models.Draft, error) {
	q := s.db.WithContext(ctx).Model(&models.Draft{}).Omit("value").Order("updated_at desc")
	if chainID != 0 {
		q = q.Where("chain_id = ?", chainID)
	}

	var drafts []models.Draft
	if err := q.Find(&drafts).Error; err != nil {
		return nil, err
	}

	return drafts, nil
}

func (s *DraftStore) Delete(ctx context.Context, did string) error {
	res := s.db.WithContext(ctx).Delete(&models.Draft{}, "did = ?", did)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, did)
	}

	return nil
}

// ResolveDDO lets drafts be used as algorithm sources when trusting
// algorithms. Unknown dids resolve to *ddo.Unresolved.
func (s *DraftStore) ResolveDDO(ctx context.Context, did string) (ddo.Document, error) {
	doc, err := s.Get(ctx, did)
	if errors.Is(err, ErrNotFound) {
		return &ddo.Unresolved{DID: did}, nil
	}
	return doc, err
}

func (s *DraftStore) SaveToken(ctx context.Context, token, subject string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Create(&models.Token{
		Token:     token,
		Subject:   subject,
		ExpiresAt: expiresAt,
	}).Error
}

// HasToken reports whether token was issued and has not expired.
func (s *DraftStore) HasToken(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Token{}).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *DraftStore) RevokeToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&models.Token{}, "token = ?", token).Error
}

var _ ddo.Resolver = (*DraftStore)(nil)
