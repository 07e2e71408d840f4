package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/iamcore/iamcore/internal/domain/enckey"
)

// EncryptionKeyGORM is the GORM row for one encryption key record.
type EncryptionKeyGORM struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	Identifier string `gorm:"primaryKey;type:varchar(128)"`
	Algorithm  string `gorm:"type:varchar(32);not null"`
	Material   string `gorm:"type:text;not null"`
}

func (EncryptionKeyGORM) TableName() string {
	return "encryption_keys"
}

func (e EncryptionKeyGORM) toDomain() enckey.Key {
	return enckey.Key{InstanceID: e.InstanceID, Identifier: e.Identifier, Algorithm: e.Algorithm, Material: e.Material}
}

func fromDomain(k enckey.Key) EncryptionKeyGORM {
	return EncryptionKeyGORM{InstanceID: k.InstanceID, Identifier: k.Identifier, Algorithm: k.Algorithm, Material: k.Material}
}

// EncryptionKeyGORMStore implements enckey.Store directly against the
// record table, with no event stream, per spec.md §4.3 ("encryption keys:
// stored directly as records").
type EncryptionKeyGORMStore struct {
	db *gorm.DB
}

func NewEncryptionKeyGORMStore(db *gorm.DB) *EncryptionKeyGORMStore {
	return &EncryptionKeyGORMStore{db: db}
}

func (s *EncryptionKeyGORMStore) Migrate() error {
	return s.db.AutoMigrate(&EncryptionKeyGORM{})
}

func (s *EncryptionKeyGORMStore) Add(ctx context.Context, k enckey.Key) error {
	row := fromDomain(k)
	result := s.db.WithContext(ctx).Create(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return enckey.ErrAlreadyExists
		}
		return fmt.Errorf("add encryption key: %w", result.Error)
	}
	return nil
}

func (s *EncryptionKeyGORMStore) Get(ctx context.Context, instanceID, identifier string) (*enckey.Key, error) {
	var row EncryptionKeyGORM
	result := s.db.WithContext(ctx).First(&row, "instance_id = ? AND identifier = ?", instanceID, identifier)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get encryption key: %w", result.Error)
	}
	k := row.toDomain()
	return &k, nil
}

func (s *EncryptionKeyGORMStore) List(ctx context.Context, instanceID string) ([]enckey.Key, error) {
	var rows []EncryptionKeyGORM
	result := s.db.WithContext(ctx).Where("instance_id = ?", instanceID).Order("identifier").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("list encryption keys: %w", result.Error)
	}
	keys := make([]enckey.Key, len(rows))
	for i, r := range rows {
		keys[i] = r.toDomain()
	}
	return keys, nil
}

func (s *EncryptionKeyGORMStore) Remove(ctx context.Context, instanceID, identifier string) error {
	result := s.db.WithContext(ctx).Delete(&EncryptionKeyGORM{}, "instance_id = ? AND identifier = ?", instanceID, identifier)
	if result.Error != nil {
		return fmt.Errorf("remove encryption key: %w", result.Error)
	}
	return nil
}
