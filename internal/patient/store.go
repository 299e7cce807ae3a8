package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("patient not found")
	ErrInvalidPage = errors.New("invalid page request")
)

// Store is the gorm-backed patient repository.
type Store struct {
	db    *gorm.DB
	rules Rules
}

func NewStore(db *gorm.DB, rules Rules) *Store {
	return &Store{db: db, rules: rules}
}

func (s *Store) Rules() Rules {
	return s.rules
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// keywordScope restricts a query to patients whose name contains keyword,
// ignoring case. LIKE wildcards in the keyword match literally.
func keywordScope(keyword string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if keyword == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(keyword)) + "%"
		return db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	}
}

// FindPage returns page number pageIndex (0-based) of the patients whose
// name contains keyword. A page past the end is empty, not an error.
func (s *Store) FindPage(ctx context.Context, keyword string, pageIndex, pageSize int) (*Page, error) {
	if pageIndex < 0 || pageSize <= 0 {
		return nil, fmt.Errorf("%w: page=%d size=%d", ErrInvalidPage, pageIndex, pageSize)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&Patient{}).Scopes(keywordScope(keyword)).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	size := int64(pageSize)
	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}

	items := []Patient{}
	// pageIndex < totalPages keeps pageIndex*pageSize below total.
	if int64(pageIndex) < totalPages {
		err := s.db.WithContext(ctx).
			Scopes(keywordScope(keyword)).
			Order("created_at, id").
			Offset(pageIndex * pageSize).
			Limit(pageSize).
			Find(&items).Error
		if err != nil {
			return nil, fmt.Errorf("find patients: %w", err)
		}
	}

	return &Page{
		Items:         items,
		Number:        pageIndex,
		Size:          pageSize,
		TotalElements: total,
		TotalPages:    int(totalPages),
	}, nil
}

func (s *Store) FindAll(ctx context.Context) ([]Patient, error) {
	patients := []Patient{}
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Patient{}).Count(&n).Error
	return n, err
}

// Save inserts p when it has no id, otherwise replaces every field of the
// stored row with the same id. Replacing an id that is not stored fails
// with ErrNotFound rather than inserting.
func (s *Store) Save(ctx context.Context, p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := s.rules.Validate(p); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if p.ID == uuid.Nil {
		if err := db.Create(p).Error; err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		return nil
	}

	res := db.Model(p).Select("Name", "BirthDate", "Sick", "Score", "UpdatedAt").Updates(p)
	if res.Error != nil {
		return fmt.Errorf("update patient %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	stored, err := s.FindByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// DeleteByID removes the patient. Deleting an id that is not stored is a
// no-op so repeated deletes from stale list pages succeed.
func (s *Store) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&Patient{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete patient %s: %w", id, err)
	}
	return nil
}
