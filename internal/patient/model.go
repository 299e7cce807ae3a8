package patient

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DateLayout is the wire format of birth dates in forms and query strings.
const DateLayout = "2006-01-02"

type Patient struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null;index" json:"name"`
	BirthDate datatypes.Date `json:"birthDate"`
	Sick      bool           `gorm:"not null" json:"isSick"`
	Score     int            `gorm:"not null" json:"score"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// BeforeCreate assigns a fresh random id. Ids are never derived from row
// counts, so a deleted patient's id cannot come back.
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Patient) BirthDateString() string {
	t := time.Time(p.BirthDate)
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Page is one slice of a keyword query.
type Page struct {
	Items         []Patient
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

func (p *Page) HasNext() bool {
	return p.Number < p.TotalPages-1
}
