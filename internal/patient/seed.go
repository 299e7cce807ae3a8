package patient

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

// SeedDemo inserts a few sample patients into an empty table and reports
// how many were added.
func SeedDemo(ctx context.Context, s *Store) (int, error) {
	n, err := s.Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	today := datatypes.Date(time.Now().UTC().Truncate(24 * time.Hour))
	demo := []Patient{
		{Name: "Youness", BirthDate: today, Sick: false, Score: 123},
		{Name: "Said", BirthDate: today, Sick: false, Score: 1283},
		{Name: "Hafsa", BirthDate: today, Sick: true, Score: 1230},
	}
	for i := range demo {
		if err := s.Save(ctx, &demo[i]); err != nil {
			return i, err
		}
	}
	return len(demo), nil
}
