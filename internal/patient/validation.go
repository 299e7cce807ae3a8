package patient

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"hospital/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var validate = validator.New()

// Rules bounds the values a patient may hold.
type Rules struct {
	NameMaxLength int
	ScoreMin      int
	ScoreMax      int
}

func DefaultRules() Rules {
	return Rules{NameMaxLength: 40, ScoreMin: 0, ScoreMax: 10000}
}

func RulesFromConfig(cfg config.PatientsConfig) Rules {
	return Rules{
		NameMaxLength: cfg.NameMaxLength,
		ScoreMin:      cfg.ScoreMin,
		ScoreMax:      cfg.ScoreMax,
	}
}

// ValidationError carries one message per offending form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid patient: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

func (r Rules) Validate(p *Patient) error {
	verr := &ValidationError{}
	r.check(p, verr)
	return verr.orNil()
}

func (r Rules) check(p *Patient, verr *ValidationError) {
	if err := validate.Var(strings.TrimSpace(p.Name), fmt.Sprintf("required,max=%d", r.NameMaxLength)); err != nil {
		verr.add("name", describe(err, r))
	}
	if err := validate.Var(p.Score, fmt.Sprintf("gte=%d,lte=%d", r.ScoreMin, r.ScoreMax)); err != nil {
		verr.add("score", fmt.Sprintf("must be between %d and %d", r.ScoreMin, r.ScoreMax))
	}
}

func describe(err error, r Rules) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	switch verrs[0].Tag() {
	case "required":
		return "must not be empty"
	case "max":
		return fmt.Sprintf("must be at most %d characters", r.NameMaxLength)
	default:
		return "is invalid"
	}
}

// Form is the raw, unparsed content of the patient form.
type Form struct {
	ID        string `form:"id"`
	Name      string `form:"name"`
	BirthDate string `form:"birthDate"`
	Sick      string `form:"sick"`
	Score     string `form:"score"`
}

func FormFromPatient(p *Patient) Form {
	f := Form{
		Name:      p.Name,
		BirthDate: p.BirthDateString(),
		Score:     strconv.Itoa(p.Score),
	}
	if p.ID != uuid.Nil {
		f.ID = p.ID.String()
	}
	if p.Sick {
		f.Sick = "true"
	}
	return f
}

func (f Form) IsSick() bool {
	return f.Sick == "true" || f.Sick == "on"
}

// Parse converts the form into a patient and validates it. On failure the
// returned error is a *ValidationError covering every bad field, and the
// patient holds whatever could be parsed.
func (r Rules) Parse(f Form) (*Patient, error) {
	verr := &ValidationError{}
	p := &Patient{Name: strings.TrimSpace(f.Name)}

	if f.ID != "" {
		id, err := uuid.Parse(f.ID)
		if err != nil {
			verr.add("id", "is not a valid identifier")
		} else {
			p.ID = id
		}
	}

	if strings.TrimSpace(f.BirthDate) == "" {
		verr.add("birthDate", "must not be empty")
	} else if t, err := time.Parse(DateLayout, strings.TrimSpace(f.BirthDate)); err != nil {
		verr.add("birthDate", "must be a date formatted as YYYY-MM-DD")
	} else {
		p.BirthDate = datatypes.Date(t)
	}

	switch strings.ToLower(f.Sick) {
	case "", "false", "off":
	case "true", "on":
		p.Sick = true
	default:
		verr.add("sick", "must be true or false")
	}

	score, err := strconv.Atoi(strings.TrimSpace(f.Score))
	if err != nil {
		verr.add("score", "must be a whole number")
	} else {
		p.Score = score
	}

	r.check(p, verr)
	return p, verr.orNil()
}
