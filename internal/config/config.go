package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/match"
)

// SectionPrefix is the mandatory prefix of every section name.
const SectionPrefix = "competition."

var (
	// ErrConfigNotFound is returned when the competitions file does not exist.
	ErrConfigNotFound = errors.New("competitions file not found")
	// ErrInvalidConfig marks every validation failure of the competitions file.
	ErrInvalidConfig = errors.New("invalid competitions file")
)

// section mirrors one competition section before conversion
type section struct {
	Name  string `validate:"required"`
	Year  string `validate:"omitempty,numeric,len=4"`
	Start string `validate:"required,datetime=02/01/2006"`
	End   string `validate:"required,datetime=02/01/2006"`
}

var validate = validator.New()

// Load reads and validates the competitions file at path. Competitions are
// returned in file order.
func Load(path string) ([]match.Competition, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Newf("%s not found", path), ErrConfigNotFound)
		}
		return nil, errors.Wrap(err, "checking competitions file")
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing %s", path), ErrInvalidConfig)
	}
	return fromINI(f)
}

// Parse validates a competitions document held in memory.
func Parse(data []byte) ([]match.Competition, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing competitions"), ErrInvalidConfig)
	}
	return fromINI(f)
}

func fromINI(f *ini.File) ([]match.Competition, error) {
	competitions := make([]match.Competition, 0)
	for _, s := range f.Sections() {
		if s.Name() == ini.DefaultSection {
			if len(s.Keys()) > 0 {
				return nil, invalidf("keys outside of a section are not allowed")
			}
			continue
		}
		if !strings.HasPrefix(s.Name(), SectionPrefix) || len(s.Name()) == len(SectionPrefix) {
			return nil, invalidf("invalid section name: %s. All sections must start with '%s'", s.Name(), SectionPrefix)
		}

		c, err := toCompetition(s)
		if err != nil {
			return nil, err
		}
		competitions = append(competitions, c)
	}
	return competitions, nil
}

func toCompetition(s *ini.Section) (match.Competition, error) {
	raw := section{
		Name:  strings.TrimSpace(s.Key("name").String()),
		Year:  strings.TrimSpace(s.Key("year").String()),
		Start: strings.TrimSpace(s.Key("start").String()),
		End:   strings.TrimSpace(s.Key("end").String()),
	}
	if err := validate.Struct(raw); err != nil {
		return match.Competition{}, describe(s.Name(), err)
	}

	start, err := dates.ParseConfigDate(raw.Start)
	if err != nil {
		return match.Competition{}, invalidf("section %s: %v", s.Name(), err)
	}
	end, err := dates.ParseConfigDate(raw.End)
	if err != nil {
		return match.Competition{}, invalidf("section %s: %v", s.Name(), err)
	}
	if end.Before(start) {
		return match.Competition{}, invalidf("section %s: end %s is before start %s", s.Name(), raw.End, raw.Start)
	}

	year := raw.Year
	if year == "" {
		year = start.Format("2006")
	}
	return match.Competition{Name: raw.Name, Year: year, Start: start, End: end}, nil
}

// describe turns the first validator failure into a readable message
func describe(name string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalidf("section %s: %v", name, err)
	}
	fe := verrs[0]
	attr := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return invalidf("section %s has no %s attribute", name, attr)
	case "datetime":
		return invalidf("section %s: %s %q is not a DD/MM/YYYY date", name, attr, fe.Value())
	default:
		return invalidf("section %s: invalid %s %q", name, attr, fe.Value())
	}
}

func invalidf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidConfig)
}
