// Package fixtures generates deterministic synthetic records. The same
// (count, seed, profile, anchor) always yields the same records.
package fixtures

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/iafilius/FixtureCharts/src/types"
)

// Profile selects the record shape.
type Profile string

const (
	// ProfileEmployees: staff records with age, salary, department, performance and projects.
	ProfileEmployees Profile = "employees"
	// ProfileFixtures: three uniform floats, a five-letter token and a coin flip.
	ProfileFixtures Profile = "fixtures"
	// ProfileSales: product sales with quantity, price, region and sale date.
	ProfileSales Profile = "sales"
)

// Departments is the fixed label set of the employees profile.
var Departments = []string{"IT", "HR", "Sales", "Marketing", "Finance"}

// Regions is the fixed label set of the sales profile.
var Regions = []string{"EU", "US", "ASIA"}

// DateLayout is the layout used for date fields.
const DateLayout = "2006-01-02"

// DefaultAnchor is the reference date relative dates are computed from. Using a fixed date
// instead of time.Now keeps generation reproducible.
var DefaultAnchor = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseProfile validates a profile name.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(s))); p {
	case ProfileEmployees, ProfileFixtures, ProfileSales:
		return p, nil
	case "":
		return ProfileEmployees, nil
	default:
		return "", fmt.Errorf("unknown fixture profile %q", s)
	}
}

// Generate produces count records of the given profile. Fields are drawn independently
// from a faker seeded with seed; dates are offsets back from anchor.
func Generate(count int, seed uint64, profile Profile, anchor time.Time) []types.Record {
	if count <= 0 {
		return []types.Record{}
	}
	if anchor.IsZero() {
		anchor = DefaultAnchor
	}
	// gofakeit.New(0) picks a random seed; an explicit source keeps seed 0 reproducible.
	f := gofakeit.NewFaker(rand.NewPCG(seed, seed), false)
	out := make([]types.Record, 0, count)
	for i := 0; i < count; i++ {
		switch profile {
		case ProfileFixtures:
			out = append(out, fixtureRecord(f, i+1))
		case ProfileSales:
			out = append(out, salesRecord(f, i+1, anchor))
		default:
			out = append(out, employeeRecord(f, i+1, anchor))
		}
	}
	return out
}

func employeeRecord(f *gofakeit.Faker, id int, anchor time.Time) types.Record {
	return types.Record{
		"id":                 id,
		"name":               f.Name(),
		"email":              f.Email(),
		"age":                f.Number(18, 65),
		"salary":             f.Number(30000, 200000),
		"department":         Departments[f.Number(0, len(Departments)-1)],
		"city":               f.City(),
		"registration_date":  anchor.AddDate(0, 0, -f.Number(1, 1000)).Format(DateLayout),
		"performance_score":  round2(f.Float64Range(60, 100)),
		"projects_completed": f.Number(0, 50),
	}
}

func fixtureRecord(f *gofakeit.Faker, id int) types.Record {
	return types.Record{
		"id": id,
		"f1": f.Float64Range(0, 100),
		"f2": f.Float64Range(0, 100),
		"f3": f.Float64Range(0, 100),
		"f4": strings.ToLower(f.LetterN(5)),
		"f5": f.Bool(),
	}
}

func salesRecord(f *gofakeit.Faker, id int, anchor time.Time) types.Record {
	return types.Record{
		"id":      id,
		"product": f.ProductName(),
		"qty":     f.Number(1, 100),
		"price":   round2(f.Float64Range(5, 500)),
		"region":  Regions[f.Number(0, len(Regions)-1)],
		"sold_at": anchor.AddDate(0, 0, -f.Number(0, 365)).Format(DateLayout),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Source adapts Generate to the pipeline's record source interface.
type Source struct {
	Count   int
	Seed    uint64
	Profile Profile
	Anchor  time.Time
}

// Records returns the generated records. It never fails.
func (s Source) Records() ([]types.Record, error) {
	return Generate(s.Count, s.Seed, s.Profile, s.Anchor), nil
}

// Name identifies the source in logs.
func (s Source) Name() string {
	return fmt.Sprintf("synthetic(%s,n=%d,seed=%d)", s.Profile, s.Count, s.Seed)
}
