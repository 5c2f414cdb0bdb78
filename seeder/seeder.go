// Package seeder loads JSON fixtures into an empty database and removes them
// again. It writes through the repositories, so derived fields and indexes
// look exactly as they would after the same data came in through the API.
package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserFixture carries the plain password that models.User never decodes.
type UserFixture struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Role     string             `json:"role"`
	Password string             `json:"password"`
}

type Fixtures struct {
	Users     []UserFixture
	Bootcamps []models.Bootcamp
	Courses   []models.Course
	Reviews   []models.Review
}

// LoadFixtures reads users.json, bootcamps.json, courses.json and
// reviews.json from dir. A missing file yields no documents of that kind.
func LoadFixtures(dir string) (*Fixtures, error) {
	f := &Fixtures{}
	files := []struct {
		name string
		into interface{}
	}{
		{"users.json", &f.Users},
		{"bootcamps.json", &f.Bootcamps},
		{"courses.json", &f.Courses},
		{"reviews.json", &f.Reviews},
	}
	for _, file := range files {
		path := filepath.Join(dir, file.name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, file.into); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return f, nil
}

// Geocoder fills in bootcamp locations that the fixtures leave out.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Location, error)
}

type Seeder struct {
	db        *mongo.Database
	users     *repositories.UserRepository
	bootcamps *repositories.BootcampRepository
	courses   *repositories.CourseRepository
	reviews   *repositories.ReviewRepository
	geocoder  Geocoder
}

// New returns a Seeder for db. geocoder may be nil, in which case bootcamps
// without a location are stored without one.
func New(db *mongo.Database, geocoder Geocoder) *Seeder {
	return &Seeder{
		db:        db,
		users:     repositories.NewUserRepository(db),
		bootcamps: repositories.NewBootcampRepository(db),
		courses:   repositories.NewCourseRepository(db),
		reviews:   repositories.NewReviewRepository(db),
		geocoder:  geocoder,
	}
}

// Prepare fills the fields the services would derive: hashed passwords,
// normalized emails, slugs, phone numbers and default photos.
func (f *Fixtures) Prepare() error {
	for i := range f.Users {
		u := &f.Users[i]
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		if !models.IsValidRole(u.Role) {
			return fmt.Errorf("user %s: unknown role %q", u.Email, u.Role)
		}
		hash, err := utils.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		u.Password = hash
	}
	for i := range f.Bootcamps {
		b := &f.Bootcamps[i]
		b.Slug = models.Slugify(b.Name)
		if b.Photo == "" {
			b.Photo = models.DefaultPhoto
		}
		if b.Phone != "" {
			b.Phone = utils.NormalizePhone(b.Phone)
		}
		b.AverageCost, b.AverageRating = 0, 0
	}
	return nil
}

// Import prepares and inserts every fixture, then recomputes the bootcamp
// averages from the inserted courses and reviews.
func (s *Seeder) Import(ctx context.Context, f *Fixtures) error {
	if err := f.Prepare(); err != nil {
		return err
	}

	for i := range f.Users {
		fx := f.Users[i]
		u := &models.User{ID: fx.ID, Name: fx.Name, Email: fx.Email, Role: fx.Role, Password: fx.Password}
		if err := s.users.Create(ctx, u); err != nil {
			return fmt.Errorf("insert user %s: %w", fx.Email, err)
		}
	}

	for i := range f.Bootcamps {
		b := &f.Bootcamps[i]
		if b.Location == nil && s.geocoder != nil && b.Address != "" {
			loc, err := s.geocoder.Geocode(ctx, b.Address)
			if err != nil {
				logging.Logger.Warnf("Event ID: SEED_GEOCODE_FAILED, Description: Could not locate bootcamp '%s': %v", b.Name, err)
			} else {
				b.Location = loc
			}
		}
		if err := s.bootcamps.Create(ctx, b); err != nil {
			return fmt.Errorf("insert bootcamp %s: %w", b.Name, err)
		}
	}

	for i := range f.Courses {
		if err := s.courses.Create(ctx, &f.Courses[i]); err != nil {
			return fmt.Errorf("insert course %s: %w", f.Courses[i].Title, err)
		}
	}
	for i := range f.Reviews {
		if err := s.reviews.Create(ctx, &f.Reviews[i]); err != nil {
			return fmt.Errorf("insert review %s: %w", f.Reviews[i].Title, err)
		}
	}

	for _, b := range f.Bootcamps {
		if err := s.refreshAverages(ctx, b.ID); err != nil {
			return err
		}
	}

	logging.Logger.Infof("Event ID: SEED_IMPORTED, Description: Imported %d users, %d bootcamps, %d courses, %d reviews",
		len(f.Users), len(f.Bootcamps), len(f.Courses), len(f.Reviews))
	return nil
}

func (s *Seeder) refreshAverages(ctx context.Context, id primitive.ObjectID) error {
	cost, err := s.courses.AverageTuition(ctx, id)
	if err != nil {
		return fmt.Errorf("average tuition of %s: %w", id.Hex(), err)
	}
	if cost != nil {
		rounded := math.Ceil(*cost/10) * 10
		cost = &rounded
	}
	if err := s.bootcamps.SetAverage(ctx, id, "averageCost", cost); err != nil {
		return fmt.Errorf("set average cost of %s: %w", id.Hex(), err)
	}

	rating, err := s.reviews.AverageRating(ctx, id)
	if err != nil {
		return fmt.Errorf("average rating of %s: %w", id.Hex(), err)
	}
	if err := s.bootcamps.SetAverage(ctx, id, "averageRating", rating); err != nil {
		return fmt.Errorf("set average rating of %s: %w", id.Hex(), err)
	}
	return nil
}

// Destroy deletes every document of the four seeded collections.
func (s *Seeder) Destroy(ctx context.Context) error {
	for _, name := range []string{
		repositories.ReviewsCollection,
		repositories.CoursesCollection,
		repositories.BootcampsCollection,
		repositories.UsersCollection,
	} {
		res, err := s.db.Collection(name).DeleteMany(ctx, bson.M{})
		if err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
		logging.Logger.Infof("Event ID: SEED_DESTROYED, Description: Removed %d documents from %s", res.DeletedCount, name)
	}
	return nil
}
