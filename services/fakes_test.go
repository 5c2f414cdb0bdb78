package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memDB is an in-memory stand-in for the Mongo collections. It enforces the
// same unique constraints as the real indexes.
type memDB struct {
	mu        sync.Mutex
	bootcamps map[primitive.ObjectID]models.Bootcamp
	courses   map[primitive.ObjectID]models.Course
	reviews   map[primitive.ObjectID]models.Review
	users     map[primitive.ObjectID]models.User
	clock     time.Time
}

func newMemDB() *memDB {
	return &memDB{
		bootcamps: map[primitive.ObjectID]models.Bootcamp{},
		courses:   map[primitive.ObjectID]models.Course{},
		reviews:   map[primitive.ObjectID]models.Review{},
		users:     map[primitive.ObjectID]models.User{},
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick hands out strictly increasing creation times.
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func page[T any](items []T, created func(T) time.Time, q repositories.ListQuery) ([]T, int64) {
	sort.Slice(items, func(i, j int) bool { return created(items[i]).Before(created(items[j])) })
	total := int64(len(items))
	start := int(q.Skip())
	if start > len(items) {
		start = len(items)
	}
	end := start + q.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}

func bootcampFilter(q repositories.ListQuery) (primitive.ObjectID, bool) {
	id, ok := q.Filter["bootcamp"].(primitive.ObjectID)
	return id, ok
}

type fakeBootcamps struct {
	db           *memDB
	lastRadius   float64
	lastLng      float64
	lastLat      float64
	radiusResult []models.Bootcamp
}

func (f *fakeBootcamps) Create(_ context.Context, b *models.Bootcamp) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, other := range f.db.bootcamps {
		if other.Name == b.Name {
			return repositories.ErrDuplicateKey
		}
	}
	b.ID = primitive.NewObjectID()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = f.db.tick()
	}
	f.db.bootcamps[b.ID] = *b
	return nil
}

func (f *fakeBootcamps) FindByID(_ context.Context, id primitive.ObjectID) (*models.Bootcamp, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.bootcamps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBootcamps) List(_ context.Context, q repositories.ListQuery) ([]models.Bootcamp, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var items []models.Bootcamp
	for _, b := range f.db.bootcamps {
		items = append(items, b)
	}
	out, total := page(items, func(b models.Bootcamp) time.Time { return b.CreatedAt }, q)
	return out, total, nil
}

func (f *fakeBootcamps) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Bootcamp, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.bootcamps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			b.Name = v.(string)
		case "slug":
			b.Slug = v.(string)
		case "description":
			b.Description = v.(string)
		case "address":
			b.Address = v.(string)
		case "location":
			b.Location = v.(*models.Location)
		case "housing":
			b.Housing = v.(bool)
		}
	}
	f.db.bootcamps[id] = b
	return &b, nil
}

func (f *fakeBootcamps) Delete(_ context.Context, id primitive.ObjectID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.bootcamps[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.bootcamps, id)
	return nil
}

func (f *fakeBootcamps) CountByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for _, b := range f.db.bootcamps {
		if b.User == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeBootcamps) WithinRadius(_ context.Context, lng, lat, radius float64) ([]models.Bootcamp, error) {
	f.lastLng, f.lastLat, f.lastRadius = lng, lat, radius
	return f.radiusResult, nil
}

func (f *fakeBootcamps) SetAverage(_ context.Context, id primitive.ObjectID, field string, value *float64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b := f.db.bootcamps[id]
	v := 0.0
	if value != nil {
		v = *value
	}
	switch field {
	case "averageCost":
		b.AverageCost = v
	case "averageRating":
		b.AverageRating = v
	}
	f.db.bootcamps[id] = b
	return nil
}

type fakeCourses struct{ db *memDB }

func (f *fakeCourses) Create(_ context.Context, c *models.Course) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c.ID = primitive.NewObjectID()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = f.db.tick()
	}
	f.db.courses[c.ID] = *c
	return nil
}

func (f *fakeCourses) FindByID(_ context.Context, id primitive.ObjectID) (*models.Course, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCourses) List(_ context.Context, q repositories.ListQuery) ([]models.Course, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	bootcampID, scoped := bootcampFilter(q)
	var items []models.Course
	for _, c := range f.db.courses {
		if scoped && c.Bootcamp.ID != bootcampID {
			continue
		}
		items = append(items, c)
	}
	out, total := page(items, func(c models.Course) time.Time { return c.CreatedAt }, q)
	return out, total, nil
}

func (f *fakeCourses) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Course, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			c.Title = v.(string)
		case "tuition":
			c.Tuition = v.(float64)
		}
	}
	f.db.courses[id] = c
	return &c, nil
}

func (f *fakeCourses) Delete(_ context.Context, id primitive.ObjectID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.courses[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.courses, id)
	return nil
}

func (f *fakeCourses) DeleteByBootcamp(_ context.Context, bootcampID primitive.ObjectID) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for id, c := range f.db.courses {
		if c.Bootcamp.ID == bootcampID {
			delete(f.db.courses, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeCourses) AverageTuition(_ context.Context, bootcampID primitive.ObjectID) (*float64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var sum float64
	var n int
	for _, c := range f.db.courses {
		if c.Bootcamp.ID == bootcampID {
			sum += c.Tuition
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

type fakeReviews struct{ db *memDB }

func (f *fakeReviews) Create(_ context.Context, r *models.Review) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, other := range f.db.reviews {
		if other.Bootcamp.ID == r.Bootcamp.ID && other.User == r.User {
			return repositories.ErrDuplicateKey
		}
	}
	r.ID = primitive.NewObjectID()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = f.db.tick()
	}
	f.db.reviews[r.ID] = *r
	return nil
}

func (f *fakeReviews) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reviews[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &r, nil
}

func (f *fakeReviews) List(_ context.Context, q repositories.ListQuery) ([]models.Review, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	bootcampID, scoped := bootcampFilter(q)
	var items []models.Review
	for _, r := range f.db.reviews {
		if scoped && r.Bootcamp.ID != bootcampID {
			continue
		}
		items = append(items, r)
	}
	out, total := page(items, func(r models.Review) time.Time { return r.CreatedAt }, q)
	return out, total, nil
}

func (f *fakeReviews) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Review, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reviews[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			r.Title = v.(string)
		case "text":
			r.Text = v.(string)
		case "rating":
			r.Rating = v.(int)
		}
	}
	f.db.reviews[id] = r
	return &r, nil
}

func (f *fakeReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.reviews[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.reviews, id)
	return nil
}

func (f *fakeReviews) DeleteByBootcamp(_ context.Context, bootcampID primitive.ObjectID) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for id, r := range f.db.reviews {
		if r.Bootcamp.ID == bootcampID {
			delete(f.db.reviews, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeReviews) AverageRating(_ context.Context, bootcampID primitive.ObjectID) (*float64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var sum float64
	var n int
	for _, r := range f.db.reviews {
		if r.Bootcamp.ID == bootcampID {
			sum += float64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

type fakeUsers struct{ db *memDB }

func stripSecrets(u models.User) *models.User {
	u.Password = ""
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	return &u
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, other := range f.db.users {
		if other.Email == u.Email {
			return repositories.ErrDuplicateKey
		}
	}
	u.ID = primitive.NewObjectID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = f.db.tick()
	}
	f.db.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) find(match func(models.User) bool) (models.User, bool) {
	for _, u := range f.db.users {
		if match(u) {
			return u, true
		}
	}
	return models.User{}, false
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return stripSecrets(u), nil
}

func (f *fakeUsers) FindByIDWithPassword(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.find(func(u models.User) bool { return u.Email == email })
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return stripSecrets(u), nil
}

func (f *fakeUsers) FindByEmailWithPassword(_ context.Context, email string) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.find(func(u models.User) bool { return u.Email == email })
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) List(_ context.Context, q repositories.ListQuery) ([]models.User, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var items []models.User
	for _, u := range f.db.users {
		items = append(items, *stripSecrets(u))
	}
	out, total := page(items, func(u models.User) time.Time { return u.CreatedAt }, q)
	return out, total, nil
}

func (f *fakeUsers) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if email, ok := fields["email"].(string); ok {
		if other, found := f.find(func(o models.User) bool { return o.Email == email && o.ID != id }); found && other.ID != id {
			return nil, repositories.ErrDuplicateKey
		}
		u.Email = email
	}
	if name, ok := fields["name"].(string); ok {
		u.Name = name
	}
	if role, ok := fields["role"].(string); ok {
		u.Role = role
	}
	if pw, ok := fields["password"].(string); ok {
		u.Password = pw
	}
	f.db.users[id] = u
	return stripSecrets(u), nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.users, id)
	return nil
}

func (f *fakeUsers) SetResetToken(_ context.Context, id primitive.ObjectID, hashed string, expire time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.ResetPasswordToken = hashed
	u.ResetPasswordExpire = &expire
	f.db.users[id] = u
	return nil
}

func (f *fakeUsers) ClearResetToken(_ context.Context, id primitive.ObjectID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u := f.db.users[id]
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	f.db.users[id] = u
	return nil
}

func (f *fakeUsers) RedeemResetToken(_ context.Context, hashed, passwordHash string, now time.Time) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.find(func(u models.User) bool {
		return u.ResetPasswordToken == hashed && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now)
	})
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u.Password = passwordHash
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	f.db.users[u.ID] = u
	return stripSecrets(u), nil
}

type fakeGeocoder struct {
	loc   *models.Location
	err   error
	calls []string
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (*models.Location, error) {
	g.calls = append(g.calls, address)
	if g.err != nil {
		return nil, g.err
	}
	loc := *g.loc
	return &loc, nil
}

type captureMailer struct {
	sent []utils.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg utils.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// env wires every service to one in-memory database.
type env struct {
	db        *memDB
	bootcamps *fakeBootcamps
	courses   *fakeCourses
	reviews   *fakeReviews
	users     *fakeUsers
	geocoder  *fakeGeocoder
	mailer    *captureMailer

	auth        *AuthService
	bootcampSvc *BootcampService
	courseSvc   *CourseService
	reviewSvc   *ReviewService
	userSvc     *UserService
}

func newEnv() *env {
	db := newMemDB()
	e := &env{
		db:        db,
		bootcamps: &fakeBootcamps{db: db},
		courses:   &fakeCourses{db: db},
		reviews:   &fakeReviews{db: db},
		users:     &fakeUsers{db: db},
		geocoder: &fakeGeocoder{loc: &models.Location{
			Type:        "Point",
			Coordinates: []float64{-71.104028, 42.350846},
			City:        "Boston",
			Zipcode:     "02215",
		}},
		mailer: &captureMailer{},
	}
	v := utils.NewValidator()
	e.auth = NewAuthService(e.users, utils.NewJWTManager("test-secret", time.Hour), e.mailer, v, 10*time.Minute)
	e.bootcampSvc = NewBootcampService(e.bootcamps, e.courses, e.reviews, e.geocoder, v)
	e.courseSvc = NewCourseService(e.courses, e.bootcamps, v)
	e.reviewSvc = NewReviewService(e.reviews, e.bootcamps, v)
	e.userSvc = NewUserService(e.users, v)
	return e
}

func identity(role string) models.Identity {
	return models.Identity{UserID: primitive.NewObjectID(), Role: role}
}

func sampleBootcamp(name string) models.Bootcamp {
	return models.Bootcamp{
		Name:        name,
		Description: "Full stack web development bootcamp",
		Address:     "233 Bay State Rd Boston MA 02215",
		Careers:     []string{"Web Development", "UI/UX"},
		Phone:       "(202) 456-1111",
	}
}
