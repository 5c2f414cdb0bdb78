package repositories

import (
	"context"
	"time"

	"github.com/prashant564/Courses24-API/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BootcampSummaryLookup populates the bootcamp of a course or review with
// its name and description.
var BootcampSummaryLookup = Lookup{
	From:         BootcampsCollection,
	LocalField:   "bootcamp",
	ForeignField: "_id",
	As:           "bootcamp",
	Fields:       []string{"name", "description"},
	Single:       true,
}

type CourseRepository struct {
	collection *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{collection: db.Collection(CoursesCollection)}
}

func (r *CourseRepository) Create(ctx context.Context, c *models.Course) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, c)
	return mapError(err)
}

// FindByID returns the course with its bootcamp summary populated.
func (r *CourseRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	q := ListQuery{Filter: bson.M{"_id": id}, Sort: bson.D{{Key: "_id", Value: 1}}, Page: 1, Limit: 1}
	courses, _, err := FindPage[models.Course](ctx, r.collection, q, BootcampSummaryLookup)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, ErrNotFound
	}
	return &courses[0], nil
}

func (r *CourseRepository) List(ctx context.Context, q ListQuery) ([]models.Course, int64, error) {
	return FindPage[models.Course](ctx, r.collection, q, BootcampSummaryLookup)
}

func (r *CourseRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Course, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Course
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&c); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *CourseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CourseRepository) DeleteByBootcamp(ctx context.Context, bootcampID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"bootcamp": bootcampID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AverageTuition returns the mean tuition of a bootcamp's courses, or nil
// when it has none.
func (r *CourseRepository) AverageTuition(ctx context.Context, bootcampID primitive.ObjectID) (*float64, error) {
	return average(ctx, r.collection, bootcampID, "tuition")
}

func average(ctx context.Context, coll *mongo.Collection, bootcampID primitive.ObjectID, field string) (*float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bootcamp": bootcampID}}},
		{{Key: "$group", Value: bson.M{"_id": "$bootcamp", "avg": bson.M{"$avg": "$" + field}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].Avg, nil
}
