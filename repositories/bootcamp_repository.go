package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/prashant564/Courses24-API/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CoursesLookup populates a bootcamp's courses.
var CoursesLookup = Lookup{
	From:         CoursesCollection,
	LocalField:   "_id",
	ForeignField: "bootcamp",
	As:           "courses",
}

type BootcampRepository struct {
	collection *mongo.Collection
}

func NewBootcampRepository(db *mongo.Database) *BootcampRepository {
	return &BootcampRepository{collection: db.Collection(BootcampsCollection)}
}

func (r *BootcampRepository) Create(ctx context.Context, b *models.Bootcamp) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, b); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *BootcampRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bootcamp, error) {
	var b models.Bootcamp
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (r *BootcampRepository) List(ctx context.Context, q ListQuery) ([]models.Bootcamp, int64, error) {
	return FindPage[models.Bootcamp](ctx, r.collection, q, CoursesLookup)
}

// Update applies a $set of fields and returns the updated document.
func (r *BootcampRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Bootcamp, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Bootcamp
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&b)
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (r *BootcampRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BootcampRepository) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user": userID})
}

// WithinRadius finds bootcamps whose location lies within radius (radians)
// of the given point.
func (r *BootcampRepository) WithinRadius(ctx context.Context, lng, lat, radius float64) ([]models.Bootcamp, error) {
	filter := bson.M{
		"location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{lng, lat}, radius},
			},
		},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("radius query: %w", err)
	}
	defer cursor.Close(ctx)

	bootcamps := []models.Bootcamp{}
	if err := cursor.All(ctx, &bootcamps); err != nil {
		return nil, err
	}
	return bootcamps, nil
}

// SetAverage stores a derived average (averageCost or averageRating). A nil
// value removes the field.
func (r *BootcampRepository) SetAverage(ctx context.Context, id primitive.ObjectID, field string, value *float64) error {
	update := bson.M{"$unset": bson.M{field: ""}}
	if value != nil {
		update = bson.M{"$set": bson.M{field: *value}}
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
