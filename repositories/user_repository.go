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

// Secret user fields are projected out of every read except the ones that
// verify credentials.
var userSecrets = []string{"password", "resetPasswordToken", "resetPasswordExpire"}

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(UsersCollection)}
}

func withoutSecrets() *options.FindOneOptions {
	proj := bson.M{}
	for _, f := range userSecrets {
		proj[f] = 0
	}
	return options.FindOne().SetProjection(proj)
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, u)
	return mapError(err)
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}, withoutSecrets()).Decode(&u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// FindByIDWithPassword includes the password hash for credential checks.
func (r *UserRepository) FindByIDWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}, withoutSecrets()).Decode(&u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, q ListQuery) ([]models.User, int64, error) {
	if len(q.Projection) == 0 {
		q.Projection = bson.M{}
		for _, f := range userSecrets {
			q.Projection[f] = 0
		}
	} else {
		proj := bson.M{}
		for k, v := range q.Projection {
			proj[k] = v
		}
		for _, f := range userSecrets {
			delete(proj, f)
		}
		q.Projection = proj
	}
	return FindPage[models.User](ctx, r.collection, q)
}

func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"password": 0, "resetPasswordToken": 0, "resetPasswordExpire": 0})
	var u models.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, hashed string, expire time.Time) error {
	update := bson.M{"$set": bson.M{"resetPasswordToken": hashed, "resetPasswordExpire": expire}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// RedeemResetToken sets a new password for the user holding an unexpired
// reset token and clears the token in the same update, so a token can be
// redeemed once.
func (r *UserRepository) RedeemResetToken(ctx context.Context, hashed string, passwordHash string, now time.Time) (*models.User, error) {
	filter := bson.M{
		"resetPasswordToken":  hashed,
		"resetPasswordExpire": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password": passwordHash},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"password": 0})
	var u models.User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}
