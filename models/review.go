package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is unique per (bootcamp, user); the reviews collection carries a
// compound unique index for it.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title" validate:"required,max=100"`
	Text      string             `bson:"text" json:"text" validate:"required"`
	Rating    int                `bson:"rating" json:"rating" validate:"required,min=1,max=10"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Bootcamp  BootcampRef        `bson:"bootcamp" json:"bootcamp"`
	User      primitive.ObjectID `bson:"user" json:"user"`
}
