package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var Careers = []string{
	"Web Development",
	"Mobile Development",
	"UI/UX",
	"Data Science",
	"Business",
	"Other",
}

func IsValidCareer(career string) bool {
	for _, c := range Careers {
		if c == career {
			return true
		}
	}
	return false
}

// Location is a GeoJSON point plus the address parts returned by the
// geocoder. Coordinates are [longitude, latitude].
type Location struct {
	Type             string    `bson:"type" json:"type"`
	Coordinates      []float64 `bson:"coordinates" json:"coordinates"`
	FormattedAddress string    `bson:"formattedAddress,omitempty" json:"formattedAddress,omitempty"`
	Street           string    `bson:"street,omitempty" json:"street,omitempty"`
	City             string    `bson:"city,omitempty" json:"city,omitempty"`
	State            string    `bson:"state,omitempty" json:"state,omitempty"`
	Zipcode          string    `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	Country          string    `bson:"country,omitempty" json:"country,omitempty"`
}

type Bootcamp struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name" validate:"required,max=50"`
	Slug          string             `bson:"slug" json:"slug"`
	Description   string             `bson:"description" json:"description" validate:"required,max=500"`
	Website       string             `bson:"website,omitempty" json:"website,omitempty" validate:"omitempty,url"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Address       string             `bson:"address" json:"address,omitempty" validate:"required"`
	Location      *Location          `bson:"location,omitempty" json:"location,omitempty"`
	Careers       []string           `bson:"careers" json:"careers" validate:"required,min=1,dive,career"`
	AverageRating float64            `bson:"averageRating,omitempty" json:"averageRating,omitempty" validate:"omitempty,min=1,max=10"`
	AverageCost   float64            `bson:"averageCost,omitempty" json:"averageCost,omitempty"`
	Photo         string             `bson:"photo" json:"photo"`
	Housing       bool               `bson:"housing" json:"housing"`
	JobAssistance bool               `bson:"jobAssistance" json:"jobAssistance"`
	JobGuarantee  bool               `bson:"jobGuarantee" json:"jobGuarantee"`
	AcceptGi      bool               `bson:"acceptGi" json:"acceptGi"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	User          primitive.ObjectID `bson:"user" json:"user"`

	// Courses is only filled when a listing populates it.
	Courses []Course `bson:"courses,omitempty" json:"courses,omitempty"`
}

const DefaultPhoto = "no-photo.jpg"

// MarshalJSON leaves out the raw address; clients read the geocoded location.
func (b Bootcamp) MarshalJSON() ([]byte, error) {
	type plain Bootcamp
	out := plain(b)
	out.Address = ""
	return json.Marshal(out)
}

func (b *Bootcamp) OwnedBy(userID primitive.ObjectID) bool {
	return b.User == userID
}
