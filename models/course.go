package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

type Course struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title                string             `bson:"title" json:"title" validate:"required,max=100"`
	Description          string             `bson:"description" json:"description" validate:"required"`
	Weeks                string             `bson:"weeks" json:"weeks" validate:"required"`
	Tuition              float64            `bson:"tuition" json:"tuition" validate:"required,gt=0"`
	MinimumSkill         string             `bson:"minimumSkill" json:"minimumSkill" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable bool               `bson:"scholarshipAvailable" json:"scholarshipAvailable"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	Bootcamp             BootcampRef        `bson:"bootcamp" json:"bootcamp"`
	User                 primitive.ObjectID `bson:"user" json:"user"`
}
