// internal/domain/models/lead.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lead is an enquiry submitted from the public site.
type Lead struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CourseSlug string             `bson:"course_slug,omitempty" json:"course_slug,omitempty"`
	Message    string             `bson:"message,omitempty" json:"message,omitempty"`
	Source     string             `bson:"source,omitempty" json:"source,omitempty"` // page or campaign the lead came from
	IP         string             `bson:"ip,omitempty" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
