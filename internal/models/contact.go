package models

import "time"

const (
	ContactStatusNew     = "new"
	ContactStatusRead    = "read"
	ContactStatusReplied = "replied"
	ContactStatusClosed  = "closed"
)

var ContactStatuses = []string{ContactStatusNew, ContactStatusRead, ContactStatusReplied, ContactStatusClosed}

var ContactMethods = []string{"email", "phone"}

type Contact struct {
	ID                     string    `bson:"_id,omitempty" json:"_id"`
	FullName               string    `bson:"fullName" json:"fullName"`
	Company                *string   `bson:"company,omitempty" json:"company,omitempty"`
	Email                  string    `bson:"email" json:"email"`
	Phone                  string    `bson:"phone" json:"phone"`
	PreferredContactMethod string    `bson:"preferredContactMethod" json:"preferredContactMethod"`
	Message                string    `bson:"message" json:"message"`
	Status                 string    `bson:"status" json:"status"`
	CreatedAt              time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time `bson:"updatedAt" json:"updatedAt"`
}
