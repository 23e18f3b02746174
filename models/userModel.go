package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleDoctor  Role = "Doctor"
	RolePatient Role = "Patient"
)

// NormalizeRole maps any casing of "doctor" to RoleDoctor; everything else is a patient.
func NormalizeRole(role string) Role {
	if strings.EqualFold(strings.TrimSpace(role), string(RoleDoctor)) {
		return RoleDoctor
	}
	return RolePatient
}

type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id"`
	Email          string             `json:"email" bson:"email"`
	FullName       string             `json:"full_name" bson:"full_name"`
	Role           Role               `json:"role" bson:"role"`
	Password       string             `json:"-" bson:"password"`
	Specialization string             `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Phone          string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Age            int                `json:"age,omitempty" bson:"age,omitempty"`
	Gender         string             `json:"gender,omitempty" bson:"gender,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

type SignUpRequest struct {
	Email          string `json:"email" validate:"required,email"`
	FullName       string `json:"full_name" validate:"required,min=2,max=100"`
	Role           string `json:"role" validate:"required"`
	Password       string `json:"password" validate:"required,min=6"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
	Age            int    `json:"age" validate:"gte=0,lte=130"`
	Gender         string `json:"gender"`
}

type LoginResponse struct {
	ID          primitive.ObjectID `json:"id"`
	Email       string             `json:"email"`
	FullName    string             `json:"full_name"`
	Role        Role               `json:"role"`
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
}

// Patient is the clinician-facing projection of a patient account.
type Patient struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
	Phone    string             `json:"phone,omitempty"`
	Age      int                `json:"age,omitempty"`
	Gender   string             `json:"gender,omitempty"`
}

func (u *User) AsPatient() Patient {
	return Patient{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
		Age:      u.Age,
		Gender:   u.Gender,
	}
}
