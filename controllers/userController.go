package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang-rehabtrack/database"
	"golang-rehabtrack/helpers"
	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) SignUp() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req models.SignUpRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		if validationErr := validate.Struct(req); validationErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}

		password, err := helpers.HashPassword(req.Password)
		if err != nil {
			log.Printf("hash password: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "User could not be created"})
			return
		}

		now := time.Now().UTC()
		user := models.User{
			ID:             primitive.NewObjectID(),
			Email:          strings.TrimSpace(req.Email),
			FullName:       strings.TrimSpace(req.FullName),
			Role:           models.NormalizeRole(req.Role),
			Password:       password,
			Specialization: req.Specialization,
			Phone:          req.Phone,
			Age:            req.Age,
			Gender:         req.Gender,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := h.Store.CreateUser(ctx, &user); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
				return
			}
			storeError(c, err, "User could not be created")
			return
		}

		log.Printf("registered %s %s", user.Role, user.ID.Hex())
		c.JSON(http.StatusCreated, user)
	}
}

// Login takes credentials from the query string.
func (h *Handler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		email := strings.TrimSpace(c.Query("email"))
		password := c.Query("password")
		if email == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		foundUser, err := h.Store.FindUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
				return
			}
			storeError(c, err, "User not found")
			return
		}

		if passwordIsValid, _ := helpers.VerifyPassword(foundUser.Password, password); !passwordIsValid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
			return
		}

		token, err := h.Tokens.GenerateToken(foundUser.ID.Hex(), foundUser.Email, string(foundUser.Role))
		if err != nil {
			log.Printf("sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error while generating token"})
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			ID:          foundUser.ID,
			Email:       foundUser.Email,
			FullName:    foundUser.FullName,
			Role:        foundUser.Role,
			AccessToken: token,
			TokenType:   "bearer",
		})
	}
}

func (h *Handler) Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		uid, _ := caller(c)
		user, err := h.Store.FindUserByID(ctx, uid)
		if err != nil {
			storeError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func (h *Handler) GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		userID, ok := objectIDParam(c, "user_id")
		if !ok {
			return
		}

		user, err := h.Store.FindUserByID(ctx, userID)
		if err != nil {
			storeError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func (h *Handler) GetPatients() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		users, err := h.Store.ListUsersByRole(ctx, models.RolePatient)
		if err != nil {
			storeError(c, err, "Error while fetching patients")
			return
		}

		c.JSON(http.StatusOK, listResponse(asPatients(users)))
	}
}

func asPatients(users []models.User) []models.Patient {
	patients := make([]models.Patient, 0, len(users))
	for i := range users {
		patients = append(patients, users[i].AsPatient())
	}
	return patients
}
