package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"golang-rehabtrack/database"
	"golang-rehabtrack/helpers"
	"golang-rehabtrack/inference"
	"golang-rehabtrack/middleware"
	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

const requestTimeout = 10 * time.Second

// Handler carries the dependencies shared by every route.
type Handler struct {
	Store         database.Store
	Tokens        *helpers.TokenManager
	Videos        helpers.VideoStorage
	Predictor     inference.Predictor
	MaxVideoBytes int64
}

func NewHandler(store database.Store, tokens *helpers.TokenManager, videos helpers.VideoStorage, predictor inference.Predictor, maxVideoBytes int64) *Handler {
	return &Handler{
		Store:         store,
		Tokens:        tokens,
		Videos:        videos,
		Predictor:     predictor,
		MaxVideoBytes: maxVideoBytes,
	}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// objectIDParam reads a hex ObjectID path parameter, writing a 400 when it is malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

func caller(c *gin.Context) (primitive.ObjectID, models.Role) {
	id, _ := primitive.ObjectIDFromHex(c.GetString(middleware.KeyUserID))
	return id, models.Role(c.GetString(middleware.KeyRole))
}

// canAccessPatient allows doctors through and patients only to their own records.
func canAccessPatient(c *gin.Context, patientID primitive.ObjectID) bool {
	uid, role := caller(c)
	if role == models.RoleDoctor || uid == patientID {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to access another patient's records"})
	return false
}

// isCallingDoctor rejects requests made on behalf of another doctor.
func isCallingDoctor(c *gin.Context, doctorID primitive.ObjectID) bool {
	if uid, _ := caller(c); uid == doctorID {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to access another doctor's records"})
	return false
}

func storeError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Database timed out"})
	default:
		log.Printf("store error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

func listResponse[T any](items []T) gin.H {
	return gin.H{"data": items, "total": len(items)}
}
