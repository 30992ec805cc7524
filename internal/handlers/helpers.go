package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"turcrm/internal/services"
)

// более устойчиво к типам (int / int64 / float64 / string)
func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID, roleID int) {
	if id, ok := getIntFromCtx(c, "user_id"); ok {
		userID = id
	}
	if id, ok := getIntFromCtx(c, "role_id"); ok {
		roleID = id
	}
	return
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// pagination: page с 1, size по умолчанию 50.
func pagination(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrLeadNotFound),
		errors.Is(err, services.ErrTouristNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrFormNotFound),
		errors.Is(err, services.ErrFieldNotFound),
		errors.Is(err, services.ErrVisitNotFound),
		errors.Is(err, services.ErrUnknownPreference):
		return http.StatusNotFound
	case errors.Is(err, services.ErrLastTourist),
		errors.Is(err, services.ErrEventInUse),
		errors.Is(err, services.ErrNoPrimaryTourist),
		errors.Is(err, services.ErrDuplicateFieldKey):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrCityNotInRoute),
		errors.Is(err, services.ErrLeadHasNoEvent):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError переводит ошибку сервиса в HTTP-ответ.
func respondError(c *gin.Context, area string, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
		return
	}
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		log.Printf("[%s][err] %s %s: %v", area, c.Request.Method, c.FullPath(), err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
