// Package service wires the REST API: it owns the gin router, the boundary
// validation of URL parameters, and the translation of store results into
// HTTP status codes. All data access goes through the store package; all
// authentication and role decisions come from the auth package.
package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"gitlab.com/artem.naboka/contacts-directory/internal/auth"
	"gitlab.com/artem.naboka/contacts-directory/internal/config"
	"gitlab.com/artem.naboka/contacts-directory/internal/model"
	"gitlab.com/artem.naboka/contacts-directory/internal/store"
)

// Bounds for the URL parameters of the listing endpoints.
const (
	minLimit    = 10
	maxLimit    = 200
	defaultDays = 7
	maxDays     = 365
)

// CreateDatabase initializes and returns a database connection with the
// connection parameters taken from the configuration.
func CreateDatabase(cfg config.Config) *sql.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName)
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal(err)
	}
	return sqlDB
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints. Everything except the health probe sits behind bearer-token
// authentication; the unscoped listing and deletion additionally require a
// moderator or admin role.
func SetupHttpRouter(cfg config.Config) *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(cfg.GinLogging, "off") {
		fmt.Println("Turning off HTTP request logging.")
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}
	router.GET("/healthz", healthz)

	authorized := router.Group("/", auth.RequireAuth(cfg.JWTSecret))
	authorized.GET("/contacts", listContacts)
	authorized.POST("/contacts", createContact)
	authorized.GET("/contacts/:id", getContact)
	authorized.PUT("/contacts/:id", updateContact)
	authorized.DELETE("/contacts/:id", deleteContact)
	authorized.GET("/birthdays", upcomingBirthdays)

	privileged := authorized.Group("/", auth.RequireUnscoped())
	privileged.GET("/contacts/all", listAllContacts)
	privileged.DELETE("/contacts/all/:id", deleteAnyContact)
	return router
}

// healthz answers liveness probes without touching the database.
func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseLimitAndOffset inspects the URL parameters and determines values for
// limit and offset of the result set. The limit defaults to the minimum and
// must stay within [10, 200]; the offset defaults to 0 and must not be
// negative.
func parseLimitAndOffset(c *gin.Context) (limit int, offset int, success bool) {
	limit = minLimit
	if raw := c.Query("limit"); raw != "" {
		limitAsInt, errConv := strconv.Atoi(raw)
		if errConv != nil || limitAsInt < minLimit || limitAsInt > maxLimit {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return 0, 0, false
		}
		limit = limitAsInt
	}
	if raw := c.Query("offset"); raw != "" {
		offsetAsInt, errConv := strconv.Atoi(raw)
		if errConv != nil || offsetAsInt < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid offset parameter"})
			return 0, 0, false
		}
		offset = offsetAsInt
	}
	return limit, offset, true
}

// parseDays inspects the 'days' URL parameter of the birthday endpoint. It
// defaults to one week and must stay within [1, 365].
func parseDays(c *gin.Context) (days int, success bool) {
	days = defaultDays
	if raw := c.Query("days"); raw != "" {
		daysAsInt, errConv := strconv.Atoi(raw)
		if errConv != nil || daysAsInt < 1 || daysAsInt > maxDays {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid days parameter"})
			return 0, false
		}
		days = daysAsInt
	}
	return days, true
}

// parseId inspects the id path parameter. Identifiers are positive integers;
// anything else behaves like a contact that does not exist.
func parseId(c *gin.Context) (id int64, success bool) {
	id, errConv := strconv.ParseInt(c.Param("id"), 10, 64)
	if errConv != nil || id < 1 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// listContacts responds with the caller's own contacts as JSON, in insertion
// order.
//
// The URL parameter 'limit' specifies how many contacts are returned at most
// and the URL parameter 'offset' how many are skipped in the beginning.
// Together they implement search result paging.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts" --header "Authorization: Bearer $TOKEN"
//	> curl "http://localhost:8080/contacts?limit=20&offset=60" --header "Authorization: Bearer $TOKEN"
func listContacts(c *gin.Context) {
	limit, offset, success := parseLimitAndOffset(c)
	if !success {
		return
	}
	contacts, err := store.ListOwn(limit, offset, auth.CurrentUser(c).Id)
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// listAllContacts responds with the contacts of all users as JSON. The route
// is only reachable for moderators and admins; the handler itself performs no
// further checks.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/all" --header "Authorization: Bearer $ADMIN_TOKEN"
func listAllContacts(c *gin.Context) {
	limit, offset, success := parseLimitAndOffset(c)
	if !success {
		return
	}
	contacts, err := store.ListAll(limit, offset)
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// getContact locates the contact whose ID value matches the id parameter of
// the request URL and which belongs to the caller, then returns that contact
// as a response. A contact owned by someone else answers with NOT FOUND, the
// same as a contact that does not exist.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/56" --header "Authorization: Bearer $TOKEN"
func getContact(c *gin.Context) {
	id, success := parseId(c)
	if !success {
		return
	}
	contact, err := store.GetOne(id, auth.CurrentUser(c).Id)
	if errors.Is(err, store.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// createContact inserts the contact specified in the request's JSON into the
// database, owned by the caller. It responds with the full contact data
// including the newly assigned id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"firstname": "Hans", "lastname": "Wurst", "email": "hans@example.org", "phone": "0815", "birthday": "1969-03-02T00:00:00Z", "interests": ["skat"], "active": true}'
func createContact(c *gin.Context) {
	var submitted model.Contact
	if err := c.BindJSON(&submitted); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := store.Create(submitted, auth.CurrentUser(c).Id)
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// updateContact replaces the contact whose ID value matches the id parameter
// of the request URL with the values from the request's JSON and responds
// with the new version of the contact. This is a full replace: fields missing
// from the JSON are cleared, not preserved.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"firstname": "Hans", "lastname": "Wurst", "phone": "81970", "active": true}'
func updateContact(c *gin.Context) {
	id, success := parseId(c)
	if !success {
		return
	}
	var submitted model.Contact
	if errBind := c.BindJSON(&submitted); errBind != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := store.Update(id, submitted, auth.CurrentUser(c).Id)
	if errors.Is(err, store.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContact deletes the contact whose ID value matches the id parameter
// of the request URL from the database, provided it belongs to the caller,
// and responds with the removed contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE" --header "Authorization: Bearer $TOKEN"
func deleteContact(c *gin.Context) {
	id, success := parseId(c)
	if !success {
		return
	}
	contact, err := store.DeleteOwn(id, auth.CurrentUser(c).Id)
	if errors.Is(err, store.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteAnyContact deletes the contact whose ID value matches the id
// parameter of the request URL no matter which user owns it, and responds
// with the removed contact. The route is only reachable for moderators and
// admins.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/all/56 --request "DELETE" --header "Authorization: Bearer $ADMIN_TOKEN"
func deleteAnyContact(c *gin.Context) {
	id, success := parseId(c)
	if !success {
		return
	}
	contact, err := store.DeleteAny(id)
	if errors.Is(err, store.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// upcomingBirthdays responds with the caller's contacts whose birthday falls
// within the next 'days' days, today and the final day included. Birthdays
// are matched by month and day regardless of the year of birth, so a window
// reaching into January also finds January birthdays of people born decades
// ago.
//
// REST API calls:
//
//	> curl "http://localhost:8080/birthdays" --header "Authorization: Bearer $TOKEN"
//	> curl "http://localhost:8080/birthdays?days=30&limit=20&offset=0" --header "Authorization: Bearer $TOKEN"
func upcomingBirthdays(c *gin.Context) {
	days, successDays := parseDays(c)
	if !successDays {
		return
	}
	limit, offset, successPage := parseLimitAndOffset(c)
	if !successPage {
		return
	}
	contacts, err := store.Upcoming(days, limit, offset, auth.CurrentUser(c).Id)
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contacts)
}
