// Package store implements the ownership-scoped contact collection and the
// upcoming-birthday query on top of a MySQL database. Every read and write is
// either scoped to a single owning user or explicitly unscoped; the caller is
// responsible for only invoking the unscoped variants on behalf of privileged
// roles.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"gitlab.com/artem.naboka/contacts-directory/internal/model"
)

// ErrNotFound is returned when a lookup by id (and owner, for the scoped
// operations) matches no row. A contact owned by a different user is
// indistinguishable from a contact that does not exist.
var ErrNotFound = errors.New("contact not found")

// db is a handle to the database.
var db *sqlx.DB

// insert is a prepared statement for creating a contact on the database.
var insert *sqlx.NamedStmt

// selectByIdAndOwner is a prepared statement for selecting the contact with a
// given id belonging to a given user.
var selectByIdAndOwner *sqlx.Stmt

// selectByOwner is a prepared statement for listing a user's contacts in
// insertion order with limit and offset applied.
var selectByOwner *sqlx.Stmt

// selectAll is a prepared statement for the unscoped listing of all contacts.
var selectAll *sqlx.Stmt

// Setup initializes the sqlx database wrapper with the specified sql database
// and prepares all statements. The database argument can be a real database
// for production use or a mock database within unit tests.
func Setup(sqlDB *sql.DB) {
	var err error
	db = sqlx.NewDb(sqlDB, "mysql")

	// Prepared statements offer a significant speed increase if executed many times.
	insert, err = db.PrepareNamed(`
		INSERT INTO contacts (firstname, lastname, email, phone, birthday, address, notes, interests, active, user_id)
		VALUES (:firstname, :lastname, :email, :phone, :birthday, :address, :notes, :interests, :active, :user_id)
	`)
	if err != nil {
		log.Fatal(err)
	}
	selectByIdAndOwner, err = db.Preparex(`
		SELECT * FROM contacts WHERE id = ? AND user_id = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	selectByOwner, err = db.Preparex(`
		SELECT * FROM contacts WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	selectAll, err = db.Preparex(`
		SELECT * FROM contacts ORDER BY id LIMIT ? OFFSET ?
	`)
	if err != nil {
		log.Fatal(err)
	}
}

// checkPage rejects negative limit or offset values. The HTTP boundary
// validates them first; this is a backstop against programming errors.
func checkPage(limit int, offset int) error {
	if limit < 0 {
		return fmt.Errorf("negative limit %d", limit)
	}
	if offset < 0 {
		return fmt.Errorf("negative offset %d", offset)
	}
	return nil
}

// ListOwn returns the contacts owned by the given user in insertion order,
// skipping offset rows and returning at most limit rows.
func ListOwn(limit int, offset int, owner int64) ([]model.Contact, error) {
	if err := checkPage(limit, offset); err != nil {
		return nil, err
	}
	contacts := []model.Contact{}
	if err := selectByOwner.Select(&contacts, owner, limit, offset); err != nil {
		return nil, fmt.Errorf("list contacts of user %d: %w", owner, err)
	}
	return contacts, nil
}

// ListAll returns contacts of all users in insertion order. It performs no
// ownership filtering at all; the route layer must only call it after the
// access gate has cleared a privileged role.
func ListAll(limit int, offset int) ([]model.Contact, error) {
	if err := checkPage(limit, offset); err != nil {
		return nil, err
	}
	contacts := []model.Contact{}
	if err := selectAll.Select(&contacts, limit, offset); err != nil {
		return nil, fmt.Errorf("list all contacts: %w", err)
	}
	return contacts, nil
}

// GetOne returns the contact with the given id if it belongs to the given
// user, and ErrNotFound otherwise.
func GetOne(id int64, owner int64) (model.Contact, error) {
	var contacts []model.Contact
	if err := selectByIdAndOwner.Select(&contacts, id, owner); err != nil {
		return model.Contact{}, fmt.Errorf("select contact %d of user %d: %w", id, owner, err)
	}
	if len(contacts) == 0 {
		return model.Contact{}, ErrNotFound
	}
	return contacts[0], nil
}

// Create inserts a new contact owned by the given user and returns the stored
// record including the newly assigned id. Any id or owner present on the
// submitted contact is overwritten.
func Create(contact model.Contact, owner int64) (model.Contact, error) {
	contact.UserId = owner
	result, err := insert.Exec(&contact)
	if err != nil {
		return model.Contact{}, fmt.Errorf("insert contact for user %d: %w", owner, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, fmt.Errorf("read id of inserted contact: %w", err)
	}
	contact.Id = id
	return contact, nil
}

// Update replaces every mutable field of the contact with the given id owned
// by the given user and returns the new version of the record. This is a full
// replace, not a merge: fields absent from the submitted contact are stored
// as NULL. The write and the follow-up read run in one transaction, and the
// write is conditional on (id, owner) still matching, so a row deleted by a
// concurrent request surfaces as ErrNotFound.
func Update(id int64, contact model.Contact, owner int64) (model.Contact, error) {
	tx, err := db.Beginx()
	if err != nil {
		return model.Contact{}, fmt.Errorf("begin update of contact %d: %w", id, err)
	}
	defer tx.Rollback()

	contact.Id = id
	contact.UserId = owner
	_, err = tx.NamedExec(`
		UPDATE contacts
		SET firstname = :firstname,
			lastname = :lastname,
			email = :email,
			phone = :phone,
			birthday = :birthday,
			address = :address,
			notes = :notes,
			interests = :interests,
			active = :active
		WHERE id = :id AND user_id = :user_id
	`, &contact)
	if err != nil {
		return model.Contact{}, fmt.Errorf("update contact %d of user %d: %w", id, owner, err)
	}

	// Re-read instead of trusting RowsAffected: MySQL reports zero affected
	// rows when the new values equal the old ones.
	var contacts []model.Contact
	err = tx.Select(&contacts, "SELECT * FROM contacts WHERE id = ? AND user_id = ?", id, owner)
	if err != nil {
		return model.Contact{}, fmt.Errorf("re-read contact %d of user %d: %w", id, owner, err)
	}
	if len(contacts) == 0 {
		return model.Contact{}, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return model.Contact{}, fmt.Errorf("commit update of contact %d: %w", id, err)
	}
	return contacts[0], nil
}

// DeleteOwn removes the contact with the given id owned by the given user and
// returns the removed record. Lookup and delete run in one transaction; if
// the row vanishes between the two statements the result is ErrNotFound.
func DeleteOwn(id int64, owner int64) (model.Contact, error) {
	return deleteWhere(id, "id = ? AND user_id = ?", id, owner)
}

// DeleteAny removes the contact with the given id regardless of who owns it
// and returns the removed record. It is reserved for privileged callers; the
// route layer enforces that restriction.
func DeleteAny(id int64) (model.Contact, error) {
	return deleteWhere(id, "id = ?", id)
}

// deleteWhere implements the shared read-then-delete transaction of DeleteOwn
// and DeleteAny.
func deleteWhere(id int64, where string, args ...interface{}) (model.Contact, error) {
	tx, err := db.Beginx()
	if err != nil {
		return model.Contact{}, fmt.Errorf("begin delete of contact %d: %w", id, err)
	}
	defer tx.Rollback()

	var contacts []model.Contact
	err = tx.Select(&contacts, "SELECT * FROM contacts WHERE "+where, args...)
	if err != nil {
		return model.Contact{}, fmt.Errorf("select contact %d for deletion: %w", id, err)
	}
	if len(contacts) == 0 {
		return model.Contact{}, ErrNotFound
	}
	result, err := tx.Exec("DELETE FROM contacts WHERE "+where, args...)
	if err != nil {
		return model.Contact{}, fmt.Errorf("delete contact %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.Contact{}, fmt.Errorf("read affected rows of deletion of contact %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return model.Contact{}, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return model.Contact{}, fmt.Errorf("commit delete of contact %d: %w", id, err)
	}
	return contacts[0], nil
}

// Upcoming returns the contacts of the given user whose birthday falls within
// the window [today, today+days], both ends inclusive, in insertion order
// with limit and offset applied as in ListOwn.
func Upcoming(days int, limit int, offset int, owner int64) ([]model.Contact, error) {
	return UpcomingFrom(time.Now(), days, limit, offset, owner)
}

// UpcomingFrom is Upcoming with an explicit window start, so that tests can
// pin the current date.
//
// Birthdays are compared by month and day only: a window is a pair of 'MM-DD'
// boundaries matched against DATE_FORMAT(birthday, '%m-%d'), which compares
// correctly as strings. Comparing full dates instead would silently exclude
// every birthday whose year lies before the window. When the window crosses
// the turn of the year (e.g. Dec 27 plus 10 days) the membership test becomes
// a disjunction of the two partial ranges.
func UpcomingFrom(today time.Time, days int, limit int, offset int, owner int64) ([]model.Contact, error) {
	if err := checkPage(limit, offset); err != nil {
		return nil, err
	}
	if days < 1 || days > 365 {
		return nil, fmt.Errorf("days %d outside [1, 365]", days)
	}
	end := today.AddDate(0, 0, days)
	startEdge := today.Format("01-02")
	endEdge := end.Format("01-02")
	contacts := []model.Contact{}
	var err error
	if end.Year() > today.Year() {
		err = db.Select(&contacts, `
			SELECT *
			FROM contacts
			WHERE user_id = ?
				AND (DATE_FORMAT(birthday, '%m-%d') >= ? OR DATE_FORMAT(birthday, '%m-%d') <= ?)
			ORDER BY id
			LIMIT ?
			OFFSET ?`, owner, startEdge, endEdge, limit, offset)
	} else {
		err = db.Select(&contacts, `
			SELECT *
			FROM contacts
			WHERE user_id = ?
				AND DATE_FORMAT(birthday, '%m-%d') BETWEEN ? AND ?
			ORDER BY id
			LIMIT ?
			OFFSET ?`, owner, startEdge, endEdge, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list upcoming birthdays of user %d: %w", owner, err)
	}
	return contacts, nil
}
