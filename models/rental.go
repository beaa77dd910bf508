package models

import (
	"database/sql"
	"strconv"
	"time"
)

// TimestampLayout is how timestamps are written to CSV
const TimestampLayout = "2006-01-02 15:04:05"

// RentalRecord is one row of the denormalized Sakila export: a payment for a
// rental, joined with the film, actor, customer, store, staff, address and
// category it belongs to
type RentalRecord struct {
	FilmID          int64          `db:"film_id"`
	Title           string         `db:"title"`
	Description     sql.NullString `db:"description"`
	ReleaseYear     sql.NullInt64  `db:"release_year"`
	LanguageID      int64          `db:"language_id"`
	RentalDuration  int64          `db:"rental_duration"`
	RentalRate      float64        `db:"rental_rate"`
	Length          sql.NullInt64  `db:"length"`
	ReplacementCost float64        `db:"replacement_cost"`
	Rating          sql.NullString `db:"rating"`
	ActorID         int64          `db:"actor_id"`
	ActorFirstName  string         `db:"actor_fn"`
	ActorLastName   string         `db:"actor_ln"`
	CustomerID      int64          `db:"customer_id"`
	CustomerFirst   string         `db:"cust_fn"`
	CustomerLast    string         `db:"cust_ln"`
	Email           sql.NullString `db:"email"`
	Active          int64          `db:"active"`
	RentalID        int64          `db:"rental_id"`
	RentalDate      time.Time      `db:"rental_date"`
	ReturnDate      sql.NullTime   `db:"return_date"`
	PaymentID       int64          `db:"payment_id"`
	Amount          float64        `db:"amount"`
	PaymentDate     time.Time      `db:"payment_date"`
	InventoryID     int64          `db:"inventory_id"`
	StoreID         int64          `db:"store_id"`
	ManagerStaffID  int64          `db:"manager_staff_id"`
	StaffID         int64          `db:"staff_id"`
	StaffFirstName  string         `db:"staff_fn"`
	StaffLastName   string         `db:"staff_ln"`
	AddressID       int64          `db:"address_id"`
	Address         string         `db:"address"`
	Address2        sql.NullString `db:"address2"`
	District        string         `db:"district"`
	PostalCode      sql.NullString `db:"postal_code"`
	CityID          int64          `db:"city_id"`
	City            string         `db:"city"`
	CountryID       int64          `db:"country_id"`
	Country         string         `db:"country"`
	CategoryID      int64          `db:"category_id"`
	Category        string         `db:"category"`
	Language        string         `db:"language"`
	FilmCategoryID  int64          `db:"film_category_id"`
	FilmActorID     int64          `db:"film_actor_id"`
}

// RentalColumns lists the export columns in order; names match the db tags
var RentalColumns = []string{
	"film_id", "title", "description", "release_year", "language_id", "rental_duration",
	"rental_rate", "length", "replacement_cost", "rating",
	"actor_id", "actor_fn", "actor_ln",
	"customer_id", "cust_fn", "cust_ln", "email", "active",
	"rental_id", "rental_date", "return_date",
	"payment_id", "amount", "payment_date",
	"inventory_id",
	"store_id", "manager_staff_id",
	"staff_id", "staff_fn", "staff_ln",
	"address_id", "address", "address2", "district", "postal_code",
	"city_id", "city",
	"country_id", "country",
	"category_id", "category",
	"language",
	"film_category_id",
	"film_actor_id",
}

// Record renders the row as strings in RentalColumns order. NULLs become "".
func (r *RentalRecord) Record() []string {
	return []string{
		itoa(r.FilmID), r.Title, nullString(r.Description), nullInt(r.ReleaseYear), itoa(r.LanguageID), itoa(r.RentalDuration),
		ftoa(r.RentalRate), nullInt(r.Length), ftoa(r.ReplacementCost), nullString(r.Rating),
		itoa(r.ActorID), r.ActorFirstName, r.ActorLastName,
		itoa(r.CustomerID), r.CustomerFirst, r.CustomerLast, nullString(r.Email), itoa(r.Active),
		itoa(r.RentalID), r.RentalDate.Format(TimestampLayout), nullTime(r.ReturnDate),
		itoa(r.PaymentID), ftoa(r.Amount), r.PaymentDate.Format(TimestampLayout),
		itoa(r.InventoryID),
		itoa(r.StoreID), itoa(r.ManagerStaffID),
		itoa(r.StaffID), r.StaffFirstName, r.StaffLastName,
		itoa(r.AddressID), r.Address, nullString(r.Address2), r.District, nullString(r.PostalCode),
		itoa(r.CityID), r.City,
		itoa(r.CountryID), r.Country,
		itoa(r.CategoryID), r.Category,
		r.Language,
		itoa(r.FilmCategoryID),
		itoa(r.FilmActorID),
	}
}

func itoa(v int64) string   { return strconv.FormatInt(v, 10) }
func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func nullString(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return itoa(v.Int64)
}

func nullTime(v sql.NullTime) string {
	if !v.Valid {
		return ""
	}
	return v.Time.Format(TimestampLayout)
}
