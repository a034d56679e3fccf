// Package models contains GORM persistence models that map to database tables.
// They are kept separate from domain entities so the domain stays free of ORM
// tags; each model converts to and from its domain type with ToDomain and a
// FromDomain constructor.
package models
