// Package models defines the exeraser domain types: the search profile, scan
// candidates, vault items and cooling-off records, together with the tagged
// enums that keep their states explicit.
package models
