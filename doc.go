// Package main is the entry point of RefractoryERP, the back office of a refractory plant.
// It serves the user, role and permission administration and the equipment catalogue
// over a fiber web service backed by gorm.
package main
