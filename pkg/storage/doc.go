// Package storage provides persistent storage for generated plans.
// It uses BadgerDB as the embedded database and stores values as JSON under string keys.
package storage
