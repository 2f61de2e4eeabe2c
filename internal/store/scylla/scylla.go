// Package scylla implémente le Store de la marketplace sur ScyllaDB.
// Les garanties d'atomicité passent par les LWT : compare-and-swap sur le
// stock (`IF quantity = ?`), unicité des avis (`INSERT ... IF NOT EXISTS`) et
// transitions de statut conditionnelles (`IF status = ?`).
package scylla

import (
	"github.com/gocql/gocql"
)

const (
	// nombre de rejeux d'un CAS de stock avant d'abandonner
	casRetries = 8
)

type Store struct {
	users  *gocql.Session // keyspace ks_users
	market *gocql.Session // keyspace ks_market
}

func New(users, market *gocql.Session) *Store {
	return &Store{users: users, market: market}
}
