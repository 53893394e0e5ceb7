// Package postgres holds the pgx-backed stores. Every repository is built over
// a database.Querier so the same code runs against the pool or inside a
// serializable transaction.
package postgres

import (
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/service"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
)

// Repositories satisfies service.RepositoryFactory.
func Repositories(q database.Querier) service.Repositories {
	return service.Repositories{
		Users:              NewUserRepository(q),
		Documents:          NewDocumentRepository(q),
		MedicalLeaves:      NewMedicalLeaveRepository(q),
		ProfileChanges:     NewProfileChangeRepository(q),
		SportRegistrations: NewSportRegistrationRepository(q),
	}
}
