package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
)

// scoped narrows a query to the rows a list scope allows.
func scoped(db *gorm.DB, scope authz.Scope, ownerColumn string) *gorm.DB {
	if scope.OwnerID != 0 {
		db = db.Where(ownerColumn+" = ?", scope.OwnerID)
	}
	if scope.ActiveOnly {
		db = db.Where("jobs.is_active = ?", true)
	}
	return db
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal("failed to load record", err)
}

// writeError maps storage constraint failures onto the taxonomy. The unique
// index is the authority; pre-checks only improve the message.
func writeError(err error, conflictCode, conflictMessage string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(conflictCode, conflictMessage, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Validation("referenced record does not exist", nil)
	default:
		return apperr.Internal("failed to write record", err)
	}
}

func validationField(field, message string) error {
	return apperr.Validation("invalid request", map[string]string{field: message})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches term anywhere, with LIKE wildcards in term taken
// literally. Use it with ESCAPE '\'.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
