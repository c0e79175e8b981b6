package services

import "errors"

// Error taxonomy shared by the write paths. Read-model queries degrade to
// empty results instead of surfacing these; writes always propagate them.
var (
	// ErrInvalidArgument flags malformed or out-of-range input, such as a
	// score outside [1,5] or a project the employee does not belong to.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound flags a missing evaluation, user or project id.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized flags a caller with no resolvable identity where one is
	// mandatory (e.g. an anonymous principal on a submit path).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden flags a resolved identity lacking project-based
	// authorization to grade or delete.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicateEvaluation flags a submission for a period key that already
	// has an evaluation; the existing record is returned alongside it.
	ErrDuplicateEvaluation = errors.New("evaluation already exists for this period")
)
