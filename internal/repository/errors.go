package repository

import "errors"

// Common repository errors
var (
	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrBoardNotFound is returned when a board is not found
	ErrBoardNotFound = errors.New("board not found")

	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrMemberNotFound is returned when a user has no membership in a project
	ErrMemberNotFound = errors.New("member not found in project")

	// ErrMemberAlreadyExists is returned when adding a user who is already a member
	ErrMemberAlreadyExists = errors.New("user is already a member of this project")

	// ErrLastOwner is returned when a mutation would leave a project with no owner
	ErrLastOwner = errors.New("cannot remove the last owner of the project")

	// ErrSameRole is returned when a role change targets the role the member already has
	ErrSameRole = errors.New("member already has this role")

	// ErrProjectLimit is returned when a user has reached the configured project maximum
	ErrProjectLimit = errors.New("maximum number of projects reached")
)
