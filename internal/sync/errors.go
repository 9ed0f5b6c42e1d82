package sync

import "errors"

// Errors returned by engine operations.
//
// Guard rejections are expected and user-facing; they can be checked
// with errors.Is or IsGuardRejection:
//
//	if errors.Is(err, sync.ErrNoChange) {
//	    // nothing to push
//	}
var (
	// ErrWontClobber is returned when pushing content to a post whose id
	// is below the blog's minimum post id.
	ErrWontClobber = errors.New("won't clobber")

	// ErrNoChange is returned when the rendered content matches what was
	// last pushed and the push was not forced.
	ErrNoChange = errors.New("no change in rendered content; use --force?")

	// ErrNoEditor is returned by Edit when no editor is configured.
	ErrNoEditor = errors.New(`edit: no editor configured (set "editor" or EDITOR)`)

	// ErrTitleRequired is returned when creating a post without a title.
	ErrTitleRequired = errors.New("title is required")

	// ErrNothingToChange is returned by Update when no field is set.
	ErrNothingToChange = errors.New("nothing to change")

	// ErrNotUpdated is returned when the site reports that an edit did not
	// apply.
	ErrNotUpdated = errors.New("not updated")

	// ErrPartialCreate is returned when a post was created remotely but the
	// local registry or content store could not be set up. The remote post
	// is not rolled back; pulling the reported id repairs local state.
	ErrPartialCreate = errors.New("post created remotely but local setup failed")
)

// IsGuardRejection returns true if the error is an expected refusal that
// will not succeed on retry without changed input.
func IsGuardRejection(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrWontClobber) ||
		errors.Is(err, ErrNoChange) ||
		errors.Is(err, ErrNoEditor)
}
