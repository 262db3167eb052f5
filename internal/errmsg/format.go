// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"

	"github.com/llehouerou/rollen/internal/gateway"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Account operations
	OpLogin         Op = "log in"
	OpRegister      Op = "register"
	OpLogout        Op = "log out"
	OpProfileLoad   Op = "load profile"
	OpProfileUpdate Op = "update profile"

	// Catalog operations
	OpCatalogLoad Op = "load songs"
	OpSearch      Op = "search songs"
	OpUpload      Op = "upload song"

	// Like operations
	OpLike   Op = "like song"
	OpUnlike Op = "unlike song"

	// Playlist operations
	OpPlaylistLoad   Op = "load playlist"
	OpPlaylistCreate Op = "create playlist"

	// Comment operations
	OpCommentsLoad Op = "load comments"
	OpCommentAdd   Op = "add comment"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %s", op, describe(err))
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %s", op, context, describe(err))
}

// describe shortens gateway failures to the status and server message.
func describe(err error) string {
	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Message == "" {
			return fmt.Sprintf("server returned %d", httpErr.Status)
		}
		return fmt.Sprintf("server returned %d (%s)", httpErr.Status, httpErr.Message)
	}
	return err.Error()
}
