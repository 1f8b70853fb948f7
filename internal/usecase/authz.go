package usecase

import (
	"fmt"
	"strings"
)

// authorizeUser checks that the session identity owns userID. An empty
// target defaults to the caller.
func authorizeUser(actorUserID, userID string) (string, error) {
	actorUserID = strings.TrimSpace(actorUserID)
	userID = strings.TrimSpace(userID)
	if actorUserID == "" {
		return "", ErrUnauthorized
	}
	if userID == "" {
		return actorUserID, nil
	}
	if userID != actorUserID {
		return "", fmt.Errorf("%w: user_id does not match session", ErrForbidden)
	}
	return userID, nil
}
