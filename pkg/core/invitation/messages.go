package invitation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LENAX/grocery-core/pkg/store"
)

const (
	MessageExpired         = "This invitation has expired"
	MessageAcceptFailed    = "Failed to accept invitation"
	MessageUnauthenticated = "Set your name to accept invites. Open Join Shared List."
	MessageUnexpected      = "Something went wrong. Please try again."

	defaultListName = "grocery list"

	// 存储返回的未认证原因中包含的固定文本
	unauthenticatedMarker = "User not authenticated"
)

// successMessage 接受成功的横幅文本
func successMessage(listName string) string {
	if listName == "" {
		listName = defaultListName
	}
	return fmt.Sprintf("Successfully joined \"%s\"!", listName)
}

// failureMessage 将业务失败原因转换为横幅文本
func failureMessage(reason string) (string, Outcome) {
	if isUnauthenticated(reason, nil) {
		return MessageUnauthenticated, OutcomeUnauthenticated
	}
	if strings.TrimSpace(reason) == "" {
		return MessageAcceptFailed, OutcomeRejected
	}
	return reason, OutcomeRejected
}

func isUnauthenticated(reason string, err error) bool {
	if err != nil && errors.Is(err, store.ErrNotAuthenticated) {
		return true
	}
	return strings.Contains(reason, unauthenticatedMarker)
}
